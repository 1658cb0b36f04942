package http

import (
	"go.uber.org/fx"

	httpAdapter "github.com/sp3dr4/shortlink/internal/adapters/http"
)

// HTTPModule provides the link API handlers, router and server
var HTTPModule = fx.Module("http",
	fx.Provide(
		ProvideHandlers,
		httpAdapter.NewRouter,
		ProvideHTTPServer,
	),
)

// HTTPLifecycleModule starts and stops the link API server
var HTTPLifecycleModule = fx.Module("http-lifecycle",
	fx.Invoke(RegisterHTTPServerHooks),
)
