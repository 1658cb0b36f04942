package fx

import (
	"log/slog"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	httpFX "github.com/sp3dr4/shortlink/internal/fx/http"
)

// HTTPServerModules combines all modules needed for HTTP server entrypoint
var HTTPServerModules = fx.Options(
	CoreModules,
	httpFX.HTTPModule,
	httpFX.HTTPLifecycleModule,
)

// NewHTTPServerApp builds the link API application with fx events routed
// through the application logger.
func NewHTTPServerApp(extra ...fx.Option) *fx.App {
	opts := []fx.Option{
		HTTPServerModules,
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With("component", "fx")}
		}),
	}
	return fx.New(append(opts, extra...)...)
}
