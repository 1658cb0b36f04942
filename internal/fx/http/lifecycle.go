package http

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/sp3dr4/shortlink/config"
	"github.com/sp3dr4/shortlink/internal/server"
)

// ServerParams holds the parameters needed for HTTP server lifecycle management
type ServerParams struct {
	fx.In

	Server server.Server
	Config *config.Config
	Logger *slog.Logger
}

// RegisterHTTPServerHooks starts the API server after the link store is up
// and drains it on shutdown
func RegisterHTTPServerHooks(lc fx.Lifecycle, params ServerParams) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			attrs := []any{
				"addr", params.Server.Addr(),
				"store", params.Config.Database.Type,
				"base_url", params.Config.App.BaseURL,
				"code_length", params.Config.App.ShortCodeLength,
			}
			if params.Config.Metrics.Enabled {
				attrs = append(attrs, "metrics_path", params.Config.Metrics.Path)
			}
			params.Logger.Info("Starting link API server", attrs...)
			return params.Server.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("Draining link API server")
			if err := params.Server.Stop(ctx); err != nil {
				params.Logger.Error("Failed to shutdown HTTP server", "error", err)
				return err
			}
			params.Logger.Info("Link API server stopped")
			return nil
		},
	})
}
