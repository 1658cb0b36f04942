package http

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sp3dr4/shortlink/config"
	httpAdapter "github.com/sp3dr4/shortlink/internal/adapters/http"
	"github.com/sp3dr4/shortlink/internal/application"
	"github.com/sp3dr4/shortlink/internal/domain"
	"github.com/sp3dr4/shortlink/internal/pkg/metrics"
	"github.com/sp3dr4/shortlink/internal/server"
)

// ProvideHTTPServer creates the API server on server.port
func ProvideHTTPServer(cfg *config.Config, router chi.Router, logger *slog.Logger) server.Server {
	return server.NewHTTP(":"+cfg.Server.Port, router, server.Timeouts{
		Read:  cfg.Server.ReadTimeout,
		Write: cfg.Server.WriteTimeout,
		Idle:  cfg.Server.IdleTimeout,
	}, logger)
}

// ProvideHandlers creates HTTP handlers with proper dependencies
func ProvideHandlers(
	service *application.LinkService,
	cfg *config.Config,
	repo domain.LinkRepository,
	metricsRegistry metrics.Registry,
	logger *slog.Logger,
) *httpAdapter.Handlers {
	return httpAdapter.NewHandlers(service, cfg.App.BaseURL, repo, metricsRegistry, LoadDisplayLocation(cfg.App.DisplayTimezone, logger))
}

// LoadDisplayLocation resolves the zone used for the *_local stats fields,
// falling back to UTC when the name is unknown
func LoadDisplayLocation(name string, logger *slog.Logger) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn("Unknown display timezone, using UTC", "timezone", name, "error", err)
		return time.UTC
	}
	return loc
}
