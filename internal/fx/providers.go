package fx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/sp3dr4/shortlink/config"
	"github.com/sp3dr4/shortlink/internal/application"
	"github.com/sp3dr4/shortlink/internal/domain"
	memoryRepo "github.com/sp3dr4/shortlink/internal/infrastructure/memory"
	postgresRepo "github.com/sp3dr4/shortlink/internal/infrastructure/postgres"
	redisRepo "github.com/sp3dr4/shortlink/internal/infrastructure/redis"
	sqliteRepo "github.com/sp3dr4/shortlink/internal/infrastructure/sqlite"
	"github.com/sp3dr4/shortlink/internal/pkg/logging"
	"github.com/sp3dr4/shortlink/internal/pkg/metrics"
	"github.com/sp3dr4/shortlink/internal/pkg/shortcode"
	"github.com/sp3dr4/shortlink/migrations"
)

// ProvideLogger creates and configures the application logger
func ProvideLogger(cfg *config.Config) *slog.Logger {
	logger := logging.New(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)
	return logger
}

// ProvideRepository creates the link store selected by database.type
func ProvideRepository(cfg *config.Config, logger *slog.Logger) (domain.LinkRepository, error) {
	switch cfg.Database.Type {
	case "", "memory":
		logger.Info("Using in-memory repository")
		return memoryRepo.NewLinkRepository(), nil

	case "sqlite":
		path := cfg.GetDatabaseURL()
		logger.Info("Using SQLite repository", "path", path)

		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}

		db, err := sqlx.Connect(migrations.DriverSQLite, sqliteRepo.DSN(path))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
		}

		if err := migrations.Up(db, migrations.DriverSQLite); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("Migrations completed successfully")

		return sqliteRepo.NewLinkRepository(db), nil

	case "postgres":
		logger.Info("Using PostgreSQL repository")

		db, err := sqlx.Connect(migrations.DriverPostgres, cfg.GetDatabaseURL())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}

		if err := migrations.Up(db, migrations.DriverPostgres); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("Migrations completed successfully")

		return postgresRepo.NewLinkRepository(db), nil

	case "redis":
		logger.Info("Using Redis repository", "addr", cfg.Database.Redis.Addr, "db", cfg.Database.Redis.DB)

		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Database.Redis.Addr,
			Password: cfg.Database.Redis.Password,
			DB:       cfg.Database.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}

		return redisRepo.NewLinkRepository(client, logger), nil

	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
}

// ProvideClock returns the wall clock used for creation and expiry times
func ProvideClock() domain.Clock {
	return domain.SystemClock{}
}

// ProvideCodeGenerator creates the random code generator
func ProvideCodeGenerator(cfg *config.Config) application.CodeGenerator {
	length := cfg.App.ShortCodeLength
	if length <= 0 {
		length = shortcode.DefaultLength
	}
	return shortcode.NewGenerator(length)
}

// ProvideServiceOptions maps app settings onto the link service options
func ProvideServiceOptions(cfg *config.Config) application.Options {
	return application.Options{
		MaxGenerateAttempts: cfg.App.MaxGenerateAttempts,
		RecentLimit:         cfg.App.RecentLimit,
	}
}

// ProvideMetricsRegistry returns a Prometheus registry, or a no-op one when
// metrics are disabled
func ProvideMetricsRegistry(cfg *config.Config, logger *slog.Logger) (metrics.Registry, error) {
	if !cfg.Metrics.Enabled {
		logger.Info("Metrics disabled")
		return metrics.NewNoOpRegistry(), nil
	}

	registry, err := metrics.NewPrometheusRegistry(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics registry: %w", err)
	}
	logger.Info("Metrics enabled", "path", cfg.Metrics.Path)
	return registry, nil
}

// RepositoryParams holds the parameters needed for repository lifecycle management
type RepositoryParams struct {
	fx.In

	Repository domain.LinkRepository
	Logger     *slog.Logger
}

// RegisterRepositoryHooks registers repository lifecycle hooks with FX
func RegisterRepositoryHooks(lc fx.Lifecycle, params RepositoryParams) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := params.Repository.HealthCheck(ctx); err != nil {
				return fmt.Errorf("link store health check failed: %w", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := params.Repository.Close(); err != nil {
				params.Logger.Error("Failed to close repository resources", "error", err)
				return err
			}
			params.Logger.Info("Repository resources closed successfully")
			return nil
		},
	})
}
