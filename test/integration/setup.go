package integration

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	postgresContainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	redisContainer "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sp3dr4/shortlink/internal/application"
	"github.com/sp3dr4/shortlink/internal/domain"
	postgresRepo "github.com/sp3dr4/shortlink/internal/infrastructure/postgres"
	redisRepo "github.com/sp3dr4/shortlink/internal/infrastructure/redis"
	"github.com/sp3dr4/shortlink/internal/pkg/shortcode"
	"github.com/sp3dr4/shortlink/migrations"
)

var (
	sharedPostgres *postgresContainer.PostgresContainer
	sharedRedis    *redisContainer.RedisContainer
	sharedDB       *sqlx.DB
	sharedClient   *goredis.Client
	postgresOnce   sync.Once
	redisOnce      sync.Once
	cleanupOnce    sync.Once
)

// Backend is one link store under test together with its service.
type Backend struct {
	Name    string
	Repo    domain.LinkRepository
	Service *application.LinkService
}

// SetupBackends starts the shared containers on first use, empties both
// stores and returns a service per store.
func SetupBackends(t *testing.T) []Backend {
	t.Helper()
	if testing.Short() {
		t.Skip("integration tests need docker")
	}

	pg := setupPostgres(t)
	rd := setupRedis(t)

	return []Backend{
		{Name: "postgres", Repo: pg, Service: newService(pg)},
		{Name: "redis", Repo: rd, Service: newService(rd)},
	}
}

func newService(repo domain.LinkRepository) *application.LinkService {
	return application.NewLinkService(repo, shortcode.NewGenerator(shortcode.DefaultLength), nil, application.Options{})
}

func setupPostgres(t *testing.T) domain.LinkRepository {
	postgresOnce.Do(func() {
		ctx := context.Background()

		container, err := postgresContainer.Run(ctx,
			"postgres:16-alpine",
			postgresContainer.WithDatabase("shortlink_test"),
			postgresContainer.WithUsername("test"),
			postgresContainer.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		if err != nil {
			t.Fatalf("failed to start postgres container: %v", err)
		}
		sharedPostgres = container

		connStr, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			t.Fatalf("failed to get connection string: %v", err)
		}

		db, err := sqlx.Connect(migrations.DriverPostgres, connStr)
		if err != nil {
			t.Fatalf("failed to connect to database: %v", err)
		}
		sharedDB = db

		if err := migrations.Up(db, migrations.DriverPostgres); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	})
	if sharedDB == nil {
		t.Fatal("postgres container is not available")
	}

	if _, err := sharedDB.Exec("TRUNCATE TABLE links RESTART IDENTITY"); err != nil {
		t.Fatalf("failed to clean database: %v", err)
	}

	return postgresRepo.NewLinkRepository(sharedDB)
}

func setupRedis(t *testing.T) domain.LinkRepository {
	redisOnce.Do(func() {
		ctx := context.Background()

		container, err := redisContainer.Run(ctx, "redis:7-alpine")
		if err != nil {
			t.Fatalf("failed to start redis container: %v", err)
		}
		sharedRedis = container

		connStr, err := container.ConnectionString(ctx)
		if err != nil {
			t.Fatalf("failed to get redis connection string: %v", err)
		}

		opts, err := goredis.ParseURL(connStr)
		if err != nil {
			t.Fatalf("failed to parse redis url: %v", err)
		}
		sharedClient = goredis.NewClient(opts)
	})
	if sharedClient == nil {
		t.Fatal("redis container is not available")
	}

	if err := sharedClient.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}

	return redisRepo.NewLinkRepository(sharedClient, slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

// CleanupSharedResources should be called once at the end of all tests
func CleanupSharedResources() {
	cleanupOnce.Do(func() {
		ctx := context.Background()
		if sharedDB != nil {
			_ = sharedDB.Close()
		}
		if sharedClient != nil {
			_ = sharedClient.Close()
		}
		if sharedPostgres != nil {
			_ = sharedPostgres.Terminate(ctx)
		}
		if sharedRedis != nil {
			_ = sharedRedis.Terminate(ctx)
		}
	})
}

// TestMain handles setup and teardown for the entire test suite
func TestMain(m *testing.M) {
	code := m.Run()

	CleanupSharedResources()

	os.Exit(code)
}
