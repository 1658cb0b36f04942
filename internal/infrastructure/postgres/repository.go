package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sp3dr4/shortlink/internal/domain"
)

const linkColumns = `id, code, original_url, created_at, expires_at, clicks`

type LinkRepository struct {
	db *sqlx.DB
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// Create inserts the link unless the code already exists. ON CONFLICT makes
// the check and the insert a single statement; an empty RETURNING set means
// another writer owns the code.
func (r *LinkRepository) Create(ctx context.Context, link *domain.Link) (*domain.Link, error) {
	query := `
		INSERT INTO links (code, original_url, created_at, expires_at, clicks)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO NOTHING
		RETURNING ` + linkColumns

	var result domain.Link
	err := r.db.QueryRowxContext(ctx, query, link.Code, link.OriginalURL, link.CreatedAt, link.ExpiresAt, link.Clicks).
		StructScan(&result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCodeConflict
		}
		return nil, r.handlePostgreSQLError(err, "create link")
	}

	slog.Debug("Link created successfully", "code", result.Code, "id", result.ID)
	return normalizeTimes(&result), nil
}

func (r *LinkRepository) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	var link domain.Link
	query := `SELECT ` + linkColumns + ` FROM links WHERE code = $1`

	if err := r.db.GetContext(ctx, &link, query, code); err != nil {
		return nil, r.handlePostgreSQLError(err, "find link by code")
	}

	return normalizeTimes(&link), nil
}

func (r *LinkRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM links WHERE code = $1)`

	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		return false, r.handlePostgreSQLError(err, "check link existence")
	}

	return exists, nil
}

func (r *LinkRepository) IncrementClicks(ctx context.Context, code string) (*domain.Link, error) {
	query := `
		UPDATE links
		SET clicks = clicks + 1
		WHERE code = $1
		RETURNING ` + linkColumns

	var link domain.Link
	if err := r.db.QueryRowxContext(ctx, query, code).StructScan(&link); err != nil {
		return nil, r.handlePostgreSQLError(err, "increment clicks")
	}

	slog.Debug("Clicks incremented", "code", code, "new_count", link.Clicks)
	return normalizeTimes(&link), nil
}

func (r *LinkRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Link, error) {
	links := []*domain.Link{}
	query := `SELECT ` + linkColumns + ` FROM links ORDER BY created_at DESC, id DESC LIMIT $1`

	if err := r.db.SelectContext(ctx, &links, query, limit); err != nil {
		return nil, r.handlePostgreSQLError(err, "list recent links")
	}

	for _, link := range links {
		normalizeTimes(link)
	}
	return links, nil
}

// handlePostgreSQLError converts PostgreSQL-specific errors to domain errors
func (r *LinkRepository) handlePostgreSQLError(err error, operation string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		slog.Error("PostgreSQL error",
			"operation", operation,
			"code", pqErr.Code,
			"message", pqErr.Message,
			"detail", pqErr.Detail,
		)

		switch pqErr.Code {
		case "23505": // unique_violation
			if pqErr.Constraint == "links_code_key" {
				return domain.ErrCodeConflict
			}
			return fmt.Errorf("unique constraint violation: %s", pqErr.Detail)
		case "23502": // not_null_violation
			return fmt.Errorf("required field missing: %s", pqErr.Column)
		case "23514": // check_violation
			return fmt.Errorf("check constraint violation: %s", pqErr.Detail)
		case "08000", "08003", "08006": // connection errors
			return fmt.Errorf("database connection error: %s", pqErr.Message)
		default:
			return fmt.Errorf("database error [%s]: %s", pqErr.Code, pqErr.Message)
		}
	}

	// Handle standard SQL errors
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrLinkNotFound
	}

	return fmt.Errorf("%s: %w", operation, err)
}

// normalizeTimes converts driver timestamps to UTC.
func normalizeTimes(link *domain.Link) *domain.Link {
	link.CreatedAt = link.CreatedAt.UTC()
	if link.ExpiresAt != nil {
		exp := link.ExpiresAt.UTC()
		link.ExpiresAt = &exp
	}
	return link
}

func (r *LinkRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *LinkRepository) HealthCheck(ctx context.Context) error {
	if r.db == nil {
		return errors.New("database connection is nil")
	}
	return r.db.PingContext(ctx)
}
