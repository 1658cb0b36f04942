package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/sp3dr4/shortlink/internal/domain"
)

const linkColumns = `id, code, original_url, created_at, expires_at, clicks`

type LinkRepository struct {
	db *sqlx.DB
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// DSN appends the connection options the repository relies on to a database
// path: WAL, immediate write transactions and a busy timeout so concurrent
// writers wait for each other.
func DSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"
}

func (r *LinkRepository) Create(ctx context.Context, link *domain.Link) (*domain.Link, error) {
	query := `
		INSERT INTO links (code, original_url, created_at, expires_at, clicks)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, link.Code, link.OriginalURL, link.CreatedAt, link.ExpiresAt, link.Clicks)
	if err != nil {
		return nil, r.handleSQLiteError(err, "create link")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read inserted id: %w", err)
	}

	created := *link
	created.ID = id

	slog.Debug("Link created successfully", "code", created.Code, "id", created.ID)
	return &created, nil
}

func (r *LinkRepository) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	var link domain.Link
	query := `SELECT ` + linkColumns + ` FROM links WHERE code = ?`

	if err := r.db.GetContext(ctx, &link, query, code); err != nil {
		return nil, r.handleSQLiteError(err, "find link by code")
	}

	return &link, nil
}

func (r *LinkRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM links WHERE code = ?)`

	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		return false, r.handleSQLiteError(err, "check link existence")
	}

	return exists, nil
}

// IncrementClicks runs the update and the read back in one write
// transaction so the returned count is the one this call produced.
func (r *LinkRepository) IncrementClicks(ctx context.Context, code string) (*domain.Link, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, r.handleSQLiteError(err, "begin increment clicks")
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `UPDATE links SET clicks = clicks + 1 WHERE code = ?`, code)
	if err != nil {
		return nil, r.handleSQLiteError(err, "increment clicks")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, domain.ErrLinkNotFound
	}

	var link domain.Link
	if err := tx.GetContext(ctx, &link, `SELECT `+linkColumns+` FROM links WHERE code = ?`, code); err != nil {
		return nil, r.handleSQLiteError(err, "read incremented link")
	}

	if err := tx.Commit(); err != nil {
		return nil, r.handleSQLiteError(err, "commit increment clicks")
	}

	slog.Debug("Clicks incremented", "code", code, "new_count", link.Clicks)
	return &link, nil
}

func (r *LinkRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Link, error) {
	links := []*domain.Link{}
	query := `SELECT ` + linkColumns + ` FROM links ORDER BY created_at DESC, id DESC LIMIT ?`

	if err := r.db.SelectContext(ctx, &links, query, limit); err != nil {
		return nil, r.handleSQLiteError(err, "list recent links")
	}

	return links, nil
}

// handleSQLiteError converts SQLite-specific errors to domain errors
func (r *LinkRepository) handleSQLiteError(err error, operation string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrLinkNotFound
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return domain.ErrCodeConflict
		}
		slog.Error("SQLite error",
			"operation", operation,
			"code", int(sqliteErr.Code),
			"extended_code", int(sqliteErr.ExtendedCode),
			"message", sqliteErr.Error(),
		)
	}

	return fmt.Errorf("%s: %w", operation, err)
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
