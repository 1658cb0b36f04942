package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sp3dr4/shortlink/internal/domain"
	"github.com/sp3dr4/shortlink/migrations"
)

func setupRepository(t *testing.T) *LinkRepository {
	t.Helper()

	path := filepath.Join(t.TempDir(), "links.db")
	db, err := sqlx.Connect(migrations.DriverSQLite, DSN(path))
	require.NoError(t, err)
	require.NoError(t, migrations.Up(db, migrations.DriverSQLite))

	repo := NewLinkRepository(db)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func testLink(code string, createdAt time.Time, expiresAt *time.Time) *domain.Link {
	return &domain.Link{
		Code:        code,
		OriginalURL: "https://example.com/" + code,
		CreatedAt:   createdAt,
		ExpiresAt:   expiresAt,
	}
}

func TestSQLiteRepository_CreateAndFind(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	created := time.Date(2025, 5, 1, 10, 30, 0, 123000000, time.UTC)
	expires := created.Add(90 * time.Minute)

	stored, err := repo.Create(ctx, testLink("abc1234", created, &expires))
	require.NoError(t, err)
	assert.NotZero(t, stored.ID)

	found, err := repo.FindByCode(ctx, "abc1234")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, found.ID)
	assert.Equal(t, "https://example.com/abc1234", found.OriginalURL)
	assert.True(t, found.CreatedAt.Equal(created), "created_at round trip: %v", found.CreatedAt)
	require.NotNil(t, found.ExpiresAt)
	assert.True(t, found.ExpiresAt.Equal(expires), "expires_at round trip: %v", found.ExpiresAt)
	assert.Equal(t, int64(0), found.Clicks)

	noExpiry, err := repo.Create(ctx, testLink("forever", created, nil))
	require.NoError(t, err)
	found, err = repo.FindByCode(ctx, noExpiry.Code)
	require.NoError(t, err)
	assert.Nil(t, found.ExpiresAt)

	_, err = repo.FindByCode(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
}

func TestSQLiteRepository_CreateConflict(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := repo.Create(ctx, testLink("dup", now, nil))
	require.NoError(t, err)

	_, err = repo.Create(ctx, testLink("dup", now, nil))
	assert.ErrorIs(t, err, domain.ErrCodeConflict)

	_, err = repo.Create(ctx, testLink("DUP", now, nil))
	assert.NoError(t, err, "codes are case sensitive")
}

func TestSQLiteRepository_ExistsByCode(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, testLink("here", time.Now().UTC(), nil))
	require.NoError(t, err)

	exists, err := repo.ExistsByCode(ctx, "here")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByCode(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSQLiteRepository_IncrementClicks(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, testLink("clicky", time.Now().UTC(), nil))
	require.NoError(t, err)

	for i := int64(1); i <= 3; i++ {
		link, err := repo.IncrementClicks(ctx, "clicky")
		require.NoError(t, err)
		assert.Equal(t, i, link.Clicks)
	}

	_, err = repo.IncrementClicks(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
}

func TestSQLiteRepository_ConcurrentIncrement(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, testLink("hot", time.Now().UTC(), nil))
	require.NoError(t, err)

	const workers, perWorker = 5, 10
	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if _, err := repo.IncrementClicks(ctx, "hot"); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	link, err := repo.FindByCode(ctx, "hot")
	require.NoError(t, err)
	assert.Equal(t, int64(workers*perWorker), link.Clicks)
}

func TestSQLiteRepository_ListRecent(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := repo.Create(ctx, testLink(fmt.Sprintf("code%d", i), base.Add(time.Duration(i)*time.Second), nil))
		require.NoError(t, err)
	}

	links, err := repo.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, "code4", links[0].Code)
	assert.Equal(t, "code3", links[1].Code)
	assert.Equal(t, "code2", links[2].Code)

	empty := setupRepository(t)
	links, err = empty.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "./data/x.db?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate", DSN("./data/x.db"))
	assert.Equal(t, "file::memory:?cache=shared", DSN("file::memory:?cache=shared"))
}
