package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sp3dr4/shortlink/internal/domain"
)

func newLink(code string, createdAt time.Time) *domain.Link {
	return &domain.Link{
		Code:        code,
		OriginalURL: "https://example.com/" + code,
		CreatedAt:   createdAt,
	}
}

func TestMemoryRepository_Create(t *testing.T) {
	repo := NewLinkRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, newLink("test123", time.Now().UTC()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected an ID to be assigned")
	}

	// Try to create duplicate
	_, err = repo.Create(ctx, newLink("test123", time.Now().UTC()))
	if err != domain.ErrCodeConflict {
		t.Fatalf("expected ErrCodeConflict, got %v", err)
	}

	// Codes are case sensitive
	if _, err := repo.Create(ctx, newLink("TEST123", time.Now().UTC())); err != nil {
		t.Fatalf("unexpected error for different case: %v", err)
	}
}

func TestMemoryRepository_ConcurrentCreateSameCode(t *testing.T) {
	repo := NewLinkRepository()
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, newLink("race", time.Now().UTC()))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		switch err {
		case nil:
			successes++
		case domain.ErrCodeConflict:
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one successful insert, got %d", successes)
	}
}

func TestMemoryRepository_FindByCode(t *testing.T) {
	repo := NewLinkRepository()
	ctx := context.Background()

	if _, err := repo.Create(ctx, newLink("test123", time.Now().UTC())); err != nil {
		t.Fatalf("failed to create link: %v", err)
	}

	// Find existing
	found, err := repo.FindByCode(ctx, "test123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.OriginalURL != "https://example.com/test123" {
		t.Fatalf("unexpected original url %s", found.OriginalURL)
	}

	// Mutating the result must not leak into the store
	found.Clicks = 99
	again, _ := repo.FindByCode(ctx, "test123")
	if again.Clicks != 0 {
		t.Fatalf("expected stored clicks to stay 0, got %d", again.Clicks)
	}

	// Find non-existing
	_, err = repo.FindByCode(ctx, "notfound")
	if err != domain.ErrLinkNotFound {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
}

func TestMemoryRepository_IncrementClicks(t *testing.T) {
	repo := NewLinkRepository()
	ctx := context.Background()

	if _, err := repo.Create(ctx, newLink("test123", time.Now().UTC())); err != nil {
		t.Fatalf("failed to create link: %v", err)
	}

	updated, err := repo.IncrementClicks(ctx, "test123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Clicks != 1 {
		t.Fatalf("expected returned clicks to be 1, got %d", updated.Clicks)
	}

	// Non-existing
	_, err = repo.IncrementClicks(ctx, "notfound")
	if err != domain.ErrLinkNotFound {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
}

func TestMemoryRepository_ConcurrentIncrement(t *testing.T) {
	repo := NewLinkRepository()
	ctx := context.Background()

	if _, err := repo.Create(ctx, newLink("hot", time.Now().UTC())); err != nil {
		t.Fatalf("failed to create link: %v", err)
	}

	const workers, perWorker = 10, 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if _, err := repo.IncrementClicks(ctx, "hot"); err != nil {
					t.Errorf("increment failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	found, _ := repo.FindByCode(ctx, "hot")
	if found.Clicks != workers*perWorker {
		t.Fatalf("expected %d clicks, got %d", workers*perWorker, found.Clicks)
	}
}

func TestMemoryRepository_ExistsByCode(t *testing.T) {
	repo := NewLinkRepository()
	ctx := context.Background()

	if _, err := repo.Create(ctx, newLink("test123", time.Now().UTC())); err != nil {
		t.Fatalf("failed to create link: %v", err)
	}

	exists, err := repo.ExistsByCode(ctx, "test123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Fatal("expected link to exist")
	}

	exists, err = repo.ExistsByCode(ctx, "notfound")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Fatal("expected link to not exist")
	}
}

func TestMemoryRepository_ListRecent(t *testing.T) {
	repo := NewLinkRepository()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		if _, err := repo.Create(ctx, newLink(fmt.Sprintf("code%d", i), base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("failed to create link: %v", err)
		}
	}

	links, err := repo.ListRecent(ctx, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(links) != 3 {
		t.Fatalf("expected 3 links, got %d", len(links))
	}
	for i, want := range []string{"code4", "code3", "code2"} {
		if links[i].Code != want {
			t.Errorf("position %d: expected %s, got %s", i, want, links[i].Code)
		}
	}

	all, _ := repo.ListRecent(ctx, 100)
	if len(all) != 5 {
		t.Fatalf("expected 5 links, got %d", len(all))
	}
}
