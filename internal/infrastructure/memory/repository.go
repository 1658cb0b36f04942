package memory

import (
	"context"
	"sync"

	"github.com/sp3dr4/shortlink/internal/domain"
)

// LinkRepository keeps links in process memory. It is meant for tests and
// local runs; records are lost on restart.
type LinkRepository struct {
	links  map[string]*domain.Link
	nextID int64
	mu     sync.RWMutex
}

func NewLinkRepository() *LinkRepository {
	return &LinkRepository{
		links: make(map[string]*domain.Link),
	}
}

func (r *LinkRepository) Create(_ context.Context, link *domain.Link) (*domain.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.links[link.Code]; exists {
		return nil, domain.ErrCodeConflict
	}

	r.nextID++
	stored := copyLink(link)
	stored.ID = r.nextID

	r.links[stored.Code] = stored
	return copyLink(stored), nil
}

func (r *LinkRepository) FindByCode(_ context.Context, code string) (*domain.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	link, exists := r.links[code]
	if !exists {
		return nil, domain.ErrLinkNotFound
	}

	return copyLink(link), nil
}

func (r *LinkRepository) ExistsByCode(_ context.Context, code string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.links[code]
	return exists, nil
}

func (r *LinkRepository) IncrementClicks(_ context.Context, code string) (*domain.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, exists := r.links[code]
	if !exists {
		return nil, domain.ErrLinkNotFound
	}

	link.Clicks++
	return copyLink(link), nil
}

func (r *LinkRepository) ListRecent(_ context.Context, limit int) ([]*domain.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	links := make([]*domain.Link, 0, len(r.links))
	for _, link := range r.links {
		links = append(links, copyLink(link))
	}

	domain.SortRecent(links)

	if limit >= 0 && len(links) > limit {
		links = links[:limit]
	}
	return links, nil
}

func (r *LinkRepository) Close() error {
	return nil
}

func (r *LinkRepository) HealthCheck(_ context.Context) error {
	return nil
}

// copyLink detaches callers from the stored record.
func copyLink(l *domain.Link) *domain.Link {
	c := *l
	if l.ExpiresAt != nil {
		exp := *l.ExpiresAt
		c.ExpiresAt = &exp
	}
	return &c
}
