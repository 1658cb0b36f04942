package application

import (
	"context"
	"time"

	"github.com/sp3dr4/shortlink/internal/domain"
)

const (
	DefaultMaxGenerateAttempts = 10
	DefaultRecentLimit         = 10
	MaxRecentLimit             = 100
)

// CodeGenerator produces random codes and checks user supplied ones.
type CodeGenerator interface {
	Generate() (string, error)
	ValidateCustom(code string) error
}

// Options tunes LinkService. Zero values select the defaults.
type Options struct {
	MaxGenerateAttempts int
	RecentLimit         int
}

// LinkService creates links and resolves codes against a LinkRepository.
// It holds no mutable state; the repository is the only source of truth.
type LinkService struct {
	repo        domain.LinkRepository
	generator   CodeGenerator
	clock       domain.Clock
	maxAttempts int
	recentLimit int
}

func NewLinkService(repo domain.LinkRepository, generator CodeGenerator, clock domain.Clock, opts Options) *LinkService {
	if opts.MaxGenerateAttempts <= 0 {
		opts.MaxGenerateAttempts = DefaultMaxGenerateAttempts
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = DefaultRecentLimit
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}

	return &LinkService{
		repo:        repo,
		generator:   generator,
		clock:       clock,
		maxAttempts: opts.MaxGenerateAttempts,
		recentLimit: opts.RecentLimit,
	}
}

// GetLink returns the stored link, expired or not.
func (s *LinkService) GetLink(ctx context.Context, code string) (*domain.Link, error) {
	return s.repo.FindByCode(ctx, code)
}

// ListRecentLinks returns the newest links first. A non-positive limit uses
// the configured default and limits above MaxRecentLimit are capped.
func (s *LinkService) ListRecentLinks(ctx context.Context, limit int) ([]*domain.Link, error) {
	if limit <= 0 {
		limit = s.recentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	return s.repo.ListRecent(ctx, limit)
}

// Now exposes the service clock so callers render expiry state consistently.
func (s *LinkService) Now() time.Time {
	return s.clock.Now()
}
