package domain

import "context"

// LinkRepository is the durable link store. Implementations must make
// Create an atomic insert-if-absent and IncrementClicks an atomic
// increment-and-return.
type LinkRepository interface {
	// Create inserts link and returns the stored record with its ID.
	// It returns ErrCodeConflict when the code is already present.
	Create(ctx context.Context, link *Link) (*Link, error)
	FindByCode(ctx context.Context, code string) (*Link, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	IncrementClicks(ctx context.Context, code string) (*Link, error)
	// ListRecent returns at most limit links, newest created_at first.
	ListRecent(ctx context.Context, limit int) ([]*Link, error)
	Close() error
	HealthCheck(ctx context.Context) error
}
