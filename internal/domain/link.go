package domain

import (
	"errors"
	"slices"
	"time"
)

var (
	ErrInvalidURL         = errors.New("invalid url")
	ErrInvalidCode        = errors.New("invalid custom code")
	ErrCodeTaken          = errors.New("code already exists")
	ErrCodeSpaceExhausted = errors.New("could not allocate a free code")
	ErrLinkNotFound       = errors.New("link not found")
	ErrLinkExpired        = errors.New("link has expired")

	// ErrCodeConflict is returned by a LinkRepository when an insert races
	// with another insert of the same code.
	ErrCodeConflict = errors.New("code conflict on insert")
)

// Link maps a short code to its redirect target.
type Link struct {
	ID          int64      `db:"id" json:"id"`
	Code        string     `db:"code" json:"code"`
	OriginalURL string     `db:"original_url" json:"original_url"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt   *time.Time `db:"expires_at" json:"expires_at"`
	Clicks      int64      `db:"clicks" json:"clicks"`
}

// NewLink builds an unsaved link. createdAt and expiresAt are stored in UTC.
func NewLink(code, originalURL string, createdAt time.Time, expiresAt *time.Time) (*Link, error) {
	if code == "" {
		return nil, ErrInvalidCode
	}
	if originalURL == "" {
		return nil, ErrInvalidURL
	}

	link := &Link{
		Code:        code,
		OriginalURL: originalURL,
		CreatedAt:   createdAt.UTC(),
	}
	if expiresAt != nil {
		exp := expiresAt.UTC()
		link.ExpiresAt = &exp
	}
	return link, nil
}

// IsExpired reports whether the link must no longer be followed at now.
// A link without an expiry never expires.
func (l *Link) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

// SortRecent orders links newest first: created_at descending, then id
// descending, matching the SQL stores' ORDER BY.
func SortRecent(links []*Link) {
	slices.SortFunc(links, func(a, b *Link) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
}
