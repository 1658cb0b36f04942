package application

import (
	"context"

	"github.com/sp3dr4/shortlink/internal/domain"
	"github.com/sp3dr4/shortlink/internal/pkg/logging"
)

// ResolveLink returns the redirect target for code and counts the visit.
// The expiry check runs before the increment so expired links never gain
// clicks; they stay stored and readable through GetLink.
func (s *LinkService) ResolveLink(ctx context.Context, code string) (string, error) {
	logger := logging.FromContext(ctx)

	link, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return "", err
	}

	if link.IsExpired(s.clock.Now()) {
		logger.Info("Expired link requested", "code", code, "expires_at", link.ExpiresAt)
		return "", domain.ErrLinkExpired
	}

	updated, err := s.repo.IncrementClicks(ctx, code)
	if err != nil {
		return "", err
	}

	logger.Info("Resolved link", "code", code, "original_url", updated.OriginalURL, "clicks", updated.Clicks)
	return updated.OriginalURL, nil
}
