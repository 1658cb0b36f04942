package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sp3dr4/shortlink/internal/domain"
	"github.com/sp3dr4/shortlink/internal/pkg/logging"
	"github.com/sp3dr4/shortlink/internal/pkg/urlnorm"
)

// insertRounds is how many times a generated code may be allocated: the
// first try plus one retry after losing an insert race.
const insertRounds = 2

// maxExpiryHours is the largest expiry that fits in a time.Duration.
var maxExpiryHours = float64(math.MaxInt64 / int64(time.Hour))

// CreateLinkRequest is the input of CreateLink. An empty Code asks for a
// generated one; a nil ExpiryHours means the link never expires.
type CreateLinkRequest struct {
	URL         string
	Code        string
	ExpiryHours *float64
}

// CreateLink normalizes the URL, allocates a code and stores the link.
func (s *LinkService) CreateLink(ctx context.Context, req CreateLinkRequest) (*domain.Link, error) {
	logger := logging.FromContext(ctx)

	originalURL, err := urlnorm.Normalize(req.URL)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	expiresAt := ExpiresAt(now, req.ExpiryHours)

	for round := 1; round <= insertRounds; round++ {
		code, err := s.allocateCode(ctx, req.Code)
		if err != nil {
			return nil, err
		}

		link, err := domain.NewLink(code, originalURL, now, expiresAt)
		if err != nil {
			return nil, err
		}

		created, err := s.repo.Create(ctx, link)
		if err == nil {
			logger.Info("Link created",
				"code", created.Code,
				"original_url", created.OriginalURL,
				"custom", req.Code != "",
				"expires_at", created.ExpiresAt,
			)
			return created, nil
		}

		if !errors.Is(err, domain.ErrCodeConflict) {
			return nil, fmt.Errorf("store link: %w", err)
		}
		if req.Code != "" {
			return nil, domain.ErrCodeTaken
		}
		logger.Warn("Generated code lost an insert race", "code", code, "round", round)
	}

	return nil, domain.ErrCodeSpaceExhausted
}

// allocateCode returns a code that was free when checked. Custom codes are
// validated and checked once; generated codes are redrawn up to maxAttempts.
func (s *LinkService) allocateCode(ctx context.Context, custom string) (string, error) {
	if custom != "" {
		if err := s.generator.ValidateCustom(custom); err != nil {
			return "", err
		}

		taken, err := s.repo.ExistsByCode(ctx, custom)
		if err != nil {
			return "", fmt.Errorf("check code: %w", err)
		}
		if taken {
			return "", domain.ErrCodeTaken
		}
		return custom, nil
	}

	logger := logging.FromContext(ctx)
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := s.generator.Generate()
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}

		taken, err := s.repo.ExistsByCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check code: %w", err)
		}
		if !taken {
			return code, nil
		}
		logger.Debug("Generated code already in use", "code", code, "attempt", attempt)
	}

	logger.Error("Code generation retry budget exhausted", "attempts", s.maxAttempts)
	return "", domain.ErrCodeSpaceExhausted
}

// ExpiresAt turns an expiry in hours into an absolute time. Missing,
// non-positive, NaN and out of range values mean no expiry.
func ExpiresAt(now time.Time, hours *float64) *time.Time {
	if hours == nil {
		return nil
	}
	h := *hours
	if math.IsNaN(h) || h <= 0 || h > maxExpiryHours {
		return nil
	}

	exp := now.Add(time.Duration(h * float64(time.Hour))).UTC()
	return &exp
}
