// Package urlnorm turns user supplied text into a storable absolute URL.
package urlnorm

import (
	"strings"

	"github.com/sp3dr4/shortlink/internal/domain"
)

const defaultScheme = "http://"

// Normalize trims input and prefixes http:// when it does not already start
// with http:// or https:// (any case). The result must have a non-empty
// authority, otherwise domain.ErrInvalidURL is returned. Nothing else is
// rewritten or validated: escapes, ports and paths are kept byte for byte.
func Normalize(input string) (string, error) {
	raw := strings.TrimSpace(input)
	if !hasHTTPScheme(raw) {
		raw = defaultScheme + raw
	}

	if authority(raw) == "" {
		return "", domain.ErrInvalidURL
	}

	return raw, nil
}

func hasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// authority returns the text between "://" and the first '/', '?' or '#'.
func authority(rawURL string) string {
	_, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		return ""
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}
