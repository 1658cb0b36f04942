package urlnorm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sp3dr4/shortlink/internal/domain"
)

func TestNormalize_KeepsWellFormedURLs(t *testing.T) {
	inputs := []string{
		"http://example.com",
		"https://example.com/path/?b=2&a=1",
		"HTTPS://Example.com/",
		"http://example.com/a%2Fb#frag",
		"https://user:pw@example.com:8443/x",
		"http://example.com/a%zz",
		"http://example.com:abc/",
		"https://example.com/search?q=50%",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got, err := Normalize(in)
			require.NoError(t, err)
			assert.Equal(t, in, got)

			again, err := Normalize(got)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestNormalize_TrimsWhitespace(t *testing.T) {
	got, err := Normalize("  \thttps://example.com/x \n")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/x", got)
}

func TestNormalize_AddsDefaultScheme(t *testing.T) {
	inputs := []string{
		"example.com",
		"example.com/path?q=1",
		"sub.example.co.uk:8080",
		"  example.com  ",
		"example.com/100%",
		"example.com:abc/",
		"example.com?next=/a%zz",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got, err := Normalize(in)
			require.NoError(t, err)
			assert.Equal(t, "http://"+strings.TrimSpace(in), got)
		})
	}
}

func TestNormalize_RejectsMissingHost(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"http://",
		"https://",
		"https:///path-only",
		"/relative/path",
		"http://?q=1",
		"https://#frag",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := Normalize(in)
			assert.ErrorIs(t, err, domain.ErrInvalidURL)
		})
	}
}

func TestAuthority(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "http://example.com", want: "example.com"},
		{in: "http://example.com:abc/x", want: "example.com:abc"},
		{in: "https://user@host?x=1", want: "user@host"},
		{in: "http://host#top", want: "host"},
		{in: "http:///path", want: ""},
		{in: "example.com", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, authority(tt.in))
		})
	}
}
