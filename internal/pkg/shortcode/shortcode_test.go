package shortcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sp3dr4/shortlink/internal/domain"
)

func TestGenerateRandom_LengthAndAlphabet(t *testing.T) {
	for _, n := range []int{1, 5, 7, 16, 64} {
		code, err := GenerateRandom(n)
		require.NoError(t, err)
		assert.Len(t, code, n)

		for _, c := range code {
			if !strings.ContainsRune(Alphabet, c) {
				t.Errorf("code %q contains invalid character %q", code, c)
			}
		}
	}

	code, err := GenerateRandom(0)
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestGenerateRandom_Unique(t *testing.T) {
	const samples = 10000

	seen := make(map[string]struct{}, samples)
	for i := 0; i < samples; i++ {
		code, err := GenerateRandom(DefaultLength)
		require.NoError(t, err)
		seen[code] = struct{}{}
	}

	// 62^7 codes: a collision in 10k draws has probability around 1.4e-5.
	assert.GreaterOrEqual(t, len(seen), samples-1)
}

func TestGenerateRandom_UsesWholeAlphabet(t *testing.T) {
	code, err := GenerateRandom(20000)
	require.NoError(t, err)

	for _, c := range Alphabet {
		assert.Contains(t, code, string(c))
	}
}

func TestGenerator(t *testing.T) {
	code, err := NewGenerator(0).Generate()
	require.NoError(t, err)
	assert.Len(t, code, DefaultLength)

	code, err = NewGenerator(10).Generate()
	require.NoError(t, err)
	assert.Len(t, code, 10)
}

func TestValidateCustom(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		valid bool
	}{
		{"single char", "a", true},
		{"digits", "12345", true},
		{"mixed case", "Promo1", true},
		{"max length", strings.Repeat("Z", 16), true},
		{"empty", "", false},
		{"too long", strings.Repeat("a", 17), false},
		{"dash", "my-code", false},
		{"underscore", "my_code", false},
		{"space", "my code", false},
		{"leading space", " code", false},
		{"punctuation", "code!", false},
		{"slash", "a/b", false},
		{"non ascii letter", "café", false},
		{"non ascii digit", "١٢٣", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCustom(tt.code)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrInvalidCode)
			}
		})
	}
}
