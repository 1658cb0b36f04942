// Package shortcode generates random short codes and validates custom ones.
package shortcode

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/go-playground/validator/v10"

	"github.com/sp3dr4/shortlink/internal/domain"
)

const (
	// Alphabet is the base62 character set of generated codes.
	Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	DefaultLength   = 7
	MaxCustomLength = 16
)

// customCodeRule is ASCII letters and digits only, 1 to 16 characters.
var customCodeRule = fmt.Sprintf("required,alphanum,min=1,max=%d", MaxCustomLength)

var validate = validator.New()

// Generator draws random codes of a fixed length.
type Generator struct {
	length int
}

// NewGenerator returns a generator for codes of the given length,
// falling back to DefaultLength when length is not positive.
func NewGenerator(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{length: length}
}

func (g *Generator) Generate() (string, error) {
	return GenerateRandom(g.length)
}

func (g *Generator) ValidateCustom(code string) error {
	return ValidateCustom(code)
}

// GenerateRandom draws n characters independently and uniformly from
// Alphabet using crypto/rand.
func GenerateRandom(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}

	out := make([]byte, n)
	max := big.NewInt(int64(len(Alphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random source: %w", err)
		}
		out[i] = Alphabet[idx.Int64()]
	}
	return string(out), nil
}

// ValidateCustom checks the charset and length of a user supplied code.
// It does not check whether the code is already taken.
func ValidateCustom(code string) error {
	if err := validate.Var(code, customCodeRule); err != nil {
		return domain.ErrInvalidCode
	}
	return nil
}
