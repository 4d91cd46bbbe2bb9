// Package passgen generates random passwords for new credentials.
package passgen

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

const (
	MinLength     = 8
	DefaultLength = 24
	MaxLength     = 512

	letters     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits      = "0123456789"
	punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

	Alphabet = letters + digits + punctuation
)

var ErrPasswordTooShort = errors.New("password too short")

// Generate returns a password of length characters drawn uniformly from
// Alphabet with crypto/rand.
func Generate(length int) (string, error) {
	if length < MinLength {
		return "", fmt.Errorf("%w: length must be at least %d", ErrPasswordTooShort, MinLength)
	}
	if length > MaxLength {
		return "", fmt.Errorf("length must be at most %d", MaxLength)
	}

	limit := big.NewInt(int64(len(Alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("random source: %w", err)
		}
		out[i] = Alphabet[n.Int64()]
	}
	return string(out), nil
}
