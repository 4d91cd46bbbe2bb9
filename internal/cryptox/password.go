package cryptox

import (
	"fmt"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/bitguard/internal/common"
)

// MinPasswordSealedSize is a salt followed by the smallest envelope.
const MinPasswordSealedSize = SaltSize + MinEnvelopeSize

// SealWithPassword encrypts plaintext under a key derived from password and
// a fresh salt. The output is salt[16] || nonce[12] || ciphertext || tag[16].
// No server-side key is involved, so whoever holds the password is the only
// party able to open it.
func SealWithPassword(plaintext, password []byte, p KdfParams) ([]byte, error) {
	salt, err := NewSalt()
	if err != nil {
		return nil, err
	}

	key, err := p.Derive(password, salt)
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(key)

	envelope, err := Seal(plaintext, key)
	if err != nil {
		return nil, fmt.Errorf("seal: %w", err)
	}

	out := make([]byte, 0, len(salt)+len(envelope))
	out = append(out, salt...)
	return append(out, envelope...), nil
}

// OpenWithPassword reverses SealWithPassword. A wrong password surfaces as
// ErrAuthenticationFailure, exactly like a tampered envelope.
func OpenWithPassword(sealed, password []byte, p KdfParams) ([]byte, error) {
	if len(sealed) < MinPasswordSealedSize {
		return nil, common.ErrMalformedEnvelope
	}

	key, err := p.Derive(password, sealed[:SaltSize])
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(key)

	return Open(sealed[SaltSize:], key)
}
