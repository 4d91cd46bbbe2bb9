// Package cryptox implements the envelope encryption used for every vault
// entry: AES-256-GCM with a fresh random 12-byte nonce per message and no
// associated data. The wire layout is
//
//	nonce[12] || ciphertext || tag[16]
//
// and is base64-encoded at the transport boundary. The layout is shared with
// remote clients (the browser extension) that encrypt with the exported
// master key, so it must not change.
//
// Nonces are random, not counters. Uniqueness is statistical: after about
// 2^32 messages under one key the collision probability stops being
// negligible, which is far beyond the expected size of a personal vault.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/dmitrijs2005/bitguard/internal/common"
)

const (
	KeySize   = 32
	NonceSize = 12
	TagSize   = 16

	// MinEnvelopeSize is an empty plaintext: nonce plus tag.
	MinEnvelopeSize = NonceSize + TagSize
)

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes", common.ErrorValidation, KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext under key and returns nonce || ciphertext || tag.
// Each call draws a new nonce from the system RNG.
func Seal(plaintext, key []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, NonceSize, NonceSize+len(plaintext)+TagSize)
	if _, err := rand.Read(out); err != nil {
		return nil, fmt.Errorf("nonce generation: %w", err)
	}

	return aead.Seal(out, out[:NonceSize], plaintext, nil), nil
}

// Open reverses Seal. Inputs shorter than MinEnvelopeSize are rejected with
// ErrMalformedEnvelope before any cipher is constructed. Every verification
// failure, whatever its cause, is reported as ErrAuthenticationFailure.
func Open(envelope, key []byte) ([]byte, error) {
	if len(envelope) < MinEnvelopeSize {
		return nil, common.ErrMalformedEnvelope
	}

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, envelope[:NonceSize], envelope[NonceSize:], nil)
	if err != nil {
		return nil, common.ErrAuthenticationFailure
	}
	return plaintext, nil
}

// EncodeBase64 renders an envelope for transport.
func EncodeBase64(envelope []byte) string {
	return base64.StdEncoding.EncodeToString(envelope)
}

// DecodeBase64 parses a transported envelope. Text that is not valid base64
// is a malformed envelope.
func DecodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, common.ErrMalformedEnvelope
	}
	return b, nil
}
