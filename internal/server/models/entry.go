// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/dmitrijs2005/bitguard/internal/vaultentry"
)

// Entry is one stored vault entry. The server never persists plaintext:
// Envelope is the sealed payload exactly as produced by the cipher.
type Entry struct {
	ID      string
	VaultID string

	// Kind selects how the opened plaintext is decoded.
	Kind vaultentry.Kind
	// Sealing selects which key opens Envelope.
	Sealing vaultentry.Sealing

	// Envelope is nonce||ciphertext||tag for master-sealed entries and
	// salt||nonce||ciphertext||tag for password-sealed ones.
	Envelope []byte

	CreatedAt time.Time
	UpdatedAt time.Time
}
