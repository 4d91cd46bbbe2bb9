// Package vaultentry defines the logical vault entry and its plaintext
// encoding.
//
// An entry payload is one of two variants, told apart by Kind:
//
//   - KindFields: structured credentials, encoded as a compact JSON object.
//   - KindBlob: an opaque client-defined blob (typically JSON produced by the
//     browser extension), passed through unchanged.
//
// Both variants live side by side in one table, so older structured entries
// and newer blob entries can coexist during migration.
package vaultentry

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/bitguard/internal/common"
)

// Kind discriminates the payload variant.
type Kind string

const (
	KindFields Kind = "fields"
	KindBlob   Kind = "blob"
)

// ParseKind validates a stored or transmitted discriminant.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindFields, KindBlob:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown entry kind %q", common.ErrorValidation, s)
	}
}

// Sealing records which key protects an entry's envelope.
type Sealing string

const (
	// SealingMaster means the process-wide master key.
	SealingMaster Sealing = "master"
	// SealingPassword means a key derived per entry from a user password.
	SealingPassword Sealing = "password"
)

func ParseSealing(s string) (Sealing, error) {
	switch v := Sealing(s); v {
	case SealingMaster, SealingPassword:
		return v, nil
	default:
		return "", fmt.Errorf("%w: unknown sealing %q", common.ErrorValidation, s)
	}
}

// Fields is the structured credential record.
type Fields struct {
	ServiceName string `json:"service_name,omitempty"`
	URL         string `json:"url,omitempty"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	Notes       string `json:"notes,omitempty"`
}

// Payload is the tagged union of entry contents. Exactly one of Fields and
// Blob is meaningful, selected by Kind.
type Payload struct {
	Kind   Kind
	Fields *Fields
	Blob   []byte
}

func FieldsPayload(f Fields) Payload {
	return Payload{Kind: KindFields, Fields: &f}
}

func BlobPayload(b []byte) Payload {
	return Payload{Kind: KindBlob, Blob: b}
}

// State tells whether a listed entry could be opened and decoded.
type State string

const (
	StateDecoded State = "decoded"
	StateRaw     State = "raw"
)

// Result is one entry as returned by a listing. A Raw result carries the
// stored envelope untouched together with the reason it could not be
// decoded, so one bad entry never hides the others.
type Result struct {
	EntryID   string
	VaultID   string
	Sealing   Sealing
	State     State
	Payload   *Payload
	Envelope  []byte
	Err       error
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r Result) IsDecoded() bool {
	return r.State == StateDecoded
}
