package httpapi

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bitguard/internal/common"
	"github.com/dmitrijs2005/bitguard/internal/cryptox"
	"github.com/dmitrijs2005/bitguard/internal/server/models"
	"github.com/dmitrijs2005/bitguard/internal/server/services"
	"github.com/dmitrijs2005/bitguard/internal/vaultentry"
)

// EntryRequest carries a new or replacement payload. Kind "fields" uses
// Fields; kind "blob" uses Blob verbatim.
type EntryRequest struct {
	ID      string             `json:"id,omitempty"`
	VaultID string             `json:"vault_id"`
	Kind    string             `json:"kind"`
	Fields  *vaultentry.Fields `json:"fields,omitempty"`
	Blob    string             `json:"blob,omitempty"`
}

func (r *EntryRequest) payload() (vaultentry.Payload, error) {
	kind, err := vaultentry.ParseKind(r.Kind)
	if err != nil {
		return vaultentry.Payload{}, err
	}
	if kind == vaultentry.KindFields {
		if r.Fields == nil {
			return vaultentry.Payload{}, fmt.Errorf("%w: fields are required", common.ErrorValidation)
		}
		return vaultentry.FieldsPayload(*r.Fields), nil
	}
	return vaultentry.BlobPayload([]byte(r.Blob)), nil
}

type ImportRequest struct {
	ID       string `json:"id,omitempty"`
	VaultID  string `json:"vault_id"`
	Envelope string `json:"envelope"`
}

// EntryMeta describes a stored entry without its contents.
type EntryMeta struct {
	ID        string    `json:"id"`
	VaultID   string    `json:"vault_id"`
	Kind      string    `json:"kind"`
	Sealing   string    `json:"sealing"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func metaFromModel(e *models.Entry) EntryMeta {
	return EntryMeta{
		ID:        e.ID,
		VaultID:   e.VaultID,
		Kind:      string(e.Kind),
		Sealing:   string(e.Sealing),
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// EntryResult is one listed entry. Decoded entries carry Fields or Blob;
// raw ones carry the base64 envelope and an error code.
type EntryResult struct {
	ID        string             `json:"id"`
	VaultID   string             `json:"vault_id"`
	Sealing   string             `json:"sealing"`
	State     string             `json:"state"`
	Kind      string             `json:"kind,omitempty"`
	Fields    *vaultentry.Fields `json:"fields,omitempty"`
	Blob      string             `json:"blob,omitempty"`
	Envelope  string             `json:"envelope,omitempty"`
	Error     string             `json:"error,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func resultFromEntry(r vaultentry.Result) EntryResult {
	out := EntryResult{
		ID:        r.EntryID,
		VaultID:   r.VaultID,
		Sealing:   string(r.Sealing),
		State:     string(r.State),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.IsDecoded() {
		out.Kind = string(r.Payload.Kind)
		out.Fields = r.Payload.Fields
		if r.Payload.Kind == vaultentry.KindBlob {
			out.Blob = string(r.Payload.Blob)
		}
		return out
	}
	out.Envelope = cryptox.EncodeBase64(r.Envelope)
	out.Error = rawReason(r.Err)
	return out
}

// rawReason turns a per-entry failure into a stable code for clients.
func rawReason(err error) string {
	switch {
	case errors.Is(err, services.ErrPasswordRequired):
		return "password_required"
	case errors.Is(err, common.ErrMalformedEnvelope):
		return "malformed_envelope"
	case errors.Is(err, common.ErrAuthenticationFailure):
		return "authentication_failure"
	case errors.Is(err, common.ErrEntryDecodeFailure):
		return "decode_failure"
	default:
		return "unreadable"
	}
}

type PasswordLeakRequest struct {
	Password string `json:"password"`
}

type KeyResponse struct {
	Key string `json:"key"`
}

type PasswordResponse struct {
	Password string `json:"password"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
