package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/bitguard/internal/cryptox"
	"github.com/dmitrijs2005/bitguard/internal/vaultentry"
)

var (
	errPasswordMismatch = errors.New("passwords do not match")
	errEmptyPassword    = errors.New("password must not be empty")
)

// Seal asks for an entry and a password and prints the password-sealed
// entry as base64.
func (a *App) Seal(ctx context.Context) error {
	kind, err := GetSimpleText(a.reader, "Entry kind (fields/blob) [fields]", a.out)
	if err != nil {
		return err
	}
	if kind == "" {
		kind = string(vaultentry.KindFields)
	}
	k, err := vaultentry.ParseKind(kind)
	if err != nil {
		return err
	}

	var payload vaultentry.Payload
	switch k {
	case vaultentry.KindFields:
		payload, err = a.inputFields()
	default:
		var blob string
		blob, err = GetMultiline(a.reader, "Enter blob", a.out)
		payload = vaultentry.BlobPayload([]byte(blob))
	}
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	plaintext, err := vaultentry.Encode(payload)
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(plaintext)

	password, err := a.newPassword()
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(password)

	sealed, err := cryptox.SealWithPassword(plaintext, password, a.kdf)
	if err != nil {
		return fmt.Errorf("seal: %w", err)
	}

	a.logger.Debug(ctx, "entry sealed", "kind", k, "size", len(sealed))
	fmt.Fprintln(a.out, cryptox.EncodeBase64(sealed))
	return nil
}

func (a *App) inputFields() (vaultentry.Payload, error) {
	var f vaultentry.Fields
	var err error

	if f.ServiceName, err = GetSimpleText(a.reader, "Enter service name", a.out); err != nil {
		return vaultentry.Payload{}, err
	}
	if f.URL, err = GetSimpleText(a.reader, "Enter URL", a.out); err != nil {
		return vaultentry.Payload{}, err
	}
	if f.Username, err = GetSimpleText(a.reader, "Enter username", a.out); err != nil {
		return vaultentry.Payload{}, err
	}
	pw, err := GetPassword(a.reader, "Enter credential password", a.out)
	if err != nil {
		return vaultentry.Payload{}, err
	}
	f.Password = string(pw)
	memguard.WipeBytes(pw)
	if f.Notes, err = GetMultiline(a.reader, "Enter notes", a.out); err != nil {
		return vaultentry.Payload{}, err
	}

	if strings.TrimSpace(f.Username) == "" && f.Password == "" {
		return vaultentry.Payload{}, errors.New("username or password is required")
	}
	return vaultentry.FieldsPayload(f), nil
}

// newPassword reads the sealing password twice.
func (a *App) newPassword() ([]byte, error) {
	pw, err := GetPassword(a.reader, "Enter sealing password", a.out)
	if err != nil {
		return nil, err
	}
	if len(pw) == 0 {
		return nil, errEmptyPassword
	}
	confirm, err := GetPassword(a.reader, "Repeat sealing password", a.out)
	if err != nil {
		memguard.WipeBytes(pw)
		return nil, err
	}
	defer memguard.WipeBytes(confirm)
	if !bytes.Equal(pw, confirm) {
		memguard.WipeBytes(pw)
		return nil, errPasswordMismatch
	}
	return pw, nil
}
