package cli

import (
	"context"
	"fmt"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/bitguard/internal/cryptox"
	"github.com/dmitrijs2005/bitguard/internal/vaultentry"
)

// Open reads a base64 password-sealed entry and prints its contents.
func (a *App) Open(_ context.Context) error {
	encoded, err := GetSimpleText(a.reader, "Paste sealed entry (base64)", a.out)
	if err != nil {
		return err
	}
	sealed, err := cryptox.DecodeBase64(encoded)
	if err != nil {
		return err
	}

	password, err := GetPassword(a.reader, "Enter sealing password", a.out)
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(password)

	plaintext, err := cryptox.OpenWithPassword(sealed, password, a.kdf)
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(plaintext)

	// The sealed string does not carry its kind; a structured record is
	// tried first and anything else is shown as a blob.
	payload, err := vaultentry.Decode(vaultentry.KindFields, plaintext)
	if err != nil {
		payload = vaultentry.BlobPayload(plaintext)
	}
	a.printPayload(payload)
	return nil
}

func (a *App) printPayload(p vaultentry.Payload) {
	if p.Kind == vaultentry.KindBlob {
		fmt.Fprintln(a.out, "Blob:")
		fmt.Fprintln(a.out, string(p.Blob))
		return
	}

	f := p.Fields
	fmt.Fprintln(a.out, "Service: ", f.ServiceName)
	fmt.Fprintln(a.out, "URL:     ", f.URL)
	fmt.Fprintln(a.out, "Username:", f.Username)
	fmt.Fprintln(a.out, "Password:", f.Password)
	if f.Notes != "" {
		fmt.Fprintln(a.out, "Notes:")
		fmt.Fprintln(a.out, f.Notes)
	}
}
