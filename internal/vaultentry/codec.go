package vaultentry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/bitguard/internal/common"
)

// Encode turns a payload into the plaintext that gets sealed.
func Encode(p Payload) ([]byte, error) {
	switch p.Kind {
	case KindFields:
		if p.Fields == nil {
			return nil, fmt.Errorf("%w: fields payload without fields", common.ErrorValidation)
		}
		return json.Marshal(p.Fields)
	case KindBlob:
		return p.Blob, nil
	default:
		return nil, fmt.Errorf("%w: unknown entry kind %q", common.ErrorValidation, p.Kind)
	}
}

// Decode parses plaintext produced by Encode. A structured payload must be
// exactly one JSON object with no unknown keys; anything else is
// ErrEntryDecodeFailure.
func Decode(kind Kind, plaintext []byte) (Payload, error) {
	switch kind {
	case KindBlob:
		return BlobPayload(plaintext), nil
	case KindFields:
		f, err := decodeFields(plaintext)
		if err != nil {
			return Payload{}, fmt.Errorf("%w: %s", common.ErrEntryDecodeFailure, err)
		}
		return FieldsPayload(*f), nil
	default:
		return Payload{}, fmt.Errorf("%w: unknown entry kind %q", common.ErrEntryDecodeFailure, kind)
	}
}

func decodeFields(plaintext []byte) (*Fields, error) {
	trimmed := bytes.TrimSpace(plaintext)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("not a json object")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()

	var f Fields
	if err := dec.Decode(&f); err != nil {
		return nil, errors.New("invalid fields object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after fields object")
	}
	return &f, nil
}
