// Package common defines shared constants and sentinel errors used across
// the BitGuard server, the vault core and the vaultctl CLI. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Key store errors. Fatal, raised at startup only.
	ErrCorruptKeyStore = errors.New("key store is corrupt")

	// Raised while loading configuration, never per call.
	ErrInvalidKdfParameters = errors.New("invalid kdf parameters")

	// Envelope errors. ErrAuthenticationFailure deliberately covers wrong key,
	// corrupted data and tampering alike.
	ErrMalformedEnvelope     = errors.New("malformed envelope")
	ErrAuthenticationFailure = errors.New("message authentication failed")

	// Per-entry payload decoding error.
	ErrEntryDecodeFailure = errors.New("entry decode failure")

	// Breach range service returned a non-success response or was unreachable.
	ErrBreachServiceUnavailable = errors.New("breach service unavailable")
)
