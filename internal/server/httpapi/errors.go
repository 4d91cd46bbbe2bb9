package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/bitguard/internal/common"
	"github.com/dmitrijs2005/bitguard/internal/passgen"
)

// statusFor maps service errors onto HTTP status codes. Unknown errors are
// internal and their text is not returned to the client.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict, "already exists"
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrMalformedEnvelope):
		return http.StatusBadRequest, "malformed envelope"
	case errors.Is(err, common.ErrAuthenticationFailure):
		return http.StatusBadRequest, "envelope authentication failed"
	case errors.Is(err, passgen.ErrPasswordTooShort):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrEntryDecodeFailure):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrBreachServiceUnavailable):
		return http.StatusBadGateway, "breach service unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (s *HTTPServer) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code, msg := statusFor(err)
	if code == http.StatusInternalServerError || code == http.StatusBadGateway {
		s.logger.Error(ctx, "request failed", "error", err)
	}
	writeJSON(w, code, ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid json body", common.ErrorValidation)
	}
	return nil
}
