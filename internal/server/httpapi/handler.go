package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/bitguard/internal/common"
	"github.com/dmitrijs2005/bitguard/internal/passgen"
	"github.com/dmitrijs2005/bitguard/internal/server/services"
)

func vaultPassword(r *http.Request) []byte {
	if p := r.Header.Get(common.VaultPasswordHeaderName); p != "" {
		return []byte(p)
	}
	return nil
}

func (s *HTTPServer) ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "OK"})
}

func (s *HTTPServer) createEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req EntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(ctx, w, err)
		return
	}
	payload, err := req.payload()
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	e, err := s.vault.Create(ctx, services.CreateInput{
		ID:       req.ID,
		VaultID:  req.VaultID,
		Payload:  payload,
		Password: vaultPassword(r),
	})
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, metaFromModel(e))
}

func (s *HTTPServer) listEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	vaultID := r.URL.Query().Get("vault_id")
	if vaultID == "" {
		s.writeError(ctx, w, fmt.Errorf("%w: vault_id is required", common.ErrorValidation))
		return
	}

	results, err := s.vault.List(ctx, vaultID, vaultPassword(r))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	out := make([]EntryResult, 0, len(results))
	for _, res := range results {
		out = append(out, resultFromEntry(res))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) getEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	vaultID := r.URL.Query().Get("vault_id")
	if vaultID == "" {
		s.writeError(ctx, w, fmt.Errorf("%w: vault_id is required", common.ErrorValidation))
		return
	}

	res, err := s.vault.Get(ctx, vaultID, r.PathValue("id"), vaultPassword(r))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultFromEntry(res))
}

func (s *HTTPServer) updateEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req EntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(ctx, w, err)
		return
	}
	payload, err := req.payload()
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	e, err := s.vault.Update(ctx, services.UpdateInput{
		ID:       r.PathValue("id"),
		VaultID:  req.VaultID,
		Payload:  payload,
		Password: vaultPassword(r),
	})
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, metaFromModel(e))
}

func (s *HTTPServer) deleteEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	vaultID := r.URL.Query().Get("vault_id")
	if vaultID == "" {
		s.writeError(ctx, w, fmt.Errorf("%w: vault_id is required", common.ErrorValidation))
		return
	}

	if err := s.vault.Delete(ctx, vaultID, r.PathValue("id")); err != nil {
		s.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) importEnvelope(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ImportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(ctx, w, err)
		return
	}

	e, err := s.vault.ImportEnvelope(ctx, req.VaultID, req.ID, req.Envelope)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, metaFromModel(e))
}

func (s *HTTPServer) exportKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key, err := s.key.ExportBase64()
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.logger.Warn(ctx, "master key exported", "remote", r.RemoteAddr)

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, KeyResponse{Key: key})
}

func (s *HTTPServer) checkPasswordLeak(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PasswordLeakRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(ctx, w, err)
		return
	}
	if req.Password == "" {
		s.writeError(ctx, w, fmt.Errorf("%w: password is required", common.ErrorValidation))
		return
	}

	res, err := s.breach.Check(ctx, req.Password)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) generatePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	length := s.passwordLength
	if raw := r.URL.Query().Get("length"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(ctx, w, fmt.Errorf("%w: length must be an integer", common.ErrorValidation))
			return
		}
		length = n
	}

	p, err := passgen.Generate(length)
	if err != nil {
		s.writeError(ctx, w, fmt.Errorf("%w: %w", common.ErrorValidation, err))
		return
	}
	writeJSON(w, http.StatusOK, PasswordResponse{Password: p})
}
