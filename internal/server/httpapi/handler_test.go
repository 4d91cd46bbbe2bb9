package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/bitguard/internal/breach"
	"github.com/dmitrijs2005/bitguard/internal/common"
	"github.com/dmitrijs2005/bitguard/internal/logging"
	"github.com/dmitrijs2005/bitguard/internal/server/auth"
	"github.com/dmitrijs2005/bitguard/internal/server/models"
	"github.com/dmitrijs2005/bitguard/internal/server/services"
	"github.com/dmitrijs2005/bitguard/internal/vaultentry"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeVault struct {
	createIn services.CreateInput
	updateIn services.UpdateInput
	listPw   []byte
	listOut  []vaultentry.Result
	getArgs  [2]string
	getPw    []byte
	getOut   vaultentry.Result
	deleted  [2]string
	imported [3]string
	entry    *models.Entry
	err      error
}

func (f *fakeVault) Create(_ context.Context, in services.CreateInput) (*models.Entry, error) {
	f.createIn = in
	return f.entry, f.err
}

func (f *fakeVault) ImportEnvelope(_ context.Context, vaultID, id, envelope string) (*models.Entry, error) {
	f.imported = [3]string{vaultID, id, envelope}
	return f.entry, f.err
}

func (f *fakeVault) List(_ context.Context, vaultID string, password []byte) ([]vaultentry.Result, error) {
	f.listPw = password
	return f.listOut, f.err
}

func (f *fakeVault) Get(_ context.Context, vaultID, id string, password []byte) (vaultentry.Result, error) {
	f.getArgs = [2]string{vaultID, id}
	f.getPw = password
	return f.getOut, f.err
}

func (f *fakeVault) Update(_ context.Context, in services.UpdateInput) (*models.Entry, error) {
	f.updateIn = in
	return f.entry, f.err
}

func (f *fakeVault) Delete(_ context.Context, vaultID, id string) error {
	f.deleted = [2]string{vaultID, id}
	return f.err
}

type fakeBreach struct {
	got string
	res breach.Result
	err error
}

func (f *fakeBreach) Check(_ context.Context, password string) (breach.Result, error) {
	f.got = password
	return f.res, f.err
}

type fakeKey struct{}

func (fakeKey) ExportBase64() (string, error) { return "a2V5", nil }

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestServer(v *fakeVault, b *fakeBreach) http.Handler {
	return NewHTTPServer(":0", logging.Discard(), v, b, fakeKey{}, testSecret, 24).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

var stored = &models.Entry{
	ID: "e1", VaultID: "v1", Kind: vaultentry.KindFields, Sealing: vaultentry.SealingMaster,
	CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), UpdatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
}

// ---- tests ----

func TestPing(t *testing.T) {
	rec := do(t, newTestServer(&fakeVault{}, &fakeBreach{}), http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", decode[StatusResponse](t, rec).Status)
}

func TestCreateEntry(t *testing.T) {
	v := &fakeVault{entry: stored}
	body := `{"vault_id":"v1","kind":"fields","fields":{"service_name":"gmail","username":"a","password":"p"}}`

	rec := do(t, newTestServer(v, &fakeBreach{}), http.MethodPost, "/vault/entries", body,
		map[string]string{common.VaultPasswordHeaderName: "pw"})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "v1", v.createIn.VaultID)
	assert.Equal(t, vaultentry.KindFields, v.createIn.Payload.Kind)
	assert.Equal(t, "gmail", v.createIn.Payload.Fields.ServiceName)
	assert.Equal(t, []byte("pw"), v.createIn.Password)

	meta := decode[EntryMeta](t, rec)
	assert.Equal(t, "e1", meta.ID)
	assert.Equal(t, "master", meta.Sealing)
}

func TestCreateEntry_BadInput(t *testing.T) {
	h := newTestServer(&fakeVault{entry: stored}, &fakeBreach{})

	tests := map[string]string{
		"not json":       `{`,
		"unknown kind":   `{"vault_id":"v1","kind":"card"}`,
		"fields missing": `{"vault_id":"v1","kind":"fields"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/vault/entries", body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateEntry_ServiceErrors(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{common.ErrorValidation, http.StatusBadRequest},
		{common.ErrorAlreadyExists, http.StatusConflict},
		{errors.New("db exploded"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := do(t, newTestServer(&fakeVault{err: tt.err}, &fakeBreach{}), http.MethodPost, "/vault/entries",
			`{"vault_id":"v1","kind":"blob","blob":"{}"}`, nil)
		assert.Equal(t, tt.code, rec.Code)
		assert.NotContains(t, rec.Body.String(), "db exploded")
	}
}

func TestListEntries(t *testing.T) {
	v := &fakeVault{listOut: []vaultentry.Result{
		{
			EntryID: "e1", VaultID: "v1", Sealing: vaultentry.SealingMaster, State: vaultentry.StateDecoded,
			Payload: &vaultentry.Payload{Kind: vaultentry.KindFields, Fields: &vaultentry.Fields{Username: "u", Password: "p"}},
		},
		{
			EntryID: "e2", VaultID: "v1", Sealing: vaultentry.SealingMaster, State: vaultentry.StateDecoded,
			Payload: &vaultentry.Payload{Kind: vaultentry.KindBlob, Blob: []byte(`{"x":1}`)},
		},
		{
			EntryID: "e3", VaultID: "v1", Sealing: vaultentry.SealingMaster, State: vaultentry.StateRaw,
			Envelope: []byte{1, 2, 3}, Err: common.ErrAuthenticationFailure,
		},
		{
			EntryID: "e4", VaultID: "v1", Sealing: vaultentry.SealingPassword, State: vaultentry.StateRaw,
			Envelope: []byte{4}, Err: services.ErrPasswordRequired,
		},
	}}

	rec := do(t, newTestServer(v, &fakeBreach{}), http.MethodGet, "/vault/entries?vault_id=v1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, v.listPw)

	got := decode[[]EntryResult](t, rec)
	require.Len(t, got, 4)
	assert.Equal(t, "decoded", got[0].State)
	assert.Equal(t, "p", got[0].Fields.Password)
	assert.Equal(t, `{"x":1}`, got[1].Blob)
	assert.Equal(t, "raw", got[2].State)
	assert.Equal(t, "AQID", got[2].Envelope)
	assert.Equal(t, "authentication_failure", got[2].Error)
	assert.Nil(t, got[2].Fields)
	assert.Equal(t, "password_required", got[3].Error)
}

func TestListEntries_RequiresVaultID(t *testing.T) {
	rec := do(t, newTestServer(&fakeVault{}, &fakeBreach{}), http.MethodGet, "/vault/entries", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListEntries_EmptyIsArray(t *testing.T) {
	rec := do(t, newTestServer(&fakeVault{}, &fakeBreach{}), http.MethodGet, "/vault/entries?vault_id=v1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetEntry(t *testing.T) {
	v := &fakeVault{getOut: vaultentry.Result{
		EntryID: "e1", VaultID: "v1", Sealing: vaultentry.SealingPassword, State: vaultentry.StateDecoded,
		Payload: &vaultentry.Payload{Kind: vaultentry.KindFields, Fields: &vaultentry.Fields{Username: "u", Password: "p"}},
	}}
	rec := do(t, newTestServer(v, &fakeBreach{}), http.MethodGet, "/vault/entries/e1?vault_id=v1", "",
		map[string]string{common.VaultPasswordHeaderName: "pw"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, [2]string{"v1", "e1"}, v.getArgs)
	assert.Equal(t, []byte("pw"), v.getPw)
	got := decode[EntryResult](t, rec)
	assert.Equal(t, "decoded", got.State)
	assert.Equal(t, "p", got.Fields.Password)
}

func TestGetEntry_RawAndErrors(t *testing.T) {
	v := &fakeVault{getOut: vaultentry.Result{
		EntryID: "e1", VaultID: "v1", Sealing: vaultentry.SealingMaster, State: vaultentry.StateRaw,
		Envelope: []byte{1, 2, 3}, Err: common.ErrMalformedEnvelope,
	}}
	h := newTestServer(v, &fakeBreach{})

	rec := do(t, h, http.MethodGet, "/vault/entries/e1?vault_id=v1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[EntryResult](t, rec)
	assert.Equal(t, "raw", got.State)
	assert.Equal(t, "malformed_envelope", got.Error)

	rec = do(t, h, http.MethodGet, "/vault/entries/e1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	v.err = common.ErrorNotFound
	rec = do(t, h, http.MethodGet, "/vault/entries/e1?vault_id=other", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateEntry(t *testing.T) {
	v := &fakeVault{entry: stored}
	rec := do(t, newTestServer(v, &fakeBreach{}), http.MethodPut, "/vault/entries/e1",
		`{"vault_id":"v1","kind":"blob","blob":"new"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "e1", v.updateIn.ID)
	assert.Equal(t, []byte("new"), v.updateIn.Payload.Blob)

	v.err = common.ErrorNotFound
	rec = do(t, newTestServer(v, &fakeBreach{}), http.MethodPut, "/vault/entries/e1",
		`{"vault_id":"v2","kind":"blob","blob":"new"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteEntry(t *testing.T) {
	v := &fakeVault{}
	rec := do(t, newTestServer(v, &fakeBreach{}), http.MethodDelete, "/vault/entries/e1?vault_id=v1", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, [2]string{"v1", "e1"}, v.deleted)

	rec = do(t, newTestServer(v, &fakeBreach{}), http.MethodDelete, "/vault/entries/e1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportEnvelope(t *testing.T) {
	v := &fakeVault{entry: stored}
	rec := do(t, newTestServer(v, &fakeBreach{}), http.MethodPost, "/vault/entries/import",
		`{"vault_id":"v1","envelope":"QUJD"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, [3]string{"v1", "", "QUJD"}, v.imported)

	for _, err := range []error{common.ErrMalformedEnvelope, common.ErrAuthenticationFailure} {
		v.err = err
		rec = do(t, newTestServer(v, &fakeBreach{}), http.MethodPost, "/vault/entries/import",
			`{"vault_id":"v1","envelope":"QUJD"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestExportKey(t *testing.T) {
	h := newTestServer(&fakeVault{}, &fakeBreach{})

	rec := do(t, h, http.MethodGet, "/vault/key", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodGet, "/vault/key", "", map[string]string{"Authorization": "Bearer junk"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired, err := auth.GenerateExportToken([]byte(testSecret), -time.Minute)
	require.NoError(t, err)
	rec = do(t, h, http.MethodGet, "/vault/key", "", map[string]string{"Authorization": "Bearer " + expired})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := auth.GenerateExportToken([]byte(testSecret), time.Minute)
	require.NoError(t, err)
	rec = do(t, h, http.MethodGet, "/vault/key", "", map[string]string{"Authorization": "Bearer " + tok})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a2V5", decode[KeyResponse](t, rec).Key)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	// Tokens are single use.
	rec = do(t, h, http.MethodGet, "/vault/key", "", map[string]string{"Authorization": "Bearer " + tok})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func forgeExportToken(t *testing.T, secret string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "forged",
			Issuer:    "bitguard",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Scope: auth.ScopeKeyExport,
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestExportKey_DisabledWithoutSecret(t *testing.T) {
	h := NewHTTPServer(":0", logging.Discard(), &fakeVault{}, &fakeBreach{}, fakeKey{}, "", 24).Handler()

	rec := do(t, h, http.MethodGet, "/vault/key", "",
		map[string]string{"Authorization": "Bearer " + forgeExportToken(t, "secretKey")})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportKey_RefusesTokenSignedWithOtherSecret(t *testing.T) {
	h := newTestServer(&fakeVault{}, &fakeBreach{})

	rec := do(t, h, http.MethodGet, "/vault/key", "",
		map[string]string{"Authorization": "Bearer " + forgeExportToken(t, "secretKey")})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckPasswordLeak(t *testing.T) {
	b := &fakeBreach{res: breach.Result{Leaked: true, TimesFound: 3}}
	rec := do(t, newTestServer(&fakeVault{}, b), http.MethodPost, "/check-password-leak", `{"password":"password123"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "password123", b.got)
	assert.JSONEq(t, `{"leaked":true,"times_found":3}`, rec.Body.String())

	b.err = common.ErrBreachServiceUnavailable
	rec = do(t, newTestServer(&fakeVault{}, b), http.MethodPost, "/check-password-leak", `{"password":"x"}`, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = do(t, newTestServer(&fakeVault{}, b), http.MethodPost, "/check-password-leak", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGeneratePassword(t *testing.T) {
	h := newTestServer(&fakeVault{}, &fakeBreach{})

	rec := do(t, h, http.MethodGet, "/generate-password", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[PasswordResponse](t, rec).Password, 24)

	rec = do(t, h, http.MethodGet, "/generate-password?length=12", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[PasswordResponse](t, rec).Password, 12)

	for _, q := range []string{"length=4", "length=abc"} {
		rec = do(t, h, http.MethodGet, "/generate-password?"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestUnknownRoute(t *testing.T) {
	rec := do(t, newTestServer(&fakeVault{}, &fakeBreach{}), http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
