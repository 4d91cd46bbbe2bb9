// Package httpapi exposes the vault over a small JSON HTTP API consumed by
// the browser extension. Handlers only translate between HTTP and the
// services; every rule lives below this layer.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/bitguard/internal/breach"
	"github.com/dmitrijs2005/bitguard/internal/logging"
	"github.com/dmitrijs2005/bitguard/internal/server/auth"
	"github.com/dmitrijs2005/bitguard/internal/server/models"
	"github.com/dmitrijs2005/bitguard/internal/server/services"
	"github.com/dmitrijs2005/bitguard/internal/vaultentry"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 5 * time.Second
)

// VaultService is the subset of services.VaultService the API needs.
type VaultService interface {
	Create(ctx context.Context, in services.CreateInput) (*models.Entry, error)
	ImportEnvelope(ctx context.Context, vaultID, id, envelopeB64 string) (*models.Entry, error)
	List(ctx context.Context, vaultID string, password []byte) ([]vaultentry.Result, error)
	Get(ctx context.Context, vaultID, id string, password []byte) (vaultentry.Result, error)
	Update(ctx context.Context, in services.UpdateInput) (*models.Entry, error)
	Delete(ctx context.Context, vaultID, id string) error
}

type BreachChecker interface {
	Check(ctx context.Context, password string) (breach.Result, error)
}

// KeyExporter hands out the raw master key.
type KeyExporter interface {
	ExportBase64() (string, error)
}

type HTTPServer struct {
	address        string
	vault          VaultService
	breach         BreachChecker
	key            KeyExporter
	logger         logging.Logger
	jwtSecret      []byte
	usedTokens     *auth.UsedTokens
	passwordLength int
}

func NewHTTPServer(a string, l logging.Logger, vs VaultService, bc BreachChecker, key KeyExporter,
	secretKey string, passwordLength int) *HTTPServer {
	return &HTTPServer{
		address:        a,
		logger:         l.With("module", "http_server"),
		vault:          vs,
		breach:         bc,
		key:            key,
		jwtSecret:      []byte(secretKey),
		usedTokens:     auth.NewUsedTokens(),
		passwordLength: passwordLength,
	}
}

// Handler returns the routed API with access logging applied. Key export is
// only routed when a token secret is configured.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ping", s.ping)

	mux.HandleFunc("POST /vault/entries", s.createEntry)
	mux.HandleFunc("GET /vault/entries", s.listEntries)
	mux.HandleFunc("GET /vault/entries/{id}", s.getEntry)
	mux.HandleFunc("PUT /vault/entries/{id}", s.updateEntry)
	mux.HandleFunc("DELETE /vault/entries/{id}", s.deleteEntry)
	mux.HandleFunc("POST /vault/entries/import", s.importEnvelope)
	if len(s.jwtSecret) > 0 {
		mux.Handle("GET /vault/key", s.requireExportToken(http.HandlerFunc(s.exportKey)))
	}

	mux.HandleFunc("POST /check-password-leak", s.checkPasswordLeak)
	mux.HandleFunc("GET /generate-password", s.generatePassword)

	return s.accessLog(mux)
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
