// Package server wires the BitGuard server together: it loads the master
// key, opens and migrates the database, builds the services and runs the
// HTTP API until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/bitguard/internal/breach"
	"github.com/dmitrijs2005/bitguard/internal/keystore"
	"github.com/dmitrijs2005/bitguard/internal/logging"
	"github.com/dmitrijs2005/bitguard/internal/server/config"
	"github.com/dmitrijs2005/bitguard/internal/server/httpapi"
	"github.com/dmitrijs2005/bitguard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bitguard/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.HTTPServer
}

// newKeyBackend is a seam so tests can avoid touching disk or S3.
var newKeyBackend = func(ctx context.Context, c *config.Config) (keystore.Backend, error) {
	switch c.KeyBackend {
	case config.KeyBackendS3:
		return keystore.NewS3Backend(ctx, keystore.S3Config{
			Bucket:       c.S3Bucket,
			ObjectKey:    c.S3ObjectKey,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
		})
	default:
		return keystore.NewFileBackend(c.KeyFilePath), nil
	}
}

// NewApp prepares every dependency. The master key is loaded (or created)
// here, before the first request can arrive.
func NewApp(ctx context.Context, c *config.Config, logOut, banner io.Writer) (*App, error) {
	logger := logging.NewJSONLogger(logOut, c.LogLevel)

	kdf, err := c.KdfParams()
	if err != nil {
		return nil, err
	}

	backend, err := newKeyBackend(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("key backend init error: %w", err)
	}
	key, err := keystore.New(backend, logger, banner).Load(ctx)
	if err != nil {
		return nil, err
	}

	rm, err := repomanager.New(c.DatabaseDriver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(repomanager.SQLDriverName(c.DatabaseDriver), c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if c.DatabaseDriver == repomanager.DriverSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	vault := services.NewVaultService(db, rm, key, kdf, logger)
	checker := breach.New(c.BreachBaseURL, c.BreachTimeout, logger,
		breach.WithRateLimit(c.BreachRateLimit, c.BreachBurst))
	if c.SecretKey == "" {
		logger.Warn(ctx, "key export disabled: no export token secret configured")
	}
	srv := httpapi.NewHTTPServer(c.HTTPAddr, logger, vault, checker, key, c.SecretKey, c.PasswordLength)

	return &App{config: c, logger: logger, db: db, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	err := app.server.Run(ctx)

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "db close", "error", cerr)
	}
	app.logger.Info(ctx, "App stopped")
	return err
}
