package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/bitguard/internal/dbx"
	"github.com/dmitrijs2005/bitguard/internal/server/repositories/entries"
)

// RepositoryManager hides the storage dialect from services: it migrates the
// schema once at startup and vends repositories bound to a *sql.DB or *sql.Tx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Entries(db dbx.DBTX) entries.Repository
}

// New returns the manager for a storage driver name ("postgres" or "sqlite").
func New(driver string) (RepositoryManager, error) {
	switch driver {
	case DriverPostgres:
		return NewPostgresRepositoryManager(), nil
	case DriverSQLite:
		return NewSQLiteRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
}
