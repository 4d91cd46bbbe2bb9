package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bitguard/internal/dbx"
	"github.com/dmitrijs2005/bitguard/internal/server/migrations"
	"github.com/dmitrijs2005/bitguard/internal/server/repositories/entries"
	_ "modernc.org/sqlite"
)

// SQLiteRepositoryManager serves single-node deployments from a local file.
type SQLiteRepositoryManager struct{}

func NewSQLiteRepositoryManager() *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{}
}

func (m *SQLiteRepositoryManager) Entries(db dbx.DBTX) entries.Repository {
	return entries.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return runMigrations(ctx, db, "sqlite3", migrations.SQLiteDir)
}
