package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bitguard/internal/common"
	"github.com/dmitrijs2005/bitguard/internal/dbx"
	"github.com/dmitrijs2005/bitguard/internal/server/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteRepository implements entry storage for single-node deployments.
// Timestamps are stored as UTC Unix microseconds.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Put(ctx context.Context, e *models.Entry) error {
	query := `INSERT INTO entries (id, vault_id, kind, sealing, envelope, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.VaultID, string(e.Kind), string(e.Sealing), e.Envelope,
		e.CreatedAt.UTC().UnixMicro(), e.UpdatedAt.UTC().UnixMicro())
	if err != nil {
		var sqErr *sqlite.Error
		if errors.As(err, &sqErr) && isDuplicateKey(sqErr.Code()) {
			return fmt.Errorf("entry %s: %w", e.ID, common.ErrorAlreadyExists)
		}
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Entry, error) {
	query := `SELECT id, vault_id, kind, sealing, envelope, created_at, updated_at FROM entries WHERE id=?`

	e, err := scanSQLiteEntry(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select entry: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListByVault(ctx context.Context, vaultID string) ([]*models.Entry, error) {
	query := `SELECT id, vault_id, kind, sealing, envelope, created_at, updated_at FROM entries
		WHERE vault_id=? ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, vaultID)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		e, err := scanSQLiteEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, e *models.Entry) error {
	query := `UPDATE entries SET kind=?, sealing=?, envelope=?, updated_at=? WHERE id=? AND vault_id=?`

	res, err := r.db.ExecContext(ctx, query,
		string(e.Kind), string(e.Sealing), e.Envelope, e.UpdatedAt.UTC().UnixMicro(), e.ID, e.VaultID)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	return expectOneRow(res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, vaultID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id=? AND vault_id=?`, id, vaultID)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return expectOneRow(res)
}

func scanSQLiteEntry(row rowScanner) (*models.Entry, error) {
	var (
		e                models.Entry
		kind, sealing    string
		created, updated int64
	)
	if err := row.Scan(&e.ID, &e.VaultID, &kind, &sealing, &e.Envelope, &created, &updated); err != nil {
		return nil, err
	}
	e.CreatedAt = time.UnixMicro(created).UTC()
	e.UpdatedAt = time.UnixMicro(updated).UTC()
	return finishEntry(&e, kind, sealing)
}

func isDuplicateKey(code int) bool {
	return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
