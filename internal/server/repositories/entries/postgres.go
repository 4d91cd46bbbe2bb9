// Package entries provides PostgreSQL and SQLite repositories for sealed
// vault entries.
package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bitguard/internal/common"
	"github.com/dmitrijs2005/bitguard/internal/dbx"
	"github.com/dmitrijs2005/bitguard/internal/server/models"
	"github.com/dmitrijs2005/bitguard/internal/vaultentry"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// PostgresRepository implements entry storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Put inserts a new entry. An existing ID yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Put(ctx context.Context, e *models.Entry) error {
	query := `
		INSERT INTO entries (id, vault_id, kind, sealing, envelope, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.VaultID, string(e.Kind), string(e.Sealing), e.Envelope, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("entry %s: %w", e.ID, common.ErrorAlreadyExists)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns the entry with the given ID or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Entry, error) {
	query := `SELECT id, vault_id, kind, sealing, envelope, created_at, updated_at FROM entries WHERE id=$1`

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select entry: %w", err)
	}
	return e, nil
}

// ListByVault returns all entries of a vault, oldest first.
func (r *PostgresRepository) ListByVault(ctx context.Context, vaultID string) ([]*models.Entry, error) {
	query := `SELECT id, vault_id, kind, sealing, envelope, created_at, updated_at FROM entries
		WHERE vault_id=$1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, vaultID)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
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

// Update replaces the sealed content of an entry owned by e.VaultID.
func (r *PostgresRepository) Update(ctx context.Context, e *models.Entry) error {
	query := `UPDATE entries SET kind=$1, sealing=$2, envelope=$3, updated_at=$4
		WHERE id=$5 AND vault_id=$6`

	res, err := r.db.ExecContext(ctx, query,
		string(e.Kind), string(e.Sealing), e.Envelope, e.UpdatedAt, e.ID, e.VaultID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

// Delete removes an entry owned by vaultID.
func (r *PostgresRepository) Delete(ctx context.Context, vaultID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id=$1 AND vault_id=$2`, id, vaultID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	var (
		e             models.Entry
		kind, sealing string
	)
	if err := row.Scan(&e.ID, &e.VaultID, &kind, &sealing, &e.Envelope, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return finishEntry(&e, kind, sealing)
}

func finishEntry(e *models.Entry, kind, sealing string) (*models.Entry, error) {
	var err error
	if e.Kind, err = vaultentry.ParseKind(kind); err != nil {
		return nil, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	if e.Sealing, err = vaultentry.ParseSealing(sealing); err != nil {
		return nil, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	return e, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
