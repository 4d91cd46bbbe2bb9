// Package services holds the vault use cases: sealing entries on the way in,
// opening them on the way out, and keeping one bad entry from breaking a
// listing.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bitguard/internal/common"
	"github.com/dmitrijs2005/bitguard/internal/cryptox"
	"github.com/dmitrijs2005/bitguard/internal/dbx"
	"github.com/dmitrijs2005/bitguard/internal/keystore"
	"github.com/dmitrijs2005/bitguard/internal/logging"
	"github.com/dmitrijs2005/bitguard/internal/server/models"
	"github.com/dmitrijs2005/bitguard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bitguard/internal/vaultentry"
	"github.com/google/uuid"
)

// ErrPasswordRequired marks a password-sealed entry listed without a password.
var ErrPasswordRequired = errors.New("entry is password-sealed")

// CreateInput describes a new entry. An empty Password seals with the master
// key; otherwise a key is derived from Password for this entry only.
type CreateInput struct {
	ID       string
	VaultID  string
	Payload  vaultentry.Payload
	Password []byte
}

// UpdateInput replaces an entry's payload. The sealing mode may change.
type UpdateInput struct {
	ID       string
	VaultID  string
	Payload  vaultentry.Payload
	Password []byte
}

type VaultService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	key         *keystore.MasterKey
	kdf         cryptox.KdfParams
	logger      logging.Logger
	now         func() time.Time
}

func NewVaultService(db *sql.DB, rm repomanager.RepositoryManager, key *keystore.MasterKey,
	kdf cryptox.KdfParams, logger logging.Logger) *VaultService {
	return &VaultService{
		db:          db,
		repomanager: rm,
		key:         key,
		kdf:         kdf,
		logger:      logger.With("module", "vault"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create seals the payload and stores it. A missing ID is generated.
func (s *VaultService) Create(ctx context.Context, in CreateInput) (*models.Entry, error) {
	if in.VaultID == "" {
		return nil, fmt.Errorf("%w: vault id is required", common.ErrorValidation)
	}

	envelope, sealing, err := s.seal(in.Payload, in.Password)
	if err != nil {
		return nil, err
	}

	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	ts := s.now()
	e := &models.Entry{
		ID:        id,
		VaultID:   in.VaultID,
		Kind:      in.Payload.Kind,
		Sealing:   sealing,
		Envelope:  envelope,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := s.repomanager.Entries(s.db).Put(ctx, e); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "entry created", "entry_id", e.ID, "vault_id", e.VaultID, "kind", e.Kind, "sealing", e.Sealing)
	return e, nil
}

// ImportEnvelope stores a blob entry that a remote client already sealed with
// the exported master key. The envelope is opened once to prove it was sealed
// with this vault's key; the plaintext is discarded.
func (s *VaultService) ImportEnvelope(ctx context.Context, vaultID, id, envelopeB64 string) (*models.Entry, error) {
	if vaultID == "" {
		return nil, fmt.Errorf("%w: vault id is required", common.ErrorValidation)
	}

	envelope, err := cryptox.DecodeBase64(envelopeB64)
	if err != nil {
		return nil, err
	}
	err = s.key.Use(func(key []byte) error {
		plaintext, err := cryptox.Open(envelope, key)
		common.WipeByteArray(plaintext)
		return err
	})
	if err != nil {
		return nil, err
	}

	if id == "" {
		id = uuid.NewString()
	}
	ts := s.now()
	e := &models.Entry{
		ID:        id,
		VaultID:   vaultID,
		Kind:      vaultentry.KindBlob,
		Sealing:   vaultentry.SealingMaster,
		Envelope:  envelope,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := s.repomanager.Entries(s.db).Put(ctx, e); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "envelope imported", "entry_id", e.ID, "vault_id", e.VaultID)
	return e, nil
}

// List opens every entry of the vault. Entries that cannot be opened or
// decoded come back Raw with the reason attached; only a storage failure
// fails the call. password opens password-sealed entries and may be empty.
func (s *VaultService) List(ctx context.Context, vaultID string, password []byte) ([]vaultentry.Result, error) {
	stored, err := s.repomanager.Entries(s.db).ListByVault(ctx, vaultID)
	if err != nil {
		return nil, err
	}

	results := make([]vaultentry.Result, 0, len(stored))
	for _, e := range stored {
		r := s.open(e, password)
		if !r.IsDecoded() && !errors.Is(r.Err, ErrPasswordRequired) {
			s.logger.Warn(ctx, "entry left raw", "entry_id", e.ID, "vault_id", e.VaultID, "reason", r.Err)
		}
		results = append(results, r)
	}
	return results, nil
}

// Get opens a single entry of the vault. Like List, an entry that cannot be
// opened comes back Raw rather than as an error. An entry of another vault
// is common.ErrorNotFound.
func (s *VaultService) Get(ctx context.Context, vaultID, id string, password []byte) (vaultentry.Result, error) {
	if vaultID == "" || id == "" {
		return vaultentry.Result{}, fmt.Errorf("%w: vault id and entry id are required", common.ErrorValidation)
	}

	e, err := s.repomanager.Entries(s.db).Get(ctx, id)
	if err != nil {
		return vaultentry.Result{}, err
	}
	if e.VaultID != vaultID {
		return vaultentry.Result{}, common.ErrorNotFound
	}

	r := s.open(e, password)
	if !r.IsDecoded() && !errors.Is(r.Err, ErrPasswordRequired) {
		s.logger.Warn(ctx, "entry left raw", "entry_id", e.ID, "vault_id", e.VaultID, "reason", r.Err)
	}
	return r, nil
}

// Update reseals an existing entry. The read, ownership check and write run
// in one transaction; a foreign vault sees common.ErrorNotFound.
func (s *VaultService) Update(ctx context.Context, in UpdateInput) (*models.Entry, error) {
	if in.VaultID == "" || in.ID == "" {
		return nil, fmt.Errorf("%w: vault id and entry id are required", common.ErrorValidation)
	}

	// Sealing runs Argon2id for password entries; keep it out of the transaction.
	envelope, sealing, err := s.seal(in.Payload, in.Password)
	if err != nil {
		return nil, err
	}

	var updated *models.Entry
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Entries(tx)

		current, err := repo.Get(ctx, in.ID)
		if err != nil {
			return err
		}
		if current.VaultID != in.VaultID {
			return common.ErrorNotFound
		}

		current.Kind = in.Payload.Kind
		current.Sealing = sealing
		current.Envelope = envelope
		current.UpdatedAt = s.now()
		if err := repo.Update(ctx, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "entry updated", "entry_id", updated.ID, "vault_id", updated.VaultID, "sealing", updated.Sealing)
	return updated, nil
}

// Delete removes an entry of the vault.
func (s *VaultService) Delete(ctx context.Context, vaultID, id string) error {
	if err := s.repomanager.Entries(s.db).Delete(ctx, vaultID, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "entry deleted", "entry_id", id, "vault_id", vaultID)
	return nil
}

func (s *VaultService) seal(p vaultentry.Payload, password []byte) ([]byte, vaultentry.Sealing, error) {
	plaintext, err := vaultentry.Encode(p)
	if err != nil {
		return nil, "", err
	}
	if p.Kind == vaultentry.KindFields {
		defer common.WipeByteArray(plaintext)
	}

	if len(password) > 0 {
		envelope, err := cryptox.SealWithPassword(plaintext, password, s.kdf)
		if err != nil {
			return nil, "", err
		}
		return envelope, vaultentry.SealingPassword, nil
	}

	var envelope []byte
	err = s.key.Use(func(key []byte) error {
		var err error
		envelope, err = cryptox.Seal(plaintext, key)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return envelope, vaultentry.SealingMaster, nil
}

func (s *VaultService) open(e *models.Entry, password []byte) vaultentry.Result {
	r := vaultentry.Result{
		EntryID:   e.ID,
		VaultID:   e.VaultID,
		Sealing:   e.Sealing,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}

	var plaintext []byte
	var err error
	switch e.Sealing {
	case vaultentry.SealingPassword:
		if len(password) == 0 {
			err = ErrPasswordRequired
			break
		}
		plaintext, err = cryptox.OpenWithPassword(e.Envelope, password, s.kdf)
	default:
		err = s.key.Use(func(key []byte) error {
			var err error
			plaintext, err = cryptox.Open(e.Envelope, key)
			return err
		})
	}

	var payload vaultentry.Payload
	if err == nil {
		payload, err = vaultentry.Decode(e.Kind, plaintext)
	}
	if err != nil {
		r.State = vaultentry.StateRaw
		r.Envelope = e.Envelope
		r.Err = err
		return r
	}

	r.State = vaultentry.StateDecoded
	r.Payload = &payload
	return r
}
