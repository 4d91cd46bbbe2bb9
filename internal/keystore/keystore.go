// Package keystore owns the process-wide master key.
//
// The key is 32 random bytes created once, persisted through a Backend and
// loaded unchanged on every later start. It is never rotated. In memory it
// lives in a memguard Enclave and is only decrypted into locked memory for
// the duration of a MasterKey.Use callback.
package keystore

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/bitguard/internal/common"
	"github.com/dmitrijs2005/bitguard/internal/logging"
)

// ErrKeyExists is returned by Backend.Save when another process persisted a
// key first. KeyStore reacts by loading that key.
var ErrKeyExists = errors.New("master key already persisted")

// Backend persists exactly one raw key.
type Backend interface {
	// Load returns the stored bytes, or common.ErrorNotFound if nothing is stored.
	Load(ctx context.Context) ([]byte, error)
	// Save stores key. It must not overwrite an existing key.
	Save(ctx context.Context, key []byte) error
	// Location describes where the key lives, for the operator banner.
	Location() string
}

// MasterKey is an opaque handle to the loaded key. It is immutable and safe
// for concurrent use.
type MasterKey struct {
	enclave *memguard.Enclave
}

// Use decrypts the key into locked memory, calls fn with it and destroys the
// buffer afterwards. fn must not retain the slice.
func (k *MasterKey) Use(fn func(key []byte) error) error {
	buf, err := k.enclave.Open()
	if err != nil {
		return fmt.Errorf("open key enclave: %w", err)
	}
	defer buf.Destroy()
	return fn(buf.Bytes())
}

// ExportBase64 returns the raw key in base64 for one-time provisioning of a
// remote client that encrypts locally. Anyone holding the result can decrypt
// the whole vault; callers must sit behind an authentication gate.
func (k *MasterKey) ExportBase64() (string, error) {
	var out string
	err := k.Use(func(key []byte) error {
		out = base64.StdEncoding.EncodeToString(key)
		return nil
	})
	return out, err
}

// KeyStore performs the one-time load-or-create of the master key.
type KeyStore struct {
	backend Backend
	logger  logging.Logger
	banner  io.Writer

	mu  sync.Mutex
	key atomic.Pointer[MasterKey]
}

// New returns a KeyStore over backend. The irreplaceable-key banner is
// written to banner (os.Stderr in production) when a key is generated.
func New(backend Backend, logger logging.Logger, banner io.Writer) *KeyStore {
	if banner == nil {
		banner = io.Discard
	}
	return &KeyStore{
		backend: backend,
		logger:  logger.With("module", "keystore"),
		banner:  banner,
	}
}

// Load returns the master key, loading or creating it on first call.
// Concurrent callers block until the first load finishes and then all see the
// same handle. A failed load is not cached, but ErrCorruptKeyStore is fatal
// and should stop the process.
func (s *KeyStore) Load(ctx context.Context) (*MasterKey, error) {
	if k := s.key.Load(); k != nil {
		return k, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if k := s.key.Load(); k != nil {
		return k, nil
	}

	k, err := s.loadOrCreate(ctx)
	if err != nil {
		return nil, err
	}
	s.key.Store(k)
	return k, nil
}

func (s *KeyStore) loadOrCreate(ctx context.Context) (*MasterKey, error) {
	raw, err := s.backend.Load(ctx)
	switch {
	case err == nil:
		return s.fromStored(ctx, raw)
	case errors.Is(err, common.ErrorNotFound):
		return s.create(ctx)
	default:
		return nil, fmt.Errorf("load master key: %w", err)
	}
}

func (s *KeyStore) fromStored(ctx context.Context, raw []byte) (*MasterKey, error) {
	if len(raw) != common.MasterKeySize {
		size := len(raw)
		memguard.WipeBytes(raw)
		return nil, fmt.Errorf("%w: %s holds %d bytes, expected %d",
			common.ErrCorruptKeyStore, s.backend.Location(), size, common.MasterKeySize)
	}
	s.logger.Info(ctx, "master key loaded", "location", s.backend.Location())
	// NewEnclave wipes raw.
	return &MasterKey{enclave: memguard.NewEnclave(raw)}, nil
}

func (s *KeyStore) create(ctx context.Context) (*MasterKey, error) {
	key := make([]byte, common.MasterKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate master key: %w", err)
	}

	if err := s.backend.Save(ctx, key); err != nil {
		memguard.WipeBytes(key)
		if errors.Is(err, ErrKeyExists) {
			s.logger.Info(ctx, "master key created concurrently, loading it", "location", s.backend.Location())
			raw, err := s.backend.Load(ctx)
			if err != nil {
				return nil, fmt.Errorf("load master key: %w", err)
			}
			return s.fromStored(ctx, raw)
		}
		return nil, fmt.Errorf("persist master key: %w", err)
	}

	s.logger.Warn(ctx, "new master key generated; back it up, losing it loses every entry",
		"location", s.backend.Location())
	s.writeBanner()

	return &MasterKey{enclave: memguard.NewEnclave(key)}, nil
}

func (s *KeyStore) writeBanner() {
	line := strings.Repeat("=", 60)
	fmt.Fprintln(s.banner, line)
	fmt.Fprintln(s.banner, "  BitGuard: NEW ENCRYPTION KEY GENERATED")
	fmt.Fprintf(s.banner, "  Saved to: %s\n", s.backend.Location())
	fmt.Fprintln(s.banner, "  Back this key up. Losing it means losing all vault data.")
	fmt.Fprintln(s.banner, line)
}
