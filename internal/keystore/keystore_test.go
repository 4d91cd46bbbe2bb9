package keystore

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dmitrijs2005/bitguard/internal/common"
	"github.com/dmitrijs2005/bitguard/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exported(t *testing.T, k *MasterKey) []byte {
	t.Helper()
	s, err := k.ExportBase64()
	require.NoError(t, err)
	b, err := base64.StdEncoding.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestLoad_GeneratesAndPersistsOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".key_db")
	var banner bytes.Buffer

	ks := New(NewFileBackend(path), logging.Discard(), &banner)
	k, err := ks.Load(context.Background())
	require.NoError(t, err)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, onDisk, common.MasterKeySize)
	assert.Equal(t, onDisk, exported(t, k))

	assert.Contains(t, banner.String(), "NEW ENCRYPTION KEY GENERATED")
	assert.Contains(t, banner.String(), path)
}

func TestLoad_IdempotentAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".key_db")
	ctx := context.Background()

	first, err := New(NewFileBackend(path), logging.Discard(), nil).Load(ctx)
	require.NoError(t, err)

	var banner bytes.Buffer
	second, err := New(NewFileBackend(path), logging.Discard(), &banner).Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, exported(t, first), exported(t, second))
	assert.Empty(t, banner.String(), "no banner when the key already exists")
}

func TestLoad_NewKeyAfterFileRemoved(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".key_db")
	ctx := context.Background()

	first, err := New(NewFileBackend(path), logging.Discard(), nil).Load(ctx)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	second, err := New(NewFileBackend(path), logging.Discard(), nil).Load(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, exported(t, first), exported(t, second))
}

func TestLoad_CorruptLength(t *testing.T) {
	for _, size := range []int{0, 16, 31, 33, 64} {
		path := filepath.Join(t.TempDir(), ".key_db")
		require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))

		_, err := New(NewFileBackend(path), logging.Discard(), nil).Load(context.Background())
		require.ErrorIs(t, err, common.ErrCorruptKeyStore, "size %d", size)

		// The file must be left untouched.
		onDisk, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Len(t, onDisk, size)
	}
}

func TestLoad_ConcurrentCallersShareOneKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".key_db")
	ks := New(NewFileBackend(path), logging.Discard(), nil)

	const n = 16
	keys := make([]*MasterKey, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k, err := ks.Load(context.Background())
			assert.NoError(t, err)
			keys[i] = k
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, keys[0], keys[i])
	}
}

type memBackend struct {
	mu      sync.Mutex
	data    []byte
	loadErr error
	saveErr error
	saves   int
}

func (m *memBackend) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.data == nil {
		return nil, common.ErrorNotFound
	}
	return append([]byte(nil), m.data...), nil
}

func (m *memBackend) Save(_ context.Context, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data = append([]byte(nil), key...)
	return nil
}

func (m *memBackend) Location() string { return "memory" }

// racingBackend simulates another process persisting a key between our
// Load and Save.
type racingBackend struct {
	memBackend
	winner []byte
}

func (r *racingBackend) Save(context.Context, []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = r.winner
	return ErrKeyExists
}

func TestLoad_LosesCreationRace(t *testing.T) {
	winner := bytes.Repeat([]byte{7}, common.MasterKeySize)
	b := &racingBackend{winner: winner}

	k, err := New(b, logging.Discard(), nil).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, winner, exported(t, k))
}

func TestLoad_BackendErrorNotCached(t *testing.T) {
	b := &memBackend{loadErr: errors.New("disk on fire")}
	ks := New(b, logging.Discard(), nil)

	_, err := ks.Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrCorruptKeyStore)

	b.loadErr = nil
	k, err := ks.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, k)
	assert.Equal(t, 1, b.saves)
}

func TestLoad_SaveFailure(t *testing.T) {
	b := &memBackend{saveErr: errors.New("read-only")}
	_, err := New(b, logging.Discard(), nil).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist master key")
}

func TestMasterKey_UsePropagatesError(t *testing.T) {
	k, err := New(&memBackend{}, logging.Discard(), nil).Load(context.Background())
	require.NoError(t, err)

	sentinel := errors.New("boom")
	err = k.Use(func(key []byte) error {
		assert.Len(t, key, common.MasterKeySize)
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
}
