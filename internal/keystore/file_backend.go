package keystore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/bitguard/internal/common"
	"github.com/dmitrijs2005/bitguard/internal/filex"
)

// FileBackend keeps the key as a flat file of exactly 32 raw bytes with no
// header or version.
type FileBackend struct {
	path string
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (b *FileBackend) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("read %s: %w", b.path, err)
	}
	return data, nil
}

func (b *FileBackend) Save(_ context.Context, key []byte) error {
	err := filex.WriteExclusive(b.path, key, 0o600)
	if errors.Is(err, filex.ErrFileExists) {
		return ErrKeyExists
	}
	return err
}

func (b *FileBackend) Location() string {
	if abs, err := filepath.Abs(b.path); err == nil {
		return abs
	}
	return b.path
}
