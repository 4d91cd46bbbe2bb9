// Package filex holds small filesystem helpers for secret material.
package filex

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrFileExists is returned by WriteExclusive when the target already exists.
var ErrFileExists = errors.New("file already exists")

// EnsureParentDir creates the directory that will hold path, owner-only.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// link is a test seam for os.Link.
var link = os.Link

// WriteExclusive writes data to path with perm, failing with ErrFileExists if
// the file is already there. The data goes to a synced temporary file in the
// same directory which is then hard-linked into place, so path never exists
// with partial contents. The temporary file is always removed.
func WriteExclusive(path string, data []byte, perm fs.FileMode) error {
	if err := EnsureParentDir(path); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := writeSynced(tmp, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", tmpName, err)
	}

	if err := link(tmpName, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrFileExists
		}
		return fmt.Errorf("link %s: %w", path, err)
	}
	return nil
}

func writeSynced(f *os.File, data []byte, perm fs.FileMode) error {
	if err := f.Chmod(perm); err != nil {
		_ = f.Close()
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
