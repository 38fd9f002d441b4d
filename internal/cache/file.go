package cache

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStorage stores each key as a JSON file under a directory.
type FileStorage struct {
	dir string
}

// NewFileStorage creates a FileStorage rooted at dir.
// If dir is empty, it defaults to ~/.cache/quranlake/.
func NewFileStorage(dir string) (*FileStorage, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".cache", "quranlake")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: cannot create cache directory %s: %w", ErrStorageUnavailable, dir, err)
	}

	return &FileStorage{dir: dir}, nil
}

// Dir returns the storage directory.
func (f *FileStorage) Dir() string { return f.dir }

// fileName hashes the key so any key maps to a safe, fixed-length name.
func fileName(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x.json", h[:8])
}

func (f *FileStorage) path(key string) string {
	return filepath.Join(f.dir, fileName(key))
}

// Get implements Storage.
func (f *FileStorage) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return data, nil
}

// Set implements Storage. The write goes to a temp file that is renamed
// into place, so readers never see a partial value.
func (f *FileStorage) Set(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to write cache file: %w", ErrStorageUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

// Delete implements Storage. Deleting a missing key is not an error.
func (f *FileStorage) Delete(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return nil
}
