package cache

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrNotFound is returned by Storage.Get for a missing key.
	ErrNotFound = errors.New("cache: key not found")
	// ErrStorageUnavailable means the backend could not be reached or used.
	ErrStorageUnavailable = errors.New("cache: storage unavailable")
	// ErrQuotaExceeded means the backend is full.
	ErrQuotaExceeded = errors.New("cache: storage quota exceeded")
)

// Storage is a byte-oriented key/value store.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// MemoryStorage keeps values in process memory. A positive Quota caps the
// total number of stored bytes.
type MemoryStorage struct {
	Quota int

	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryStorage returns an empty MemoryStorage with no quota.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

// Get implements Storage.
func (m *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set implements Storage.
func (m *MemoryStorage) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	if m.Quota > 0 {
		used := 0
		for k, v := range m.data {
			if k != key {
				used += len(v)
			}
		}
		if used+len(value) > m.Quota {
			return ErrQuotaExceeded
		}
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete implements Storage.
func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
