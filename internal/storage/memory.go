package storage

import (
	"context"
	"errors"
	"sync"
)

var errStorageFull = errors.New("storage quota exceeded")

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// MemoryStorage is the fallback backend when no Redis address is
// configured. Contents last for the lifetime of the process.
type MemoryStorage struct {
	mu   sync.Mutex
	data []byte
	set  bool

	// FailWrites makes every Write return an error (tests only).
	FailWrites bool
}

func (m *MemoryStorage) Read(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return nil, ErrNotFound
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, nil
}

func (m *MemoryStorage) Write(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return errStorageFull
	}
	m.data = make([]byte, len(data))
	copy(m.data, data)
	m.set = true
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	m.set = false
	return nil
}
