package credential

import (
	"context"
	"sync"
)

// MemoryStore keeps the credential in process memory. Nothing survives a
// restart, which makes it suitable for tests and ephemeral clients.
type MemoryStore struct {
	mu         sync.RWMutex
	credential string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(ctx context.Context, credential string) error {
	if credential == "" {
		return ErrEmptyCredential
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.credential = credential
	return nil
}

func (m *MemoryStore) Load(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.credential == "" {
		return "", ErrNotFound
	}
	return m.credential, nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credential = ""
	return nil
}
