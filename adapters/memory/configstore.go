// Package memory provides in-memory implementations of storage ports.
// Used in tests and for the ephemeral guest ledger.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/scribefox/creditgate/ports"
)

// ConfigStore is an in-memory implementation of ports.ConfigStore.
type ConfigStore struct {
	mu    sync.RWMutex
	blobs map[string]ports.ConfigBlob
}

// NewConfigStore creates a new in-memory config store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{blobs: make(map[string]ports.ConfigBlob)}
}

// Get retrieves a blob by key.
func (s *ConfigStore) Get(ctx context.Context, key string) (ports.ConfigBlob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blobs[key]
	if !ok {
		return ports.ConfigBlob{}, ports.ErrNotFound
	}
	return b, nil
}

// Put replaces a blob with optimistic version checking.
func (s *ConfigStore) Put(ctx context.Context, key string, value []byte, actor string, expectedVersion int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.blobs[key] // zero value when absent, Version 0
	if expectedVersion != 0 && expectedVersion != current.Version {
		return 0, ports.ErrVersionConflict
	}

	next := ports.ConfigBlob{
		Key:       key,
		Value:     append([]byte(nil), value...),
		Version:   current.Version + 1,
		UpdatedBy: actor,
		UpdatedAt: time.Now().UTC(),
	}
	s.blobs[key] = next
	return next.Version, nil
}

// Clear removes all blobs (for testing).
func (s *ConfigStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs = make(map[string]ports.ConfigBlob)
}

// Ensure interface compliance.
var _ ports.ConfigStore = (*ConfigStore)(nil)
