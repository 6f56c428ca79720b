package memory

import (
	"context"
	"sync"

	"github.com/scribefox/creditgate/domain/guest"
	"github.com/scribefox/creditgate/ports"
)

// GuestStore is an in-memory implementation of ports.GuestStore.
// Guest shadows are deliberately ephemeral: a restart clears them, which is
// equivalent to a guest clearing local storage.
type GuestStore struct {
	mu      sync.RWMutex
	shadows map[string]guest.Shadow
}

// NewGuestStore creates a new in-memory guest store.
func NewGuestStore() *GuestStore {
	return &GuestStore{shadows: make(map[string]guest.Shadow)}
}

// Get retrieves a shadow by client token.
func (s *GuestStore) Get(ctx context.Context, token string) (guest.Shadow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sh, ok := s.shadows[token]
	if !ok {
		return guest.Shadow{}, ports.ErrNotFound
	}
	return sh, nil
}

// Put stores a shadow.
func (s *GuestStore) Put(ctx context.Context, token string, sh guest.Shadow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shadows[token] = sh
	return nil
}

// Ensure interface compliance.
var _ ports.GuestStore = (*GuestStore)(nil)
