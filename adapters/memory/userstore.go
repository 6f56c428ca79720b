package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/scribefox/creditgate/domain/plan"
	"github.com/scribefox/creditgate/ports"
)

// UserStore is an in-memory implementation of ports.UserStore.
type UserStore struct {
	mu      sync.Mutex
	users   map[string]ports.User // by ID
	byEmail map[string]string     // email -> ID
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		users:   make(map[string]ports.User),
		byEmail: make(map[string]string),
	}
}

// Get retrieves a user by ID.
func (s *UserStore) Get(ctx context.Context, id string) (ports.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ports.User{}, ports.ErrNotFound
	}
	return u, nil
}

// GetByEmail retrieves a user by email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (ports.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return ports.User{}, ports.ErrNotFound
	}
	return s.users[id], nil
}

// Create stores a new user.
func (s *UserStore) Create(ctx context.Context, u ports.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[u.Email]; exists {
		return errors.New("email already exists")
	}

	s.users[u.ID] = u
	s.byEmail[u.Email] = u.ID
	return nil
}

// Update modifies an existing user.
func (s *UserStore) Update(ctx context.Context, u ports.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.users[u.ID]
	if !ok {
		return ports.ErrNotFound
	}

	if old.Email != u.Email {
		delete(s.byEmail, old.Email)
		s.byEmail[u.Email] = u.ID
	}

	s.users[u.ID] = u
	return nil
}

// DebitCredits atomically decrements a balance if it still covers the cost.
// The whole read-check-write runs under the store lock, so two concurrent
// debits against the same stale snapshot cannot both pass.
func (s *UserStore) DebitCredits(ctx context.Context, id string, cost int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return 0, ports.ErrNotFound
	}
	if u.Credits == plan.UnlimitedCredits {
		return u.Credits, nil
	}
	if u.Credits < cost {
		return u.Credits, ports.ErrInsufficientCredits
	}

	u.Credits -= cost
	s.users[id] = u
	return u.Credits, nil
}

// SetCredits overwrites a balance.
func (s *UserStore) SetCredits(ctx context.Context, id string, credits int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ports.ErrNotFound
	}
	u.Credits = credits
	s.users[id] = u
	return nil
}

// List returns users with pagination.
func (s *UserStore) List(ctx context.Context, limit, offset int) ([]ports.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]ports.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// Ensure interface compliance.
var _ ports.UserStore = (*UserStore)(nil)
