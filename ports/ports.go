// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/scribefox/creditgate/domain/guest"
	"github.com/scribefox/creditgate/domain/service"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Hasher provides password/token hashing.
type Hasher interface {
	// Hash generates a hash from a plaintext value.
	Hash(plaintext string) ([]byte, error)

	// Compare checks if plaintext matches hash.
	Compare(hash []byte, plaintext string) bool
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// ErrNotFound is returned by stores when an entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrVersionConflict is returned when a versioned write loses a race with
// a concurrent writer. The caller should reload and retry.
var ErrVersionConflict = errors.New("version conflict")

// ErrInsufficientCredits is returned by DebitCredits when the conditional
// decrement fails because the stored balance no longer covers the cost.
var ErrInsufficientCredits = errors.New("insufficient credits")

// ConfigBlob is one versioned JSON configuration value.
type ConfigBlob struct {
	Key       string
	Value     []byte // raw JSON
	Version   int64  // optimistic concurrency token, starts at 1
	UpdatedBy string
	UpdatedAt time.Time
}

// ConfigStore persists JSON-shaped configuration blobs (the plan catalog,
// payment settings, AI platform settings), each addressed by a string key.
type ConfigStore interface {
	// Get retrieves a blob by key. Returns ErrNotFound when absent.
	Get(ctx context.Context, key string) (ConfigBlob, error)

	// Put replaces a blob. expectedVersion 0 means "create or replace
	// unconditionally"; any other value must match the stored version or
	// ErrVersionConflict is returned. The new version is returned.
	Put(ctx context.Context, key string, value []byte, actor string, expectedVersion int64) (int64, error)
}

// User represents an account as the entitlement core sees it.
type User struct {
	ID        string
	Email     string
	Name      string
	PlanID    string
	Credits   int64 // -1 = unlimited
	IsAdmin   bool
	Status    string // "active", "suspended"
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserStore persists user accounts and balances.
type UserStore interface {
	// Get retrieves a user by ID.
	Get(ctx context.Context, id string) (User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (User, error)

	// Create stores a new user.
	Create(ctx context.Context, u User) error

	// Update modifies an existing user.
	Update(ctx context.Context, u User) error

	// DebitCredits atomically decrements a balance if it still covers the
	// cost ("decrement if balance >= cost, else fail"), returning the new
	// balance. Unlimited balances (-1) are returned unchanged without a
	// write. Returns ErrInsufficientCredits when the condition fails.
	// The conditional decrement closes the check-then-act window between
	// the entitlement check and the debit.
	DebitCredits(ctx context.Context, id string, cost int64) (int64, error)

	// SetCredits overwrites a balance (admin grants, plan changes).
	SetCredits(ctx context.Context, id string, credits int64) error

	// List returns users with pagination.
	List(ctx context.Context, limit, offset int) ([]User, error)
}

// GuestStore tracks guest shadows by an opaque client token.
type GuestStore interface {
	// Get retrieves a shadow. Returns ErrNotFound for first-time visitors.
	Get(ctx context.Context, token string) (guest.Shadow, error)

	// Put stores a shadow.
	Put(ctx context.Context, token string, s guest.Shadow) error
}

// -----------------------------------------------------------------------------
// External Service Ports
// -----------------------------------------------------------------------------

// GenerationRequest is the input to the opaque generation RPC.
type GenerationRequest struct {
	Prompt  string
	Service service.Key
	UserID  string // empty for guests
	Options map[string]any
}

// GenerationSource is one citation attached to generated content.
type GenerationSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// GenerationResult is the output of the generation RPC.
type GenerationResult struct {
	Text    string             `json:"text"`
	Sources []GenerationSource `json:"sources,omitempty"`
}

// Generator invokes the remote AI generation backend. The call is opaque:
// the core only interprets success or failure and the returned text.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
}

// -----------------------------------------------------------------------------
// Audit Ports
// -----------------------------------------------------------------------------

// AuditEntry records one entitlement-affecting administrative action.
type AuditEntry struct {
	ID        string
	ActorID   string
	Action    string
	Module    string
	Details   []byte // raw JSON
	CreatedAt time.Time
}

// AuditLog records administrative actions. Recording is fire-and-forget:
// failures are logged, never propagated to the caller.
type AuditLog interface {
	// Record stores an audit entry.
	Record(ctx context.Context, entry AuditEntry) error

	// List returns recent entries, newest first.
	List(ctx context.Context, limit int) ([]AuditEntry, error)
}
