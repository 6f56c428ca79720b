package sqlite

import (
	"context"
	"database/sql"

	"github.com/scribefox/creditgate/domain/plan"
	"github.com/scribefox/creditgate/ports"
)

// UserStore implements ports.UserStore with SQLite.
type UserStore struct {
	db *DB
}

// NewUserStore creates a new SQLite user store.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, email, name, plan_id, credits, is_admin, status, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (ports.User, error) {
	var u ports.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PlanID, &u.Credits,
		&u.IsAdmin, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Get retrieves a user by ID.
func (s *UserStore) Get(ctx context.Context, id string) (ports.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return ports.User{}, ports.ErrNotFound
	}
	return u, err
}

// GetByEmail retrieves a user by email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (ports.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ?", email))
	if err == sql.ErrNoRows {
		return ports.User{}, ports.ErrNotFound
	}
	return u, err
}

// Create stores a new user.
func (s *UserStore) Create(ctx context.Context, u ports.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, plan_id, credits, is_admin, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.Name, u.PlanID, u.Credits, u.IsAdmin, u.Status)
	return err
}

// Update modifies an existing user.
func (s *UserStore) Update(ctx context.Context, u ports.User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET email = ?, name = ?, plan_id = ?, credits = ?,
						 is_admin = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, u.Email, u.Name, u.PlanID, u.Credits, u.IsAdmin, u.Status, u.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// DebitCredits atomically decrements a balance if it still covers the cost.
// The condition lives in the UPDATE's WHERE clause, so concurrent debits
// against a stale snapshot cannot drive the balance negative.
func (s *UserStore) DebitCredits(ctx context.Context, id string, cost int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET credits = credits - ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND credits >= ? AND credits != ?
	`, cost, id, cost, plan.UnlimitedCredits)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	var credits int64
	err = s.db.QueryRowContext(ctx,
		"SELECT credits FROM users WHERE id = ?", id).Scan(&credits)
	if err == sql.ErrNoRows {
		return 0, ports.ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	if n == 0 {
		if credits == plan.UnlimitedCredits {
			// Unlimited balances are never written.
			return credits, nil
		}
		return credits, ports.ErrInsufficientCredits
	}
	return credits, nil
}

// SetCredits overwrites a balance.
func (s *UserStore) SetCredits(ctx context.Context, id string, credits int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET credits = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, credits, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// List returns users with pagination.
func (s *UserStore) List(ctx context.Context, limit, offset int) ([]ports.User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []ports.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Ensure interface compliance.
var _ ports.UserStore = (*UserStore)(nil)
