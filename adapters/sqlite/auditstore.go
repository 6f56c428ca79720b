package sqlite

import (
	"context"

	"github.com/scribefox/creditgate/ports"
)

// AuditStore implements ports.AuditLog with SQLite.
type AuditStore struct {
	db *DB
}

// NewAuditStore creates a new SQLite audit store.
func NewAuditStore(db *DB) *AuditStore {
	return &AuditStore{db: db}
}

// Record stores an audit entry.
func (s *AuditStore) Record(ctx context.Context, entry ports.AuditEntry) error {
	details := entry.Details
	if len(details) == 0 {
		details = []byte("{}")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, actor_id, action, module, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.ActorID, entry.Action, entry.Module, string(details), entry.CreatedAt)
	return err
}

// List returns recent entries, newest first.
func (s *AuditStore) List(ctx context.Context, limit int) ([]ports.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_id, action, module, details, created_at
		FROM audit_log ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ports.AuditEntry
	for rows.Next() {
		var e ports.AuditEntry
		var details string
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Module, &details, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Details = []byte(details)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Ensure interface compliance.
var _ ports.AuditLog = (*AuditStore)(nil)
