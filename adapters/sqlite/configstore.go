package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/scribefox/creditgate/ports"
)

// ConfigStore implements ports.ConfigStore with SQLite.
type ConfigStore struct {
	db *DB
}

// NewConfigStore creates a new SQLite config store.
func NewConfigStore(db *DB) *ConfigStore {
	return &ConfigStore{db: db}
}

// Get retrieves a blob by key.
func (s *ConfigStore) Get(ctx context.Context, key string) (ports.ConfigBlob, error) {
	var b ports.ConfigBlob
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT key, value, version, updated_by, updated_at
		FROM config_blobs WHERE key = ?
	`, key).Scan(&b.Key, &value, &b.Version, &b.UpdatedBy, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return ports.ConfigBlob{}, ports.ErrNotFound
	}
	if err != nil {
		return ports.ConfigBlob{}, err
	}
	b.Value = []byte(value)
	return b, nil
}

// Put replaces a blob with optimistic version checking.
// The version guard runs inside the UPDATE/INSERT statements themselves,
// so two admins saving concurrently cannot silently clobber each other.
func (s *ConfigStore) Put(ctx context.Context, key string, value []byte, actor string, expectedVersion int64) (int64, error) {
	now := time.Now().UTC()

	if expectedVersion == 0 {
		// Unconditional create-or-replace.
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO config_blobs (key, value, version, updated_by, updated_at)
			VALUES (?, ?, 1, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				version = config_blobs.version + 1,
				updated_by = excluded.updated_by,
				updated_at = excluded.updated_at
		`, key, string(value), actor, now)
		if err != nil {
			return 0, err
		}
		return s.currentVersion(ctx, key)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE config_blobs
		SET value = ?, version = version + 1, updated_by = ?, updated_at = ?
		WHERE key = ? AND version = ?
	`, string(value), actor, now, key, expectedVersion)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ports.ErrVersionConflict
	}
	return expectedVersion + 1, nil
}

func (s *ConfigStore) currentVersion(ctx context.Context, key string) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx,
		"SELECT version FROM config_blobs WHERE key = ?", key).Scan(&v)
	return v, err
}

// Ensure interface compliance.
var _ ports.ConfigStore = (*ConfigStore)(nil)
