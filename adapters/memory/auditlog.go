package memory

import (
	"context"
	"sync"

	"github.com/scribefox/creditgate/ports"
)

// AuditLog is an in-memory implementation of ports.AuditLog.
type AuditLog struct {
	mu      sync.RWMutex
	entries []ports.AuditEntry
}

// NewAuditLog creates a new in-memory audit log.
func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

// Record stores an audit entry.
func (l *AuditLog) Record(ctx context.Context, entry ports.AuditEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return nil
}

// List returns recent entries, newest first.
func (l *AuditLog) List(ctx context.Context, limit int) ([]ports.AuditEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]ports.AuditEntry, 0, len(l.entries))
	for i := len(l.entries) - 1; i >= 0; i-- {
		out = append(out, l.entries[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Ensure interface compliance.
var _ ports.AuditLog = (*AuditLog)(nil)
