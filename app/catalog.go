// Package app provides application services that orchestrate domain logic.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/scribefox/creditgate/adapters/metrics"
	"github.com/scribefox/creditgate/domain/plan"
	"github.com/scribefox/creditgate/domain/pricing"
	"github.com/scribefox/creditgate/ports"
)

// CatalogKey is the config store key holding the plan catalog blob.
const CatalogKey = "plans"

// ErrConfigUnavailable wraps store failures on the save path. The load path
// recovers to in-code defaults instead.
var ErrConfigUnavailable = errors.New("config store unavailable")

// CatalogService manages the plan catalog: load with fallback, cost
// synchronization, validation, versioned save, and an in-memory cache.
type CatalogService struct {
	store   ports.ConfigStore
	audit   ports.AuditLog
	idGen   ports.IDGenerator
	clock   ports.Clock
	costs   pricing.CostTable
	logger  zerolog.Logger
	metrics *metrics.Collector

	mu      sync.RWMutex
	cached  []plan.Plan
	version int64
	loaded  bool
}

// CatalogDeps contains dependencies for CatalogService.
type CatalogDeps struct {
	Store   ports.ConfigStore
	Audit   ports.AuditLog
	IDGen   ports.IDGenerator
	Clock   ports.Clock
	Costs   pricing.CostTable
	Logger  zerolog.Logger
	Metrics *metrics.Collector
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(deps CatalogDeps) *CatalogService {
	costs := deps.Costs
	if costs == nil {
		costs = pricing.DefaultCostTable()
	}
	return &CatalogService{
		store:   deps.Store,
		audit:   deps.Audit,
		idGen:   deps.IDGen,
		clock:   deps.Clock,
		costs:   costs,
		logger:  deps.Logger,
		metrics: deps.Metrics,
	}
}

// Load returns the synchronized plan catalog, reading through the cache.
// An absent, empty, or unreadable blob falls back to the in-code defaults.
// The fallback is cached but never persisted: the store may merely be slow
// or transiently empty, and silently writing defaults over it would destroy
// an administrator's configuration.
func (s *CatalogService) Load(ctx context.Context) ([]plan.Plan, error) {
	s.mu.RLock()
	if s.loaded {
		plans := clonePlans(s.cached)
		s.mu.RUnlock()
		return plans, nil
	}
	s.mu.RUnlock()

	return s.Reload(ctx)
}

// Reload bypasses the cache and re-reads the catalog from the store.
func (s *CatalogService) Reload(ctx context.Context) ([]plan.Plan, error) {
	if s.metrics != nil {
		s.metrics.CatalogLoads.Inc()
	}

	plans, version := s.fetch(ctx)
	plans = pricing.Sync(plans, s.costs)

	s.mu.Lock()
	s.cached = plans
	s.version = version
	s.loaded = true
	s.mu.Unlock()

	return clonePlans(plans), nil
}

// clonePlans snapshots the catalog, including each plan's permission rows,
// so callers can rewrite what they got without touching the shared cache.
func clonePlans(plans []plan.Plan) []plan.Plan {
	out := make([]plan.Plan, len(plans))
	for i, p := range plans {
		p.Services = append([]plan.ServicePermission(nil), p.Services...)
		out[i] = p
	}
	return out
}

// fetch reads the stored blob, degrading to defaults on any failure.
func (s *CatalogService) fetch(ctx context.Context) ([]plan.Plan, int64) {
	blob, err := s.store.Get(ctx, CatalogKey)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			s.logger.Warn().Err(err).Msg("plan catalog unreadable, using defaults")
		}
		if s.metrics != nil {
			s.metrics.CatalogFallbacks.Inc()
		}
		return plan.Defaults(), 0
	}

	var plans []plan.Plan
	if err := json.Unmarshal(blob.Value, &plans); err != nil {
		s.logger.Warn().Err(err).Msg("plan catalog blob malformed, using defaults")
		if s.metrics != nil {
			s.metrics.CatalogFallbacks.Inc()
		}
		return plan.Defaults(), 0
	}
	if len(plans) == 0 {
		if s.metrics != nil {
			s.metrics.CatalogFallbacks.Inc()
		}
		return plan.Defaults(), blob.Version
	}
	return plans, blob.Version
}

// Version returns the catalog version currently cached. Zero means the
// catalog has never been saved (defaults in effect).
func (s *CatalogService) Version() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Save validates, synchronizes, and persists the full catalog as one blob,
// replacing the previous value entirely. expectedVersion guards against
// concurrent admin edits; pass the version returned by the last load.
// The cache is updated only on success.
func (s *CatalogService) Save(ctx context.Context, plans []plan.Plan, actorID string, expectedVersion int64) ([]plan.Plan, int64, error) {
	if err := plan.Validate(plans); err != nil {
		return nil, 0, err
	}

	// Normalize every plan to one permission row per known key, then apply
	// the authoritative cost table.
	normalized := make([]plan.Plan, len(plans))
	for i, p := range plans {
		p.Services = plan.MergeServices(p)
		normalized[i] = p
	}
	normalized = pricing.Sync(normalized, s.costs)

	value, err := json.Marshal(normalized)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal catalog: %w", err)
	}

	version, err := s.store.Put(ctx, CatalogKey, value, actorID, expectedVersion)
	if err != nil {
		if errors.Is(err, ports.ErrVersionConflict) {
			if s.metrics != nil {
				s.metrics.CatalogSaveConflicts.Inc()
			}
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrConfigUnavailable, err)
	}

	s.mu.Lock()
	s.cached = normalized
	s.version = version
	s.loaded = true
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.CatalogSaves.Inc()
	}
	s.recordAudit(ctx, actorID, "plans.save", map[string]any{
		"plan_count": len(normalized),
		"version":    version,
	})

	s.logger.Info().Str("actor", actorID).Int("plans", len(normalized)).
		Int64("version", version).Msg("plan catalog saved")
	return clonePlans(normalized), version, nil
}

// recordAudit is fire-and-forget: audit failures are logged, never surfaced.
func (s *CatalogService) recordAudit(ctx context.Context, actorID, action string, details map[string]any) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(details)
	entry := ports.AuditEntry{
		ID:        s.idGen.New(),
		ActorID:   actorID,
		Action:    action,
		Module:    "plans",
		Details:   payload,
		CreatedAt: s.clock.Now(),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("audit record failed")
	}
}
