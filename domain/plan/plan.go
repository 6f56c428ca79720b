// Package plan provides plan value types and pure functions.
package plan

import (
	"fmt"

	"github.com/scribefox/creditgate/domain/service"
)

// UnlimitedCredits is the only representation of an unlimited balance or
// allotment. All comparisons special-case it before doing arithmetic.
const UnlimitedCredits = -1

// FreePlanID is the catalog-wide fallback for stale plan references.
const FreePlanID = "free"

// Interval is the billing cadence carried on a plan.
type Interval string

const (
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"
)

// Plan represents one entitlement tier (immutable value type).
// The catalog is persisted as a single JSON blob, so the struct carries
// JSON tags matching the stored shape.
type Plan struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	Credits            int64               `json:"credits"` // -1 = unlimited
	PriceCents         int64               `json:"price"`
	Interval           Interval            `json:"interval"`
	IsActive           bool                `json:"isActive"`
	Services           []ServicePermission `json:"services"`
	ExpressCreditPrice int64               `json:"expressCreditPrice"`
	Color              string              `json:"color"`
}

// ServicePermission is one (plan, service) row.
type ServicePermission struct {
	Key           service.Key `json:"key"`
	Name          string      `json:"name"`
	Enabled       bool        `json:"enabled"`
	CreditsPerUse int64       `json:"creditsPerUse"`
}

// DefaultCreditsPerUse applies when stored data carries no cost.
const DefaultCreditsPerUse = 1

// IsUnlimited checks if a plan grants unlimited credits.
// This is a PURE function.
func IsUnlimited(p Plan) bool {
	return p.Credits == UnlimitedCredits
}

// FindPlan finds a plan by ID in a list.
// This is a PURE function.
func FindPlan(plans []Plan, id string) (Plan, bool) {
	for _, p := range plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// Permission finds the permission row for a key.
// Absence is reported, not defaulted; callers decide the fallback.
// This is a PURE function.
func Permission(p Plan, key service.Key) (ServicePermission, bool) {
	for _, sp := range p.Services {
		if sp.Key == key {
			return sp, true
		}
	}
	return ServicePermission{}, false
}

// MergeServices returns the plan's service list expanded to exactly one
// entry per known service key, in the canonical key order. Missing keys are
// synthesized as disabled with the default cost; stored rows keep their
// values, and blank names are filled from the label map. Rows for keys
// outside the enumeration are dropped.
// This is a PURE function.
func MergeServices(p Plan) []ServicePermission {
	byKey := make(map[service.Key]ServicePermission, len(p.Services))
	for _, sp := range p.Services {
		if _, seen := byKey[sp.Key]; seen {
			continue // first row wins on duplicates
		}
		byKey[sp.Key] = sp
	}

	merged := make([]ServicePermission, 0, len(service.All()))
	for _, key := range service.All() {
		sp, ok := byKey[key]
		if !ok {
			sp = ServicePermission{Key: key, Enabled: false, CreditsPerUse: DefaultCreditsPerUse}
		}
		if sp.Name == "" {
			sp.Name = service.Label(key)
		}
		if sp.CreditsPerUse <= 0 {
			sp.CreditsPerUse = DefaultCreditsPerUse
		}
		merged = append(merged, sp)
	}
	return merged
}

// Resolve maps a user's assigned plan ID to an effective plan.
// Lookup order: the assigned ID, then the free plan, then a zero-access
// placeholder. Resolution never fails; an unresolved plan degrades to a
// plan under which every access check is false.
// This is a PURE function.
func Resolve(plans []Plan, planID string) Plan {
	if p, ok := FindPlan(plans, planID); ok {
		return p
	}
	if p, ok := FindPlan(plans, FreePlanID); ok {
		return p
	}
	return Placeholder()
}

// Placeholder returns the maximally restrictive in-memory plan used when
// the catalog is empty or still loading. Zero credits, no services.
func Placeholder() Plan {
	return Plan{
		ID:       "none",
		Name:     "No Plan",
		Credits:  0,
		Interval: IntervalMonthly,
		IsActive: false,
		Services: nil,
	}
}

// ValidationError describes a malformed plan, naming the offending field.
type ValidationError struct {
	PlanID string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("plan %q: field %s: %s", e.PlanID, e.Field, e.Reason)
}

// Validate checks a full catalog before persistence.
// This is a PURE function.
func Validate(plans []Plan) error {
	seen := make(map[string]bool, len(plans))
	hasFree := false
	for _, p := range plans {
		if p.ID == "" {
			return &ValidationError{PlanID: p.ID, Field: "id", Reason: "must not be empty"}
		}
		if seen[p.ID] {
			return &ValidationError{PlanID: p.ID, Field: "id", Reason: "duplicate plan id"}
		}
		seen[p.ID] = true
		if p.ID == FreePlanID {
			hasFree = true
		}
		if p.Name == "" {
			return &ValidationError{PlanID: p.ID, Field: "name", Reason: "must not be empty"}
		}
		if p.Credits < UnlimitedCredits {
			return &ValidationError{PlanID: p.ID, Field: "credits", Reason: "must be >= 0 or -1 for unlimited"}
		}
		keys := make(map[service.Key]bool, len(p.Services))
		for _, sp := range p.Services {
			if keys[sp.Key] {
				return &ValidationError{PlanID: p.ID, Field: "services", Reason: fmt.Sprintf("duplicate service key %q", sp.Key)}
			}
			keys[sp.Key] = true
			if sp.CreditsPerUse < 0 {
				return &ValidationError{PlanID: p.ID, Field: "services", Reason: fmt.Sprintf("negative creditsPerUse for %q", sp.Key)}
			}
		}
	}
	if !hasFree {
		// Users with stale plan references fall back to the free plan;
		// a catalog without one would silently lock them all out.
		return &ValidationError{PlanID: FreePlanID, Field: "id", Reason: "catalog must contain the free plan"}
	}
	return nil
}
