// Package guest provides the ephemeral entitlement shadow for
// unauthenticated visitors. Guest state lives client-side (or in a
// short-lived server cache) and is never validated against a server-side
// source of truth: clearing it resets the allowance. That is an accepted,
// low-stakes limitation, not a security boundary.
package guest

import (
	"time"

	"github.com/scribefox/creditgate/domain/service"
)

// SeedCredits is the fixed free allowance granted on first visit.
const SeedCredits = 3

// GuestCostPerUse is the flat cost of one guest generation. The plan cost
// table does not apply to guests; the guest path is decoupled from plans.
const GuestCostPerUse = 1

// Shadow is a guest's local credit counter (value type).
type Shadow struct {
	Credits   int64
	Seeded    bool
	CreatedAt time.Time
}

// NewShadow seeds a fresh counter for a first-time visitor.
// This is a PURE function.
func NewShadow(now time.Time) Shadow {
	return Shadow{Credits: SeedCredits, Seeded: true, CreatedAt: now}
}

// Decision classifies a guest entitlement check.
type Decision int

const (
	DecisionAllowed Decision = iota
	// DecisionNotAllowlisted means the service needs an account; the UI
	// shows a signup prompt instead of attempting a generation.
	DecisionNotAllowlisted
	// DecisionExhausted means the local allowance ran out; the UI shows an
	// upgrade prompt.
	DecisionExhausted
)

// String returns the wire representation of a decision.
func (d Decision) String() string {
	switch d {
	case DecisionAllowed:
		return "allowed"
	case DecisionNotAllowlisted:
		return "signup_required"
	case DecisionExhausted:
		return "allowance_exhausted"
	default:
		return "unknown"
	}
}

// Check gates a guest request: the service must be on the static allowlist
// and the local counter must cover one use. Both failures short-circuit
// before any generation call.
// This is a PURE function.
func Check(s Shadow, key service.Key) Decision {
	if !service.IsGuestAllowed(key) {
		return DecisionNotAllowlisted
	}
	if s.Credits < GuestCostPerUse {
		return DecisionExhausted
	}
	return DecisionAllowed
}

// CanUse reports whether a guest generation may proceed.
// This is a PURE function.
func CanUse(s Shadow, key service.Key) bool {
	return Check(s, key) == DecisionAllowed
}

// Debit returns the shadow after one successful generation.
// Callers must have passed Check first; the counter never goes negative.
// This is a PURE function.
func Debit(s Shadow) Shadow {
	if s.Credits < GuestCostPerUse {
		return s
	}
	s.Credits -= GuestCostPerUse
	return s
}
