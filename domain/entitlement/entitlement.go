// Package entitlement provides pure access and affordability checks.
// "Not allowed" is an expected, frequent outcome, so every check returns a
// value - never an error, never a panic.
package entitlement

import (
	"github.com/scribefox/creditgate/domain/plan"
	"github.com/scribefox/creditgate/domain/service"
)

// Subject is the resolved view the checks operate on: an effective plan
// snapshot and a current credit balance. A balance of -1 is unlimited.
type Subject struct {
	Plan    plan.Plan
	Balance int64
}

// Decision classifies the outcome of a full entitlement check.
type Decision int

const (
	DecisionAllowed Decision = iota
	DecisionServiceDisabled
	DecisionInsufficientCredits
)

// String returns the wire representation of a decision.
func (d Decision) String() string {
	switch d {
	case DecisionAllowed:
		return "allowed"
	case DecisionServiceDisabled:
		return "service_disabled"
	case DecisionInsufficientCredits:
		return "insufficient_credits"
	default:
		return "unknown"
	}
}

// HasAccess reports whether the subject's plan enables the service.
// An unlimited balance dominates: it grants access regardless of the plan.
// Absence of the permission row is treated as disabled.
// This is a PURE function.
func HasAccess(s Subject, key service.Key) bool {
	if s.Balance == plan.UnlimitedCredits {
		return true
	}
	sp, ok := plan.Permission(s.Plan, key)
	return ok && sp.Enabled
}

// CostFor returns the credit cost of a service under the subject's plan,
// defaulting to 1 when the permission row is absent or carries no cost.
// Deliberately access-agnostic: a cost is returned even for disabled or
// unknown services so locked-state UI can still show "X credits".
// This is a PURE function.
func CostFor(s Subject, key service.Key) int64 {
	sp, ok := plan.Permission(s.Plan, key)
	if !ok || sp.CreditsPerUse <= 0 {
		return plan.DefaultCreditsPerUse
	}
	return sp.CreditsPerUse
}

// HasEnoughCredits reports whether the balance covers the service cost.
// This is a PURE function.
func HasEnoughCredits(s Subject, key service.Key) bool {
	if s.Balance == plan.UnlimitedCredits {
		return true
	}
	return s.Balance >= CostFor(s, key)
}

// CanUse is the single gate checked immediately before a paid generation:
// the service must be enabled AND affordable. Checking only one half is a
// correctness bug.
// This is a PURE function.
func CanUse(s Subject, key service.Key) bool {
	return HasAccess(s, key) && HasEnoughCredits(s, key)
}

// Check runs the full gate and classifies the denial for messaging
// ("upgrade" vs "buy credits" prompts).
// This is a PURE function.
func Check(s Subject, key service.Key) Decision {
	if !HasAccess(s, key) {
		return DecisionServiceDisabled
	}
	if !HasEnoughCredits(s, key) {
		return DecisionInsufficientCredits
	}
	return DecisionAllowed
}
