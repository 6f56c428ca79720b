// Package entitlement provides pure access and affordability checks.
package entitlement

import (
	"testing"

	"github.com/scribefox/creditgate/domain/plan"
	"github.com/scribefox/creditgate/domain/service"
)

func subjectWith(enabled bool, cost, balance int64) Subject {
	return Subject{
		Plan: plan.Plan{
			ID: "test",
			Services: []plan.ServicePermission{
				{Key: service.KeyNews, Enabled: enabled, CreditsPerUse: cost},
			},
		},
		Balance: balance,
	}
}

// -----------------------------------------------------------------------------
// HasAccess tests
// -----------------------------------------------------------------------------

func TestHasAccess_EnabledService(t *testing.T) {
	if !HasAccess(subjectWith(true, 1, 10), service.KeyNews) {
		t.Error("expected access to enabled service")
	}
}

func TestHasAccess_DisabledService(t *testing.T) {
	if HasAccess(subjectWith(false, 1, 10), service.KeyNews) {
		t.Error("expected no access to disabled service")
	}
}

func TestHasAccess_MissingRowIsDisabled(t *testing.T) {
	if HasAccess(subjectWith(true, 1, 10), service.KeyImage) {
		t.Error("expected missing permission row to mean disabled")
	}
}

func TestHasAccess_UnlimitedBalanceDominates(t *testing.T) {
	// -1 grants access even to services the plan disables.
	s := subjectWith(false, 1, plan.UnlimitedCredits)

	if !HasAccess(s, service.KeyNews) {
		t.Error("expected unlimited balance to dominate a disabled service")
	}
	if !HasAccess(s, service.KeyImage) {
		t.Error("expected unlimited balance to dominate a missing row")
	}
}

// -----------------------------------------------------------------------------
// CostFor tests
// -----------------------------------------------------------------------------

func TestCostFor_UsesPlanCost(t *testing.T) {
	if got := CostFor(subjectWith(true, 4, 10), service.KeyNews); got != 4 {
		t.Errorf("expected cost 4, got %d", got)
	}
}

func TestCostFor_DefaultsWhenRowAbsent(t *testing.T) {
	if got := CostFor(subjectWith(true, 4, 10), service.KeyImage); got != plan.DefaultCreditsPerUse {
		t.Errorf("expected default cost %d, got %d", plan.DefaultCreditsPerUse, got)
	}
}

func TestCostFor_DefaultsWhenCostZero(t *testing.T) {
	if got := CostFor(subjectWith(true, 0, 10), service.KeyNews); got != plan.DefaultCreditsPerUse {
		t.Errorf("expected default cost %d, got %d", plan.DefaultCreditsPerUse, got)
	}
}

func TestCostFor_AccessAgnostic(t *testing.T) {
	// Disabled services still price, so locked UI can show "X credits".
	if got := CostFor(subjectWith(false, 4, 0), service.KeyNews); got != 4 {
		t.Errorf("expected cost 4 for disabled service, got %d", got)
	}
}

// -----------------------------------------------------------------------------
// HasEnoughCredits / CanUse / Check tests
// -----------------------------------------------------------------------------

func TestHasEnoughCredits_ExactBalance(t *testing.T) {
	if !HasEnoughCredits(subjectWith(true, 5, 5), service.KeyNews) {
		t.Error("expected balance == cost to afford")
	}
}

func TestHasEnoughCredits_ZeroBalance(t *testing.T) {
	if HasEnoughCredits(subjectWith(true, 1, 0), service.KeyNews) {
		t.Error("expected zero balance to be insufficient")
	}
}

func TestHasEnoughCredits_Unlimited(t *testing.T) {
	if !HasEnoughCredits(subjectWith(true, 100, plan.UnlimitedCredits), service.KeyNews) {
		t.Error("expected unlimited balance to afford any cost")
	}
}

func TestCanUse_RequiresBothHalves(t *testing.T) {
	if CanUse(subjectWith(false, 1, 10), service.KeyNews) {
		t.Error("disabled service must not be usable")
	}
	if CanUse(subjectWith(true, 5, 4), service.KeyNews) {
		t.Error("unaffordable service must not be usable")
	}
	if !CanUse(subjectWith(true, 5, 5), service.KeyNews) {
		t.Error("enabled and affordable must be usable")
	}
}

func TestCheck_ClassifiesDenials(t *testing.T) {
	tests := []struct {
		name    string
		subject Subject
		want    Decision
	}{
		{"allowed", subjectWith(true, 1, 10), DecisionAllowed},
		{"disabled", subjectWith(false, 1, 10), DecisionServiceDisabled},
		{"insufficient", subjectWith(true, 5, 4), DecisionInsufficientCredits},
		{"disabled wins over insufficient", subjectWith(false, 5, 0), DecisionServiceDisabled},
		{"unlimited", subjectWith(false, 5, plan.UnlimitedCredits), DecisionAllowed},
	}

	for _, tt := range tests {
		if got := Check(tt.subject, service.KeyNews); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestDecision_String(t *testing.T) {
	if DecisionAllowed.String() != "allowed" {
		t.Errorf("unexpected: %s", DecisionAllowed)
	}
	if DecisionServiceDisabled.String() != "service_disabled" {
		t.Errorf("unexpected: %s", DecisionServiceDisabled)
	}
	if DecisionInsufficientCredits.String() != "insufficient_credits" {
		t.Errorf("unexpected: %s", DecisionInsufficientCredits)
	}
}
