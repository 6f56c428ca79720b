// Package plan provides plan value types and pure functions.
// Tests for all public functions and types.
package plan

import (
	"errors"
	"testing"

	"github.com/scribefox/creditgate/domain/service"
)

// -----------------------------------------------------------------------------
// Resolve tests
// -----------------------------------------------------------------------------

func TestResolve_AssignedPlan(t *testing.T) {
	plans := Defaults()

	p := Resolve(plans, "premium")

	if p.ID != "premium" {
		t.Errorf("expected plan premium, got %s", p.ID)
	}
}

func TestResolve_StaleReferenceFallsBackToFree(t *testing.T) {
	plans := Defaults()

	p := Resolve(plans, "enterprise-2019")

	if p.ID != FreePlanID {
		t.Errorf("expected fallback to %s, got %s", FreePlanID, p.ID)
	}
}

func TestResolve_EmptyCatalogYieldsPlaceholder(t *testing.T) {
	p := Resolve(nil, "premium")

	if p.ID != "none" {
		t.Errorf("expected placeholder plan, got %s", p.ID)
	}
	if p.Credits != 0 {
		t.Errorf("expected placeholder to carry 0 credits, got %d", p.Credits)
	}
	if len(p.Services) != 0 {
		t.Errorf("expected placeholder to carry no services, got %d", len(p.Services))
	}
}

func TestResolve_PlaceholderDeniesEverything(t *testing.T) {
	p := Resolve([]Plan{}, "anything")

	for _, key := range service.All() {
		if sp, ok := Permission(p, key); ok && sp.Enabled {
			t.Errorf("placeholder plan must not enable %s", key)
		}
	}
}

// -----------------------------------------------------------------------------
// MergeServices tests
// -----------------------------------------------------------------------------

func TestMergeServices_SynthesizesMissingKeys(t *testing.T) {
	p := Plan{
		ID: "partial",
		Services: []ServicePermission{
			{Key: service.KeyNews, Name: "News", Enabled: true, CreditsPerUse: 2},
		},
	}

	merged := MergeServices(p)

	if len(merged) != len(service.All()) {
		t.Fatalf("expected %d rows, got %d", len(service.All()), len(merged))
	}
	for _, sp := range merged {
		if sp.Key == service.KeyNews {
			if !sp.Enabled || sp.CreditsPerUse != 2 {
				t.Errorf("stored row must keep its values, got %+v", sp)
			}
			continue
		}
		if sp.Enabled {
			t.Errorf("synthesized row %s must be disabled", sp.Key)
		}
		if sp.CreditsPerUse != DefaultCreditsPerUse {
			t.Errorf("synthesized row %s must cost %d, got %d", sp.Key, DefaultCreditsPerUse, sp.CreditsPerUse)
		}
	}
}

func TestMergeServices_CanonicalOrder(t *testing.T) {
	merged := MergeServices(Plan{ID: "empty"})

	for i, key := range service.All() {
		if merged[i].Key != key {
			t.Errorf("position %d: expected %s, got %s", i, key, merged[i].Key)
		}
	}
}

func TestMergeServices_FirstRowWinsOnDuplicates(t *testing.T) {
	p := Plan{
		ID: "dup",
		Services: []ServicePermission{
			{Key: service.KeyCopy, Enabled: true, CreditsPerUse: 5},
			{Key: service.KeyCopy, Enabled: false, CreditsPerUse: 9},
		},
	}

	merged := MergeServices(p)

	sp, ok := findMerged(merged, service.KeyCopy)
	if !ok {
		t.Fatal("copy_writer row missing")
	}
	if !sp.Enabled || sp.CreditsPerUse != 5 {
		t.Errorf("expected first duplicate to win, got %+v", sp)
	}
}

func TestMergeServices_DropsUnknownKeys(t *testing.T) {
	p := Plan{
		ID: "legacy",
		Services: []ServicePermission{
			{Key: service.Key("video_generator"), Enabled: true},
		},
	}

	merged := MergeServices(p)

	if len(merged) != len(service.All()) {
		t.Fatalf("expected %d rows, got %d", len(service.All()), len(merged))
	}
	if _, ok := findMerged(merged, service.Key("video_generator")); ok {
		t.Error("unknown key must be dropped")
	}
}

func TestMergeServices_FillsBlankNames(t *testing.T) {
	p := Plan{
		ID: "noname",
		Services: []ServicePermission{
			{Key: service.KeySpeech, Enabled: true, CreditsPerUse: 2},
		},
	}

	merged := MergeServices(p)

	sp, _ := findMerged(merged, service.KeySpeech)
	if sp.Name != service.Label(service.KeySpeech) {
		t.Errorf("expected label %q, got %q", service.Label(service.KeySpeech), sp.Name)
	}
}

func findMerged(list []ServicePermission, key service.Key) (ServicePermission, bool) {
	for _, sp := range list {
		if sp.Key == key {
			return sp, true
		}
	}
	return ServicePermission{}, false
}

// -----------------------------------------------------------------------------
// Validate tests
// -----------------------------------------------------------------------------

func TestValidate_DefaultsAreValid(t *testing.T) {
	if err := Validate(Defaults()); err != nil {
		t.Errorf("defaults must validate, got %v", err)
	}
}

func TestValidate_EmptyID(t *testing.T) {
	plans := []Plan{{ID: "", Name: "Broken"}}

	assertValidationError(t, Validate(plans), "id")
}

func TestValidate_DuplicateID(t *testing.T) {
	plans := []Plan{
		{ID: FreePlanID, Name: "Free"},
		{ID: FreePlanID, Name: "Free Again"},
	}

	assertValidationError(t, Validate(plans), "id")
}

func TestValidate_EmptyName(t *testing.T) {
	plans := []Plan{{ID: FreePlanID, Name: ""}}

	assertValidationError(t, Validate(plans), "name")
}

func TestValidate_CreditsBelowUnlimited(t *testing.T) {
	plans := []Plan{{ID: FreePlanID, Name: "Free", Credits: -2}}

	assertValidationError(t, Validate(plans), "credits")
}

func TestValidate_DuplicateServiceKey(t *testing.T) {
	plans := []Plan{{
		ID: FreePlanID, Name: "Free",
		Services: []ServicePermission{
			{Key: service.KeyNews, CreditsPerUse: 1},
			{Key: service.KeyNews, CreditsPerUse: 1},
		},
	}}

	assertValidationError(t, Validate(plans), "services")
}

func TestValidate_NegativeCost(t *testing.T) {
	plans := []Plan{{
		ID: FreePlanID, Name: "Free",
		Services: []ServicePermission{
			{Key: service.KeyNews, CreditsPerUse: -1},
		},
	}}

	assertValidationError(t, Validate(plans), "services")
}

func TestValidate_MissingFreePlan(t *testing.T) {
	plans := []Plan{{ID: "premium", Name: "Premium", Credits: UnlimitedCredits}}

	assertValidationError(t, Validate(plans), "id")
}

func assertValidationError(t *testing.T, err error, field string) {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != field {
		t.Errorf("expected field %q, got %q", field, verr.Field)
	}
}

// -----------------------------------------------------------------------------
// Misc tests
// -----------------------------------------------------------------------------

func TestIsUnlimited(t *testing.T) {
	if !IsUnlimited(Plan{Credits: UnlimitedCredits}) {
		t.Error("expected -1 credits to be unlimited")
	}
	if IsUnlimited(Plan{Credits: 0}) {
		t.Error("expected 0 credits to be limited")
	}
	if IsUnlimited(Plan{Credits: 1000000}) {
		t.Error("expected large finite balance to be limited")
	}
}

func TestFindPlan_NotFound(t *testing.T) {
	if _, ok := FindPlan(Defaults(), "nope"); ok {
		t.Error("expected not found")
	}
}

func TestDefaults_FreePlanShape(t *testing.T) {
	free, ok := FindPlan(Defaults(), FreePlanID)
	if !ok {
		t.Fatal("defaults must contain the free plan")
	}
	if free.Credits != 3 {
		t.Errorf("expected 3 seed credits on free, got %d", free.Credits)
	}
	for _, key := range []service.Key{service.KeyNews, service.KeyCopy, service.KeyPrompt} {
		sp, ok := Permission(free, key)
		if !ok || !sp.Enabled {
			t.Errorf("free plan must enable %s", key)
		}
	}
	if sp, ok := Permission(free, service.KeyImage); ok && sp.Enabled {
		t.Error("free plan must not enable image_generator")
	}
}
