// Package pricing holds the authoritative cost table and its sync.
package pricing

import (
	"testing"

	"github.com/scribefox/creditgate/domain/plan"
	"github.com/scribefox/creditgate/domain/service"
)

func TestSync_TableOverridesStoredCost(t *testing.T) {
	plans := []plan.Plan{{
		ID: "basic",
		Services: []plan.ServicePermission{
			{Key: service.KeyImage, Enabled: true, CreditsPerUse: 99},
		},
	}}

	out := Sync(plans, DefaultCostTable())

	if got := out[0].Services[0].CreditsPerUse; got != 4 {
		t.Errorf("expected table cost 4 to override stored 99, got %d", got)
	}
}

func TestSync_StoredCostSurvivesOutsideTable(t *testing.T) {
	// resume_builder has no table entry; admin-edited cost stays.
	plans := []plan.Plan{{
		ID: "standard",
		Services: []plan.ServicePermission{
			{Key: service.KeyResume, Enabled: true, CreditsPerUse: 7},
		},
	}}

	out := Sync(plans, DefaultCostTable())

	if got := out[0].Services[0].CreditsPerUse; got != 7 {
		t.Errorf("expected stored cost 7 to survive, got %d", got)
	}
}

func TestSync_MissingCostDefaultsToOne(t *testing.T) {
	plans := []plan.Plan{{
		ID: "standard",
		Services: []plan.ServicePermission{
			{Key: service.KeyResume, Enabled: true, CreditsPerUse: 0},
		},
	}}

	out := Sync(plans, DefaultCostTable())

	if got := out[0].Services[0].CreditsPerUse; got != plan.DefaultCreditsPerUse {
		t.Errorf("expected default cost %d, got %d", plan.DefaultCreditsPerUse, got)
	}
}

func TestSync_Idempotent(t *testing.T) {
	table := DefaultCostTable()
	once := Sync(plan.Defaults(), table)
	twice := Sync(once, table)

	for i := range once {
		for j := range once[i].Services {
			a, b := once[i].Services[j], twice[i].Services[j]
			if a != b {
				t.Errorf("plan %s service %s changed on second sync: %+v != %+v",
					once[i].ID, a.Key, a, b)
			}
		}
	}
}

func TestSync_DoesNotMutateInput(t *testing.T) {
	plans := []plan.Plan{{
		ID: "basic",
		Services: []plan.ServicePermission{
			{Key: service.KeyLanding, Enabled: true, CreditsPerUse: 1},
		},
	}}

	Sync(plans, DefaultCostTable())

	if plans[0].Services[0].CreditsPerUse != 1 {
		t.Errorf("input slice was mutated: got %d", plans[0].Services[0].CreditsPerUse)
	}
}

func TestSync_DisabledRowsStillSynced(t *testing.T) {
	// Costs apply independent of enablement so locked-state UI prices match.
	plans := []plan.Plan{{
		ID: "free",
		Services: []plan.ServicePermission{
			{Key: service.KeyLanding, Enabled: false, CreditsPerUse: 1},
		},
	}}

	out := Sync(plans, DefaultCostTable())

	if got := out[0].Services[0].CreditsPerUse; got != 5 {
		t.Errorf("expected disabled row synced to 5, got %d", got)
	}
}

func TestDefaultCostTable_ResumeAbsent(t *testing.T) {
	if _, ok := DefaultCostTable()[service.KeyResume]; ok {
		t.Error("resume_builder cost must stay admin-editable (absent from table)")
	}
}
