// Package pricing holds the code-defined authoritative cost table and the
// synchronization that reconciles stored plan costs against it.
package pricing

import (
	"github.com/scribefox/creditgate/domain/plan"
	"github.com/scribefox/creditgate/domain/service"
)

// CostTable maps service keys to an authoritative credit cost.
type CostTable map[service.Key]int64

// DefaultCostTable is the shipped cost table. Price changes land here and
// apply retroactively to persisted plans on the next load or save, without
// a data migration. Keys absent from the table keep their stored cost.
func DefaultCostTable() CostTable {
	return CostTable{
		service.KeyNews:      1,
		service.KeySpeech:    2,
		service.KeyCopy:      1,
		service.KeyPrompt:    1,
		service.KeyImage:     4,
		service.KeyLanding:   5,
		service.KeyStructure: 3,
		// KeyResume intentionally absent: its cost stays admin-editable.
	}
}

// Sync replaces each permission's creditsPerUse with the table value for
// its key when one exists. Stored values survive only for keys outside the
// table; a missing stored value defaults to 1. The override is total, so
// the function is idempotent and deterministic.
// This is a PURE function - the input slice is not mutated.
func Sync(plans []plan.Plan, table CostTable) []plan.Plan {
	out := make([]plan.Plan, len(plans))
	for i, p := range plans {
		services := make([]plan.ServicePermission, len(p.Services))
		for j, sp := range p.Services {
			if cost, ok := table[sp.Key]; ok {
				sp.CreditsPerUse = cost
			} else if sp.CreditsPerUse <= 0 {
				sp.CreditsPerUse = plan.DefaultCreditsPerUse
			}
			services[j] = sp
		}
		p.Services = services
		out[i] = p
	}
	return out
}
