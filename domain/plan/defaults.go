package plan

import "github.com/scribefox/creditgate/domain/service"

// Defaults returns the hard-coded catalog used when the store is empty or
// unreachable, so the system is usable before an administrator ever saves
// configuration. The fallback is never persisted automatically; an explicit
// admin save makes it durable.
func Defaults() []Plan {
	return []Plan{
		{
			ID:                 FreePlanID,
			Name:               "Free",
			Credits:            3,
			PriceCents:         0,
			Interval:           IntervalMonthly,
			IsActive:           true,
			ExpressCreditPrice: 99,
			Color:              "#9ca3af",
			Services: permissions(map[service.Key]bool{
				service.KeyNews:   true,
				service.KeyCopy:   true,
				service.KeyPrompt: true,
			}),
		},
		{
			ID:                 "basic",
			Name:               "Basic",
			Credits:            50,
			PriceCents:         900,
			Interval:           IntervalMonthly,
			IsActive:           true,
			ExpressCreditPrice: 79,
			Color:              "#60a5fa",
			Services: permissions(map[service.Key]bool{
				service.KeyNews:    true,
				service.KeyCopy:    true,
				service.KeyPrompt:  true,
				service.KeySpeech:  true,
				service.KeyLanding: true,
			}),
		},
		{
			ID:                 "standard",
			Name:               "Standard",
			Credits:            200,
			PriceCents:         2900,
			Interval:           IntervalMonthly,
			IsActive:           true,
			ExpressCreditPrice: 59,
			Color:              "#34d399",
			Services: permissions(map[service.Key]bool{
				service.KeyNews:      true,
				service.KeyCopy:      true,
				service.KeyPrompt:    true,
				service.KeySpeech:    true,
				service.KeyLanding:   true,
				service.KeyImage:     true,
				service.KeyResume:    true,
				service.KeyStructure: false,
			}),
		},
		{
			ID:                 "premium",
			Name:               "Premium",
			Credits:            UnlimitedCredits,
			PriceCents:         7900,
			Interval:           IntervalMonthly,
			IsActive:           true,
			ExpressCreditPrice: 0,
			Color:              "#f59e0b",
			Services:           allEnabled(),
		},
	}
}

// permissions builds a full permission list enabling only the given keys.
func permissions(enabled map[service.Key]bool) []ServicePermission {
	out := make([]ServicePermission, 0, len(service.All()))
	for _, key := range service.All() {
		out = append(out, ServicePermission{
			Key:           key,
			Name:          service.Label(key),
			Enabled:       enabled[key],
			CreditsPerUse: DefaultCreditsPerUse,
		})
	}
	return out
}

func allEnabled() []ServicePermission {
	m := make(map[service.Key]bool, len(service.All()))
	for _, key := range service.All() {
		m[key] = true
	}
	return permissions(m)
}
