package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/scribefox/creditgate/adapters/metrics"
	"github.com/scribefox/creditgate/domain/entitlement"
	"github.com/scribefox/creditgate/domain/plan"
	"github.com/scribefox/creditgate/domain/service"
	"github.com/scribefox/creditgate/ports"
)

// ErrGenerationFailed wraps a backend failure. No debit occurred.
var ErrGenerationFailed = errors.New("generation failed")

// GenerationService orchestrates the authorize -> generate -> debit flow.
type GenerationService struct {
	catalog   *CatalogService
	users     ports.UserStore
	generator ports.Generator
	clock     ports.Clock
	logger    zerolog.Logger
	metrics   *metrics.Collector
}

// GenerationDeps contains dependencies for GenerationService.
type GenerationDeps struct {
	Catalog   *CatalogService
	Users     ports.UserStore
	Generator ports.Generator
	Clock     ports.Clock
	Logger    zerolog.Logger
	Metrics   *metrics.Collector
}

// NewGenerationService creates a new generation service.
func NewGenerationService(deps GenerationDeps) *GenerationService {
	return &GenerationService{
		catalog:   deps.Catalog,
		users:     deps.Users,
		generator: deps.Generator,
		clock:     deps.Clock,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
	}
}

// GenerateResult is the outcome of an authenticated generation.
type GenerateResult struct {
	Decision entitlement.Decision
	Result   ports.GenerationResult
	Cost     int64

	// NewBalance is the balance after the debit, or -1 for unlimited.
	NewBalance int64

	// DebitFailed is set when the generation succeeded but the balance
	// write did not. The content is still returned: completed work is not
	// discarded over an accounting write, at the accepted cost of an
	// occasional undercharge.
	DebitFailed bool
}

// Entitlements is the resolved per-user view handed to the UI layer.
type Entitlements struct {
	Plan     plan.Plan
	Balance  int64
	Services []ServiceEntitlement
}

// ServiceEntitlement is the per-service answer for one subject.
type ServiceEntitlement struct {
	Key     service.Key
	Name    string
	Enabled bool
	Cost    int64
	CanUse  bool
}

// Subject resolves a user's effective plan and balance. Resolution never
// fails: a stale plan reference degrades to the free plan, then to the
// zero-access placeholder.
func (s *GenerationService) Subject(ctx context.Context, user ports.User) entitlement.Subject {
	plans, _ := s.catalog.Load(ctx)
	return entitlement.Subject{
		Plan:    plan.Resolve(plans, user.PlanID),
		Balance: user.Credits,
	}
}

// Entitlements returns the full per-service view for a user, including
// costs for disabled services so locked-state UI can price them.
func (s *GenerationService) Entitlements(ctx context.Context, user ports.User) Entitlements {
	subject := s.Subject(ctx, user)
	merged := plan.MergeServices(subject.Plan)

	services := make([]ServiceEntitlement, 0, len(merged))
	for _, sp := range merged {
		services = append(services, ServiceEntitlement{
			Key:     sp.Key,
			Name:    sp.Name,
			Enabled: entitlement.HasAccess(subject, sp.Key),
			Cost:    entitlement.CostFor(subject, sp.Key),
			CanUse:  entitlement.CanUse(subject, sp.Key),
		})
	}
	return Entitlements{Plan: subject.Plan, Balance: user.Credits, Services: services}
}

// Generate runs one paid generation for an authenticated user.
//
// The entitlement check runs here, synchronously, immediately before the
// RPC - UI state (button enablement, earlier checks) is never trusted as
// the authorization gate. The debit is sequenced strictly after the RPC
// succeeds; a failed or timed-out generation debits nothing. The cost is
// taken from the plan snapshot that authorized the call, so a concurrent
// plan edit cannot change the charged amount mid-flight.
func (s *GenerationService) Generate(ctx context.Context, user ports.User, key service.Key, prompt string, options map[string]any) (GenerateResult, error) {
	subject := s.Subject(ctx, user)
	cost := entitlement.CostFor(subject, key)

	if decision := entitlement.Check(subject, key); decision != entitlement.DecisionAllowed {
		if s.metrics != nil {
			s.metrics.DenialsTotal.WithLabelValues(string(key), decision.String()).Inc()
		}
		return GenerateResult{Decision: decision, Cost: cost, NewBalance: user.Credits}, nil
	}

	start := s.clock.Now()
	result, err := s.generator.Generate(ctx, ports.GenerationRequest{
		Prompt:  prompt,
		Service: key,
		UserID:  user.ID,
		Options: options,
	})
	if s.metrics != nil {
		s.metrics.GenerationDuration.WithLabelValues(string(key)).
			Observe(s.clock.Now().Sub(start).Seconds())
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.GenerationErrors.WithLabelValues(string(key)).Inc()
		}
		s.logger.Error().Err(err).Str("service", string(key)).
			Str("user", user.ID).Msg("generation call failed")
		return GenerateResult{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	out := GenerateResult{
		Decision:   entitlement.DecisionAllowed,
		Result:     result,
		Cost:       cost,
		NewBalance: user.Credits,
	}

	if user.Credits == plan.UnlimitedCredits {
		// Unlimited balances skip persistence entirely.
		if s.metrics != nil {
			s.metrics.GenerationsTotal.WithLabelValues(string(key), "user").Inc()
		}
		return out, nil
	}

	newBalance, err := s.users.DebitCredits(ctx, user.ID, cost)
	switch {
	case err == nil:
		out.NewBalance = newBalance
		if s.metrics != nil {
			s.metrics.CreditsDebited.WithLabelValues(string(key)).Add(float64(cost))
		}
	case errors.Is(err, ports.ErrInsufficientCredits):
		// A concurrent debit won the race between our check and this
		// write. The conditional decrement held the floor at zero; the
		// content was already produced, so return it undercharged.
		out.DebitFailed = true
		out.NewBalance = newBalance
		s.logger.Warn().Str("user", user.ID).Str("service", string(key)).
			Msg("debit lost conditional decrement race, content delivered uncharged")
	default:
		out.DebitFailed = true
		if s.metrics != nil {
			s.metrics.DebitFailures.Inc()
		}
		s.logger.Error().Err(err).Str("user", user.ID).Str("service", string(key)).
			Msg("balance write failed after successful generation")
	}

	if s.metrics != nil {
		s.metrics.GenerationsTotal.WithLabelValues(string(key), "user").Inc()
	}
	return out, nil
}

// RefreshUser re-reads the authoritative user record after a debit so the
// caller can surface the new balance.
func (s *GenerationService) RefreshUser(ctx context.Context, id string) (ports.User, error) {
	return s.users.Get(ctx, id)
}
