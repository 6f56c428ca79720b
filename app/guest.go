package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/scribefox/creditgate/adapters/metrics"
	"github.com/scribefox/creditgate/domain/guest"
	"github.com/scribefox/creditgate/domain/service"
	"github.com/scribefox/creditgate/ports"
)

// GuestService runs generations against the guest entitlement shadow.
// It is intentionally decoupled from the plan catalog: guest behavior
// cannot be altered by misconfiguring the free plan.
type GuestService struct {
	shadows   ports.GuestStore
	generator ports.Generator
	clock     ports.Clock
	logger    zerolog.Logger
	metrics   *metrics.Collector
}

// GuestDeps contains dependencies for GuestService.
type GuestDeps struct {
	Shadows   ports.GuestStore
	Generator ports.Generator
	Clock     ports.Clock
	Logger    zerolog.Logger
	Metrics   *metrics.Collector
}

// NewGuestService creates a new guest service.
func NewGuestService(deps GuestDeps) *GuestService {
	return &GuestService{
		shadows:   deps.Shadows,
		generator: deps.Generator,
		clock:     deps.Clock,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
	}
}

// GuestResult is the outcome of a guest generation attempt.
type GuestResult struct {
	Decision  guest.Decision
	Result    ports.GenerationResult
	Remaining int64
}

// Shadow returns the current shadow for a token, seeding a fresh allowance
// on first encounter.
func (s *GuestService) Shadow(ctx context.Context, token string) (guest.Shadow, error) {
	sh, err := s.shadows.Get(ctx, token)
	if errors.Is(err, ports.ErrNotFound) {
		sh = guest.NewShadow(s.clock.Now())
		if err := s.shadows.Put(ctx, token, sh); err != nil {
			return guest.Shadow{}, err
		}
		return sh, nil
	}
	return sh, err
}

// Generate runs one generation against the guest allowance. Requests
// outside the allowlist or beyond the local balance short-circuit to a
// signup/upgrade outcome without touching the backend.
func (s *GuestService) Generate(ctx context.Context, token string, key service.Key, prompt string) (GuestResult, error) {
	sh, err := s.Shadow(ctx, token)
	if err != nil {
		return GuestResult{}, err
	}

	if decision := guest.Check(sh, key); decision != guest.DecisionAllowed {
		if s.metrics != nil {
			s.metrics.DenialsTotal.WithLabelValues(string(key), decision.String()).Inc()
		}
		return GuestResult{Decision: decision, Remaining: sh.Credits}, nil
	}

	result, err := s.generator.Generate(ctx, ports.GenerationRequest{
		Prompt:  prompt,
		Service: key,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("service", string(key)).Msg("guest generation failed")
		return GuestResult{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	// Debit only after confirmed success; the counter is local and never
	// validated against a server-side source of truth.
	sh = guest.Debit(sh)
	if err := s.shadows.Put(ctx, token, sh); err != nil {
		s.logger.Warn().Err(err).Msg("guest shadow write failed")
	}

	if s.metrics != nil {
		s.metrics.GuestGenerations.Inc()
		s.metrics.GenerationsTotal.WithLabelValues(string(key), "guest").Inc()
	}
	return GuestResult{
		Decision:  guest.DecisionAllowed,
		Result:    result,
		Remaining: sh.Credits,
	}, nil
}
