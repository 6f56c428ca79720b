package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/scribefox/creditgate/app"
	"github.com/scribefox/creditgate/domain/entitlement"
	"github.com/scribefox/creditgate/domain/guest"
	"github.com/scribefox/creditgate/domain/plan"
	"github.com/scribefox/creditgate/domain/service"
	"github.com/scribefox/creditgate/ports"
)

// GuestTokenHeader carries the client-generated guest token. Guests keep
// it (and their remaining allowance) in local storage; losing it resets
// the allowance, which is accepted.
const GuestTokenHeader = "X-Guest-Token"

// handleListPlans returns the public catalog: active plans only, costs
// already synchronized.
func (h *Handler) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.catalog.Load(r.Context())
	if err != nil {
		h.writeError(w, http.StatusServiceUnavailable, "config_unavailable", "plan catalog unavailable")
		return
	}

	public := make([]plan.Plan, 0, len(plans))
	for _, p := range plans {
		if p.IsActive {
			p.Services = plan.MergeServices(p)
			public = append(public, p)
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"plans": public})
}

// meResponse is the resolved entitlement view for the current user.
type meResponse struct {
	User     userView                 `json:"user"`
	Plan     planView                 `json:"plan"`
	Services []serviceEntitlementView `json:"services"`
}

type userView struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Credits int64  `json:"credits"`
}

type planView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type serviceEntitlementView struct {
	Key     service.Key `json:"key"`
	Name    string      `json:"name"`
	Enabled bool        `json:"enabled"`
	Cost    int64       `json:"creditsPerUse"`
	CanUse  bool        `json:"canUse"`
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	u, _ := currentUser(r.Context())
	ent := h.generation.Entitlements(r.Context(), u)

	services := make([]serviceEntitlementView, 0, len(ent.Services))
	for _, se := range ent.Services {
		services = append(services, serviceEntitlementView{
			Key:     se.Key,
			Name:    se.Name,
			Enabled: se.Enabled,
			Cost:    se.Cost,
			CanUse:  se.CanUse,
		})
	}

	h.writeJSON(w, http.StatusOK, meResponse{
		User:     userView{ID: u.ID, Email: u.Email, Name: u.Name, Credits: u.Credits},
		Plan:     planView{ID: ent.Plan.ID, Name: ent.Plan.Name},
		Services: services,
	})
}

type generateRequest struct {
	Service service.Key    `json:"service"`
	Prompt  string         `json:"prompt"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Text        string                   `json:"text"`
	Sources     []ports.GenerationSource `json:"sources,omitempty"`
	Cost        int64                    `json:"cost"`
	Balance     int64                    `json:"balance"`
	DebitFailed bool                     `json:"debitFailed,omitempty"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	u, ok := h.identity.UserFromRequest(r.Context(), r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "sign in to generate, or use the guest endpoint")
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if !service.IsValid(req.Service) {
		h.writeError(w, http.StatusBadRequest, "unknown_service", "unknown service key")
		return
	}
	if req.Prompt == "" {
		h.writeError(w, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}

	result, err := h.generation.Generate(r.Context(), u, req.Service, req.Prompt, req.Options)
	if err != nil {
		if errors.Is(err, app.ErrGenerationFailed) {
			h.writeError(w, http.StatusBadGateway, "generation_failed", err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, "internal", "generation failed")
		return
	}

	switch result.Decision {
	case entitlement.DecisionAllowed:
		h.writeJSON(w, http.StatusOK, generateResponse{
			Text:        result.Result.Text,
			Sources:     result.Result.Sources,
			Cost:        result.Cost,
			Balance:     result.NewBalance,
			DebitFailed: result.DebitFailed,
		})
	case entitlement.DecisionServiceDisabled:
		// Locked-state affordance: the cost is included so the UI can
		// still price the upgrade prompt.
		h.writeJSON(w, http.StatusForbidden, map[string]any{
			"error": result.Decision.String(),
			"cost":  result.Cost,
		})
	case entitlement.DecisionInsufficientCredits:
		h.writeJSON(w, http.StatusPaymentRequired, map[string]any{
			"error":   result.Decision.String(),
			"cost":    result.Cost,
			"balance": result.NewBalance,
		})
	}
}

type guestGenerateRequest struct {
	Service service.Key `json:"service"`
	Prompt  string      `json:"prompt"`
}

func (h *Handler) handleGuestGenerate(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(GuestTokenHeader)
	if token == "" {
		h.writeError(w, http.StatusBadRequest, "bad_request", GuestTokenHeader+" header is required")
		return
	}

	var req guestGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if !service.IsValid(req.Service) {
		h.writeError(w, http.StatusBadRequest, "unknown_service", "unknown service key")
		return
	}
	if req.Prompt == "" {
		h.writeError(w, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}

	result, err := h.guests.Generate(r.Context(), token, req.Service, req.Prompt)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, "generation_failed", err.Error())
		return
	}

	switch result.Decision {
	case guest.DecisionAllowed:
		h.writeJSON(w, http.StatusOK, map[string]any{
			"text":      result.Result.Text,
			"sources":   result.Result.Sources,
			"remaining": result.Remaining,
		})
	case guest.DecisionNotAllowlisted:
		h.writeJSON(w, http.StatusForbidden, map[string]any{
			"error":     result.Decision.String(),
			"remaining": result.Remaining,
		})
	case guest.DecisionExhausted:
		h.writeJSON(w, http.StatusPaymentRequired, map[string]any{
			"error":     result.Decision.String(),
			"remaining": result.Remaining,
		})
	}
}

func (h *Handler) handleGuestAllowance(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(GuestTokenHeader)
	if token == "" {
		h.writeError(w, http.StatusBadRequest, "bad_request", GuestTokenHeader+" header is required")
		return
	}

	sh, err := h.guests.Shadow(r.Context(), token)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal", "guest allowance unavailable")
		return
	}

	keys := service.GuestAllowlist()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"remaining": sh.Credits,
		"services":  keys,
	})
}
