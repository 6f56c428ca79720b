package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/scribefox/creditgate/domain/plan"
	"github.com/scribefox/creditgate/ports"
)

// handleAdminGetPlans returns the full catalog (inactive plans included)
// with the version token the client must echo back on save.
func (h *Handler) handleAdminGetPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.catalog.Reload(r.Context())
	if err != nil {
		h.writeError(w, http.StatusServiceUnavailable, "config_unavailable", "plan catalog unavailable")
		return
	}

	// Expand for editing: exactly one permission row per known key.
	for i := range plans {
		plans[i].Services = plan.MergeServices(plans[i])
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"plans":   plans,
		"version": h.catalog.Version(),
	})
}

type putPlansRequest struct {
	Plans   []plan.Plan `json:"plans"`
	Version int64       `json:"version"`
	ActorID string      `json:"actorId"`
}

func (h *Handler) handleAdminPutPlans(w http.ResponseWriter, r *http.Request) {
	var req putPlansRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.ActorID == "" {
		req.ActorID = "admin"
	}

	saved, version, err := h.catalog.Save(r.Context(), req.Plans, req.ActorID, req.Version)
	if err != nil {
		var verr *plan.ValidationError
		switch {
		case errors.As(err, &verr):
			h.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  "validation_failed",
				"planId": verr.PlanID,
				"field":  verr.Field,
				"reason": verr.Reason,
			})
		case errors.Is(err, ports.ErrVersionConflict):
			h.writeError(w, http.StatusConflict, "version_conflict", "catalog was modified by another admin, reload and retry")
		default:
			h.writeError(w, http.StatusServiceUnavailable, "config_unavailable", err.Error())
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"plans": saved, "version": version})
}

func (h *Handler) handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	entries, err := h.audit.List(r.Context(), limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal", "audit log unavailable")
		return
	}

	type entryView struct {
		ID        string          `json:"id"`
		ActorID   string          `json:"actorId"`
		Action    string          `json:"action"`
		Module    string          `json:"module"`
		Details   json.RawMessage `json:"details"`
		CreatedAt string          `json:"createdAt"`
	}
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, entryView{
			ID:        e.ID,
			ActorID:   e.ActorID,
			Action:    e.Action,
			Module:    e.Module,
			Details:   json.RawMessage(e.Details),
			CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"entries": views})
}

type setCreditsRequest struct {
	Credits int64 `json:"credits"`
}

func (h *Handler) handleAdminSetCredits(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req setCreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.Credits < plan.UnlimitedCredits {
		h.writeError(w, http.StatusUnprocessableEntity, "validation_failed", "credits must be >= 0 or -1 for unlimited")
		return
	}

	if err := h.users.SetCredits(r.Context(), id, req.Credits); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		h.writeError(w, http.StatusInternalServerError, "internal", "credit update failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"id": id, "credits": req.Credits})
}
