// Package web provides the JSON HTTP API.
package web

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/scribefox/creditgate/app"
	"github.com/scribefox/creditgate/ports"
)

// Identity resolves a request's authenticated user, if any.
// Authentication lives in a fronting gateway; this is its verdict.
type Identity interface {
	UserFromRequest(ctx context.Context, r *http.Request) (ports.User, bool)
}

// Handler provides the HTTP API endpoints.
type Handler struct {
	catalog    *app.CatalogService
	generation *app.GenerationService
	guests     *app.GuestService
	users      ports.UserStore
	audit      ports.AuditLog
	identity   Identity
	hasher     ports.Hasher
	adminToken []byte // bcrypt hash of the admin bearer token
	logger     zerolog.Logger
	metricsOn  bool
	metricsPth string
}

// Deps contains dependencies for the web handler.
type Deps struct {
	Catalog     *app.CatalogService
	Generation  *app.GenerationService
	Guests      *app.GuestService
	Users       ports.UserStore
	Audit       ports.AuditLog
	Identity    Identity
	Hasher      ports.Hasher
	AdminToken  []byte
	Logger      zerolog.Logger
	Metrics     bool
	MetricsPath string
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps) *Handler {
	path := deps.MetricsPath
	if path == "" {
		path = "/metrics"
	}
	return &Handler{
		catalog:    deps.Catalog,
		generation: deps.Generation,
		guests:     deps.Guests,
		users:      deps.Users,
		audit:      deps.Audit,
		identity:   deps.Identity,
		hasher:     deps.Hasher,
		adminToken: deps.AdminToken,
		logger:     deps.Logger,
		metricsOn:  deps.Metrics,
		metricsPth: path,
	}
}

// Routes builds the router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.handleHealth)
	if h.metricsOn {
		r.Handle(h.metricsPth, promhttp.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/plans", h.handleListPlans)
		r.Post("/generate", h.handleGenerate)
		r.Post("/guest/generate", h.handleGuestGenerate)
		r.Get("/guest/allowance", h.handleGuestAllowance)

		r.Group(func(r chi.Router) {
			r.Use(h.requireUser)
			r.Get("/me", h.handleMe)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.requireAdmin)
		r.Get("/plans", h.handleAdminGetPlans)
		r.Put("/plans", h.handleAdminPutPlans)
		r.Get("/audit", h.handleAdminAudit)
		r.Post("/users/{id}/credits", h.handleAdminSetCredits)
	})

	return r
}

// writeJSON writes a JSON response with the given status.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("encode response")
	}
}

// errorBody is the uniform error payload.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, errorBody{Error: code, Message: message})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
