package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/scribefox/creditgate/adapters/clock"
	"github.com/scribefox/creditgate/adapters/hasher"
	"github.com/scribefox/creditgate/adapters/idgen"
	"github.com/scribefox/creditgate/adapters/memory"
	"github.com/scribefox/creditgate/app"
	"github.com/scribefox/creditgate/domain/guest"
	"github.com/scribefox/creditgate/domain/plan"
	"github.com/scribefox/creditgate/ports"
)

// fakeIdentity resolves a fixed user, or nobody when unset.
type fakeIdentity struct {
	user ports.User
	ok   bool
}

func (f *fakeIdentity) UserFromRequest(ctx context.Context, r *http.Request) (ports.User, bool) {
	return f.user, f.ok
}

// fakeGenerator returns a canned result or error.
type fakeGenerator struct {
	calls int
	err   error
}

func (g *fakeGenerator) Generate(ctx context.Context, req ports.GenerationRequest) (ports.GenerationResult, error) {
	g.calls++
	if g.err != nil {
		return ports.GenerationResult{}, g.err
	}
	return ports.GenerationResult{Text: "generated"}, nil
}

type harness struct {
	handler  http.Handler
	users    *memory.UserStore
	identity *fakeIdentity
	gen      *fakeGenerator
	catalog  *app.CatalogService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := zerolog.Nop()
	clk := clock.NewFake(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	users := memory.NewUserStore()
	gen := &fakeGenerator{}
	identity := &fakeIdentity{}

	catalog := app.NewCatalogService(app.CatalogDeps{
		Store:  memory.NewConfigStore(),
		Audit:  memory.NewAuditLog(),
		IDGen:  idgen.NewSequential("audit"),
		Clock:  clk,
		Logger: logger,
	})
	generation := app.NewGenerationService(app.GenerationDeps{
		Catalog:   catalog,
		Users:     users,
		Generator: gen,
		Clock:     clk,
		Logger:    logger,
	})
	guests := app.NewGuestService(app.GuestDeps{
		Shadows:   memory.NewGuestStore(),
		Generator: gen,
		Clock:     clk,
		Logger:    logger,
	})

	h := NewHandler(Deps{
		Catalog:    catalog,
		Generation: generation,
		Guests:     guests,
		Users:      users,
		Audit:      memory.NewAuditLog(),
		Identity:   identity,
		Hasher:     hasher.Fake{},
		AdminToken: []byte("admin-secret"),
		Logger:     logger,
	})

	return &harness{
		handler:  h.Routes(),
		users:    users,
		identity: identity,
		gen:      gen,
		catalog:  catalog,
	}
}

func (h *harness) do(t *testing.T, method, path string, body any, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) signIn(credits int64) ports.User {
	u := ports.User{ID: "u1", Email: "a@example.com", Name: "Alice", PlanID: plan.FreePlanID, Credits: credits, Status: "active"}
	h.users.Create(context.Background(), u)
	h.identity.user = u
	h.identity.ok = true
	return u
}

func asAdmin(r *http.Request) { r.Header.Set("Authorization", "Bearer admin-secret") }

func withGuestToken(r *http.Request) { r.Header.Set(GuestTokenHeader, "tok-1") }

// -----------------------------------------------------------------------------
// Public endpoints
// -----------------------------------------------------------------------------

func TestHealthz(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, "GET", "/healthz", nil)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestListPlans_ActiveOnly(t *testing.T) {
	h := newHarness(t)

	edited := plan.Defaults()
	edited[1].IsActive = false // basic
	if _, _, err := h.catalog.Save(context.Background(), edited, "admin", 0); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	rec := h.do(t, "GET", "/v1/plans", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Plans []plan.Plan `json:"plans"`
	}
	json.NewDecoder(rec.Body).Decode(&body)
	if len(body.Plans) != len(edited)-1 {
		t.Errorf("expected %d active plans, got %d", len(edited)-1, len(body.Plans))
	}
	for _, p := range body.Plans {
		if p.ID == "basic" {
			t.Error("inactive plan leaked into public listing")
		}
	}
}

func TestMe_RequiresUser(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, "GET", "/v1/me", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestMe_ResolvedEntitlements(t *testing.T) {
	h := newHarness(t)
	h.signIn(3)

	rec := h.do(t, "GET", "/v1/me", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		User struct {
			Credits int64 `json:"credits"`
		} `json:"user"`
		Plan struct {
			ID string `json:"id"`
		} `json:"plan"`
		Services []struct {
			Key    string `json:"key"`
			CanUse bool   `json:"canUse"`
		} `json:"services"`
	}
	json.NewDecoder(rec.Body).Decode(&body)
	if body.User.Credits != 3 || body.Plan.ID != plan.FreePlanID {
		t.Errorf("unexpected body: %+v", body)
	}
	if len(body.Services) != 8 {
		t.Errorf("expected 8 service rows, got %d", len(body.Services))
	}
}

// -----------------------------------------------------------------------------
// Generate endpoint
// -----------------------------------------------------------------------------

func TestGenerate_Success(t *testing.T) {
	h := newHarness(t)
	h.signIn(3)

	rec := h.do(t, "POST", "/v1/generate", map[string]any{"service": "news_generator", "prompt": "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Text    string `json:"text"`
		Cost    int64  `json:"cost"`
		Balance int64  `json:"balance"`
	}
	json.NewDecoder(rec.Body).Decode(&body)
	if body.Text != "generated" || body.Cost != 1 || body.Balance != 2 {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestGenerate_Unauthenticated(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, "POST", "/v1/generate", map[string]any{"service": "news_generator", "prompt": "hello"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestGenerate_UnknownService(t *testing.T) {
	h := newHarness(t)
	h.signIn(3)

	rec := h.do(t, "POST", "/v1/generate", map[string]any{"service": "video_generator", "prompt": "hello"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if h.gen.calls != 0 {
		t.Errorf("unknown service must not reach the backend, got %d calls", h.gen.calls)
	}
}

func TestGenerate_MissingPrompt(t *testing.T) {
	h := newHarness(t)
	h.signIn(3)

	rec := h.do(t, "POST", "/v1/generate", map[string]any{"service": "news_generator"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestGenerate_DisabledServiceIs403WithCost(t *testing.T) {
	h := newHarness(t)
	h.signIn(100)

	rec := h.do(t, "POST", "/v1/generate", map[string]any{"service": "image_generator", "prompt": "hello"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	var body struct {
		Error string `json:"error"`
		Cost  int64  `json:"cost"`
	}
	json.NewDecoder(rec.Body).Decode(&body)
	if body.Error != "service_disabled" {
		t.Errorf("expected service_disabled, got %s", body.Error)
	}
	if body.Cost != 4 {
		t.Errorf("locked-state response must price the service, got %d", body.Cost)
	}
}

func TestGenerate_InsufficientCreditsIs402(t *testing.T) {
	h := newHarness(t)
	h.signIn(0)

	rec := h.do(t, "POST", "/v1/generate", map[string]any{"service": "news_generator", "prompt": "hello"})
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rec.Code)
	}
	if h.gen.calls != 0 {
		t.Errorf("denial must not reach the backend, got %d calls", h.gen.calls)
	}
}

func TestGenerate_BackendFailureIs502(t *testing.T) {
	h := newHarness(t)
	h.signIn(3)
	h.gen.err = errors.New("upstream exploded")

	rec := h.do(t, "POST", "/v1/generate", map[string]any{"service": "news_generator", "prompt": "hello"})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}

	u, _ := h.users.Get(context.Background(), "u1")
	if u.Credits != 3 {
		t.Errorf("failed generation must not debit, got %d credits", u.Credits)
	}
}

// -----------------------------------------------------------------------------
// Guest endpoints
// -----------------------------------------------------------------------------

func TestGuestGenerate_RequiresToken(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, "POST", "/v1/guest/generate", map[string]any{"service": "news_generator", "prompt": "hello"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without token, got %d", rec.Code)
	}
}

func TestGuestGenerate_Lifecycle(t *testing.T) {
	h := newHarness(t)

	for i := 0; i < guest.SeedCredits; i++ {
		rec := h.do(t, "POST", "/v1/guest/generate",
			map[string]any{"service": "news_generator", "prompt": "hello"}, withGuestToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("generation %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := h.do(t, "POST", "/v1/guest/generate",
		map[string]any{"service": "news_generator", "prompt": "hello"}, withGuestToken)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402 when exhausted, got %d", rec.Code)
	}

	var body struct {
		Error string `json:"error"`
	}
	json.NewDecoder(rec.Body).Decode(&body)
	if body.Error != "allowance_exhausted" {
		t.Errorf("expected allowance_exhausted, got %s", body.Error)
	}
}

func TestGuestGenerate_OffListIs403(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, "POST", "/v1/guest/generate",
		map[string]any{"service": "image_generator", "prompt": "hello"}, withGuestToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	var body struct {
		Error string `json:"error"`
	}
	json.NewDecoder(rec.Body).Decode(&body)
	if body.Error != "signup_required" {
		t.Errorf("expected signup_required, got %s", body.Error)
	}
	if h.gen.calls != 0 {
		t.Errorf("off-list service must not reach the backend, got %d calls", h.gen.calls)
	}
}

func TestGuestAllowance(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, "GET", "/v1/guest/allowance", nil, withGuestToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Remaining int64    `json:"remaining"`
		Services  []string `json:"services"`
	}
	json.NewDecoder(rec.Body).Decode(&body)
	if body.Remaining != guest.SeedCredits {
		t.Errorf("expected %d remaining, got %d", guest.SeedCredits, body.Remaining)
	}
	if len(body.Services) != 3 {
		t.Errorf("expected 3 allowlisted services, got %d", len(body.Services))
	}
}

// -----------------------------------------------------------------------------
// Admin endpoints
// -----------------------------------------------------------------------------

func TestAdmin_RejectsBadToken(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, "GET", "/admin/plans", nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer wrong")
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}

	rec = h.do(t, "GET", "/admin/plans", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without header, got %d", rec.Code)
	}
}

func TestAdminGetPlans_IncludesVersion(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, "GET", "/admin/plans", nil, asAdmin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Plans   []plan.Plan `json:"plans"`
		Version int64       `json:"version"`
	}
	json.NewDecoder(rec.Body).Decode(&body)
	if body.Version != 0 {
		t.Errorf("unsaved catalog must report version 0, got %d", body.Version)
	}
	if len(body.Plans) != len(plan.Defaults()) {
		t.Errorf("expected defaults, got %d plans", len(body.Plans))
	}
}

func TestAdminGetPlans_DoesNotDisturbCatalogReaders(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	done := make(chan bool)
	for i := 0; i < 5; i++ {
		go func() {
			for j := 0; j < 20; j++ {
				rec := h.do(t, "GET", "/admin/plans", nil, asAdmin)
				if rec.Code != http.StatusOK {
					t.Errorf("admin plans returned %d", rec.Code)
				}
			}
			done <- true
		}()
	}
	for i := 0; i < 5; i++ {
		go func() {
			for j := 0; j < 20; j++ {
				if _, err := h.catalog.Load(ctx); err != nil {
					t.Errorf("catalog load failed: %v", err)
				}
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	// The handler's in-place row merging must stay on its own snapshot.
	plans, _ := h.catalog.Load(ctx)
	if len(plans) != len(plan.Defaults()) {
		t.Errorf("catalog changed under concurrent admin reads: %d plans", len(plans))
	}
}

func TestAdminPutPlans_RoundTrip(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, "PUT", "/admin/plans",
		map[string]any{"plans": plan.Defaults(), "version": 0, "actorId": "admin-1"}, asAdmin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Version int64 `json:"version"`
	}
	json.NewDecoder(rec.Body).Decode(&body)
	if body.Version != 1 {
		t.Errorf("expected version 1, got %d", body.Version)
	}
}

func TestAdminPutPlans_ValidationIs422(t *testing.T) {
	h := newHarness(t)

	bad := []plan.Plan{{ID: "premium", Name: "Premium"}} // no free plan
	rec := h.do(t, "PUT", "/admin/plans", map[string]any{"plans": bad, "version": 0}, asAdmin)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	var body struct {
		Error  string `json:"error"`
		Field  string `json:"field"`
		Reason string `json:"reason"`
	}
	json.NewDecoder(rec.Body).Decode(&body)
	if body.Error != "validation_failed" || body.Field == "" || body.Reason == "" {
		t.Errorf("expected named field and reason, got %+v", body)
	}
}

func TestAdminPutPlans_StaleVersionIs409(t *testing.T) {
	h := newHarness(t)

	first := h.do(t, "PUT", "/admin/plans", map[string]any{"plans": plan.Defaults(), "version": 0}, asAdmin)
	if first.Code != http.StatusOK {
		t.Fatalf("seed save failed: %d", first.Code)
	}

	// Echo the pre-save version: a concurrent edit happened in between.
	rec := h.do(t, "PUT", "/admin/plans", map[string]any{"plans": plan.Defaults(), "version": 5}, asAdmin)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestAdminSetCredits(t *testing.T) {
	h := newHarness(t)
	h.signIn(3)

	rec := h.do(t, "POST", "/admin/users/u1/credits", map[string]any{"credits": -1}, asAdmin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	u, _ := h.users.Get(context.Background(), "u1")
	if u.Credits != plan.UnlimitedCredits {
		t.Errorf("expected -1 credits, got %d", u.Credits)
	}
}

func TestAdminSetCredits_RejectsBelowUnlimited(t *testing.T) {
	h := newHarness(t)
	h.signIn(3)

	rec := h.do(t, "POST", "/admin/users/u1/credits", map[string]any{"credits": -2}, asAdmin)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
}

func TestAdminSetCredits_UnknownUser(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, "POST", "/admin/users/ghost/credits", map[string]any{"credits": 5}, asAdmin)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestAdminAudit(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, "GET", "/admin/audit?limit=10", nil, asAdmin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
