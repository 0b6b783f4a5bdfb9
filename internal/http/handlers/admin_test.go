package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"cardpro/internal/adapter/repo/memory"
	"cardpro/internal/bot"
	"cardpro/internal/domain"
	"cardpro/internal/http/handlers"
	"cardpro/internal/http/httpapi"
	"cardpro/internal/ledger"
)

type fixedStats struct {
	stats domain.Stats
}

func (f *fixedStats) Summary(context.Context) (*domain.Stats, error) {
	s := f.stats
	return &s, nil
}

type captureSender struct {
	mu      sync.Mutex
	blocked map[int64]bool
	sent    map[int64]int
}

func (c *captureSender) Send(_ context.Context, userID int64, _ string, _ *bot.Keyboard) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.blocked[userID] {
		return domain.ErrDeliveryBlocked
	}
	c.sent[userID]++
	return nil
}

func newTestAPI(t *testing.T) (http.Handler, *memory.Users, *captureSender) {
	t.Helper()
	users := memory.NewUsers()
	gens := memory.NewGens()
	svc := ledger.NewService(users, gens, ledger.Limits{FreeDaily: 3, StandardMonthly: 50, ProMonthly: 999999}, 3, zerolog.Nop())
	sender := &captureSender{blocked: make(map[int64]bool), sent: make(map[int64]int)}

	app := &handlers.App{
		Ledger: svc,
		Users:  users,
		Stats:  &fixedStats{stats: domain.Stats{TotalUsers: 12, PaidUsers: 3, TotalTokensIn: 1234567, TotalTokensOut: 7654321}},
		Sender: sender,
		Logger: zerolog.Nop(),
	}
	return httpapi.NewRouter(app, "secret"), users, sender
}

func adminReq(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer secret")
	return req
}

func seedUser(t *testing.T, users *memory.Users, id int64) {
	t.Helper()
	u := &domain.User{ID: id, Username: "seller", FullName: "Seller", ReferralCode: domain.ReferralCodeFor(id)}
	if _, err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestAdminStats(t *testing.T) {
	api, _, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, adminReq(t, http.MethodGet, "/v1/admin/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["total_users"].(float64) != 12 || resp["paid_users"].(float64) != 3 {
		t.Fatalf("counters = %v", resp)
	}
	if resp["tokens_in_pretty"] != "1,234,567" {
		t.Fatalf("tokens_in_pretty = %v", resp["tokens_in_pretty"])
	}
	// 1,234,567 in at $0.15/M plus 7,654,321 out at $0.60/M.
	if resp["approx_cost_usd"] != "$4.78" {
		t.Fatalf("approx_cost_usd = %v", resp["approx_cost_usd"])
	}
}

func TestAdminRequiresToken(t *testing.T) {
	api, _, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/stats", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	// Health stays open.
	rec = httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", rec.Code)
	}
}

func TestAdminUserInfo(t *testing.T) {
	api, users, _ := newTestAPI(t)
	seedUser(t, users, 77)

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, adminReq(t, http.MethodGet, "/v1/admin/users/77", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["plan"] != "free" || resp["quota_limit"].(float64) != 3 {
		t.Fatalf("user view = %v", resp)
	}

	rec = httptest.NewRecorder()
	api.ServeHTTP(rec, adminReq(t, http.MethodGet, "/v1/admin/users/404404", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown user status = %d, want 404", rec.Code)
	}
}

func TestAdminSetPlan(t *testing.T) {
	api, users, _ := newTestAPI(t)
	seedUser(t, users, 88)

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, adminReq(t, http.MethodPost, "/v1/admin/users/88/plan", map[string]any{"plan": "standard", "days": 30}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	u, err := users.GetByID(context.Background(), 88)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.Plan != domain.PlanStandard || u.SubExpiresAt == nil {
		t.Fatalf("user = plan %q expiry %v", u.Plan, u.SubExpiresAt)
	}
	want := time.Now().AddDate(0, 0, 30)
	if diff := u.SubExpiresAt.Sub(want); diff > time.Minute || diff < -time.Minute {
		t.Fatalf("expiry = %v, want ≈ %v", u.SubExpiresAt, want)
	}

	rec = httptest.NewRecorder()
	api.ServeHTTP(rec, adminReq(t, http.MethodPost, "/v1/admin/users/88/plan", map[string]any{"plan": "platinum", "days": 30}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown plan status = %d, want 400", rec.Code)
	}
}

func TestAdminBroadcast(t *testing.T) {
	api, users, sender := newTestAPI(t)
	seedUser(t, users, 1)
	seedUser(t, users, 2)
	seedUser(t, users, 3)
	sender.blocked[2] = true

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, adminReq(t, http.MethodPost, "/v1/admin/broadcast", map[string]string{"text": "maintenance tonight"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["sent"] != 2 || resp["failed"] != 1 {
		t.Fatalf("result = %v, want sent=2 failed=1", resp)
	}
}
