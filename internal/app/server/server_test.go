package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"goalrisk/internal/domain/auth"
	"goalrisk/internal/domain/goalrisk"
	"goalrisk/internal/platform/config"
	"goalrisk/internal/platform/metrics"
)

type emptyStore struct{ goalrisk.StoreAPI }

func (emptyStore) LoadGoal(context.Context, string, string) (goalrisk.GoalRecord, error) {
	return goalrisk.GoalRecord{}, goalrisk.ErrGoalNotFound
}

func testDeps(ready func(context.Context) error) RouterDeps {
	cfg := config.Config{
		Environment:        "development",
		JWTSecret:          "0123456789abcdef0123456789abcdef",
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 100,
	}
	return RouterDeps{
		Config:  cfg,
		Service: goalrisk.NewService(emptyStore{}, nil, goalrisk.ServiceConfig{}),
		Perms:   auth.NewStaticPermissions(),
		Metrics: metrics.New(),
		Ready:   ready,
	}
}

func get(h http.Handler, path string, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterHealthAndReadiness(t *testing.T) {
	h := NewRouter(testDeps(func(context.Context) error { return nil }))
	if rec := get(h, "/healthz", ""); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected healthz: %d %q", rec.Code, rec.Body.String())
	}
	if rec := get(h, "/readyz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d", rec.Code)
	}

	down := NewRouter(testDeps(func(context.Context) error { return errors.New("pool closed") }))
	if rec := get(down, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestRouterServesMetricsAndHeaders(t *testing.T) {
	h := NewRouter(testDeps(nil))
	get(h, "/healthz", "")
	rec := get(h, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "goalrisk_http_requests_total") {
		t.Fatalf("expected request metrics, got %d", rec.Code)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" || rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected security and request id headers, got %v", rec.Header())
	}
}

func TestRouterAPIRoutes(t *testing.T) {
	deps := testDeps(nil)
	h := NewRouter(deps)

	if rec := get(h, "/api/v1/goal-risk/goals/g1/assessment", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}

	token, err := auth.GenerateToken(deps.Config.JWTSecret, auth.Claims{UserID: "u1", TenantID: "t1", RoleName: auth.RoleEmployee}, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if rec := get(h, "/api/v1/goal-risk/goals/g1/assessment", token); rec.Code != http.StatusNotFound {
		t.Fatalf("expected goal_not_found, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := get(h, "/api/v1/unknown", token); rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "not_found") {
		t.Fatalf("expected not_found envelope, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestLoadWeights(t *testing.T) {
	w, err := LoadWeights("")
	if err != nil || w != goalrisk.DefaultWeights() {
		t.Fatalf("expected defaults, got %+v %v", w, err)
	}

	path := filepath.Join(t.TempDir(), "weights.yaml")
	if err := os.WriteFile(path, []byte("criticalThreshold: 90\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	w, err = LoadWeights(path)
	if err != nil || w.CriticalThreshold != 90 {
		t.Fatalf("expected override, got %+v %v", w, err)
	}

	if _, err := LoadWeights(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected a read error")
	}
}
