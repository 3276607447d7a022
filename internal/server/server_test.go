package server_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"RollupLedger/internal/observability"
	"RollupLedger/internal/server"
)

func testServer(ready bool) *server.HTTPServer {
	hc := observability.NewHealthChecker()
	hc.SetReady(ready)
	return server.NewHTTPServer(":0", &server.ServerDeps{
		HealthChecker: hc,
		StartTime:     time.Now(),
	})
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthAndStatusRoutes(t *testing.T) {
	router := testServer(true).Router()

	for _, path := range []string{"/healthz", "/readyz", "/v1/status"} {
		if w := get(t, router, path); w.Code != http.StatusOK {
			t.Fatalf("GET %s = %d, want 200", path, w.Code)
		}
	}
}

func TestReadinessGate(t *testing.T) {
	hc := observability.NewHealthChecker()
	srv := server.NewHTTPServer(":0", &server.ServerDeps{
		HealthChecker: hc,
		StartTime:     time.Now(),
	})
	router := srv.Router()

	if w := get(t, router, "/readyz"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("not-ready /readyz = %d, want 503", w.Code)
	}

	hc.SetReady(true)
	if w := get(t, router, "/readyz"); w.Code != http.StatusOK {
		t.Fatalf("ready /readyz = %d, want 200", w.Code)
	}
}

func TestAccountParamValidation(t *testing.T) {
	router := testServer(true).Router()

	// Parameter errors are rejected before any query runs.
	if w := get(t, router, "/v1/accounts/not-a-number"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id = %d, want 400", w.Code)
	}
	if w := get(t, router, "/v1/accounts/-1"); w.Code != http.StatusBadRequest {
		t.Fatalf("negative id = %d, want 400", w.Code)
	}
	if w := get(t, router, "/v1/accounts"); w.Code != http.StatusBadRequest {
		t.Fatalf("missing pubkey = %d, want 400", w.Code)
	}
}

func TestEnvelopeCursorValidation(t *testing.T) {
	router := testServer(true).Router()

	if w := get(t, router, "/v1/envelopes?after=abc"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad cursor = %d, want 400", w.Code)
	}
	if w := get(t, router, "/v1/envelopes?limit=xyz"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad limit = %d, want 400", w.Code)
	}
}
