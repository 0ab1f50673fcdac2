package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, cfg Config, now *time.Time) *Limiter {
	t.Helper()
	rl := NewLimiter(cfg)
	rl.now = func() time.Time { return *now }
	t.Cleanup(rl.Stop)
	return rl
}

func TestAllowWindow(t *testing.T) {
	now := time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC)
	rl := newTestLimiter(t, Config{RequestsPerMinute: 2}, &now)

	for i, want := range []bool{true, true, false, false} {
		if got := rl.Allow("1.2.3.4"); got != want {
			t.Fatalf("request %d: Allow() = %v, want %v", i, got, want)
		}
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatalf("clients must be counted separately")
	}

	// steady traffic does not extend the window
	now = now.Add(time.Minute)
	if !rl.Allow("1.2.3.4") {
		t.Fatalf("window did not reset after a minute")
	}

	if m := rl.GetMetrics(); m.TotalHits != 2 || m.ClientCount != 2 {
		t.Fatalf("metrics = %+v", m)
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	now := time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC)
	rl := newTestLimiter(t, Config{RequestsPerMinute: 5}, &now)

	rl.Allow("old")
	now = now.Add(11 * time.Minute)
	rl.Allow("fresh")
	rl.cleanupStaleEntries()

	if got := rl.ActiveClients(); got != 1 {
		t.Fatalf("ActiveClients() = %d, want 1", got)
	}
}

func TestMiddlewareOnlyThrottlesListedMethods(t *testing.T) {
	now := time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC)
	rl := newTestLimiter(t, Config{RequestsPerMinute: 1, Methods: []string{http.MethodPost}}, &now)

	h := rl.Middleware(func(*http.Request) string { return "ip" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	serve := func(method string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(method, "/", nil))
		return rr
	}

	if rr := serve(http.MethodPost); rr.Code != http.StatusOK {
		t.Fatalf("first POST status = %d", rr.Code)
	}
	rr := serve(http.MethodPost)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST status = %d, want 429", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "60" {
		t.Fatalf("Retry-After = %q, want 60", got)
	}
	if rr := serve(http.MethodGet); rr.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rr.Code)
	}
}
