package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(t *testing.T, requests int, window time.Duration) (*Limiter, *fakeClock) {
	t.Helper()
	rl := NewLimiter(Config{Requests: requests, Window: window})
	t.Cleanup(rl.Stop)
	clock := &fakeClock{t: time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)}
	rl.now = clock.now
	return rl, clock
}

func TestLimiter_Allow(t *testing.T) {
	rl, clock := newTestLimiter(t, 3, time.Minute)

	for i := 1; i <= 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("fourth request in the window should be rejected")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other clients have their own budget")
	}

	clock.t = clock.t.Add(30 * time.Second)
	if rl.Allow("1.2.3.4") {
		t.Error("window has not reset yet")
	}
	if got := rl.RetryAfter("1.2.3.4"); got != 30*time.Second {
		t.Errorf("RetryAfter = %v, want 30s", got)
	}

	clock.t = clock.t.Add(30 * time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Error("request after the window should be allowed")
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	rl, clock := newTestLimiter(t, 3, time.Minute)
	rl.Allow("1.2.3.4")
	clock.t = clock.t.Add(90 * time.Second)
	rl.Allow("5.6.7.8")

	clock.t = clock.t.Add(time.Minute)
	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if rl.ActiveClients() != 1 {
		t.Errorf("ActiveClients = %d, want 1", rl.ActiveClients())
	}
}

func TestLimiter_Middleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1, time.Minute)
	handler := rl.Middleware(
		func(*http.Request) string { return "client" },
		nil,
		http.MethodPost,
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		method string
		want   int
	}{
		{http.MethodPost, http.StatusNoContent},
		{http.MethodPost, http.StatusTooManyRequests},
		{http.MethodGet, http.StatusNoContent},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(tt.method, "/", nil))
		if rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.method, rec.Code, tt.want)
		}
		if rec.Code == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "60" {
			t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
		}
	}
}

func TestNewLimiter_Defaults(t *testing.T) {
	rl := NewLimiter(Config{})
	defer rl.Stop()
	if rl.requests != 60 || rl.window != time.Minute {
		t.Errorf("defaults = %d per %v, want 60 per 1m", rl.requests, rl.window)
	}
	rl.Stop() // idempotent
}
