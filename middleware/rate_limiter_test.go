package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestVisitorRegistryLimitsPerIP(t *testing.T) {
	registry := NewVisitorRegistry(rate.Limit(1), 2, time.Minute)

	handler := registry.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", ip)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	// Burst of 2 passes, third is rejected.
	if code := send("10.0.0.1"); code != http.StatusOK {
		t.Fatalf("first request: got %d, want 200", code)
	}
	if code := send("10.0.0.1"); code != http.StatusOK {
		t.Fatalf("second request: got %d, want 200", code)
	}
	if code := send("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("third request: got %d, want 429", code)
	}

	// A different client keeps its own bucket.
	if code := send("10.0.0.2"); code != http.StatusOK {
		t.Fatalf("other ip: got %d, want 200", code)
	}
}

func TestVisitorRegistryReusesLimiter(t *testing.T) {
	registry := NewVisitorRegistry(rate.Limit(100), 1, time.Minute)

	first := registry.limiterFor("10.0.0.3")
	second := registry.limiterFor("10.0.0.3")
	if first != second {
		t.Fatal("expected the same limiter for repeated visits")
	}
}
