package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// VisitorRegistry holds one limiter per client IP with a TTL. It is created
// in main and injected where needed instead of living as package state.
type VisitorRegistry struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	ttl      time.Duration
}

func NewVisitorRegistry(r rate.Limit, burst int, ttl time.Duration) *VisitorRegistry {
	return &VisitorRegistry{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    burst,
		ttl:      ttl,
	}
}

func (vr *VisitorRegistry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.Header.Get("X-Forwarded-For")
		if ip == "" {
			ip, _, _ = net.SplitHostPort(r.RemoteAddr)
		}

		if !vr.limiterFor(ip).Allow() {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (vr *VisitorRegistry) limiterFor(ip string) *rate.Limiter {
	vr.mu.Lock()
	defer vr.mu.Unlock()

	v, exists := vr.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(vr.rate, vr.burst)
		vr.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// Cleanup evicts idle visitors. Run it in its own goroutine from main.
func (vr *VisitorRegistry) Cleanup() {
	for {
		time.Sleep(time.Minute)
		vr.mu.Lock()
		for ip, v := range vr.visitors {
			if time.Since(v.lastSeen) > vr.ttl {
				delete(vr.visitors, ip)
			}
		}
		vr.mu.Unlock()
	}
}
