package web

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiter throttles requests per remote IP. Entries idle for longer
// than the cleanup age are dropped to keep the map bounded.
type clientLimiter struct {
	clients sync.Map
	rps     rate.Limit
	burst   int
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	cl := &clientLimiter{
		rps:   rate.Limit(rps),
		burst: burst,
	}
	go cl.cleanup()
	return cl
}

func (cl *clientLimiter) allow(ip string) bool {
	now := time.Now()
	val, ok := cl.clients.Load(ip)
	if !ok {
		val, _ = cl.clients.LoadOrStore(ip, &clientEntry{
			limiter:  rate.NewLimiter(cl.rps, cl.burst),
			lastSeen: now,
		})
	}
	entry := val.(*clientEntry)
	entry.lastSeen = now
	return entry.limiter.Allow()
}

func (cl *clientLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-10 * time.Minute)
		cl.clients.Range(func(key, val interface{}) bool {
			if val.(*clientEntry).lastSeen.Before(cutoff) {
				cl.clients.Delete(key)
			}
			return true
		})
	}
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientIP(r)) {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
