package ratelimit

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"
)

// Limiter is a fixed-window counter per key (client IP for HTTP)
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket // per-key buckets
	max     int                // tokens per window
	per     time.Duration      // window size
	now     func() time.Time
}

type bucket struct {
	ts     time.Time // window start
	tokens int       // remaining tokens
}

// New creates a limiter allowing max hits per key per window
func New(max int, per time.Duration) *Limiter {
	return &Limiter{buckets: map[string]*bucket{}, max: max, per: per, now: time.Now}
}

// Allow takes one token for key, false once the window is spent
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b := l.buckets[key]
	if b == nil || now.Sub(b.ts) > l.per {
		// Start a new window
		b = &bucket{ts: now, tokens: l.max}
		l.buckets[key] = b
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// Prune drops buckets whose window has ended
func (l *Limiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for k, b := range l.buckets {
		if now.Sub(b.ts) > l.per {
			delete(l.buckets, k)
		}
	}
}

// Run prunes expired buckets once per window until ctx is cancelled
func (l *Limiter) Run(ctx context.Context) {
	t := time.NewTicker(l.per)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			l.Prune()
		case <-ctx.Done():
			return
		}
	}
}

// Middleware enforces the limit per client IP before calling next
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ip, _, err := net.SplitHostPort(req.RemoteAddr)
		if err != nil {
			ip = req.RemoteAddr
		}
		if !l.Allow(ip) {
			http.Error(w, "rate limit", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, req)
	})
}
