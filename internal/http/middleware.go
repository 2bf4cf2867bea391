package httpx

import (
	"net/http"
	"time"

	"github.com/rs/cors"

	"realtime-relay/internal/app"
	"realtime-relay/pkg/ratelimit"
)

type Middleware struct {
	cors   *cors.Cors
	rlimit *ratelimit.Limiter
}

// NewMiddleware builds the shared middleware stack from config
func NewMiddleware(cfg app.Config) *Middleware {
	return &Middleware{
		cors: cors.New(cors.Options{
			AllowedOrigins:   cfg.CORSAllow,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}),
		rlimit: ratelimit.New(cfg.UpgradesPerMinute, time.Minute),
	}
}

// Wrap applies CORS to a handler
func (m *Middleware) Wrap(h http.Handler) http.Handler {
	return m.cors.Handler(h)
}

// Throttle rate limits a handler per client IP
func (m *Middleware) Throttle(h http.Handler) http.Handler {
	return m.rlimit.Middleware(h)
}

// Limiter exposes the upgrade limiter so its buckets can be pruned
func (m *Middleware) Limiter() *ratelimit.Limiter { return m.rlimit }
