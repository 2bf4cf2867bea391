package httpx

import (
	"log/slog"
	"net/http"

	"realtime-relay/internal/app"
	"realtime-relay/internal/ws"
	"realtime-relay/pkg/metrics"
)

// NewRouter wires up the liveness, metrics and websocket routes
func NewRouter(cfg app.Config, logger *slog.Logger, mw *Middleware, hub *ws.Hub, d ws.Dispatcher) http.Handler {
	mux := http.NewServeMux()

	// Liveness
	mux.Handle("GET /{$}", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Socket server is running"))
	}))

	// Health / readiness / metrics
	mux.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/readyz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/metrics", metrics.Handler())

	// WebSocket endpoint
	mux.Handle("/ws", mw.Throttle(hub.Handler(d)))

	logger.Debug("http.routes", "addr", cfg.HTTPAddr, "cors", cfg.CORSAllow)
	return mw.Wrap(mux) // CORS applied globally
}
