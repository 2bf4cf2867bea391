package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"realtime-relay/internal/relay"
	"realtime-relay/pkg/metrics"
)

var (
	ErrUnknownConn    = errors.New("ws: unknown connection")
	ErrSendBufferFull = errors.New("ws: send buffer full")
)

// Dispatcher handles the events read from a connection
type Dispatcher interface {
	Dispatch(ctx context.Context, conn relay.ConnID, raw []byte)
	Disconnect(conn relay.ConnID)
}

// Hub is the set of live connections. It implements relay.Deliverer.
type Hub struct {
	log     *slog.Logger
	origins []string
	buf     int

	mu    sync.RWMutex
	conns map[relay.ConnID]*Conn
}

// NewHub sets up an empty hub; buf is the per-connection send queue size
func NewHub(logger *slog.Logger, origins []string, buf int) *Hub {
	if buf <= 0 {
		buf = 256
	}
	return &Hub{log: logger, origins: origins, buf: buf, conns: map[relay.ConnID]*Conn{}}
}

// Send queues frame for a single connection without blocking
func (h *Hub) Send(id relay.ConnID, frame []byte) error {
	h.mu.RLock()
	c := h.conns[id]
	h.mu.RUnlock()
	if c == nil {
		return ErrUnknownConn
	}
	if !c.Enqueue(frame) {
		return ErrSendBufferFull
	}
	return nil
}

// Broadcast queues frame for every connection, skipping full queues
func (h *Hub) Broadcast(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.conns {
		if !c.Enqueue(frame) {
			metrics.DeliveryFailures.Inc()
			h.log.Warn("ws.broadcast", "conn", id, "err", ErrSendBufferFull)
		}
	}
}

// Count returns the number of live connections
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close closes every live connection. Their read loops then run the normal
// disconnect path.
func (h *Hub) Close() {
	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		_ = c.CloseGoingAway()
	}
}

func (h *Hub) register(c *Conn) {
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
	metrics.Connections.Inc()
}

func (h *Hub) unregister(c *Conn) {
	h.mu.Lock()
	delete(h.conns, c.id)
	h.mu.Unlock()
	metrics.Connections.Dec()
}

// Handler serves /ws connections, feeding their events to d
func (h *Hub) Handler(d Dispatcher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeWS(w, r, d)
	})
}

// ServeWS upgrades one connection and reads from it until it closes. Events
// from a connection are dispatched one at a time in arrival order.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, d Dispatcher) {
	ws, err := Accept(w, r, h.origins)
	if err != nil {
		h.log.Error("ws.accept", "err", err)
		return
	}

	c := NewConn(relay.ConnID(uuid.NewString()), ws, h.buf)
	h.register(c)
	h.log.Info("ws.connected", "conn", c.id, "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Outbound writer
	go c.WriteLoop(ctx)

	for {
		payload, ok := c.Read(ctx)
		if !ok {
			break
		}
		d.Dispatch(ctx, c.id, payload)
	}

	// drop the connection first so its own offline notice is not queued to it
	h.unregister(c)
	d.Disconnect(c.id)
	cancel()
	_ = c.Close()
	h.log.Info("ws.disconnected", "conn", c.id)
}
