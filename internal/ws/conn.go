package ws

import (
	"context"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"realtime-relay/internal/relay"
)

const pingPeriod = 20 * time.Second

type Conn struct {
	id  relay.ConnID
	ws  *websocket.Conn
	out chan []byte
}

// Accept upgrades HTTP to websocket for the given origins
func Accept(w http.ResponseWriter, r *http.Request, origins []string) (*websocket.Conn, error) {
	return websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  origins,
		CompressionMode: websocket.CompressionDisabled,
	})
}

// NewConn wraps a WS connection with an outbound queue of size buf
func NewConn(id relay.ConnID, ws *websocket.Conn, buf int) *Conn {
	return &Conn{id: id, ws: ws, out: make(chan []byte, buf)}
}

func (c *Conn) ID() relay.ConnID { return c.id }

// Read blocks until it receives a text/binary message
// Returns false if connection is closed
func (c *Conn) Read(ctx context.Context) ([]byte, bool) {
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			return nil, false
		}
		if typ == websocket.MessageText || typ == websocket.MessageBinary {
			return data, true
		}
	}
}

// WriteLoop sends outbound frames + periodic pings
// Exits when ctx is cancelled or a write fails
func (c *Conn) WriteLoop(ctx context.Context) {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()

	for {
		select {
		case b := <-c.out:
			if err := c.ws.Write(ctx, websocket.MessageText, b); err != nil {
				return
			}
		case <-t.C:
			if err := c.ws.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Enqueue queues a frame without blocking, false if the queue is full
func (c *Conn) Enqueue(b []byte) bool {
	select {
	case c.out <- b:
		return true
	default:
		return false
	}
}

// Close closes the WS connection normally
func (c *Conn) Close() error { return c.ws.Close(websocket.StatusNormalClosure, "bye") }

// CloseGoingAway closes the connection on server shutdown
func (c *Conn) CloseGoingAway() error { return c.ws.Close(websocket.StatusGoingAway, "server shutdown") }
