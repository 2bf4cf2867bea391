package ws

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"realtime-relay/internal/relay"
)

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestSend(t *testing.T) {
	h := NewHub(testLogger(), []string{"*"}, 1)
	c := NewConn("c1", nil, 1)
	h.register(c)
	defer h.unregister(c)

	require.NoError(t, h.Send("c1", []byte("one")))
	assert.ErrorIs(t, h.Send("c1", []byte("two")), ErrSendBufferFull)
	assert.ErrorIs(t, h.Send("nope", []byte("x")), ErrUnknownConn)
	assert.Equal(t, []byte("one"), <-c.out)
}

func TestBroadcastSkipsFullQueues(t *testing.T) {
	h := NewHub(testLogger(), []string{"*"}, 1)
	a, b := NewConn("a", nil, 1), NewConn("b", nil, 1)
	h.register(a)
	h.register(b)
	defer h.unregister(a)
	defer h.unregister(b)
	require.True(t, a.Enqueue([]byte("filler")))

	h.Broadcast([]byte("hello"))

	assert.Equal(t, []byte("filler"), <-a.out)
	assert.Equal(t, []byte("hello"), <-b.out)
	assert.Len(t, a.out, 0)
	assert.Equal(t, 2, h.Count())
}

type recordingDispatcher struct {
	hub *Hub

	mu           sync.Mutex
	events       []string
	disconnected []relay.ConnID
	countAtClose int
}

func (d *recordingDispatcher) Dispatch(_ context.Context, conn relay.ConnID, raw []byte) {
	f, err := relay.Decode(raw)
	if err != nil {
		return
	}
	d.mu.Lock()
	d.events = append(d.events, f.Event)
	d.mu.Unlock()

	// echo back through the hub like the router would
	frame, _ := relay.Encode("echo", f.Event)
	_ = d.hub.Send(conn, frame)
}

func (d *recordingDispatcher) Disconnect(conn relay.ConnID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disconnected = append(d.disconnected, conn)
	d.countAtClose = d.hub.Count()
}

func (d *recordingDispatcher) snapshot() ([]string, []relay.ConnID, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.events...), append([]relay.ConnID(nil), d.disconnected...), d.countAtClose
}

func TestServeWSDispatchesInOrderAndDisconnects(t *testing.T) {
	h := NewHub(testLogger(), []string{"*"}, 16)
	d := &recordingDispatcher{hub: h}
	srv := httptest.NewServer(h.Handler(d))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)

	names := []string{"join-chat", "typing-start", "typing-stop", "send-message"}
	for _, n := range names {
		require.NoError(t, c.Write(ctx, websocket.MessageText, []byte(`{"event":"`+n+`"}`)))
	}
	for _, n := range names {
		_, data, err := c.Read(ctx)
		require.NoError(t, err)
		assert.JSONEq(t, `{"event":"echo","data":"`+n+`"}`, string(data))
	}

	require.NoError(t, c.Close(websocket.StatusNormalClosure, ""))

	require.Eventually(t, func() bool {
		_, gone, _ := d.snapshot()
		return len(gone) == 1
	}, 2*time.Second, 10*time.Millisecond)

	events, _, count := d.snapshot()
	assert.Equal(t, names, events)
	assert.Equal(t, 0, count, "connection is dropped from the hub before Disconnect runs")
	assert.Equal(t, 0, h.Count())
}

func TestCloseDisconnectsEveryone(t *testing.T) {
	h := NewHub(testLogger(), []string{"*"}, 16)
	d := &recordingDispatcher{hub: h}
	srv := httptest.NewServer(h.Handler(d))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	for i := 0; i < 3; i++ {
		c, _, err := websocket.Dial(ctx, url, nil)
		require.NoError(t, err)
		defer c.CloseNow()
		// keep reading so the close handshake completes
		go func() {
			for {
				if _, _, err := c.Read(ctx); err != nil {
					return
				}
			}
		}()
	}
	require.Eventually(t, func() bool { return h.Count() == 3 }, 2*time.Second, 10*time.Millisecond)

	h.Close()

	require.Eventually(t, func() bool {
		_, gone, _ := d.snapshot()
		return len(gone) == 3
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, h.Count())
}
