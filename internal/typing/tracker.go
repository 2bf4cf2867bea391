// Package typing keeps per-user typing indicators and expires the ones that
// have not been refreshed.
package typing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"realtime-relay/internal/relay"
	"realtime-relay/pkg/metrics"
)

const (
	DefaultExpiry   = 5 * time.Second
	DefaultInterval = 5 * time.Second
)

// RoomBroadcaster is the slice of room membership the tracker needs
type RoomBroadcaster interface {
	BroadcastToRoom(room, event string, payload any, exclude relay.ConnID)
}

type record struct {
	room string
	at   time.Time
}

// Tracker holds at most one record per user. Starting to type in a second
// room replaces the first record.
type Tracker struct {
	log      *slog.Logger
	rooms    RoomBroadcaster
	expiry   time.Duration
	interval time.Duration
	now      func() time.Time

	mu     sync.Mutex
	byUser map[string]record
}

type Option func(*Tracker)

// WithExpiry sets how old a record may get before the sweep drops it
func WithExpiry(d time.Duration) Option { return func(t *Tracker) { t.expiry = d } }

// WithInterval sets the sweep period used by Run
func WithInterval(d time.Duration) Option { return func(t *Tracker) { t.interval = d } }

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option { return func(t *Tracker) { t.now = now } }

// New returns an empty tracker with 5s expiry and sweep period unless
// overridden by opts
func New(rooms RoomBroadcaster, log *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		log:      log,
		rooms:    rooms,
		expiry:   DefaultExpiry,
		interval: DefaultInterval,
		now:      time.Now,
		byUser:   map[string]record{},
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Start records user as typing in room and tells the rest of the room
func (t *Tracker) Start(user, room string, origin relay.ConnID) {
	t.mu.Lock()
	t.byUser[user] = record{room: room, at: t.now()}
	t.mu.Unlock()

	t.rooms.BroadcastToRoom(room, relay.EventUserTyping, relay.Typing{UserID: user, IsTyping: true}, origin)
	t.log.Debug("typing.start", "user", user, "room", room)
}

// Stop drops the record for user. The room is told the user stopped typing
// whether or not a record existed.
func (t *Tracker) Stop(user, room string, origin relay.ConnID) {
	t.mu.Lock()
	delete(t.byUser, user)
	t.mu.Unlock()

	t.rooms.BroadcastToRoom(room, relay.EventUserTyping, relay.Typing{UserID: user, IsTyping: false}, origin)
	t.log.Debug("typing.stop", "user", user, "room", room)
}

// Clear silently drops the record for user
func (t *Tracker) Clear(user string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.byUser[user]
	delete(t.byUser, user)
	return ok
}

// Active returns the room user is typing in
func (t *Tracker) Active(user string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.byUser[user]
	return r.room, ok
}

// Len returns the number of users currently typing
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byUser)
}

// Sweep drops every record older than the expiry and sends one stop
// notification per dropped record to its whole room. It returns the number
// of records expired.
func (t *Tracker) Sweep(now time.Time) int {
	type expired struct{ user, room string }
	var gone []expired

	t.mu.Lock()
	for user, r := range t.byUser {
		if now.Sub(r.at) > t.expiry {
			delete(t.byUser, user)
			gone = append(gone, expired{user: user, room: r.room})
		}
	}
	t.mu.Unlock()

	for _, e := range gone {
		t.rooms.BroadcastToRoom(e.room, relay.EventUserTyping, relay.Typing{UserID: e.user, IsTyping: false}, "")
		t.log.Debug("typing.expired", "user", e.user, "room", e.room)
	}
	metrics.TypingExpired.Add(float64(len(gone)))
	return len(gone)
}

// Run sweeps once per interval until ctx is cancelled
func (t *Tracker) Run(ctx context.Context) {
	tick := time.NewTicker(t.interval)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			t.Sweep(t.now())
		case <-ctx.Done():
			return
		}
	}
}
