// Package rooms tracks which connections are subscribed to which chat rooms
// and fans frames out to a room's current subscribers.
package rooms

import (
	"log/slog"
	"sort"
	"sync"

	"realtime-relay/internal/relay"
	"realtime-relay/pkg/metrics"
)

type set map[relay.ConnID]struct{}

// Membership is connection-scoped: a reconnecting user has to join again.
type Membership struct {
	log *slog.Logger
	out relay.Deliverer

	mu     sync.RWMutex
	rooms  map[string]set                       // room -> subscribers
	byConn map[relay.ConnID]map[string]struct{} // conn -> rooms joined
}

// New returns empty membership that delivers room frames through out
func New(out relay.Deliverer, log *slog.Logger) *Membership {
	return &Membership{
		log:    log,
		out:    out,
		rooms:  map[string]set{},
		byConn: map[relay.ConnID]map[string]struct{}{},
	}
}

// Join adds conn to room
func (m *Membership) Join(conn relay.ConnID, room string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.rooms[room]
	if s == nil {
		s = set{}
		m.rooms[room] = s
	}
	s[conn] = struct{}{}

	joined := m.byConn[conn]
	if joined == nil {
		joined = map[string]struct{}{}
		m.byConn[conn] = joined
	}
	joined[room] = struct{}{}
}

// Leave removes conn from room, no-op if it was not a member
func (m *Membership) Leave(conn relay.ConnID, room string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leave(conn, room)
}

// LeaveAll removes conn from every room and returns the rooms it left
func (m *Membership) LeaveAll(conn relay.ConnID) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var left []string
	for room := range m.byConn[conn] {
		left = append(left, room)
	}
	for _, room := range left {
		m.leave(conn, room)
	}
	sort.Strings(left)
	return left
}

// leave expects m.mu held
func (m *Membership) leave(conn relay.ConnID, room string) {
	if s := m.rooms[room]; s != nil {
		delete(s, conn)
		if len(s) == 0 {
			delete(m.rooms, room)
		}
	}
	if joined := m.byConn[conn]; joined != nil {
		delete(joined, room)
		if len(joined) == 0 {
			delete(m.byConn, conn)
		}
	}
}

// Members returns a snapshot of room's subscribers
func (m *Membership) Members(room string) []relay.ConnID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.rooms[room]
	out := make([]relay.ConnID, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Count returns the number of subscribers in room
func (m *Membership) Count(room string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[room])
}

// Rooms returns the number of non-empty rooms
func (m *Membership) Rooms() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// BroadcastToRoom delivers event to every subscriber of room except exclude.
// An empty exclude means nobody is skipped. A failed delivery is logged and
// the remaining subscribers are still served.
func (m *Membership) BroadcastToRoom(room, event string, payload any, exclude relay.ConnID) {
	frame, err := relay.Encode(event, payload)
	if err != nil {
		m.log.Error("rooms.encode", "room", room, "event", event, "err", err)
		return
	}

	// deliver outside the lock
	for _, c := range m.Members(room) {
		if exclude != "" && c == exclude {
			continue
		}
		if err := m.out.Send(c, frame); err != nil {
			metrics.DeliveryFailures.Inc()
			m.log.Warn("rooms.deliver", "room", room, "event", event, "conn", c, "err", err)
		}
	}
}

// BroadcastToRoomIncludingSelf delivers event to every subscriber of room
func (m *Membership) BroadcastToRoomIncludingSelf(room, event string, payload any) {
	m.BroadcastToRoom(room, event, payload, "")
}
