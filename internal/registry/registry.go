// Package registry maps logical users to the connection they are online on.
package registry

import (
	"log/slog"
	"sync"

	"realtime-relay/internal/relay"
	"realtime-relay/pkg/metrics"
)

// Registry holds at most one connection per user. A second user-online for
// the same user replaces the first mapping; it never appends.
type Registry struct {
	log *slog.Logger
	out relay.Deliverer

	mu     sync.RWMutex
	byUser map[string]relay.ConnID // user -> conn
	byConn map[relay.ConnID]string // conn -> user
}

// New returns an empty registry that announces status changes through out
func New(out relay.Deliverer, log *slog.Logger) *Registry {
	return &Registry{
		log:    log,
		out:    out,
		byUser: map[string]relay.ConnID{},
		byConn: map[relay.ConnID]string{},
	}
}

// SetOnline maps user to conn and announces the user as online to every
// connection, even when the user was already online. If conn was speaking
// for someone else, that user is announced offline first.
func (r *Registry) SetOnline(user string, conn relay.ConnID) {
	r.mu.Lock()
	if prev, ok := r.byUser[user]; ok && prev != conn {
		delete(r.byConn, prev)
	}
	// a connection speaks for one user at a time
	displaced, ok := r.byConn[conn]
	if ok && displaced != user {
		delete(r.byUser, displaced)
	} else {
		displaced = ""
	}
	r.byUser[user] = conn
	r.byConn[conn] = user
	n := len(r.byUser)
	r.mu.Unlock()

	metrics.OnlineUsers.Set(float64(n))
	if displaced != "" {
		r.announce(displaced, relay.StatusOffline)
		r.log.Info("registry.offline", "user", displaced, "conn", conn, "reason", "reidentified")
	}
	r.announce(user, relay.StatusOnline)
	r.log.Info("registry.online", "user", user, "conn", conn)
}

// LookupUserByConnection returns the user currently mapped to conn
func (r *Registry) LookupUserByConnection(conn relay.ConnID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byConn[conn]
	return user, ok
}

// RemoveByConnection drops the user mapped to conn and announces them as
// offline. It is a no-op when conn no longer maps to anyone.
func (r *Registry) RemoveByConnection(conn relay.ConnID) (string, bool) {
	r.mu.Lock()
	user, ok := r.byConn[conn]
	if ok {
		delete(r.byConn, conn)
		delete(r.byUser, user)
	}
	n := len(r.byUser)
	r.mu.Unlock()

	if !ok {
		return "", false
	}
	metrics.OnlineUsers.Set(float64(n))
	r.announce(user, relay.StatusOffline)
	r.log.Info("registry.offline", "user", user, "conn", conn)
	return user, true
}

// ConnectionFor returns the connection user is online on
func (r *Registry) ConnectionFor(user string) (relay.ConnID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byUser[user]
	return conn, ok
}

// Online returns the number of identified users
func (r *Registry) Online() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

func (r *Registry) announce(user, status string) {
	frame, err := relay.Encode(relay.EventUserStatusChange, relay.StatusChange{UserID: user, Status: status})
	if err != nil {
		r.log.Error("registry.encode", "err", err)
		return
	}
	r.out.Broadcast(frame)
}
