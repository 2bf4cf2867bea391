// Package router turns inbound session events into registry, room and
// typing operations.
package router

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"realtime-relay/internal/registry"
	"realtime-relay/internal/relay"
	"realtime-relay/internal/rooms"
	"realtime-relay/internal/typing"
	"realtime-relay/pkg/metrics"
)

// Mirror receives a copy of every relayed chat message. Publish is called
// from the sender's read loop and must not block on I/O; see bus.Queue.
type Mirror interface {
	Publish(ctx context.Context, chatID string, frame []byte) error
}

// Router owns no state of its own; it sequences calls into the registry,
// room membership and typing tracker for one inbound event at a time.
type Router struct {
	log    *slog.Logger
	reg    *registry.Registry
	rooms  *rooms.Membership
	typing *typing.Tracker
	mirror Mirror
}

type Option func(*Router)

// WithMirror hands every relayed message to m as well
func WithMirror(m Mirror) Option { return func(r *Router) { r.mirror = m } }

// New wires a router over the given relay state
func New(reg *registry.Registry, rm *rooms.Membership, tr *typing.Tracker, log *slog.Logger, opts ...Option) *Router {
	r := &Router{log: log, reg: reg, rooms: rm, typing: tr}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Dispatch decodes one inbound frame from conn and handles it. Nothing is
// ever reported back to the sender: bad input is logged and dropped.
func (r *Router) Dispatch(ctx context.Context, conn relay.ConnID, raw []byte) {
	defer func() {
		if v := recover(); v != nil {
			r.log.Error("router.panic", "conn", conn, "panic", v)
		}
	}()

	f, err := relay.Decode(raw)
	if err != nil {
		r.drop(conn, "", "bad_frame")
		return
	}
	metrics.InboundEvents.WithLabelValues(label(f.Event)).Inc()

	switch f.Event {
	case relay.EventUserOnline:
		var user relay.ID
		if !decode(f.Data, &user) {
			r.drop(conn, f.Event, "bad_payload")
			return
		}
		r.UserOnline(conn, string(user))
	case relay.EventJoinChat:
		var room relay.ID
		if !decode(f.Data, &room) {
			r.drop(conn, f.Event, "bad_payload")
			return
		}
		r.JoinChat(conn, string(room))
	case relay.EventLeaveChat:
		var room relay.ID
		if !decode(f.Data, &room) {
			r.drop(conn, f.Event, "bad_payload")
			return
		}
		r.LeaveChat(conn, string(room))
	case relay.EventTypingStart, relay.EventTypingStop:
		var sig relay.TypingSignal
		if !decode(f.Data, &sig) {
			r.drop(conn, f.Event, "bad_payload")
			return
		}
		if f.Event == relay.EventTypingStart {
			r.TypingStart(conn, sig)
		} else {
			r.TypingStop(conn, sig)
		}
	case relay.EventSendMessage:
		r.SendMessage(ctx, conn, f.Data)
	default:
		r.drop(conn, f.Event, "unknown_event")
	}
}

// UserOnline identifies conn as user
func (r *Router) UserOnline(conn relay.ConnID, user string) {
	if user == "" {
		r.drop(conn, relay.EventUserOnline, "missing_user")
		return
	}
	r.reg.SetOnline(user, conn)
}

func (r *Router) JoinChat(conn relay.ConnID, room string) {
	r.rooms.Join(conn, room)
	r.log.Debug("router.join", "conn", conn, "room", room)
}

func (r *Router) LeaveChat(conn relay.ConnID, room string) {
	r.rooms.Leave(conn, room)
	r.log.Debug("router.leave", "conn", conn, "room", room)
}

func (r *Router) TypingStart(conn relay.ConnID, sig relay.TypingSignal) {
	if sig.UserID == "" || sig.ChatID == "" {
		r.drop(conn, relay.EventTypingStart, "missing_field")
		return
	}
	r.typing.Start(string(sig.UserID), string(sig.ChatID), conn)
}

func (r *Router) TypingStop(conn relay.ConnID, sig relay.TypingSignal) {
	if sig.UserID == "" || sig.ChatID == "" {
		r.drop(conn, relay.EventTypingStop, "missing_field")
		return
	}
	r.typing.Stop(string(sig.UserID), string(sig.ChatID), conn)
}

type messageFields struct {
	ChatID  relay.ID        `json:"chatId"`
	UserID  json.RawMessage `json:"userId"`
	Content json.RawMessage `json:"content"`
}

// SendMessage relays data to every member of its chat, sender included.
// The payload is passed through untouched.
func (r *Router) SendMessage(ctx context.Context, conn relay.ConnID, data json.RawMessage) {
	defer func() {
		if v := recover(); v != nil {
			r.log.Error("router.send_message", "conn", conn, "panic", v)
		}
	}()

	var m messageFields
	if err := json.Unmarshal(data, &m); err != nil {
		r.log.Error("router.send_message", "conn", conn, "err", err)
		metrics.DroppedEvents.WithLabelValues("bad_payload").Inc()
		return
	}
	if m.ChatID == "" || !present(m.UserID) || !present(m.Content) {
		r.drop(conn, relay.EventSendMessage, "missing_field")
		return
	}

	chat := string(m.ChatID)
	msg := relay.NewMessage{ChatID: chat, Message: data}
	r.rooms.BroadcastToRoomIncludingSelf(chat, relay.EventNewMessage, msg)
	r.log.Info("router.send_message", "conn", conn, "chat", chat, "user", string(m.UserID))

	if r.mirror == nil {
		return
	}
	frame, err := relay.Encode(relay.EventNewMessage, msg)
	if err != nil {
		r.log.Error("router.mirror", "chat", chat, "err", err)
		return
	}
	if err := r.mirror.Publish(ctx, chat, frame); err != nil {
		r.log.Warn("router.mirror", "chat", chat, "err", err)
	}
}

// Disconnect tears down everything conn left behind. The offline
// announcement comes from the registry and only if conn was identified.
func (r *Router) Disconnect(conn relay.ConnID) {
	user, ok := r.reg.RemoveByConnection(conn)
	if ok {
		r.typing.Clear(user)
	}
	left := r.rooms.LeaveAll(conn)
	r.log.Debug("router.disconnect", "conn", conn, "user", user, "rooms", left)
}

func (r *Router) drop(conn relay.ConnID, event, reason string) {
	metrics.DroppedEvents.WithLabelValues(reason).Inc()
	r.log.Debug("router.drop", "conn", conn, "event", event, "reason", reason)
}

// label keeps client-chosen event names out of metric labels
func label(event string) string {
	switch event {
	case relay.EventUserOnline, relay.EventJoinChat, relay.EventLeaveChat,
		relay.EventTypingStart, relay.EventTypingStop, relay.EventSendMessage:
		return event
	}
	return "other"
}

func decode(data json.RawMessage, v any) bool {
	if len(data) == 0 {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

func present(v json.RawMessage) bool {
	return len(v) > 0 && !bytes.Equal(v, []byte("null"))
}
