package relay

import "encoding/json"

// ConnID identifies one live transport session
type ConnID string

// Inbound event names (client -> server)
const (
	EventUserOnline  = "user-online"
	EventJoinChat    = "join-chat"
	EventLeaveChat   = "leave-chat"
	EventTypingStart = "typing-start"
	EventTypingStop  = "typing-stop"
	EventSendMessage = "send-message"
)

// Outbound event names (server -> client)
const (
	EventUserStatusChange = "user-status-change"
	EventUserTyping       = "user-typing"
	EventNewMessage       = "new-message"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Deliverer pushes encoded frames to live connections.
// Send must not block; Broadcast is best-effort to every connection.
type Deliverer interface {
	Send(conn ConnID, frame []byte) error
	Broadcast(frame []byte)
}

// StatusChange is sent to everyone when a user goes online or offline
type StatusChange struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

// Typing is sent to a room when a user starts or stops typing
type Typing struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

// TypingSignal is the inbound typing-start / typing-stop payload
type TypingSignal struct {
	UserID ID `json:"userId"`
	ChatID ID `json:"chatId"`
}

// NewMessage wraps the sender's payload untouched
type NewMessage struct {
	ChatID  string          `json:"chatId"`
	Message json.RawMessage `json:"message"`
}
