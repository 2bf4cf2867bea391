// Package relaytest provides an in-memory relay.Deliverer for tests.
package relaytest

import (
	"encoding/json"
	"errors"
	"sync"

	"realtime-relay/internal/relay"
)

// ErrRejected is returned by Send for connections marked with Fail
var ErrRejected = errors.New("relaytest: delivery rejected")

// Delivery is one recorded frame. Conn is empty for broadcasts.
type Delivery struct {
	Conn  relay.ConnID
	Event string
	Data  json.RawMessage
}

// Decode unmarshals the delivery payload into v
func (d Delivery) Decode(v any) error { return json.Unmarshal(d.Data, v) }

// Recorder captures every frame handed to it
type Recorder struct {
	mu         sync.Mutex
	sent       []Delivery
	broadcasts []Delivery
	failing    map[relay.ConnID]bool
}

func NewRecorder() *Recorder {
	return &Recorder{failing: map[relay.ConnID]bool{}}
}

// Fail makes every later Send to conn return ErrRejected
func (r *Recorder) Fail(conn relay.ConnID) {
	r.mu.Lock()
	r.failing[conn] = true
	r.mu.Unlock()
}

func (r *Recorder) Send(conn relay.ConnID, frame []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing[conn] {
		return ErrRejected
	}
	d, err := parse(frame)
	if err != nil {
		return err
	}
	d.Conn = conn
	r.sent = append(r.sent, d)
	return nil
}

func (r *Recorder) Broadcast(frame []byte) {
	d, err := parse(frame)
	if err != nil {
		return
	}
	r.mu.Lock()
	r.broadcasts = append(r.broadcasts, d)
	r.mu.Unlock()
}

// Sent returns the frames sent to individual connections, in order
func (r *Recorder) Sent() []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Delivery(nil), r.sent...)
}

// SentTo returns the frames sent to conn, in order
func (r *Recorder) SentTo(conn relay.ConnID) []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Delivery
	for _, d := range r.sent {
		if d.Conn == conn {
			out = append(out, d)
		}
	}
	return out
}

// Broadcasts returns the frames sent to all connections, in order
func (r *Recorder) Broadcasts() []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Delivery(nil), r.broadcasts...)
}

// Reset forgets everything recorded so far
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.sent = nil
	r.broadcasts = nil
	r.mu.Unlock()
}

func parse(frame []byte) (Delivery, error) {
	var f relay.Frame
	if err := json.Unmarshal(frame, &f); err != nil {
		return Delivery{}, err
	}
	return Delivery{Event: f.Event, Data: f.Data}, nil
}
