package bus

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"realtime-relay/pkg/metrics"
)

// ErrQueueFull is returned when the publish backlog is at capacity
var ErrQueueFull = errors.New("bus: publish queue full")

// Publisher delivers one frame for a chat, possibly over the network
type Publisher interface {
	Publish(ctx context.Context, chatID string, frame []byte) error
}

type job struct {
	chatID string
	frame  []byte
}

// Queue decouples callers from a slow Publisher. Publish only enqueues;
// a single worker started by Run does the network calls in order.
type Queue struct {
	pub     Publisher
	log     *slog.Logger
	jobs    chan job
	timeout time.Duration
}

// NewQueue buffers up to size frames in front of pub. Each publish gets
// timeout to complete.
func NewQueue(pub Publisher, log *slog.Logger, size int, timeout time.Duration) *Queue {
	if size <= 0 {
		size = 256
	}
	return &Queue{pub: pub, log: log, jobs: make(chan job, size), timeout: timeout}
}

// Publish enqueues frame without blocking
func (q *Queue) Publish(_ context.Context, chatID string, frame []byte) error {
	select {
	case q.jobs <- job{chatID: chatID, frame: frame}:
		return nil
	default:
		metrics.MirrorDropped.Inc()
		return ErrQueueFull
	}
}

// Run publishes queued frames until ctx is cancelled
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case j := <-q.jobs:
			q.publish(ctx, j)
		case <-ctx.Done():
			return
		}
	}
}

func (q *Queue) publish(ctx context.Context, j job) {
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}
	if err := q.pub.Publish(ctx, j.chatID, j.frame); err != nil {
		metrics.MirrorDropped.Inc()
		q.log.Warn("bus.publish", "chat", j.chatID, "err", err)
	}
}
