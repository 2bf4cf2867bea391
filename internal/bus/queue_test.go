package bus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu    sync.Mutex
	chats []string
	errs  []error
	block bool // wait for ctx to expire before returning
}

func (p *recordingPublisher) Publish(ctx context.Context, chatID string, _ []byte) error {
	var err error
	if p.block {
		<-ctx.Done()
		err = ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chats = append(p.chats, chatID)
	p.errs = append(p.errs, err)
	return err
}

func (p *recordingPublisher) snapshot() ([]string, []error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.chats...), append([]error(nil), p.errs...)
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestQueuePublishNeverBlocks(t *testing.T) {
	q := NewQueue(&recordingPublisher{block: true}, discard(), 1, time.Second)

	start := time.Now()
	require.NoError(t, q.Publish(context.Background(), "room1", []byte("a")))
	assert.ErrorIs(t, q.Publish(context.Background(), "room1", []byte("b")), ErrQueueFull)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestQueueRunPublishesInOrder(t *testing.T) {
	pub := &recordingPublisher{}
	q := NewQueue(pub, discard(), 8, time.Second)
	for _, chat := range []string{"r1", "r2", "r3"} {
		require.NoError(t, q.Publish(context.Background(), chat, []byte(chat)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	require.Eventually(t, func() bool {
		chats, _ := pub.snapshot()
		return len(chats) == 3
	}, time.Second, 5*time.Millisecond)
	chats, _ := pub.snapshot()
	assert.Equal(t, []string{"r1", "r2", "r3"}, chats)
}

func TestQueueTimesOutSlowPublish(t *testing.T) {
	pub := &recordingPublisher{block: true}
	q := NewQueue(pub, discard(), 8, 20*time.Millisecond)
	require.NoError(t, q.Publish(context.Background(), "r1", nil))
	require.NoError(t, q.Publish(context.Background(), "r2", nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	require.Eventually(t, func() bool {
		chats, _ := pub.snapshot()
		return len(chats) == 2
	}, time.Second, 5*time.Millisecond)
	_, errs := pub.snapshot()
	for _, err := range errs {
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	}
}
