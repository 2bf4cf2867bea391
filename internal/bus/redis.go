// Package bus hands relayed chat messages to the persistence side over Redis
// pub/sub.
package bus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"realtime-relay/internal/app"
)

type RedisMirror struct {
	rdb *redis.Client
	log *slog.Logger
}

// NewRedisMirror connects to redis and verifies connectivity
func NewRedisMirror(ctx context.Context, cfg app.Config, log *slog.Logger) (*RedisMirror, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	return &RedisMirror{rdb: rdb, log: log}, nil
}

// Publish sends an encoded new-message frame to the chat's channel
func (m *RedisMirror) Publish(ctx context.Context, chatID string, frame []byte) error {
	n, err := m.rdb.Publish(ctx, Channel(chatID), frame).Result()
	if err != nil {
		return fmt.Errorf("publish %s: %w", chatID, err)
	}
	m.log.Debug("bus.published", "chat", chatID, "receivers", n)
	return nil
}

// Close shuts down the redis connection
func (m *RedisMirror) Close() { _ = m.rdb.Close() }

// Channel namespacing for chat pub/sub
func Channel(chatID string) string { return "chat:" + chatID }
