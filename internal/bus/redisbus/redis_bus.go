package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"salestrack/internal/bus"
)

// Bus broadcasts messages over a Redis pub/sub channel so dashboards in other
// processes observe queue mutations.
type Bus struct {
	rdb    *redis.Client
	logger *zap.Logger

	mu      sync.Mutex
	pubsubs []*redis.PubSub
	closed  bool
}

func NewBus(rdb *redis.Client, logger *zap.Logger) *Bus {
	return &Bus{rdb: rdb, logger: logger}
}

func (b *Bus) Publish(ctx context.Context, msg bus.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode bus message: %w", err)
	}
	if err := b.rdb.Publish(ctx, bus.ChannelSync, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Type, err)
	}
	return nil
}

func (b *Bus) Subscribe(msgType string, fn func(bus.Message)) (func(), error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, fmt.Errorf("bus closed")
	}
	pubsub := b.rdb.Subscribe(context.Background(), bus.ChannelSync)
	b.pubsubs = append(b.pubsubs, pubsub)
	b.mu.Unlock()

	go func() {
		for raw := range pubsub.Channel() {
			var msg bus.Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				b.logger.Warn("dropping malformed bus message", zap.Error(err))
				continue
			}
			if msgType == "" || msgType == msg.Type {
				fn(msg)
			}
		}
	}()

	return func() {
		if err := pubsub.Close(); err != nil {
			b.logger.Warn("closing subscription", zap.Error(err))
		}
	}, nil
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for _, pubsub := range b.pubsubs {
		_ = pubsub.Close()
	}
	b.pubsubs = nil
	return nil
}
