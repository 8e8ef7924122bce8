package memorybus

import (
	"context"
	"sync"

	"salestrack/internal/bus"
)

// Bus is an in-process NotificationBus. Delivery is synchronous on the
// publisher's goroutine, matching the cooperative single-threaded model the
// queue assumes; callbacks must not block.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]subscriber
	closed bool
}

type subscriber struct {
	msgType string
	fn      func(bus.Message)
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]subscriber)}
}

func (b *Bus) Publish(ctx context.Context, msg bus.Message) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	targets := make([]func(bus.Message), 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.msgType == "" || sub.msgType == msg.Type {
			targets = append(targets, sub.fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range targets {
		fn(msg)
	}
	return nil
}

func (b *Bus) Subscribe(msgType string, fn func(bus.Message)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = subscriber{msgType: msgType, fn: fn}

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}, nil
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[int]subscriber)
	return nil
}
