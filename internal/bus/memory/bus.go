// Package memory is an in-process Bus used by unit tests and by cmd/worker
// in single-node mode. Each topic fans out to every subscribed group;
// within a group, handlers are invoked synchronously from PublishSync so
// tests can assert on side effects without a goroutine race.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/AccelByte/mission-progression-service/internal/bus"
	"github.com/AccelByte/mission-progression-service/internal/dberr"
)

type subscription struct {
	group   string
	handler bus.Handler
}

// Bus is a goroutine-safe in-process bus.Bus.
type Bus struct {
	mu   sync.Mutex
	subs map[bus.Topic][]subscription

	// FailNextPublish, when set for a topic, makes the next PublishSync
	// call for that topic return an error, for exercising the Outbox path.
	failNext map[bus.Topic]bool
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{
		subs:     make(map[bus.Topic][]subscription),
		failNext: make(map[bus.Topic]bool),
	}
}

// FailNextPublish arranges for the next PublishSync on topic to fail, used
// by tests to exercise the outbox fallback path.
func (b *Bus) FailNextPublish(topic bus.Topic) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext[topic] = true
}

func (b *Bus) PublishSync(ctx context.Context, topic bus.Topic, key, eventID string, payload []byte) error {
	b.mu.Lock()
	if b.failNext[topic] {
		b.failNext[topic] = false
		b.mu.Unlock()
		return dberr.Transient("publish", fmt.Errorf("simulated publish failure for topic %s", topic))
	}
	subs := append([]subscription(nil), b.subs[topic]...)
	b.mu.Unlock()

	for _, sub := range subs {
		if err := sub.handler(ctx, eventID, payload); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bus) PublishAsync(ctx context.Context, topic bus.Topic, key, eventID string, payload []byte, onResult func(error)) {
	go func() {
		err := b.PublishSync(ctx, topic, key, eventID, payload)
		if onResult != nil {
			onResult(err)
		}
	}()
}

func (b *Bus) Subscribe(ctx context.Context, topic bus.Topic, group string, handler bus.Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], subscription{group: group, handler: handler})
	idx := len(b.subs[topic]) - 1

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[topic]
		if idx < len(subs) {
			b.subs[topic] = append(subs[:idx], subs[idx+1:]...)
		}
	}
	return unsubscribe, nil
}

var _ bus.Bus = (*Bus)(nil)
