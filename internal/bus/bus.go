// Package bus abstracts the Bus Adapter (C4): publish/subscribe over the
// four fixed topics the mission pipeline exchanges events on.
package bus

import "context"

// Topic is one of the four fixed topics the pipeline exchanges events on.
type Topic string

const (
	TopicMissionLogin      Topic = "mission-login-event"
	TopicMissionGameLaunch Topic = "mission-game-launch-event"
	TopicMissionGamePlay   Topic = "mission-game-play-event"
	TopicMissionCompleted  Topic = "mission-completed-event"
)

// Handler processes one delivered message. Returning a non-nil error nacks
// the message (redelivery); returning nil acks it.
type Handler func(ctx context.Context, eventID string, payload []byte) error

// Publisher sends messages onto a topic.
type Publisher interface {
	// PublishSync publishes and blocks for the result, mirroring the
	// original mission-completed publish path, which is synchronous so the
	// caller can fall back to the Outbox on failure.
	PublishSync(ctx context.Context, topic Topic, key, eventID string, payload []byte) error

	// PublishAsync publishes without blocking the caller, invoking onResult
	// once the attempt finishes. Used by the out-of-scope HTTP ingress layer
	// for the three fire-and-forget ingress topics, where the caller has
	// already returned a response to its client and only wants to log a
	// failure, not act on it synchronously.
	PublishAsync(ctx context.Context, topic Topic, key, eventID string, payload []byte, onResult func(error))
}

// Subscriber delivers messages to competing consumers within a group.
type Subscriber interface {
	// Subscribe registers handler for topic under group and returns an
	// unsubscribe function. Delivery is at-least-once: handler may see the
	// same eventID more than once, and handlers must be idempotent.
	Subscribe(ctx context.Context, topic Topic, group string, handler Handler) (unsubscribe func(), err error)
}

// Bus composes both halves of the adapter.
type Bus interface {
	Publisher
	Subscriber
}
