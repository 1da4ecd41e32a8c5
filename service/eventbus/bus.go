// Package eventbus publishes domain events (messages created, call
// verdicts, accepted friendships, presence changes) to an external broker
// for downstream consumers. Publishing is best effort: a broker failure is
// logged and never fails the operation that produced the event.
package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"PTalk/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	TypeMessageCreated  = "message.created"
	TypeCallUpdated     = "call.updated"
	TypeFriendAccepted  = "friend.accepted"
	TypePresenceChanged = "presence.changed"
)

type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Node string    `json:"node"`
	Data any       `json:"data"`

	// Key groups related events; Kafka partitions on it.
	Key string `json:"-"`
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers one encoded event to a broker.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop drops every event. It backs bus.driver=none.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                          { return nil }

// Bus stamps events with id, time and node before handing them to the
// publisher. A nil *Bus is valid and publishes nothing.
type Bus struct {
	pub  Publisher
	node string
	now  func() time.Time
}

func NewBus(pub Publisher, node string) *Bus {
	if pub == nil {
		pub = Nop{}
	}
	return &Bus{pub: pub, node: node, now: time.Now}
}

// NewEvent builds an event stamped by this bus.
func (b *Bus) NewEvent(typ, key string, data any) Event {
	return Event{
		ID:   uuid.NewString(),
		Type: typ,
		At:   b.now().UTC(),
		Node: b.node,
		Data: data,
		Key:  key,
	}
}

// Emit publishes and only logs failures.
func (b *Bus) Emit(ctx context.Context, typ, key string, data any) {
	if b == nil {
		return
	}
	ev := b.NewEvent(typ, key, data)
	if err := b.pub.Publish(ctx, ev); err != nil {
		logger.Warn("[EventBus] publish failed",
			zap.String("type", typ), zap.String("key", key), zap.String("event_id", ev.ID), zap.Error(err))
	}
}

func (b *Bus) Close() error {
	if b == nil {
		return nil
	}
	return b.pub.Close()
}
