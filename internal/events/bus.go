// Package events fans out domain events to in-process subscribers after the
// owning transaction has committed. The durable copy of every event lives in
// the domain_events table, written inside that transaction; the bus only
// handles best-effort side effects like notifications and metrics.
package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Topics emitted by the core.
const (
	TopicOrderCompleted = "order.completed"
	TopicUserRegistered = "user.registered"
)

// Event is one emitted domain event.
type Event struct {
	Topic       string
	AggregateID string
	Payload     json.RawMessage
	OccurredAt  time.Time
}

// Notifier reacts to emitted events (email, queue, metrics).
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Bus dispatches events to all configured notifiers. Notifier failures are
// logged, never propagated: a dead mailer must not fail a paid order.
type Bus struct {
	Notifiers []Notifier
	Logger    zerolog.Logger
}

// Publish encodes the payload and hands the event to every notifier.
func (b *Bus) Publish(ctx context.Context, topic, aggregateID string, payload any) {
	if b == nil {
		return
	}
	topic = strings.TrimSpace(topic)
	if topic == "" || aggregateID == "" {
		b.Logger.Error().Str("topic", topic).Str("aggregate_id", aggregateID).
			Msg("dropping event with missing topic or aggregate")
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		b.Logger.Error().Err(err).Str("topic", topic).Msg("encode event payload")
		return
	}
	ev := Event{Topic: topic, AggregateID: aggregateID, Payload: body, OccurredAt: time.Now()}
	for _, n := range b.Notifiers {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			b.Logger.Error().Err(err).Str("topic", topic).Str("aggregate_id", aggregateID).
				Msg("event notifier failed")
		}
	}
}
