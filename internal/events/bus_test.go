package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type captureNotifier struct {
	events []Event
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, ev Event) error {
	c.events = append(c.events, ev)
	return c.err
}

func TestPublishFansOutToAllNotifiers(t *testing.T) {
	a := &captureNotifier{}
	b := &captureNotifier{}
	bus := &Bus{Notifiers: []Notifier{a, b}, Logger: zerolog.Nop()}

	bus.Publish(context.Background(), TopicOrderCompleted, "order-1", map[string]string{"userId": "u1"})

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	require.Equal(t, TopicOrderCompleted, a.events[0].Topic)
	require.Equal(t, "order-1", a.events[0].AggregateID)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(a.events[0].Payload, &payload))
	require.Equal(t, "u1", payload["userId"])
}

func TestPublishContinuesPastFailingNotifier(t *testing.T) {
	failing := &captureNotifier{err: errors.New("smtp down")}
	healthy := &captureNotifier{}
	bus := &Bus{Notifiers: []Notifier{failing, healthy}, Logger: zerolog.Nop()}

	bus.Publish(context.Background(), TopicOrderCompleted, "order-1", nil)

	require.Len(t, healthy.events, 1)
}

func TestPublishDropsEventWithoutTopic(t *testing.T) {
	n := &captureNotifier{}
	bus := &Bus{Notifiers: []Notifier{n}, Logger: zerolog.Nop()}

	bus.Publish(context.Background(), "", "order-1", nil)
	bus.Publish(context.Background(), TopicOrderCompleted, "", nil)

	require.Empty(t, n.events)
}
