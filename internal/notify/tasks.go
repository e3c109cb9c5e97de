// Package notify moves post-checkout side effects (confirmation email) onto
// an asynq queue so the request path never waits on a mailer.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/ecobazaarx/backend-eco/internal/events"
)

// TypeOrderConfirmation is the asynq task type for confirmation emails.
const TypeOrderConfirmation = "email:order_confirmation"

// OrderConfirmationPayload is the task body.
type OrderConfirmationPayload struct {
	OrderID     string `json:"orderId"`
	UserID      string `json:"userId"`
	TotalAmount string `json:"totalAmount"`
	TotalCarbon string `json:"totalCarbon"`
}

// NewOrderConfirmationTask builds the asynq task for one completed order.
func NewOrderConfirmationTask(p OrderConfirmationPayload) (*asynq.Task, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal order confirmation payload: %w", err)
	}
	return asynq.NewTask(TypeOrderConfirmation, body, asynq.MaxRetry(5)), nil
}

// QueueNotifier subscribes to the event bus and enqueues tasks.
type QueueNotifier struct {
	Client *asynq.Client
}

// Notify enqueues a confirmation email task for order.completed events.
func (n *QueueNotifier) Notify(ctx context.Context, ev events.Event) error {
	if ev.Topic != events.TopicOrderCompleted {
		return nil
	}
	var payload struct {
		OrderID     string `json:"orderId"`
		UserID      string `json:"userId"`
		TotalAmount string `json:"totalAmount"`
		TotalCarbon string `json:"totalCarbon"`
	}
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		return fmt.Errorf("decode order.completed payload: %w", err)
	}
	task, err := NewOrderConfirmationTask(OrderConfirmationPayload{
		OrderID:     payload.OrderID,
		UserID:      payload.UserID,
		TotalAmount: payload.TotalAmount,
		TotalCarbon: payload.TotalCarbon,
	})
	if err != nil {
		return err
	}
	if _, err := n.Client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue order confirmation: %w", err)
	}
	return nil
}
