package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/ecobazaarx/backend-eco/internal/repo"
)

// EmailSender defines the contract for sending emails.
type EmailSender interface {
	Send(to, subject, body string) error
}

// LogSender writes emails to the log instead of SMTP. Development default.
type LogSender struct {
	Logger zerolog.Logger
}

// Send logs the email.
func (s LogSender) Send(to, subject, body string) error {
	s.Logger.Info().Str("to", to).Str("subject", subject).Str("body", body).Msg("email")
	return nil
}

// Worker handles queued notification tasks.
type Worker struct {
	Store  *repo.Store
	Sender EmailSender
	Logger zerolog.Logger
}

// HandleOrderConfirmation processes one confirmation email task.
func (w *Worker) HandleOrderConfirmation(ctx context.Context, t *asynq.Task) error {
	var p OrderConfirmationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode task payload: %w", err)
	}
	user, err := w.Store.Q().GetUserByID(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("load user for confirmation email: %w", err)
	}
	subject := fmt.Sprintf("Order %s confirmed", p.OrderID)
	body := fmt.Sprintf(
		"Hi %s,\n\nyour order %s is confirmed. Total: %s. Carbon footprint: %s kg CO2e.\n",
		user.Name, p.OrderID, p.TotalAmount, p.TotalCarbon)
	if err := w.Sender.Send(user.Email, subject, body); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}
	w.Logger.Info().Str("order_id", p.OrderID).Str("user_id", p.UserID).Msg("confirmation email sent")
	return nil
}

// Mux returns the asynq handler mux for the worker binary.
func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeOrderConfirmation, w.HandleOrderConfirmation)
	return mux
}
