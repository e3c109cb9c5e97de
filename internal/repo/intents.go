package repo

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// CreateIntent records that a checkout is about to call the payment gateway.
// A crash between this write and ResolveIntent leaves a pending row that an
// operator can reconcile against the gateway.
func (q *Queries) CreateIntent(ctx context.Context, userID, cartID string, amount decimal.Decimal, currency string) (Intent, error) {
	var in Intent
	var amt string
	err := q.db.QueryRow(ctx, `
		INSERT INTO checkout_intents (user_id, cart_id, amount, currency)
		VALUES ($1, $2, $3::numeric, $4)
		RETURNING id, user_id, cart_id, amount::text, currency, status, order_id, created_at`,
		userID, cartID, amount.String(), currency).
		Scan(&in.ID, &in.UserID, &in.CartID, &amt, &in.Currency, &in.Status, &in.OrderID, &in.CreatedAt)
	if err != nil {
		return Intent{}, fmt.Errorf("create checkout intent: %w", err)
	}
	if in.Amount, err = parseDec(amt); err != nil {
		return Intent{}, err
	}
	return in, nil
}

// CreateIntent on the store runs outside any transaction on purpose: the
// intent row must survive a later rollback so it can be reconciled.
func (s *Store) CreateIntent(ctx context.Context, userID, cartID string, amount decimal.Decimal, currency string) (Intent, error) {
	return s.q.CreateIntent(ctx, userID, cartID, amount, currency)
}

// ResolveIntent marks an intent outside a transaction.
func (s *Store) ResolveIntent(ctx context.Context, intentID, status string, orderID *string) error {
	return s.q.ResolveIntent(ctx, intentID, status, orderID)
}

// ResolveIntent marks the intent with a terminal status and optional order.
func (q *Queries) ResolveIntent(ctx context.Context, intentID, status string, orderID *string) error {
	if _, err := q.db.Exec(ctx, `
		UPDATE checkout_intents SET status = $1, order_id = $2, resolved_at = now()
		WHERE id = $3`,
		status, orderID, intentID); err != nil {
		return fmt.Errorf("resolve checkout intent: %w", err)
	}
	return nil
}
