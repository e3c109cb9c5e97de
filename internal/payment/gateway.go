// Package payment abstracts the external payment authority. Checkout only
// sees the Gateway interface; the Stripe client lives behind it.
package payment

import "context"

// Status is the terminal classification of an authorization attempt.
type Status string

const (
	// StatusSucceeded means funds are authorized and checkout may commit.
	StatusSucceeded Status = "succeeded"
	// StatusRequiresAction means the payer must complete a step-up
	// (e.g. 3-D Secure) before the charge can complete.
	StatusRequiresAction Status = "requires_action"
	// StatusDeclined means the gateway rejected the charge.
	StatusDeclined Status = "declined"
)

// AuthorizeRequest describes one charge attempt. Amounts are in minor units
// because gateways refuse decimals.
type AuthorizeRequest struct {
	AmountMinorUnits int64
	Currency         string
	PaymentMethodRef string
	// IdempotencyKey dedupes retried authorizations on the gateway side.
	// Checkout passes the intent id so a retried request cannot double-charge.
	IdempotencyKey string
}

// Result carries the gateway's answer.
type Result struct {
	Status Status
	// ProviderRef is the gateway's id for the charge.
	ProviderRef string
	// ContinuationToken lets the client finish a requires_action flow.
	ContinuationToken string
	// DeclineReason is a human-readable reason when Status is declined.
	DeclineReason string
}

// Gateway is the external payment authority consumed by checkout.
type Gateway interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (Result, error)
}
