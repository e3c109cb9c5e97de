// Package discount validates discount codes against their runtime
// constraints. Pricing math for an accepted discount lives in the pricing
// package; this package only answers "may this code be used now".
package discount

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecobazaarx/backend-eco/internal/pricing"
)

var (
	// ErrNotFound is returned when no discount carries the requested code.
	ErrNotFound = errors.New("discount not found")
	// ErrNotYetActive is returned when the validity window has not opened.
	ErrNotYetActive = errors.New("discount not yet active")
	// ErrExpired is returned when the validity window has closed.
	ErrExpired = errors.New("discount expired")
	// ErrMinPurchaseUnmet indicates the cart total is below the discount's floor.
	ErrMinPurchaseUnmet = errors.New("discount minimum purchase not met")
	// ErrUsageLimitReached indicates the global usage quota is exhausted.
	ErrUsageLimitReached = errors.New("discount usage limit reached")
)

// Rule captures the constraints of one discount code.
type Rule struct {
	ID          string
	Code        string
	Kind        pricing.DiscountKind
	Value       decimal.Decimal
	MinPurchase *decimal.Decimal
	ValidFrom   time.Time
	ValidUntil  time.Time
	// UsageLimit zero means unlimited.
	UsageLimit int
	UsedCount  int
}

// Validate checks the rule at the provided instant against the cart's
// products total. Called both when a code is applied to a cart and again
// inside the checkout commit, so an expired or exhausted code cannot ride
// along on a stale cart.
func (r Rule) Validate(now time.Time, productsTotal decimal.Decimal) error {
	if now.Before(r.ValidFrom) {
		return ErrNotYetActive
	}
	if now.After(r.ValidUntil) {
		return ErrExpired
	}
	if r.MinPurchase != nil && productsTotal.LessThan(*r.MinPurchase) {
		return ErrMinPurchaseUnmet
	}
	if r.UsageLimit > 0 && r.UsedCount >= r.UsageLimit {
		return ErrUsageLimitReached
	}
	return nil
}

// Pricing converts the rule into the value object the pricing engine takes.
func (r Rule) Pricing() *pricing.Discount {
	return &pricing.Discount{Code: r.Code, Kind: r.Kind, Value: r.Value}
}
