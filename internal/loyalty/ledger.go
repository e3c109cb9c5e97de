package loyalty

import (
	"errors"
	"fmt"
	"time"
)

// ErrInsufficientPoints is returned when a redemption asks for more points
// than the user's current balance.
var ErrInsufficientPoints = errors.New("loyalty: insufficient eco points")

// Entry is one immutable ledger row. The sum of a user's entries always
// equals their current balance.
type Entry struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	PointsChanged int       `json:"pointsChanged"`
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"createdAt"`
}

// EarnReason labels the grant written for points earned on an order.
func EarnReason(orderID string) string {
	return fmt.Sprintf("Points earned for order %s", orderID)
}

// RedeemReason labels the negative entry written for a redemption.
func RedeemReason(orderID string) string {
	return fmt.Sprintf("Points redeemed on order %s", orderID)
}

// ReferralReason labels the referrer's bonus grant.
func ReferralReason(referredName string) string {
	return fmt.Sprintf("Referral bonus for inviting %s", referredName)
}

// ValidateRedemption checks a requested redemption against the current
// balance. Zero is allowed and means no redemption.
func ValidateRedemption(requested, balance int) error {
	if requested < 0 {
		return fmt.Errorf("loyalty: negative redemption of %d points", requested)
	}
	if requested > balance {
		return fmt.Errorf("%w: requested %d, balance %d", ErrInsufficientPoints, requested, balance)
	}
	return nil
}
