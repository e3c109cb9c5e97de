package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecobazaarx/backend-eco/internal/loyalty"
	"github.com/ecobazaarx/backend-eco/internal/pricing"
)

// CheckoutCommit is the input to the atomic commit phase. Everything in it
// was computed and validated before the payment gateway was called.
type CheckoutCommit struct {
	IntentID       string
	UserID         string
	CartID         string
	Lines          []CartLine
	Breakdown      pricing.Breakdown
	TotalCarbon    decimal.Decimal
	PointsRedeemed int
	PointsValue    decimal.Decimal
	ChargedTotal   decimal.Decimal
	DiscountID     *string
	AddressText    string
	Now            time.Time
}

// CommitStats reports the loyalty side effects of a commit.
type CommitStats struct {
	PointsEarned    int
	ReferralGranted bool
	ZoneName        string
}

// CommitCheckout persists the entire checkout outcome in one transaction:
// order snapshot, stock decrements, point ledger writes, rank update,
// referral bonus, discount usage, cart clearing, and intent resolution.
// Any failure rolls the whole thing back.
func (s *Store) CommitCheckout(ctx context.Context, in CheckoutCommit) (Order, CommitStats, error) {
	var order Order
	var stats CommitStats

	err := s.InTx(ctx, func(q *Queries) error {
		user, err := q.GetUserForUpdate(ctx, in.UserID)
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}

		if in.DiscountID != nil {
			if err := q.ConsumeDiscountUsage(ctx, *in.DiscountID); err != nil {
				return err
			}
		}

		var discountCode *string
		var discountAmount *decimal.Decimal
		if in.Breakdown.DiscountCode != "" {
			discountCode = &in.Breakdown.DiscountCode
			discountAmount = &in.Breakdown.DiscountAmount
		}
		order, err = q.InsertOrder(ctx, Order{
			UserID:            in.UserID,
			Status:            OrderStatusCompleted,
			TotalAmount:       in.ChargedTotal,
			TotalCarbon:       in.TotalCarbon,
			DiscountCode:      discountCode,
			DiscountAmount:    discountAmount,
			EcoPointsRedeemed: in.PointsRedeemed,
			EcoPointsAmount:   in.PointsValue,
			ShippingCost:      in.Breakdown.ShippingCost,
			TaxAmount:         in.Breakdown.TaxAmount,
			ShippingAddress:   in.AddressText,
		})
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		earned := 0
		for _, line := range in.Lines {
			if err := q.InsertOrderItem(ctx, OrderItem{
				OrderID:       order.ID,
				ProductID:     line.ProductID,
				ProductName:   line.ProductName,
				ImageURL:      line.ImageURL,
				Quantity:      line.Quantity,
				PricePerItem:  line.UnitPrice,
				CarbonPerItem: line.UnitCarbon,
			}); err != nil {
				return err
			}
			if err := q.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
			earned += line.EcoPoints * line.Quantity
		}
		stats.PointsEarned = earned

		progress := user.Progress().Advance(in.TotalCarbon, in.Now)
		if err := q.UpdateLoyaltyProgress(ctx, in.UserID, progress); err != nil {
			return err
		}

		if err := q.GrantPoints(ctx, in.UserID, earned, loyalty.EarnReason(order.ID)); err != nil {
			return err
		}
		if err := q.RedeemPoints(ctx, in.UserID, in.PointsRedeemed, loyalty.RedeemReason(order.ID)); err != nil {
			return err
		}

		if loyalty.ReferralDue(progress.OrderCount, user.ReferrerID != nil) {
			if err := q.GrantPoints(ctx, *user.ReferrerID,
				loyalty.ReferralBonusPoints, loyalty.ReferralReason(user.Name)); err != nil {
				return err
			}
			stats.ReferralGranted = true
		}

		if err := q.ClearCart(ctx, in.CartID); err != nil {
			return err
		}
		if err := q.InsertEvent(ctx, "order.completed", order.ID, map[string]any{
			"orderId":     order.ID,
			"userId":      in.UserID,
			"totalAmount": in.ChargedTotal.String(),
			"totalCarbon": in.TotalCarbon.String(),
		}); err != nil {
			return err
		}
		return q.ResolveIntent(ctx, in.IntentID, IntentCompleted, &order.ID)
	})
	if err != nil {
		return Order{}, CommitStats{}, err
	}
	return order, stats, nil
}
