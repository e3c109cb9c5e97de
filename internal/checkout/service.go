// Package checkout orchestrates the path from a mutable cart to an
// immutable, paid order: validation, pricing, point redemption, payment
// authorization, and the atomic commit of order, stock, ledger, and rank.
package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ecobazaarx/backend-eco/internal/common"
	"github.com/ecobazaarx/backend-eco/internal/events"
	"github.com/ecobazaarx/backend-eco/internal/loyalty"
	"github.com/ecobazaarx/backend-eco/internal/money"
	"github.com/ecobazaarx/backend-eco/internal/obs"
	"github.com/ecobazaarx/backend-eco/internal/payment"
	"github.com/ecobazaarx/backend-eco/internal/pricing"
	"github.com/ecobazaarx/backend-eco/internal/repo"
)

// Validation sentinels surfaced before any payment call.
var (
	ErrEmptyCart         = errors.New("checkout: cart is empty")
	ErrNoShippingAddress = errors.New("checkout: no shipping address selected")
	ErrZoneMissing       = errors.New("checkout: cart has no resolved transport zone")
	ErrPaymentDeclined   = errors.New("checkout: payment declined")
)

// Store is the persistence surface the coordinator needs. *repo.Store
// implements it; tests substitute an in-memory fake.
type Store interface {
	CartView(ctx context.Context, userID, taxRateName string) (*repo.CartView, error)
	CreateIntent(ctx context.Context, userID, cartID string, amount decimal.Decimal, currency string) (repo.Intent, error)
	ResolveIntent(ctx context.Context, intentID, status string, orderID *string) error
	CommitCheckout(ctx context.Context, in repo.CheckoutCommit) (repo.Order, repo.CommitStats, error)
}

// Service coordinates checkout. All dependencies are injected; there is no
// package-level state.
type Service struct {
	Store       Store
	Gateway     payment.Gateway
	Bus         *events.Bus
	Logger      zerolog.Logger
	PointRate   decimal.Decimal
	Currency    string
	TaxRateName string
	Now         func() time.Time
}

// PlaceOrderRequest is the caller's input to one checkout invocation.
type PlaceOrderRequest struct {
	PointsToRedeem   int
	PaymentMethodRef string
}

// PlaceOrderResult is either a completed order or a continuation demand.
type PlaceOrderResult struct {
	Order *OrderView
	// ContinuationToken is set when the gateway needs a payer step-up.
	// No order exists yet and the cart is untouched.
	ContinuationToken string
}

// OrderView is the completed order as returned to the caller.
type OrderView struct {
	Order        repo.Order
	Items        []repo.CartLine
	Breakdown    pricing.Breakdown
	PointsEarned int
}

// Totals is the read-only preview used by the cart display surface.
type Totals struct {
	Breakdown   pricing.Breakdown `json:"breakdown"`
	TotalCarbon decimal.Decimal   `json:"totalCarbon"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// PreviewTotals prices the current cart without side effects.
func (s *Service) PreviewTotals(ctx context.Context, userID string) (*Totals, error) {
	view, err := s.Store.CartView(ctx, userID, s.TaxRateName)
	if err != nil {
		return nil, err
	}
	breakdown := s.price(view)
	return &Totals{Breakdown: breakdown, TotalCarbon: breakdown.TotalCarbon()}, nil
}

// PlaceOrder runs the whole checkout state machine. Nothing is persisted
// before the gateway answers; on success the commit is a single transaction.
func (s *Service) PlaceOrder(ctx context.Context, userID string, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	view, err := s.Store.CartView(ctx, userID, s.TaxRateName)
	if err != nil {
		return nil, err
	}

	if err := s.validate(view); err != nil {
		s.count("validation_failed")
		return nil, err
	}

	breakdown := s.price(view)

	if view.Discount != nil {
		if err := view.Discount.Validate(s.now(), breakdown.ProductsTotal); err != nil {
			s.count("validation_failed")
			return nil, common.BadRequest("discount_invalid", "applied discount is no longer valid", err)
		}
	}

	if err := loyalty.ValidateRedemption(req.PointsToRedeem, view.User.EcoPoints); err != nil {
		s.count("validation_failed")
		return nil, common.BadRequest("insufficient_points", "not enough eco points", err)
	}
	pointsValue := money.ClampMax(money.FromPoints(req.PointsToRedeem, s.PointRate), breakdown.GrandTotal)
	charged := money.Round2(breakdown.GrandTotal.Sub(pointsValue))

	for _, line := range view.Lines {
		if line.Quantity > line.StockQuantity {
			s.count("conflict")
			return nil, common.Conflict("insufficient_stock", "requested quantity exceeds stock",
				repo.ErrInsufficientStock)
		}
	}

	intent, err := s.Store.CreateIntent(ctx, userID, view.Cart.ID, charged, s.Currency)
	if err != nil {
		s.count("error")
		return nil, err
	}

	auth, err := s.Gateway.Authorize(ctx, payment.AuthorizeRequest{
		AmountMinorUnits: money.MinorUnits(charged),
		Currency:         s.Currency,
		PaymentMethodRef: req.PaymentMethodRef,
		IdempotencyKey:   intent.ID,
	})
	if err != nil {
		// Outcome unknown: leave the intent pending for reconciliation.
		s.count("error")
		s.Logger.Error().Err(err).Str("intent_id", intent.ID).Str("user_id", userID).
			Msg("payment authorization failed, intent left pending")
		return nil, err
	}
	s.countAuthorize(string(auth.Status))

	switch auth.Status {
	case payment.StatusRequiresAction:
		if err := s.Store.ResolveIntent(ctx, intent.ID, repo.IntentAbandoned, nil); err != nil {
			s.Logger.Error().Err(err).Str("intent_id", intent.ID).Msg("resolve abandoned intent")
		}
		s.count("pending_action")
		return &PlaceOrderResult{ContinuationToken: auth.ContinuationToken}, nil
	case payment.StatusDeclined:
		if err := s.Store.ResolveIntent(ctx, intent.ID, repo.IntentFailed, nil); err != nil {
			s.Logger.Error().Err(err).Str("intent_id", intent.ID).Msg("resolve failed intent")
		}
		s.count("declined")
		return nil, common.NewAppError("payment_declined", auth.DeclineReason, 402, ErrPaymentDeclined)
	}

	order, stats, err := s.Store.CommitCheckout(ctx, repo.CheckoutCommit{
		IntentID:       intent.ID,
		UserID:         userID,
		CartID:         view.Cart.ID,
		Lines:          view.Lines,
		Breakdown:      breakdown,
		TotalCarbon:    breakdown.TotalCarbon(),
		PointsRedeemed: req.PointsToRedeem,
		PointsValue:    pointsValue,
		ChargedTotal:   charged,
		DiscountID:     view.Cart.DiscountID,
		AddressText:    freezeAddress(view.Address),
		Now:            s.now(),
	})
	if err != nil {
		// Payment succeeded but the commit did not. This cannot be undone
		// here; surface loudly so operators reconcile against the intent.
		s.count("error")
		s.Logger.Error().Err(err).
			Str("intent_id", intent.ID).
			Str("provider_ref", auth.ProviderRef).
			Str("user_id", userID).
			Msg("CRITICAL: payment captured but checkout commit failed")
		return nil, err
	}

	s.count("completed")
	s.observeCommit(zoneName(view), breakdown.TotalCarbon(), stats, req.PointsToRedeem)
	s.Bus.Publish(ctx, events.TopicOrderCompleted, order.ID, map[string]any{
		"orderId":      order.ID,
		"userId":       userID,
		"totalAmount":  order.TotalAmount.String(),
		"totalCarbon":  order.TotalCarbon.String(),
		"pointsEarned": stats.PointsEarned,
	})
	s.Logger.Info().
		Str("order_id", order.ID).
		Str("user_id", userID).
		Str("total", order.TotalAmount.String()).
		Int("points_earned", stats.PointsEarned).
		Int("points_redeemed", req.PointsToRedeem).
		Bool("referral_granted", stats.ReferralGranted).
		Msg("checkout completed")

	return &PlaceOrderResult{Order: &OrderView{
		Order:        order,
		Items:        view.Lines,
		Breakdown:    breakdown,
		PointsEarned: stats.PointsEarned,
	}}, nil
}

func (s *Service) validate(view *repo.CartView) error {
	if len(view.Lines) == 0 {
		return common.BadRequest("empty_cart", "cart is empty", ErrEmptyCart)
	}
	if view.Address == nil {
		return common.BadRequest("no_shipping_address", "no shipping address selected", ErrNoShippingAddress)
	}
	if view.Zone == nil {
		// Configuration error: the address was set but zone resolution never
		// ran or the zone row was removed.
		return common.NewAppError("zone_not_configured", "shipping zone not configured", 500, ErrZoneMissing)
	}
	return nil
}

func (s *Service) price(view *repo.CartView) pricing.Breakdown {
	in := pricing.Input{HasShippingAddress: view.Address != nil}
	for _, line := range view.Lines {
		in.Items = append(in.Items, pricing.Item{
			Qty:        line.Quantity,
			UnitPrice:  line.UnitPrice,
			UnitCarbon: line.UnitCarbon,
		})
	}
	if view.Discount != nil {
		in.Discount = view.Discount.Pricing()
	}
	if view.Zone != nil {
		in.Zone = &pricing.Zone{Name: view.Zone.Name, Cost: view.Zone.Cost, Carbon: view.Zone.FlatCarbon}
	}
	if view.Tax != nil {
		in.TaxPercent = view.Tax.Rate
	}
	return pricing.Compute(in)
}

func freezeAddress(a *repo.Address) string {
	if a == nil {
		return ""
	}
	return a.Street + ", " + a.City + ", " + a.State + " " + a.PostalCode + ", " + a.Country
}

func (s *Service) count(result string) {
	if obs.CheckoutTotal != nil {
		obs.CheckoutTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) countAuthorize(result string) {
	if obs.PaymentAuthorizeTotal != nil {
		obs.PaymentAuthorizeTotal.WithLabelValues("stripe", result).Inc()
	}
}

func zoneName(view *repo.CartView) string {
	if view.Zone == nil {
		return "none"
	}
	return view.Zone.Name
}

func (s *Service) observeCommit(zone string, totalCarbon decimal.Decimal, stats repo.CommitStats, redeemed int) {
	if obs.PointsGrantedTotal != nil && stats.PointsEarned > 0 {
		obs.PointsGrantedTotal.Add(float64(stats.PointsEarned))
	}
	if obs.PointsRedeemedTotal != nil && redeemed > 0 {
		obs.PointsRedeemedTotal.Add(float64(redeemed))
	}
	if obs.ReferralBonusTotal != nil && stats.ReferralGranted {
		obs.ReferralBonusTotal.Inc()
	}
	if obs.OrderCarbonKg != nil {
		carbon, _ := totalCarbon.Float64()
		obs.OrderCarbonKg.WithLabelValues(zone).Observe(carbon)
	}
}
