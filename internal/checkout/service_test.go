package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ecobazaarx/backend-eco/internal/common"
	"github.com/ecobazaarx/backend-eco/internal/discount"
	"github.com/ecobazaarx/backend-eco/internal/events"
	"github.com/ecobazaarx/backend-eco/internal/loyalty"
	"github.com/ecobazaarx/backend-eco/internal/payment"
	"github.com/ecobazaarx/backend-eco/internal/pricing"
	"github.com/ecobazaarx/backend-eco/internal/repo"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// fakeStore is an in-memory Store good enough to exercise the coordinator,
// including the guarded stock decrement under concurrency.
type fakeStore struct {
	mu sync.Mutex

	view       repo.CartView
	stock      map[string]int
	points     map[string]int
	ledger     map[string][]int
	orderCount map[string]int
	intents    map[string]string

	orders      []repo.Order
	cartCleared bool
	nextIntent  int
	nextOrder   int
}

func newFakeStore(view repo.CartView) *fakeStore {
	f := &fakeStore{
		view:       view,
		stock:      map[string]int{},
		points:     map[string]int{},
		ledger:     map[string][]int{},
		orderCount: map[string]int{},
		intents:    map[string]string{},
	}
	for _, l := range view.Lines {
		f.stock[l.ProductID] = l.StockQuantity
	}
	f.points[view.User.ID] = view.User.EcoPoints
	return f
}

func (f *fakeStore) CartView(_ context.Context, userID, _ string) (*repo.CartView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.view
	v.User.EcoPoints = f.points[userID]
	v.User.TotalOrderCount = f.orderCount[userID]
	lines := make([]repo.CartLine, len(v.Lines))
	copy(lines, v.Lines)
	for i := range lines {
		lines[i].StockQuantity = f.stock[lines[i].ProductID]
	}
	v.Lines = lines
	return &v, nil
}

func (f *fakeStore) CreateIntent(_ context.Context, userID, cartID string, amount decimal.Decimal, currency string) (repo.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextIntent++
	id := fmt.Sprintf("intent-%d", f.nextIntent)
	f.intents[id] = repo.IntentPending
	return repo.Intent{ID: id, UserID: userID, CartID: cartID, Amount: amount, Currency: currency, Status: repo.IntentPending}, nil
}

func (f *fakeStore) ResolveIntent(_ context.Context, intentID, status string, _ *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents[intentID] = status
	return nil
}

func (f *fakeStore) CommitCheckout(_ context.Context, in repo.CheckoutCommit) (repo.Order, repo.CommitStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Guarded decrement: the losing concurrent checkout aborts here.
	for _, line := range in.Lines {
		if f.stock[line.ProductID] < line.Quantity {
			return repo.Order{}, repo.CommitStats{}, fmt.Errorf("%w: product %s", repo.ErrInsufficientStock, line.ProductID)
		}
	}
	earned := 0
	for _, line := range in.Lines {
		f.stock[line.ProductID] -= line.Quantity
		earned += line.EcoPoints * line.Quantity
	}

	if f.points[in.UserID] < in.PointsRedeemed {
		return repo.Order{}, repo.CommitStats{}, loyalty.ErrInsufficientPoints
	}
	f.points[in.UserID] += earned - in.PointsRedeemed
	if earned > 0 {
		f.ledger[in.UserID] = append(f.ledger[in.UserID], earned)
	}
	if in.PointsRedeemed > 0 {
		f.ledger[in.UserID] = append(f.ledger[in.UserID], -in.PointsRedeemed)
	}

	f.orderCount[in.UserID]++
	stats := repo.CommitStats{PointsEarned: earned}
	if loyalty.ReferralDue(f.orderCount[in.UserID], f.view.User.ReferrerID != nil) {
		ref := *f.view.User.ReferrerID
		f.points[ref] += loyalty.ReferralBonusPoints
		f.ledger[ref] = append(f.ledger[ref], loyalty.ReferralBonusPoints)
		stats.ReferralGranted = true
	}

	f.nextOrder++
	order := repo.Order{
		ID:                fmt.Sprintf("order-%d", f.nextOrder),
		UserID:            in.UserID,
		Status:            repo.OrderStatusCompleted,
		TotalAmount:       in.ChargedTotal,
		TotalCarbon:       in.TotalCarbon,
		EcoPointsRedeemed: in.PointsRedeemed,
		EcoPointsAmount:   in.PointsValue,
		ShippingCost:      in.Breakdown.ShippingCost,
		TaxAmount:         in.Breakdown.TaxAmount,
		ShippingAddress:   in.AddressText,
	}
	f.orders = append(f.orders, order)
	f.cartCleared = true
	f.intents[in.IntentID] = repo.IntentCompleted
	return order, stats, nil
}

func (f *fakeStore) ledgerSum(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := 0
	for _, d := range f.ledger[userID] {
		sum += d
	}
	return sum
}

type fakeGateway struct {
	mu       sync.Mutex
	result   payment.Result
	err      error
	requests []payment.AuthorizeRequest
}

func (g *fakeGateway) Authorize(_ context.Context, req payment.AuthorizeRequest) (payment.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	return g.result, g.err
}

func referenceView() repo.CartView {
	referrer := "referrer-1"
	addr := repo.Address{ID: "addr-1", UserID: "user-1", Street: "12 Lake Rd",
		City: "Ranchi", State: "Jharkhand", PostalCode: "834001", Country: "India"}
	rule := discount.Rule{
		ID: "disc-1", Code: "ECO10", Kind: pricing.Percentage, Value: dec("10"),
		ValidFrom:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil: time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	discountID := "disc-1"
	zoneID := "zone-1"
	addrID := "addr-1"
	return repo.CartView{
		User: repo.User{ID: "user-1", Name: "Asha", EcoPoints: 600, ReferrerID: &referrer},
		Cart: repo.Cart{ID: "cart-1", UserID: "user-1",
			DiscountID: &discountID, ShippingAddressID: &addrID, TransportZoneID: &zoneID},
		Lines: []repo.CartLine{{
			ItemID: "item-1", ProductID: "prod-1", ProductName: "Bamboo Bottle",
			Quantity: 2, UnitPrice: dec("100.00"), UnitCarbon: dec("5.00"),
			EcoPoints: 10, StockQuantity: 5,
		}},
		Discount: &rule,
		Address:  &addr,
		Zone:     &repo.Zone{ID: "zone-1", Name: "Intra-city", Cost: dec("40.00"), FlatCarbon: dec("0.20")},
		Tax:      &repo.TaxRate{ID: "tax-1", Name: "GST", Rate: dec("18.00"), Country: "India"},
	}
}

func newService(store Store, gw payment.Gateway) *Service {
	return &Service{
		Store:       store,
		Gateway:     gw,
		Bus:         &events.Bus{Logger: zerolog.Nop()},
		Logger:      zerolog.Nop(),
		PointRate:   dec("0.01"),
		Currency:    "inr",
		TaxRateName: "GST",
		Now:         func() time.Time { return time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC) },
	}
}

func TestPlaceOrderHappyPath(t *testing.T) {
	store := newFakeStore(referenceView())
	gw := &fakeGateway{result: payment.Result{Status: payment.StatusSucceeded, ProviderRef: "pi_1"}}
	svc := newService(store, gw)

	res, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderRequest{
		PointsToRedeem:   500,
		PaymentMethodRef: "pm_card",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Order)

	order := res.Order.Order
	require.Equal(t, "254.60", order.TotalAmount.StringFixed(2))
	require.Equal(t, "10.20", order.TotalCarbon.StringFixed(2))
	require.Equal(t, 500, order.EcoPointsRedeemed)
	require.Equal(t, "5.00", order.EcoPointsAmount.StringFixed(2))
	require.Equal(t, "40.00", order.ShippingCost.StringFixed(2))
	require.Equal(t, "39.60", order.TaxAmount.StringFixed(2))
	require.Contains(t, order.ShippingAddress, "Ranchi")

	bd := res.Order.Breakdown
	require.Equal(t, "200.00", bd.ProductsTotal.StringFixed(2))
	require.Equal(t, "20.00", bd.DiscountAmount.StringFixed(2))
	require.Equal(t, "259.60", bd.GrandTotal.StringFixed(2))

	// 10 eco points per unit, quantity 2
	require.Equal(t, 20, res.Order.PointsEarned)

	// gateway saw minor units and the intent id as idempotency key
	require.Len(t, gw.requests, 1)
	require.Equal(t, int64(25460), gw.requests[0].AmountMinorUnits)
	require.Equal(t, "intent-1", gw.requests[0].IdempotencyKey)

	// ledger sum equals balance: 600 + 20 - 500 = 120
	require.Equal(t, 120, store.points["user-1"])
	require.Equal(t, 20-500, store.ledgerSum("user-1"))
	require.Equal(t, store.points["user-1"], 600+store.ledgerSum("user-1"))

	require.True(t, store.cartCleared)
	require.Equal(t, repo.IntentCompleted, store.intents["intent-1"])
	require.Equal(t, 3, store.stock["prod-1"])
}

func TestRequiresActionLeavesNoSideEffects(t *testing.T) {
	store := newFakeStore(referenceView())
	gw := &fakeGateway{result: payment.Result{Status: payment.StatusRequiresAction, ContinuationToken: "pi_secret"}}
	svc := newService(store, gw)

	res, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderRequest{PaymentMethodRef: "pm_card"})
	require.NoError(t, err)
	require.Nil(t, res.Order)
	require.Equal(t, "pi_secret", res.ContinuationToken)

	require.Empty(t, store.orders)
	require.False(t, store.cartCleared)
	require.Equal(t, 5, store.stock["prod-1"])
	require.Equal(t, 600, store.points["user-1"])
	require.Equal(t, repo.IntentAbandoned, store.intents["intent-1"])
}

func TestDeclinedSurfacesPaymentErrorWithoutSideEffects(t *testing.T) {
	store := newFakeStore(referenceView())
	gw := &fakeGateway{result: payment.Result{Status: payment.StatusDeclined, DeclineReason: "card declined"}}
	svc := newService(store, gw)

	_, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderRequest{PaymentMethodRef: "pm_card"})
	require.ErrorIs(t, err, ErrPaymentDeclined)

	app, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, 402, app.HTTPStatus)

	require.Empty(t, store.orders)
	require.Equal(t, 5, store.stock["prod-1"])
	require.Equal(t, repo.IntentFailed, store.intents["intent-1"])
}

func TestRedeemingMoreThanBalanceIsRejectedBeforePayment(t *testing.T) {
	store := newFakeStore(referenceView())
	gw := &fakeGateway{result: payment.Result{Status: payment.StatusSucceeded}}
	svc := newService(store, gw)

	_, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderRequest{
		PointsToRedeem:   601,
		PaymentMethodRef: "pm_card",
	})
	require.ErrorIs(t, err, loyalty.ErrInsufficientPoints)
	require.Empty(t, gw.requests, "gateway must not be called")
	require.Empty(t, store.intents)
}

func TestEmptyCartAndMissingAddressRejected(t *testing.T) {
	gw := &fakeGateway{result: payment.Result{Status: payment.StatusSucceeded}}

	empty := referenceView()
	empty.Lines = nil
	svc := newService(newFakeStore(empty), gw)
	_, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderRequest{})
	require.ErrorIs(t, err, ErrEmptyCart)

	noAddr := referenceView()
	noAddr.Address = nil
	svc = newService(newFakeStore(noAddr), gw)
	_, err = svc.PlaceOrder(context.Background(), "user-1", PlaceOrderRequest{})
	require.ErrorIs(t, err, ErrNoShippingAddress)

	require.Empty(t, gw.requests)
}

func TestExpiredDiscountRejectedAtCheckout(t *testing.T) {
	view := referenceView()
	expired := *view.Discount
	expired.ValidUntil = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	view.Discount = &expired
	store := newFakeStore(view)
	gw := &fakeGateway{result: payment.Result{Status: payment.StatusSucceeded}}
	svc := newService(store, gw)

	_, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderRequest{PaymentMethodRef: "pm_card"})
	require.ErrorIs(t, err, discount.ErrExpired)
	require.Empty(t, gw.requests)
}

func TestConcurrentCheckoutsForLastUnitOversellExactlyOnce(t *testing.T) {
	view := referenceView()
	view.Lines[0].Quantity = 1
	view.Lines[0].StockQuantity = 1
	view.User.EcoPoints = 0
	view.User.ReferrerID = nil
	store := newFakeStore(view)
	gw := &fakeGateway{result: payment.Result{Status: payment.StatusSucceeded}}
	svc := newService(store, gw)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderRequest{PaymentMethodRef: "pm_card"})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, oversold int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, repo.ErrInsufficientStock):
			oversold++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, 1, oversold)
	require.Equal(t, 0, store.stock["prod-1"])
	require.Len(t, store.orders, 1)
}

func TestReferralBonusFiresExactlyOnce(t *testing.T) {
	view := referenceView()
	store := newFakeStore(view)
	gw := &fakeGateway{result: payment.Result{Status: payment.StatusSucceeded}}
	svc := newService(store, gw)

	_, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderRequest{PaymentMethodRef: "pm_card"})
	require.NoError(t, err)
	require.Equal(t, loyalty.ReferralBonusPoints, store.points["referrer-1"])

	// second order: no further bonus
	store.mu.Lock()
	store.cartCleared = false
	store.mu.Unlock()
	_, err = svc.PlaceOrder(context.Background(), "user-1", PlaceOrderRequest{PaymentMethodRef: "pm_card"})
	require.NoError(t, err)
	require.Equal(t, loyalty.ReferralBonusPoints, store.points["referrer-1"])
}

func TestPointsValueClampedToGrandTotal(t *testing.T) {
	view := referenceView()
	view.User.EcoPoints = 100000
	view.User.ReferrerID = nil
	store := newFakeStore(view)
	gw := &fakeGateway{result: payment.Result{Status: payment.StatusSucceeded}}
	svc := newService(store, gw)

	res, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderRequest{
		PointsToRedeem:   100000, // worth 1000.00, order total 259.60
		PaymentMethodRef: "pm_card",
	})
	require.NoError(t, err)
	require.Equal(t, "0.00", res.Order.Order.TotalAmount.StringFixed(2))
	require.Equal(t, "259.60", res.Order.Order.EcoPointsAmount.StringFixed(2))
	require.Equal(t, int64(0), gw.requests[0].AmountMinorUnits)
}

func TestPreviewTotalsMatchesWorkedExample(t *testing.T) {
	store := newFakeStore(referenceView())
	svc := newService(store, &fakeGateway{})

	totals, err := svc.PreviewTotals(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, "259.60", totals.Breakdown.GrandTotal.StringFixed(2))
	require.Equal(t, "10.20", totals.TotalCarbon.StringFixed(2))
	require.Empty(t, store.intents, "preview must not create intents")
}
