// Package cart manages the mutable pre-checkout cart: items, discount
// application, and shipping selection with transport zone resolution.
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ecobazaarx/backend-eco/internal/common"
	"github.com/ecobazaarx/backend-eco/internal/discount"
	"github.com/ecobazaarx/backend-eco/internal/repo"
	"github.com/ecobazaarx/backend-eco/internal/shipping"
)

// Service mutates a user's cart. Checkout reads it back via repo.CartView.
type Service struct {
	Store     *repo.Store
	Warehouse shipping.Warehouse
	Logger    zerolog.Logger
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) cartFor(ctx context.Context, userID string) (repo.Cart, error) {
	c, err := s.Store.Q().GetCartByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return s.Store.Q().CreateCart(ctx, userID)
	}
	return c, err
}

// AddItem puts a product in the cart or replaces its quantity. Quantity is
// checked against live stock here and re-checked at commit.
func (s *Service) AddItem(ctx context.Context, userID, productID string, qty int) error {
	if qty <= 0 {
		return common.BadRequest("invalid_quantity", "quantity must be positive", nil)
	}
	product, err := s.Store.Q().GetProduct(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return common.NotFound("product_not_found", "product not found", err)
	}
	if err != nil {
		return err
	}
	if qty > product.StockQuantity {
		return common.Conflict("insufficient_stock",
			fmt.Sprintf("only %d in stock", product.StockQuantity), repo.ErrInsufficientStock)
	}
	cart, err := s.cartFor(ctx, userID)
	if err != nil {
		return err
	}
	return s.Store.Q().UpsertCartItem(ctx, cart.ID, productID, qty)
}

// RemoveItem deletes one product line from the cart.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) error {
	cart, err := s.cartFor(ctx, userID)
	if err != nil {
		return err
	}
	return s.Store.Q().RemoveCartItem(ctx, cart.ID, productID)
}

// ApplyDiscount validates a code against the current cart and attaches it.
// Validity is checked now and again at checkout commit.
func (s *Service) ApplyDiscount(ctx context.Context, userID, code string) error {
	rule, err := s.Store.Q().GetDiscountByCode(ctx, code)
	if errors.Is(err, repo.ErrNotFound) {
		return common.NotFound("discount_not_found", "discount code not found", discount.ErrNotFound)
	}
	if err != nil {
		return err
	}
	cart, err := s.cartFor(ctx, userID)
	if err != nil {
		return err
	}
	lines, err := s.Store.Q().ListCartLines(ctx, cart.ID)
	if err != nil {
		return err
	}
	productsTotal := decimal.Zero
	for _, l := range lines {
		productsTotal = productsTotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	if err := rule.Validate(s.now(), productsTotal); err != nil {
		return common.BadRequest("discount_not_applicable", err.Error(), err)
	}
	return s.Store.Q().SetCartDiscount(ctx, cart.ID, &rule.ID)
}

// RemoveDiscount detaches any applied discount.
func (s *Service) RemoveDiscount(ctx context.Context, userID string) error {
	cart, err := s.cartFor(ctx, userID)
	if err != nil {
		return err
	}
	return s.Store.Q().SetCartDiscount(ctx, cart.ID, nil)
}

// SelectShipping picks an address from the user's book and resolves the
// transport zone relative to the warehouse. A resolved zone name with no
// configured row is a fatal configuration error, not free shipping.
func (s *Service) SelectShipping(ctx context.Context, userID, addressID string) error {
	addr, zone, err := s.resolveZone(ctx, userID, addressID)
	if err != nil {
		return err
	}
	cart, err := s.cartFor(ctx, userID)
	if err != nil {
		return err
	}
	return s.Store.Q().SetCartShipping(ctx, cart.ID, &addr.ID, &zone.ID)
}

// QuoteShipping resolves the zone for an address without touching the cart,
// so the client can show cost and carbon before the user commits to it.
func (s *Service) QuoteShipping(ctx context.Context, userID, addressID string) (repo.Zone, error) {
	_, zone, err := s.resolveZone(ctx, userID, addressID)
	return zone, err
}

func (s *Service) resolveZone(ctx context.Context, userID, addressID string) (repo.Address, repo.Zone, error) {
	addr, err := s.Store.Q().GetAddress(ctx, addressID, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return repo.Address{}, repo.Zone{}, common.NotFound("address_not_found", "address not found", err)
	}
	if err != nil {
		return repo.Address{}, repo.Zone{}, err
	}

	zoneName := s.Warehouse.ResolveZoneName(addr.City, addr.State, addr.Country)
	zone, err := s.Store.Q().GetZoneByName(ctx, zoneName)
	if errors.Is(err, repo.ErrNotFound) {
		s.Logger.Error().Str("zone", zoneName).Msg("transport zone missing from reference data")
		return repo.Address{}, repo.Zone{}, common.NewAppError("zone_not_configured", "shipping unavailable", 500, shipping.ErrZoneNotConfigured)
	}
	if err != nil {
		return repo.Address{}, repo.Zone{}, err
	}
	return addr, zone, nil
}
