package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/ecobazaarx/backend-eco/internal/discount"
)

// CartView aggregates everything checkout and cart pricing need in one load:
// the cart header, its lines, the applied discount, the shipping selection,
// and the active tax rate.
type CartView struct {
	User     User
	Cart     Cart
	Lines    []CartLine
	Discount *discount.Rule
	Address  *Address
	Zone     *Zone
	Tax      *TaxRate
}

// CartView loads the full pricing context for a user's cart. A missing tax
// rate is tolerated (no tax configured); a missing zone on a cart that
// references one is not, because it means reference data was deleted.
func (s *Store) CartView(ctx context.Context, userID, taxRateName string) (*CartView, error) {
	q := s.q

	user, err := q.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	cart, err := q.GetCartByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	lines, err := q.ListCartLines(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("load cart lines: %w", err)
	}

	view := &CartView{User: user, Cart: cart, Lines: lines}

	if cart.DiscountID != nil {
		rule, err := q.GetDiscountByID(ctx, *cart.DiscountID)
		if err != nil {
			return nil, fmt.Errorf("load discount: %w", err)
		}
		view.Discount = &rule
	}
	if cart.ShippingAddressID != nil {
		addr, err := q.GetAddress(ctx, *cart.ShippingAddressID, userID)
		if err != nil {
			return nil, fmt.Errorf("load shipping address: %w", err)
		}
		view.Address = &addr
	}
	if cart.TransportZoneID != nil {
		zone, err := q.GetZoneByID(ctx, *cart.TransportZoneID)
		if err != nil {
			return nil, fmt.Errorf("load transport zone: %w", err)
		}
		view.Zone = &zone
	}
	if taxRateName != "" {
		tax, err := q.GetTaxRateByName(ctx, taxRateName)
		if err == nil {
			view.Tax = &tax
		} else if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("load tax rate: %w", err)
		}
	}
	return view, nil
}
