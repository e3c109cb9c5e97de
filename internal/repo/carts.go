package repo

import (
	"context"
	"fmt"
)

// CreateCart creates the user's cart. Called once at registration; the
// unique constraint on user_id keeps it 1:1.
func (q *Queries) CreateCart(ctx context.Context, userID string) (Cart, error) {
	var c Cart
	err := q.db.QueryRow(ctx, `
		INSERT INTO carts (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = now()
		RETURNING id, user_id, discount_id, shipping_address_id, transport_zone_id`,
		userID).Scan(&c.ID, &c.UserID, &c.DiscountID, &c.ShippingAddressID, &c.TransportZoneID)
	return c, err
}

// GetCartByUserID loads the user's cart header.
func (q *Queries) GetCartByUserID(ctx context.Context, userID string) (Cart, error) {
	var c Cart
	err := q.db.QueryRow(ctx, `
		SELECT id, user_id, discount_id, shipping_address_id, transport_zone_id
		FROM carts WHERE user_id = $1`, userID).
		Scan(&c.ID, &c.UserID, &c.DiscountID, &c.ShippingAddressID, &c.TransportZoneID)
	if err != nil {
		return Cart{}, mapNoRows(err)
	}
	return c, nil
}

// UpsertCartItem adds a product to the cart or replaces its quantity.
func (q *Queries) UpsertCartItem(ctx context.Context, cartID, productID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("repo: quantity must be positive, got %d", qty)
	}
	_, err := q.db.Exec(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity`,
		cartID, productID, qty)
	return err
}

// RemoveCartItem deletes one line from the cart.
func (q *Queries) RemoveCartItem(ctx context.Context, cartID, productID string) error {
	_, err := q.db.Exec(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	return err
}

// ListCartLines joins cart items with live product data.
func (q *Queries) ListCartLines(ctx context.Context, cartID string) ([]CartLine, error) {
	rows, err := q.db.Query(ctx, `
		SELECT ci.id, p.id, p.name, p.image_url, ci.quantity,
		       p.price::text, p.carbon_per_unit::text, p.eco_points, p.stock_quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []CartLine
	for rows.Next() {
		var l CartLine
		var price, carbon string
		if err := rows.Scan(&l.ItemID, &l.ProductID, &l.ProductName, &l.ImageURL, &l.Quantity,
			&price, &carbon, &l.EcoPoints, &l.StockQuantity); err != nil {
			return nil, err
		}
		if l.UnitPrice, err = parseDec(price); err != nil {
			return nil, err
		}
		if l.UnitCarbon, err = parseDec(carbon); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// SetCartDiscount attaches a validated discount to the cart.
func (q *Queries) SetCartDiscount(ctx context.Context, cartID string, discountID *string) error {
	_, err := q.db.Exec(ctx,
		`UPDATE carts SET discount_id = $1, updated_at = now() WHERE id = $2`, discountID, cartID)
	return err
}

// SetCartShipping selects the shipping address and resolved transport zone.
func (q *Queries) SetCartShipping(ctx context.Context, cartID string, addressID, zoneID *string) error {
	_, err := q.db.Exec(ctx, `
		UPDATE carts SET shipping_address_id = $1, transport_zone_id = $2, updated_at = now()
		WHERE id = $3`, addressID, zoneID, cartID)
	return err
}

// ClearCart removes all items and detaches discount and shipping selection.
// Runs inside the checkout commit transaction.
func (q *Queries) ClearCart(ctx context.Context, cartID string) error {
	if _, err := q.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	if _, err := q.db.Exec(ctx, `
		UPDATE carts SET discount_id = NULL, shipping_address_id = NULL,
		       transport_zone_id = NULL, updated_at = now()
		WHERE id = $1`, cartID); err != nil {
		return fmt.Errorf("detach cart selections: %w", err)
	}
	return nil
}
