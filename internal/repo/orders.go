package repo

import (
	"context"
	"fmt"
)

const orderColumns = `id, user_id, status, order_date, total_amount::text, total_carbon::text,
	discount_code, discount_amount::text, eco_points_redeemed, eco_points_amount::text,
	shipping_cost::text, tax_amount::text, shipping_address`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var o Order
	var total, carbon, pointsAmount, shipping, tax string
	var discountAmount *string
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.OrderDate, &total, &carbon,
		&o.DiscountCode, &discountAmount, &o.EcoPointsRedeemed, &pointsAmount,
		&shipping, &tax, &o.ShippingAddress)
	if err != nil {
		return Order{}, mapNoRows(err)
	}
	if o.TotalAmount, err = parseDec(total); err != nil {
		return Order{}, err
	}
	if o.TotalCarbon, err = parseDec(carbon); err != nil {
		return Order{}, err
	}
	if discountAmount != nil {
		d, err := parseDec(*discountAmount)
		if err != nil {
			return Order{}, err
		}
		o.DiscountAmount = &d
	}
	if o.EcoPointsAmount, err = parseDec(pointsAmount); err != nil {
		return Order{}, err
	}
	if o.ShippingCost, err = parseDec(shipping); err != nil {
		return Order{}, err
	}
	if o.TaxAmount, err = parseDec(tax); err != nil {
		return Order{}, err
	}
	return o, nil
}

// InsertOrder writes the immutable order snapshot.
func (q *Queries) InsertOrder(ctx context.Context, o Order) (Order, error) {
	var discountAmount *string
	if o.DiscountAmount != nil {
		s := o.DiscountAmount.String()
		discountAmount = &s
	}
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (user_id, status, total_amount, total_carbon, discount_code,
			discount_amount, eco_points_redeemed, eco_points_amount, shipping_cost,
			tax_amount, shipping_address)
		VALUES ($1, $2, $3::numeric, $4::numeric, $5, $6::numeric, $7, $8::numeric,
			$9::numeric, $10::numeric, $11)
		RETURNING `+orderColumns,
		o.UserID, o.Status, o.TotalAmount.String(), o.TotalCarbon.String(), o.DiscountCode,
		discountAmount, o.EcoPointsRedeemed, o.EcoPointsAmount.String(),
		o.ShippingCost.String(), o.TaxAmount.String(), o.ShippingAddress)
	return scanOrder(row)
}

// InsertOrderItem writes one immutable order line.
func (q *Queries) InsertOrderItem(ctx context.Context, it OrderItem) error {
	if _, err := q.db.Exec(ctx, `
		INSERT INTO order_items (order_id, product_id, product_name, image_url, quantity,
			price_per_item, carbon_per_item)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric)`,
		it.OrderID, it.ProductID, it.ProductName, it.ImageURL, it.Quantity,
		it.PricePerItem.String(), it.CarbonPerItem.String()); err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

// GetOrder loads an order owned by the given user.
func (q *Queries) GetOrder(ctx context.Context, orderID, userID string) (Order, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`, orderID, userID)
	return scanOrder(row)
}

// ListOrdersByUser returns a user's order history, newest first.
func (q *Queries) ListOrdersByUser(ctx context.Context, userID string, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := q.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY order_date DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// ListOrderItems loads the lines of one order.
func (q *Queries) ListOrderItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, order_id, product_id, product_name, image_url, quantity,
		       price_per_item::text, carbon_per_item::text
		FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		var price, carbon string
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.ImageURL,
			&it.Quantity, &price, &carbon); err != nil {
			return nil, err
		}
		if it.PricePerItem, err = parseDec(price); err != nil {
			return nil, err
		}
		if it.CarbonPerItem, err = parseDec(carbon); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
