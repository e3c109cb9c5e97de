package repo

import (
	"context"
	"errors"
	"fmt"
)

// ErrInsufficientStock signals an oversell attempt caught by the conditional
// stock decrement.
var ErrInsufficientStock = errors.New("repo: insufficient stock")

const productColumns = `id, name, image_url, price::text, stock_quantity, eco_points, carbon_per_unit::text`

func scanProduct(row interface{ Scan(...any) error }) (Product, error) {
	var p Product
	var price, carbon string
	err := row.Scan(&p.ID, &p.Name, &p.ImageURL, &price, &p.StockQuantity, &p.EcoPoints, &carbon)
	if err != nil {
		return Product{}, mapNoRows(err)
	}
	if p.Price, err = parseDec(price); err != nil {
		return Product{}, err
	}
	if p.CarbonPerUnit, err = parseDec(carbon); err != nil {
		return Product{}, err
	}
	return p, nil
}

// GetProduct loads one product.
func (q *Queries) GetProduct(ctx context.Context, id string) (Product, error) {
	row := q.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// DecrementStock atomically takes qty units off a product's stock. The
// WHERE clause re-validates availability, so two concurrent checkouts for
// the last unit cannot both succeed: the loser matches zero rows and the
// whole transaction aborts with ErrInsufficientStock.
func (q *Queries) DecrementStock(ctx context.Context, productID string, qty int) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE products SET stock_quantity = stock_quantity - $1
		WHERE id = $2 AND stock_quantity >= $1`,
		qty, productID)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %s, requested %d", ErrInsufficientStock, productID, qty)
	}
	return nil
}

// CreateProduct inserts a catalog row. Used by seeds and tests.
func (q *Queries) CreateProduct(ctx context.Context, p Product) (Product, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO products (name, image_url, price, stock_quantity, eco_points, carbon_per_unit)
		VALUES ($1, $2, $3::numeric, $4, $5, $6::numeric)
		RETURNING `+productColumns,
		p.Name, p.ImageURL, p.Price.String(), p.StockQuantity, p.EcoPoints, p.CarbonPerUnit.String())
	return scanProduct(row)
}
