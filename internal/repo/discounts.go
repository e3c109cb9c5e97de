package repo

import (
	"context"
	"fmt"

	"github.com/ecobazaarx/backend-eco/internal/discount"
	"github.com/ecobazaarx/backend-eco/internal/pricing"
)

const discountColumns = `id, code, kind, value::text, min_purchase_amount::text,
	valid_from, valid_until, usage_limit, used_count`

func scanDiscount(row interface{ Scan(...any) error }) (discount.Rule, error) {
	var r discount.Rule
	var kind, value string
	var minPurchase *string
	err := row.Scan(&r.ID, &r.Code, &kind, &value, &minPurchase,
		&r.ValidFrom, &r.ValidUntil, &r.UsageLimit, &r.UsedCount)
	if err != nil {
		return discount.Rule{}, mapNoRows(err)
	}
	r.Kind = pricing.DiscountKind(kind)
	if r.Value, err = parseDec(value); err != nil {
		return discount.Rule{}, err
	}
	if minPurchase != nil {
		min, err := parseDec(*minPurchase)
		if err != nil {
			return discount.Rule{}, err
		}
		r.MinPurchase = &min
	}
	return r, nil
}

// GetDiscountByCode resolves a discount code, case-insensitively.
func (q *Queries) GetDiscountByCode(ctx context.Context, code string) (discount.Rule, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+discountColumns+` FROM discounts WHERE lower(code) = lower($1)`, code)
	return scanDiscount(row)
}

// GetDiscountByID loads a discount by primary key.
func (q *Queries) GetDiscountByID(ctx context.Context, id string) (discount.Rule, error) {
	row := q.db.QueryRow(ctx, `SELECT `+discountColumns+` FROM discounts WHERE id = $1`, id)
	return scanDiscount(row)
}

// ConsumeDiscountUsage increments used_count with the limit re-checked in the
// WHERE clause, so concurrent checkouts cannot overrun the quota. A zero
// usage_limit means unlimited.
func (q *Queries) ConsumeDiscountUsage(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE discounts SET used_count = used_count + 1
		WHERE id = $1 AND (usage_limit = 0 OR used_count < usage_limit)`,
		id)
	if err != nil {
		return fmt.Errorf("consume discount usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return discount.ErrUsageLimitReached
	}
	return nil
}
