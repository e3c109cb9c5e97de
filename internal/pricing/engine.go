// Package pricing computes deterministic price and carbon breakdowns for a
// cart. It is pure: callers load items, discount, zone, and tax rate and the
// engine only does arithmetic.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/ecobazaarx/backend-eco/internal/money"
)

// DiscountKind enumerates supported discount mechanics.
type DiscountKind string

const (
	// Percentage discounts take a share of the products total.
	Percentage DiscountKind = "percentage"
	// FixedAmount discounts subtract a flat value.
	FixedAmount DiscountKind = "fixed_amount"
)

// Item is one cart line with its product snapshot.
type Item struct {
	Qty        int
	UnitPrice  decimal.Decimal
	UnitCarbon decimal.Decimal
}

// Discount carries the mechanics of an applied discount code.
type Discount struct {
	Code  string
	Kind  DiscountKind
	Value decimal.Decimal
}

// Zone carries the flat shipping figures of the selected transport zone.
type Zone struct {
	Name   string
	Cost   decimal.Decimal
	Carbon decimal.Decimal
}

// Input aggregates everything the engine needs for one computation.
type Input struct {
	Items    []Item
	Discount *Discount
	Zone     *Zone
	// TaxPercent is the active rate (e.g. 18 for 18%). Tax applies only when
	// a shipping address has been selected.
	TaxPercent         decimal.Decimal
	HasShippingAddress bool
}

// Breakdown is the computed result. All amounts are rounded to two decimal
// places, half up.
type Breakdown struct {
	ProductsTotal  decimal.Decimal `json:"productsTotal"`
	ProductsCarbon decimal.Decimal `json:"productsCarbon"`
	DiscountCode   string          `json:"discountCode,omitempty"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	ShippingCost   decimal.Decimal `json:"shippingCost"`
	ShippingCarbon decimal.Decimal `json:"shippingCarbon"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	GrandTotal     decimal.Decimal `json:"grandTotal"`
}

// TotalCarbon returns the carbon footprint of the whole order (products plus
// shipping), the figure fed into the rank engine.
func (b Breakdown) TotalCarbon() decimal.Decimal {
	return money.Round2(b.ProductsCarbon.Add(b.ShippingCarbon))
}

// Compute produces the breakdown for the provided input. The discount is
// clamped to the products total so the taxable amount can never go negative,
// and tax is charged on (products − discount + shipping), never on the
// pre-discount amount.
func Compute(in Input) Breakdown {
	var productsTotal, productsCarbon decimal.Decimal
	for _, it := range in.Items {
		if it.Qty <= 0 {
			continue
		}
		qty := decimal.NewFromInt(int64(it.Qty))
		productsTotal = productsTotal.Add(it.UnitPrice.Mul(qty))
		productsCarbon = productsCarbon.Add(it.UnitCarbon.Mul(qty))
	}

	var discountAmount decimal.Decimal
	var discountCode string
	if in.Discount != nil {
		discountCode = in.Discount.Code
		switch in.Discount.Kind {
		case Percentage:
			discountAmount = money.Percent(productsTotal, in.Discount.Value)
		case FixedAmount:
			discountAmount = in.Discount.Value
		}
		discountAmount = money.FloorZero(money.ClampMax(discountAmount, productsTotal))
	}

	var shippingCost, shippingCarbon decimal.Decimal
	if in.Zone != nil {
		shippingCost = in.Zone.Cost
		shippingCarbon = in.Zone.Carbon
	}

	taxable := productsTotal.Sub(discountAmount).Add(shippingCost)

	var taxAmount decimal.Decimal
	if in.HasShippingAddress && in.TaxPercent.IsPositive() {
		taxAmount = money.Percent(taxable, in.TaxPercent)
	}

	grandTotal := taxable.Add(taxAmount)

	return Breakdown{
		ProductsTotal:  money.Round2(productsTotal),
		ProductsCarbon: money.Round2(productsCarbon),
		DiscountCode:   discountCode,
		DiscountAmount: money.Round2(discountAmount),
		ShippingCost:   money.Round2(shippingCost),
		ShippingCarbon: money.Round2(shippingCarbon),
		TaxAmount:      money.Round2(taxAmount),
		GrandTotal:     money.Round2(grandTotal),
	}
}
