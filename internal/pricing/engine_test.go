package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeReferenceOrder(t *testing.T) {
	// One item at 100.00 x2 (5.00 kg/unit), 10% discount, zone 40.00/0.20, 18% tax.
	out := Compute(Input{
		Items:              []Item{{Qty: 2, UnitPrice: dec("100.00"), UnitCarbon: dec("5.00")}},
		Discount:           &Discount{Code: "ECO10", Kind: Percentage, Value: dec("10")},
		Zone:               &Zone{Name: "Intra-city", Cost: dec("40.00"), Carbon: dec("0.20")},
		TaxPercent:         dec("18"),
		HasShippingAddress: true,
	})

	require.Equal(t, "200.00", out.ProductsTotal.StringFixed(2))
	require.Equal(t, "20.00", out.DiscountAmount.StringFixed(2))
	require.Equal(t, "40.00", out.ShippingCost.StringFixed(2))
	require.Equal(t, "39.60", out.TaxAmount.StringFixed(2))
	require.Equal(t, "259.60", out.GrandTotal.StringFixed(2))
	require.Equal(t, "10.20", out.TotalCarbon().StringFixed(2))
}

func TestDiscountNeverExceedsProductsTotal(t *testing.T) {
	items := []Item{{Qty: 1, UnitPrice: dec("50.00"), UnitCarbon: dec("1.00")}}

	fixed := Compute(Input{
		Items:    items,
		Discount: &Discount{Code: "BIG", Kind: FixedAmount, Value: dec("500.00")},
	})
	require.Equal(t, "50.00", fixed.DiscountAmount.StringFixed(2))
	require.Equal(t, "0.00", fixed.GrandTotal.StringFixed(2))

	pct := Compute(Input{
		Items:    items,
		Discount: &Discount{Code: "ALL", Kind: Percentage, Value: dec("150")},
	})
	require.Equal(t, "50.00", pct.DiscountAmount.StringFixed(2))
}

func TestTaxAppliesToDiscountedBase(t *testing.T) {
	out := Compute(Input{
		Items:              []Item{{Qty: 1, UnitPrice: dec("100.00")}},
		Discount:           &Discount{Code: "HALF", Kind: Percentage, Value: dec("50")},
		Zone:               &Zone{Cost: dec("10.00")},
		TaxPercent:         dec("10"),
		HasShippingAddress: true,
	})
	// (100 - 50 + 10) * 10% = 6.00, not 100 * 10%.
	require.Equal(t, "6.00", out.TaxAmount.StringFixed(2))
	require.Equal(t, "66.00", out.GrandTotal.StringFixed(2))
}

func TestNoTaxWithoutShippingAddress(t *testing.T) {
	out := Compute(Input{
		Items:      []Item{{Qty: 1, UnitPrice: dec("100.00")}},
		TaxPercent: dec("18"),
	})
	require.True(t, out.TaxAmount.IsZero())
	require.Equal(t, "100.00", out.GrandTotal.StringFixed(2))
}

func TestNoZoneMeansFreeShipping(t *testing.T) {
	out := Compute(Input{Items: []Item{{Qty: 3, UnitPrice: dec("10.00"), UnitCarbon: dec("0.10")}}})
	require.True(t, out.ShippingCost.IsZero())
	require.True(t, out.ShippingCarbon.IsZero())
	require.Equal(t, "30.00", out.GrandTotal.StringFixed(2))
	require.Equal(t, "0.30", out.ProductsCarbon.StringFixed(2))
}

func TestZeroQtyLinesIgnored(t *testing.T) {
	out := Compute(Input{Items: []Item{
		{Qty: 0, UnitPrice: dec("99.00")},
		{Qty: 1, UnitPrice: dec("1.00")},
	}})
	require.Equal(t, "1.00", out.ProductsTotal.StringFixed(2))
}
