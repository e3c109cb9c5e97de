package discount

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ecobazaarx/backend-eco/internal/pricing"
)

func baseRule() Rule {
	return Rule{
		Code:       "ECO10",
		Kind:       pricing.Percentage,
		Value:      decimal.NewFromInt(10),
		ValidFrom:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil: time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC),
	}
}

func TestValidateWindow(t *testing.T) {
	r := baseRule()
	total := decimal.NewFromInt(100)

	require.ErrorIs(t, r.Validate(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), total), ErrNotYetActive)
	require.ErrorIs(t, r.Validate(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), total), ErrExpired)
	require.NoError(t, r.Validate(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), total))
}

func TestValidateMinPurchase(t *testing.T) {
	r := baseRule()
	min := decimal.NewFromInt(150)
	r.MinPurchase = &min
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	require.ErrorIs(t, r.Validate(now, decimal.NewFromInt(100)), ErrMinPurchaseUnmet)
	require.NoError(t, r.Validate(now, decimal.NewFromInt(150)))
}

func TestValidateUsageLimit(t *testing.T) {
	r := baseRule()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	total := decimal.NewFromInt(100)

	r.UsageLimit = 0
	r.UsedCount = 1000
	require.NoError(t, r.Validate(now, total), "zero limit means unlimited")

	r.UsageLimit = 5
	r.UsedCount = 4
	require.NoError(t, r.Validate(now, total))
	r.UsedCount = 5
	require.ErrorIs(t, r.Validate(now, total), ErrUsageLimitReached)
}
