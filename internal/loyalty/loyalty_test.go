package loyalty

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestLevelForThresholds(t *testing.T) {
	cases := map[int]int{
		0: 0, 1: 0, 4: 0,
		5: 1, 14: 1,
		15: 2, 29: 2,
		30: 3, 49: 3,
		50: 4, 74: 4,
		75: 5, 200: 5,
	}
	for orders, want := range cases {
		require.Equal(t, want, LevelFor(orders), "orders=%d", orders)
	}
}

func TestAdvanceAveragesToFourDecimals(t *testing.T) {
	p := Progress{
		OrderCount:     2,
		LifetimeCarbon: decimal.RequireFromString("10.00"),
	}
	next := p.Advance(decimal.RequireFromString("10.20"), time.Now())

	require.Equal(t, 3, next.OrderCount)
	require.Equal(t, "20.20", next.LifetimeCarbon.StringFixed(2))
	// 20.20 / 3 = 6.7333...
	require.Equal(t, "6.7333", next.AverageCarbon.StringFixed(4))
}

func TestAdvanceStampsAchievedAtOnlyOnIncrease(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	p := Progress{OrderCount: 4, Level: 0}
	next := p.Advance(decimal.NewFromInt(1), now)
	require.Equal(t, 1, next.Level)
	require.Equal(t, now, next.LevelAchievedAt)

	later := now.Add(time.Hour)
	again := next.Advance(decimal.NewFromInt(1), later)
	require.Equal(t, 1, again.Level)
	require.Equal(t, now, again.LevelAchievedAt, "same level must keep the original stamp")
}

func TestValidateRedemption(t *testing.T) {
	require.NoError(t, ValidateRedemption(0, 0))
	require.NoError(t, ValidateRedemption(500, 500))
	require.ErrorIs(t, ValidateRedemption(501, 500), ErrInsufficientPoints)
	require.Error(t, ValidateRedemption(-1, 500))
}

func TestReferralDue(t *testing.T) {
	require.True(t, ReferralDue(1, true))
	require.False(t, ReferralDue(1, false))
	require.False(t, ReferralDue(2, true))
	require.False(t, ReferralDue(0, true))
}
