package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRound2HalfUp(t *testing.T) {
	require.Equal(t, "1.01", Round2(dec("1.005")).StringFixed(2))
	require.Equal(t, "2.34", Round2(dec("2.344")).StringFixed(2))
	require.Equal(t, "2.35", Round2(dec("2.345")).StringFixed(2))
}

func TestRound4(t *testing.T) {
	require.Equal(t, "3.3333", Round4(dec("3.33333")).StringFixed(4))
	require.Equal(t, "3.3334", Round4(dec("3.33335")).StringFixed(4))
}

func TestPercent(t *testing.T) {
	require.Equal(t, "39.60", Round2(Percent(dec("220.00"), dec("18"))).StringFixed(2))
	require.Equal(t, "20.00", Round2(Percent(dec("200.00"), dec("10"))).StringFixed(2))
	require.Equal(t, "0.00", Round2(Percent(dec("100.00"), decimal.Zero)).StringFixed(2))
}

func TestClampMaxAndFloorZero(t *testing.T) {
	require.Equal(t, "50.00", ClampMax(dec("80.00"), dec("50.00")).StringFixed(2))
	require.Equal(t, "30.00", ClampMax(dec("30.00"), dec("50.00")).StringFixed(2))
	require.True(t, FloorZero(dec("-4.20")).IsZero())
	require.Equal(t, "4.20", FloorZero(dec("4.20")).StringFixed(2))
}

func TestMinorUnits(t *testing.T) {
	require.Equal(t, int64(25460), MinorUnits(dec("254.60")))
	require.Equal(t, int64(100), MinorUnits(dec("0.995")))
}

func TestFromPoints(t *testing.T) {
	require.Equal(t, "5.00", FromPoints(500, dec("0.01")).StringFixed(2))
	require.Equal(t, "0.00", FromPoints(0, dec("0.01")).StringFixed(2))
}
