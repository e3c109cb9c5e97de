// Package loyalty implements the point ledger rules, the rank engine, and
// the referral bonus. Everything here is pure computation; persistence of
// balances and ledger rows happens inside the checkout transaction.
package loyalty

import (
	"time"

	"github.com/shopspring/decimal"
)

// rank thresholds on completed order count
var rankThresholds = []int{5, 15, 30, 50, 75}

// LevelFor maps a completed order count to a rank level between 0 and 5.
func LevelFor(orderCount int) int {
	for level, min := range rankThresholds {
		if orderCount < min {
			return level
		}
	}
	return len(rankThresholds)
}

// Progress is the loyalty state carried on a user.
type Progress struct {
	OrderCount      int
	LifetimeCarbon  decimal.Decimal
	AverageCarbon   decimal.Decimal
	Level           int
	LevelAchievedAt time.Time
}

// Advance folds one completed order into the progress. The lifetime average
// is kept at four decimal places, half up, and LevelAchievedAt is stamped
// only when the level actually increases so it stays usable as a leaderboard
// tie-breaker.
func (p Progress) Advance(orderCarbon decimal.Decimal, now time.Time) Progress {
	next := p
	next.OrderCount = p.OrderCount + 1
	next.LifetimeCarbon = p.LifetimeCarbon.Add(orderCarbon)
	next.AverageCarbon = next.LifetimeCarbon.DivRound(decimal.NewFromInt(int64(next.OrderCount)), 4)
	next.Level = LevelFor(next.OrderCount)
	if next.Level > p.Level {
		next.LevelAchievedAt = now
	}
	return next
}
