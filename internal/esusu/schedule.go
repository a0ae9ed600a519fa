package esusu

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/adetunjii/esusu-engine/internal/domain"
)

// GenerateSchedule computes the payout date of every cycle, 1-indexed.
// Cycle 1 is the collection date itself; each following cycle steps forward
// by the frequency interval (7 days, 1 calendar month, or 3 calendar months).
func GenerateSchedule(collectionDate time.Time, frequency string, cycleCount int) []*domain.CycleDate {
	schedule := make([]*domain.CycleDate, 0, cycleCount)
	current := collectionDate

	for cycle := 1; cycle <= cycleCount; cycle++ {
		schedule = append(schedule, &domain.CycleDate{
			CycleNumber: cycle,
			PayoutDate:  current,
		})
		current = nextCycleDate(current, frequency)
	}

	return schedule
}

func nextCycleDate(date time.Time, frequency string) time.Time {
	switch frequency {
	case domain.FrequencyWeekly:
		return date.AddDate(0, 0, 7)
	case domain.FrequencyQuarterly:
		return date.AddDate(0, 3, 0)
	default:
		return date.AddDate(0, 1, 0)
	}
}

// CommissionSpec is the creator's commission configuration, already
// shape-validated by the formation workflow.
type CommissionSpec struct {
	Take       bool
	Type       string
	Percentage decimal.Decimal
	Amount     decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// ComputeFinancials calculates the per-cycle pool breakdown:
// totalPool = contribution x participants, platformFee = pool x feeRate,
// commission per the CommissionSpec (capped at pool - fee), netPayout = the
// remainder.
// Returns an error when the configuration leaves no positive payout.
func ComputeFinancials(contribution decimal.Decimal, participants int, feeRate decimal.Decimal, c CommissionSpec) (*domain.Financials, error) {
	totalPool := contribution.Mul(decimal.NewFromInt(int64(participants)))
	platformFee := totalPool.Mul(feeRate).Round(2)

	commission := decimal.Zero
	if c.Take {
		switch c.Type {
		case domain.CommissionTypeCash:
			commission = c.Amount
		default:
			commission = totalPool.Mul(c.Percentage).Div(oneHundred).Round(2)
		}
		if max := totalPool.Sub(platformFee); commission.GreaterThan(max) {
			commission = max
		}
	}

	netPayout := totalPool.Sub(platformFee).Sub(commission)
	if !netPayout.IsPositive() {
		return nil, fmt.Errorf("configuration yields non-positive payout %s", netPayout)
	}

	return &domain.Financials{
		TotalPool:   totalPool,
		PlatformFee: platformFee,
		Commission:  commission,
		NetPayout:   netPayout,
	}, nil
}
