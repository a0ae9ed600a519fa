package esusu

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adetunjii/esusu-engine/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerateSchedule(t *testing.T) {
	tests := []struct {
		name          string
		collection    time.Time
		frequency     string
		cycles        int
		expectedDates []time.Time
	}{
		{
			name:       "monthly steps by calendar month",
			collection: date(2025, time.January, 1),
			frequency:  domain.FrequencyMonthly,
			cycles:     3,
			expectedDates: []time.Time{
				date(2025, time.January, 1),
				date(2025, time.February, 1),
				date(2025, time.March, 1),
			},
		},
		{
			name:       "weekly steps by seven days",
			collection: date(2025, time.March, 31),
			frequency:  domain.FrequencyWeekly,
			cycles:     3,
			expectedDates: []time.Time{
				date(2025, time.March, 31),
				date(2025, time.April, 7),
				date(2025, time.April, 14),
			},
		},
		{
			name:       "quarterly steps by three months",
			collection: date(2025, time.November, 15),
			frequency:  domain.FrequencyQuarterly,
			cycles:     3,
			expectedDates: []time.Time{
				date(2025, time.November, 15),
				date(2026, time.February, 15),
				date(2026, time.May, 15),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule := GenerateSchedule(tt.collection, tt.frequency, tt.cycles)

			require.Len(t, schedule, tt.cycles)
			for i, entry := range schedule {
				assert.Equal(t, i+1, entry.CycleNumber)
				assert.True(t, entry.PayoutDate.Equal(tt.expectedDates[i]),
					"cycle %d: expected %s, got %s", i+1, tt.expectedDates[i], entry.PayoutDate)
			}
		})
	}
}

func TestGenerateScheduleIsRestartable(t *testing.T) {
	collection := date(2025, time.June, 1)

	first := GenerateSchedule(collection, domain.FrequencyMonthly, 5)
	second := GenerateSchedule(collection, domain.FrequencyMonthly, 5)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].CycleNumber, second[i].CycleNumber)
		assert.True(t, first[i].PayoutDate.Equal(second[i].PayoutDate))
	}
}

func TestComputeFinancials(t *testing.T) {
	feeRate := decimal.RequireFromString("0.015")

	tests := []struct {
		name         string
		contribution decimal.Decimal
		participants int
		commission   CommissionSpec
		expected     *domain.Financials
		expectError  bool
	}{
		{
			name:         "no commission",
			contribution: decimal.NewFromInt(1000),
			participants: 5,
			expected: &domain.Financials{
				TotalPool:   decimal.NewFromInt(5000),
				PlatformFee: decimal.NewFromInt(75),
				Commission:  decimal.Zero,
				NetPayout:   decimal.NewFromInt(4925),
			},
		},
		{
			name:         "percentage commission",
			contribution: decimal.NewFromInt(1000),
			participants: 5,
			commission: CommissionSpec{
				Take:       true,
				Type:       domain.CommissionTypePercentage,
				Percentage: decimal.NewFromInt(2),
			},
			expected: &domain.Financials{
				TotalPool:   decimal.NewFromInt(5000),
				PlatformFee: decimal.NewFromInt(75),
				Commission:  decimal.NewFromInt(100),
				NetPayout:   decimal.NewFromInt(4825),
			},
		},
		{
			name:         "cash commission",
			contribution: decimal.NewFromInt(500),
			participants: 4,
			commission: CommissionSpec{
				Take:   true,
				Type:   domain.CommissionTypeCash,
				Amount: decimal.NewFromInt(150),
			},
			expected: &domain.Financials{
				TotalPool:   decimal.NewFromInt(2000),
				PlatformFee: decimal.NewFromInt(30),
				Commission:  decimal.NewFromInt(150),
				NetPayout:   decimal.NewFromInt(1820),
			},
		},
		{
			name:         "cash commission capped at pool minus fee",
			contribution: decimal.NewFromInt(100),
			participants: 3,
			commission: CommissionSpec{
				Take:   true,
				Type:   domain.CommissionTypeCash,
				Amount: decimal.NewFromInt(500),
			},
			expectError: true, // cap leaves zero payout
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ComputeFinancials(tt.contribution, tt.participants, feeRate, tt.commission)

			if tt.expectError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.True(t, tt.expected.TotalPool.Equal(result.TotalPool), "total pool %s", result.TotalPool)
			assert.True(t, tt.expected.PlatformFee.Equal(result.PlatformFee), "platform fee %s", result.PlatformFee)
			assert.True(t, tt.expected.Commission.Equal(result.Commission), "commission %s", result.Commission)
			assert.True(t, tt.expected.NetPayout.Equal(result.NetPayout), "net payout %s", result.NetPayout)
		})
	}
}
