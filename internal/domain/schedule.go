package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CycleDate is one entry of a group's payout schedule, 1-indexed.
// Cycle 1 falls on the collection date itself.
type CycleDate struct {
	CycleNumber int       `json:"cycle_number"`
	PayoutDate  time.Time `json:"payout_date"`
}

// Financials is the per-cycle money breakdown shown to invitees before the
// group activates. Contribution collection itself lives in the wallet system.
type Financials struct {
	TotalPool   decimal.Decimal `json:"total_pool"`
	PlatformFee decimal.Decimal `json:"platform_fee"`
	Commission  decimal.Decimal `json:"commission"`
	NetPayout   decimal.Decimal `json:"net_payout"`
}
