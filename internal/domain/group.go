package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	GroupStatusPendingMembers = "PENDING_MEMBERS"
	GroupStatusReadyToStart   = "READY_TO_START"
	GroupStatusActive         = "ACTIVE"
	GroupStatusPaused         = "PAUSED"
	GroupStatusCompleted      = "COMPLETED"
	GroupStatusCancelled      = "CANCELLED"
)

const (
	FrequencyWeekly    = "WEEKLY"
	FrequencyMonthly   = "MONTHLY"
	FrequencyQuarterly = "QUARTERLY"
)

const (
	PayoutOrderRandom = "RANDOM"
	PayoutOrderFCFS   = "FIRST_COME_FIRST_SERVED"
)

const (
	CommissionTypePercentage = "PERCENTAGE"
	CommissionTypeCash       = "CASH"
)

// EsusuGroup represents a rotating savings group from creation through its
// terminal state. CANCELLED and COMPLETED are archival; rows are never deleted.
type EsusuGroup struct {
	ID                    uuid.UUID           `json:"id" db:"id"`
	CommunityID           string              `json:"community_id" db:"community_id"`
	CreatorID             string              `json:"creator_id" db:"creator_id"`
	Name                  string              `json:"name" db:"name"`
	Description           string              `json:"description" db:"description"`
	IconURL               string              `json:"icon_url" db:"icon_url"`
	NumberOfParticipants  int                 `json:"number_of_participants" db:"number_of_participants"`
	ContributionAmount    decimal.Decimal     `json:"contribution_amount" db:"contribution_amount"`
	Frequency             string              `json:"frequency" db:"frequency"`
	ParticipationDeadline time.Time           `json:"participation_deadline" db:"participation_deadline"`
	CollectionDate        time.Time           `json:"collection_date" db:"collection_date"`
	TakeCommission        bool                `json:"take_commission" db:"take_commission"`
	CommissionType        *string             `json:"commission_type,omitempty" db:"commission_type"`
	CommissionPercentage  decimal.NullDecimal `json:"commission_percentage,omitempty" db:"commission_percentage"`
	CommissionAmount      decimal.NullDecimal `json:"commission_amount,omitempty" db:"commission_amount"`
	PayoutOrderType       string              `json:"payout_order_type" db:"payout_order_type"`
	Status                string              `json:"status" db:"status"`
	CurrentCycle          int                 `json:"current_cycle" db:"current_cycle"`
	CreatedAt             time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at" db:"updated_at"`
}

// IsArchived reports whether the group is in a terminal archival state.
// Archived groups do not hold their name against new groups.
func (g *EsusuGroup) IsArchived() bool {
	return g.Status == GroupStatusCancelled || g.Status == GroupStatusCompleted
}

// DTOs for requests and responses

type CreateGroupRequest struct {
	CreatorID             string          `json:"creator_id" validate:"required"`
	CommunityID           string          `json:"community_id" validate:"required"`
	Name                  string          `json:"name" validate:"required"`
	Description           string          `json:"description"`
	IconURL               string          `json:"icon_url" validate:"omitempty,url"`
	NumberOfParticipants  int             `json:"number_of_participants" validate:"required,gt=0"`
	ContributionAmount    decimal.Decimal `json:"contribution_amount" validate:"required"`
	Frequency             string          `json:"frequency" validate:"required,oneof=WEEKLY MONTHLY QUARTERLY"`
	ParticipationDeadline time.Time       `json:"participation_deadline" validate:"required"`
	CollectionDate        time.Time       `json:"collection_date" validate:"required"`
	TakeCommission        bool            `json:"take_commission"`
	CommissionType        string          `json:"commission_type" validate:"omitempty,oneof=PERCENTAGE CASH"`
	CommissionPercentage  decimal.Decimal `json:"commission_percentage"`
	CommissionAmount      decimal.Decimal `json:"commission_amount"`
	PayoutOrderType       string          `json:"payout_order_type" validate:"required,oneof=RANDOM FIRST_COME_FIRST_SERVED"`
	Roster                []string        `json:"roster" validate:"required,min=1"`
	CreatorSlot           *int            `json:"creator_slot,omitempty"`
}

type GroupSummary struct {
	Group      *EsusuGroup  `json:"group"`
	Financials *Financials  `json:"financials"`
	Schedule   []*CycleDate `json:"schedule"`
}

type EligibilityResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Code    string `json:"code,omitempty"`
}

type NameAvailabilityResponse struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}
