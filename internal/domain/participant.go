package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	InviteStatusInvited  = "INVITED"
	InviteStatusAccepted = "ACCEPTED"
	InviteStatusDeclined = "DECLINED"
)

// EsusuParticipant is one invited user in a group. Exactly
// NumberOfParticipants rows exist per group, fixed at creation; a decline
// marks the row DECLINED rather than removing it.
type EsusuParticipant struct {
	GroupID      uuid.UUID  `json:"group_id" db:"group_id"`
	UserID       string     `json:"user_id" db:"user_id"`
	UserName     string     `json:"user_name" db:"user_name"`
	InviteStatus string     `json:"invite_status" db:"invite_status"`
	IsCreator    bool       `json:"is_creator" db:"is_creator"`
	SlotNumber   *int       `json:"slot_number,omitempty" db:"slot_number"`
	RespondedAt  *time.Time `json:"responded_at,omitempty" db:"responded_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// HasSlot reports whether the participant holds a payout slot.
func (p *EsusuParticipant) HasSlot() bool {
	return p.SlotNumber != nil
}

// DTOs for requests and responses

type RespondRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Accept *bool  `json:"accept" validate:"required"`
}

type RespondResponse struct {
	InviteStatus string `json:"invite_status"`
	Cancelled    bool   `json:"cancelled"`
	Ready        bool   `json:"ready"`
}

type SelectSlotRequest struct {
	UserID     string `json:"user_id" validate:"required"`
	SlotNumber int    `json:"slot_number" validate:"required,gt=0"`
}

type SelectSlotResponse struct {
	SlotNumber int  `json:"slot_number"`
	Ready      bool `json:"ready"`
}

type SlotsResponse struct {
	Available []int `json:"available"`
	Taken     []int `json:"taken"`
}

// WaitingRoomEntry is one roster row in the pre-activation view.
type WaitingRoomEntry struct {
	UserID       string `json:"user_id"`
	UserName     string `json:"user_name"`
	InviteStatus string `json:"invite_status"`
	IsCreator    bool   `json:"is_creator"`
	SlotNumber   *int   `json:"slot_number,omitempty"`
}

type WaitingRoomView struct {
	GroupID       uuid.UUID           `json:"group_id"`
	GroupName     string              `json:"group_name"`
	Status        string              `json:"status"`
	AcceptedCount int                 `json:"accepted_count"`
	PendingCount  int                 `json:"pending_count"`
	DeclinedCount int                 `json:"declined_count"`
	Roster        []*WaitingRoomEntry `json:"roster"`
}
