package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/adetunjii/esusu-engine/internal/domain"
	"github.com/adetunjii/esusu-engine/internal/notify"
	"github.com/adetunjii/esusu-engine/internal/repository"
	customError "github.com/adetunjii/esusu-engine/pkg/errors"
)

// SlotService allocates payout slots for first-come-first-served groups.
// The check-and-assign runs under the group's row lock, and the partial
// unique index on (group_id, slot_number) rejects a racing writer at commit.
type SlotService struct {
	repo       repository.GroupRepository
	dispatcher *notify.Dispatcher
	cache      *ViewCache
	clock      Clock
}

func NewSlotService(
	repo repository.GroupRepository,
	dispatcher *notify.Dispatcher,
	cache *ViewCache,
	clock Clock,
) *SlotService {
	return &SlotService{
		repo:       repo,
		dispatcher: dispatcher,
		cache:      cache,
		clock:      clock,
	}
}

// AvailableSlots returns the unclaimed and claimed slot numbers within
// [1, numberOfParticipants], straight from the persisted roster.
func (s *SlotService) AvailableSlots(ctx context.Context, groupID uuid.UUID) (*domain.SlotsResponse, error) {
	group, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapGroupNotFound(groupID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	participants, err := s.repo.GetParticipants(ctx, groupID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	taken := make(map[int]bool, len(participants))
	takenList := make([]int, 0, len(participants))
	for _, p := range participants {
		if p.SlotNumber != nil {
			taken[*p.SlotNumber] = true
		}
	}

	available := make([]int, 0, group.NumberOfParticipants)
	for slot := 1; slot <= group.NumberOfParticipants; slot++ {
		if taken[slot] {
			takenList = append(takenList, slot)
		} else {
			available = append(available, slot)
		}
	}

	return &domain.SlotsResponse{Available: available, Taken: takenList}, nil
}

// SelectSlot claims a payout slot for an accepted participant. A creator who
// never explicitly accepted their own invite is accepted on the way in.
func (s *SlotService) SelectSlot(ctx context.Context, groupID uuid.UUID, userID string, slot int) (*domain.SelectSlotResponse, error) {
	now := s.clock.Now()

	var result domain.SelectSlotResponse
	var notifications []notify.Notification

	err := s.repo.WithGroupTx(ctx, groupID, func(tx repository.GroupTx) error {
		group := tx.Group()

		participants, err := tx.Participants(ctx)
		if err != nil {
			return err
		}

		participant := findParticipant(participants, userID)
		if participant == nil {
			return customError.WrapParticipantNotFound(groupID.String(), userID)
		}
		if group.PayoutOrderType != domain.PayoutOrderFCFS {
			return customError.WrapWrongPayoutOrder()
		}
		if group.Status != domain.GroupStatusPendingMembers {
			return customError.WrapGroupNotPending(group.Status)
		}
		if slot < 1 || slot > group.NumberOfParticipants {
			return customError.WrapValidation(customError.ErrCodeSlotOutOfRange,
				fmt.Sprintf("slot must be between 1 and %d", group.NumberOfParticipants))
		}
		if participant.SlotNumber != nil {
			return customError.WrapSlotAlreadyAssigned(*participant.SlotNumber)
		}
		if participant.InviteStatus != domain.InviteStatusAccepted {
			// Legacy creators kept an INVITED row; claiming a slot
			// doubles as their acceptance.
			if !participant.IsCreator {
				return customError.WrapNotAccepted(userID)
			}
			if err := tx.SetInviteStatus(ctx, userID, domain.InviteStatusAccepted, now); err != nil {
				return err
			}
			participant.InviteStatus = domain.InviteStatusAccepted
			participant.RespondedAt = &now
		}

		for _, p := range participants {
			if p.SlotNumber != nil && *p.SlotNumber == slot {
				return customError.WrapSlotTaken(slot)
			}
		}

		if err := tx.AssignSlot(ctx, userID, slot); err != nil {
			return err
		}
		participant.SlotNumber = &slot
		result.SlotNumber = slot

		if allAccepted(participants) && allSlotsAssigned(participants) {
			if err := tx.SetGroupStatus(ctx, domain.GroupStatusReadyToStart); err != nil {
				return err
			}
			result.Ready = true
			notifications = readyNotifications(group)
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapGroupNotFound(groupID.String())
		}
		if repository.IsUniqueViolation(err, repository.ConstraintSlotUnique) {
			return nil, customError.WrapSlotTaken(slot)
		}
		var be *customError.BusinessError
		if errors.As(err, &be) {
			return nil, be
		}
		return nil, customError.WrapDatabaseError(err)
	}

	s.cache.Invalidate(ctx, groupID)
	s.dispatcher.Dispatch(notifications...)

	return &result, nil
}

func allSlotsAssigned(participants []*domain.EsusuParticipant) bool {
	for _, p := range participants {
		if p.SlotNumber == nil {
			return false
		}
	}
	return true
}
