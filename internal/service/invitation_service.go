package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/adetunjii/esusu-engine/internal/config"
	"github.com/adetunjii/esusu-engine/internal/domain"
	"github.com/adetunjii/esusu-engine/internal/notify"
	"github.com/adetunjii/esusu-engine/internal/repository"
	customError "github.com/adetunjii/esusu-engine/pkg/errors"
)

// InvitationService owns the invitation state machine. A participant moves
// INVITED -> ACCEPTED or INVITED -> DECLINED exactly once; declines cascade
// into cancellation when the group drops below viable size. The whole
// read-check-write runs under the group's row lock so concurrent responses
// on one group serialize.
type InvitationService struct {
	repo       repository.GroupRepository
	dispatcher *notify.Dispatcher
	cache      *ViewCache
	clock      Clock
	config     *config.Config
}

func NewInvitationService(
	repo repository.GroupRepository,
	dispatcher *notify.Dispatcher,
	cache *ViewCache,
	clock Clock,
	cfg *config.Config,
) *InvitationService {
	return &InvitationService{
		repo:       repo,
		dispatcher: dispatcher,
		cache:      cache,
		clock:      clock,
		config:     cfg,
	}
}

// Respond records a participant's accept or decline. A decline that drops
// the still-viable count below the minimum cancels the group; that is a
// successful decline with Cancelled set, not an error.
func (s *InvitationService) Respond(ctx context.Context, groupID uuid.UUID, userID string, accept bool) (*domain.RespondResponse, error) {
	now := s.clock.Now()

	var result domain.RespondResponse
	var notifications []notify.Notification

	err := s.repo.WithGroupTx(ctx, groupID, func(tx repository.GroupTx) error {
		group := tx.Group()

		if group.Status != domain.GroupStatusPendingMembers {
			return customError.WrapGroupNotPending(group.Status)
		}
		if now.After(group.ParticipationDeadline) {
			return customError.WrapDeadlinePassed()
		}

		participants, err := tx.Participants(ctx)
		if err != nil {
			return err
		}

		participant := findParticipant(participants, userID)
		if participant == nil {
			return customError.WrapParticipantNotFound(groupID.String(), userID)
		}
		if participant.IsCreator && !accept {
			return customError.WrapCreatorCannotDecline()
		}
		if participant.InviteStatus != domain.InviteStatusInvited {
			return customError.WrapAlreadyResponded(userID)
		}

		if accept {
			participant.InviteStatus = domain.InviteStatusAccepted
			participant.RespondedAt = &now
			if err := tx.SetInviteStatus(ctx, userID, domain.InviteStatusAccepted, now); err != nil {
				return err
			}
			result.InviteStatus = domain.InviteStatusAccepted

			// FCFS groups become ready only once every slot is also
			// claimed; the slot allocator runs that check.
			if group.PayoutOrderType == domain.PayoutOrderRandom && allAccepted(participants) {
				if err := tx.SetGroupStatus(ctx, domain.GroupStatusReadyToStart); err != nil {
					return err
				}
				result.Ready = true
				notifications = readyNotifications(group)
			} else {
				notifications = []notify.Notification{acceptNotification(group, participant, participants)}
			}
			return nil
		}

		participant.InviteStatus = domain.InviteStatusDeclined
		participant.RespondedAt = &now
		if err := tx.SetInviteStatus(ctx, userID, domain.InviteStatusDeclined, now); err != nil {
			return err
		}
		result.InviteStatus = domain.InviteStatusDeclined

		cancelled, cancelNotes, err := s.cancelIfBelowMinimum(ctx, tx, participant, participants)
		if err != nil {
			return err
		}
		result.Cancelled = cancelled
		if cancelled {
			notifications = cancelNotes
		} else {
			notifications = []notify.Notification{declineNotification(group, participant, participants)}
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapGroupNotFound(groupID.String())
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

// cancelIfBelowMinimum is the cancellation coordinator: after a decline it
// counts the still-viable roster (ACCEPTED or INVITED) and cancels the group
// when fewer than the minimum remain. Runs inside the decline's transaction.
func (s *InvitationService) cancelIfBelowMinimum(ctx context.Context, tx repository.GroupTx, decliner *domain.EsusuParticipant, participants []*domain.EsusuParticipant) (bool, []notify.Notification, error) {
	group := tx.Group()
	if group.Status != domain.GroupStatusPendingMembers {
		return false, nil, nil
	}

	remaining := 0
	for _, p := range participants {
		if p.InviteStatus == domain.InviteStatusAccepted || p.InviteStatus == domain.InviteStatusInvited {
			remaining++
		}
	}

	if remaining >= s.config.Business.MinGroupSize {
		return false, nil, nil
	}

	if err := tx.SetGroupStatus(ctx, domain.GroupStatusCancelled); err != nil {
		return false, nil, err
	}

	return true, cancellationNotifications(group, decliner, participants), nil
}

func findParticipant(participants []*domain.EsusuParticipant, userID string) *domain.EsusuParticipant {
	for _, p := range participants {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func allAccepted(participants []*domain.EsusuParticipant) bool {
	for _, p := range participants {
		if p.InviteStatus != domain.InviteStatusAccepted {
			return false
		}
	}
	return true
}

func countByStatus(participants []*domain.EsusuParticipant, status string) int {
	count := 0
	for _, p := range participants {
		if p.InviteStatus == status {
			count++
		}
	}
	return count
}

func acceptNotification(group *domain.EsusuGroup, participant *domain.EsusuParticipant, participants []*domain.EsusuParticipant) notify.Notification {
	accepted := countByStatus(participants, domain.InviteStatusAccepted)
	pending := countByStatus(participants, domain.InviteStatusInvited)
	return notify.Notification{
		UserID: group.CreatorID,
		Title:  "Invitation accepted",
		Body: fmt.Sprintf("%s joined %q. %d accepted, %d pending.",
			participant.UserName, group.Name, accepted, pending),
		Metadata: map[string]string{
			"group_id": group.ID.String(),
			"event":    "invitation_accepted",
			"user_id":  participant.UserID,
		},
	}
}

func declineNotification(group *domain.EsusuGroup, participant *domain.EsusuParticipant, participants []*domain.EsusuParticipant) notify.Notification {
	accepted := countByStatus(participants, domain.InviteStatusAccepted)
	pending := countByStatus(participants, domain.InviteStatusInvited)
	return notify.Notification{
		UserID: group.CreatorID,
		Title:  "Invitation declined",
		Body: fmt.Sprintf("%s declined to join %q. %d accepted, %d pending.",
			participant.UserName, group.Name, accepted, pending),
		Metadata: map[string]string{
			"group_id": group.ID.String(),
			"event":    "invitation_declined",
			"user_id":  participant.UserID,
		},
	}
}

func readyNotifications(group *domain.EsusuGroup) []notify.Notification {
	return []notify.Notification{{
		UserID: group.CreatorID,
		Title:  "Esusu group ready",
		Body:   fmt.Sprintf("Everyone accepted; %q is ready to start.", group.Name),
		Metadata: map[string]string{
			"group_id": group.ID.String(),
			"event":    "group_ready",
		},
	}}
}

func cancellationNotifications(group *domain.EsusuGroup, decliner *domain.EsusuParticipant, participants []*domain.EsusuParticipant) []notify.Notification {
	notifications := []notify.Notification{{
		UserID: group.CreatorID,
		Title:  "Esusu group cancelled",
		Body: fmt.Sprintf("%q was cancelled: too few participants remain after %s declined.",
			group.Name, decliner.UserName),
		Metadata: map[string]string{
			"group_id": group.ID.String(),
			"event":    "group_cancelled",
			"reason":   "insufficient_participants",
		},
	}}

	for _, p := range participants {
		if p.UserID == group.CreatorID || p.UserID == decliner.UserID {
			continue
		}
		switch p.InviteStatus {
		case domain.InviteStatusAccepted:
			notifications = append(notifications, notify.Notification{
				UserID: p.UserID,
				Title:  "Esusu group cancelled",
				Body:   fmt.Sprintf("%q was cancelled because too few participants remained.", group.Name),
				Metadata: map[string]string{
					"group_id": group.ID.String(),
					"event":    "group_cancelled",
				},
			})
		case domain.InviteStatusInvited:
			notifications = append(notifications, notify.Notification{
				UserID: p.UserID,
				Title:  "Esusu invitation withdrawn",
				Body:   fmt.Sprintf("Your invitation to %q is no longer valid; the group was cancelled.", group.Name),
				Metadata: map[string]string{
					"group_id": group.ID.String(),
					"event":    "invitation_void",
				},
			})
		}
	}

	return notifications
}
