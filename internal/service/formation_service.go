package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adetunjii/esusu-engine/internal/config"
	"github.com/adetunjii/esusu-engine/internal/directory"
	"github.com/adetunjii/esusu-engine/internal/domain"
	"github.com/adetunjii/esusu-engine/internal/esusu"
	"github.com/adetunjii/esusu-engine/internal/notify"
	"github.com/adetunjii/esusu-engine/internal/repository"
	customError "github.com/adetunjii/esusu-engine/pkg/errors"
)

const minNameLength = 3

// FormationService owns the group-creation workflow: eligibility, input
// validation, transactional persistence of the group plus its roster, and
// post-commit invitations.
type FormationService struct {
	repo       repository.GroupRepository
	directory  directory.MembershipDirectory
	dispatcher *notify.Dispatcher
	cache      *ViewCache
	clock      Clock
	config     *config.Config
}

func NewFormationService(
	repo repository.GroupRepository,
	dir directory.MembershipDirectory,
	dispatcher *notify.Dispatcher,
	cache *ViewCache,
	clock Clock,
	cfg *config.Config,
) *FormationService {
	return &FormationService{
		repo:       repo,
		directory:  dir,
		dispatcher: dispatcher,
		cache:      cache,
		clock:      clock,
		config:     cfg,
	}
}

// CheckEligibility reports whether userID may create an esusu group in the
// community. A disallowed community is a normal answer, not an error.
func (s *FormationService) CheckEligibility(ctx context.Context, communityID, userID string) (*domain.EligibilityResponse, error) {
	result, err := s.evaluateEligibility(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}

	return &domain.EligibilityResponse{
		Allowed: result.Allowed,
		Code:    result.Code,
		Reason:  result.Reason,
	}, nil
}

func (s *FormationService) evaluateEligibility(ctx context.Context, communityID, userID string) (esusu.Eligibility, error) {
	community, err := s.directory.GetCommunity(ctx, communityID)
	if err != nil {
		return esusu.Eligibility{}, customError.WrapDatabaseError(err)
	}
	if community == nil {
		return esusu.Eligibility{}, customError.WrapCommunityNotFound(communityID)
	}

	member, err := s.directory.GetMember(ctx, communityID, userID)
	if err != nil {
		return esusu.Eligibility{}, customError.WrapDatabaseError(err)
	}

	role := ""
	if member != nil && member.IsActive {
		role = member.Role
	}

	memberCount, err := s.directory.CountMembers(ctx, communityID)
	if err != nil {
		return esusu.Eligibility{}, customError.WrapDatabaseError(err)
	}

	return esusu.EvaluateEligibility(esusu.EligibilityInput{
		RequesterRole:      role,
		MemberCount:        memberCount,
		HasGroupWallet:     community.HasGroupWallet,
		IsDefaultCommunity: community.IsDefault,
	}, s.config.Business.MinGroupSize), nil
}

// CheckNameAvailability reports whether name can be used for a new group in
// the community. Reserved names and names held by non-archived groups are
// unavailable.
func (s *FormationService) CheckNameAvailability(ctx context.Context, communityID, name string) (*domain.NameAvailabilityResponse, error) {
	if err := s.validateName(name); err != nil {
		reason := err.Error()
		var be *customError.BusinessError
		if errors.As(err, &be) {
			reason = be.Message
		}
		return &domain.NameAvailabilityResponse{Available: false, Reason: reason}, nil
	}

	exists, err := s.repo.NameExists(ctx, communityID, strings.TrimSpace(name))
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if exists {
		return &domain.NameAvailabilityResponse{Available: false, Reason: "name already in use"}, nil
	}

	return &domain.NameAvailabilityResponse{Available: true}, nil
}

func (s *FormationService) validateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < minNameLength {
		return customError.WrapValidation(customError.ErrCodeInvalidGroupName,
			fmt.Sprintf("group name must be at least %d characters", minNameLength))
	}

	lowered := strings.ToLower(trimmed)
	for _, reserved := range s.config.GetReservedGroupNames() {
		if lowered == reserved {
			return customError.WrapValidation(customError.ErrCodeNameReserved,
				fmt.Sprintf("group name %q is reserved", trimmed))
		}
	}

	return nil
}

// CreateGroup validates the request and persists the group with its full
// participant roster in one transaction. The creator's row starts ACCEPTED;
// everyone else starts INVITED. Invitations go out after commit.
func (s *FormationService) CreateGroup(ctx context.Context, req *domain.CreateGroupRequest) (*domain.GroupSummary, error) {
	now := s.clock.Now()

	// 1. Name shape and blocklist
	if err := s.validateName(req.Name); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)

	// 2. Community eligibility
	eligibility, err := s.evaluateEligibility(ctx, req.CommunityID, req.CreatorID)
	if err != nil {
		return nil, err
	}
	if !eligibility.Allowed {
		return nil, customError.WrapNotEligible(eligibility.Code, eligibility.Reason)
	}

	// 3. Name availability among non-archived groups
	taken, err := s.repo.NameExists(ctx, req.CommunityID, name)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if taken {
		return nil, customError.WrapNameTaken(name)
	}

	// 4. Deadline strictly in the future
	if !req.ParticipationDeadline.After(now) {
		return nil, customError.WrapValidation(customError.ErrCodeInvalidSchedule,
			"participation deadline must be in the future")
	}

	// 5. Collection date leaves the policy buffer after the deadline
	buffer := s.config.GetMinDeadlineBuffer()
	if req.CollectionDate.Sub(req.ParticipationDeadline) < buffer {
		return nil, customError.WrapValidation(customError.ErrCodeInvalidSchedule,
			fmt.Sprintf("collection date must be at least %s after the participation deadline", buffer))
	}

	if !req.ContributionAmount.IsPositive() {
		return nil, customError.WrapValidation(customError.ErrCodeInvalidAmount,
			"contribution amount must be greater than zero")
	}

	// 6. Roster size, distinctness, resolvability
	roster, err := s.resolveRoster(ctx, req)
	if err != nil {
		return nil, err
	}

	// 7. Commission consistency and positive payout
	commission, err := s.validateCommission(req)
	if err != nil {
		return nil, err
	}

	financials, err := esusu.ComputeFinancials(req.ContributionAmount, req.NumberOfParticipants,
		s.config.GetPlatformFeeRate(), commission)
	if err != nil {
		return nil, customError.WrapValidation(customError.ErrCodeInvalidCommission, err.Error())
	}

	// 8. FCFS creator pre-slot in range
	if req.CreatorSlot != nil {
		if req.PayoutOrderType != domain.PayoutOrderFCFS {
			return nil, customError.WrapValidation(customError.ErrCodeSlotOutOfRange,
				"creator slot only applies to first-come-first-served groups")
		}
		if *req.CreatorSlot < 1 || *req.CreatorSlot > req.NumberOfParticipants {
			return nil, customError.WrapValidation(customError.ErrCodeSlotOutOfRange,
				fmt.Sprintf("creator slot must be between 1 and %d", req.NumberOfParticipants))
		}
	}

	group := &domain.EsusuGroup{
		ID:                    uuid.New(),
		CommunityID:           req.CommunityID,
		CreatorID:             req.CreatorID,
		Name:                  name,
		Description:           req.Description,
		IconURL:               req.IconURL,
		NumberOfParticipants:  req.NumberOfParticipants,
		ContributionAmount:    req.ContributionAmount,
		Frequency:             req.Frequency,
		ParticipationDeadline: req.ParticipationDeadline,
		CollectionDate:        req.CollectionDate,
		TakeCommission:        req.TakeCommission,
		PayoutOrderType:       req.PayoutOrderType,
		Status:                domain.GroupStatusPendingMembers,
		CurrentCycle:          0,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if req.TakeCommission {
		commissionType := req.CommissionType
		group.CommissionType = &commissionType
		switch commissionType {
		case domain.CommissionTypeCash:
			group.CommissionAmount = decimal.NewNullDecimal(req.CommissionAmount)
		default:
			group.CommissionPercentage = decimal.NewNullDecimal(req.CommissionPercentage)
		}
	}

	participants := make([]*domain.EsusuParticipant, 0, len(roster))
	for _, member := range roster {
		p := &domain.EsusuParticipant{
			GroupID:      group.ID,
			UserID:       member.UserID,
			UserName:     member.UserName,
			InviteStatus: domain.InviteStatusInvited,
			CreatedAt:    now,
		}
		if member.UserID == req.CreatorID {
			respondedAt := now
			p.IsCreator = true
			p.InviteStatus = domain.InviteStatusAccepted
			p.RespondedAt = &respondedAt
			if req.CreatorSlot != nil {
				slot := *req.CreatorSlot
				p.SlotNumber = &slot
			}
		}
		participants = append(participants, p)
	}

	if err := s.repo.CreateGroup(ctx, group, participants); err != nil {
		if repository.IsUniqueViolation(err, repository.ConstraintNameUnique) {
			return nil, customError.WrapNameTaken(name)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	s.dispatcher.Dispatch(s.creationNotifications(group, participants, financials)...)

	return &domain.GroupSummary{
		Group:      group,
		Financials: financials,
		Schedule:   esusu.GenerateSchedule(group.CollectionDate, group.Frequency, group.NumberOfParticipants),
	}, nil
}

func (s *FormationService) resolveRoster(ctx context.Context, req *domain.CreateGroupRequest) ([]*directory.Member, error) {
	if len(req.Roster) != req.NumberOfParticipants {
		return nil, customError.WrapValidation(customError.ErrCodeInvalidRoster,
			fmt.Sprintf("roster has %d users, group needs exactly %d", len(req.Roster), req.NumberOfParticipants))
	}

	seen := make(map[string]bool, len(req.Roster))
	containsCreator := false
	roster := make([]*directory.Member, 0, len(req.Roster))

	for _, userID := range req.Roster {
		if seen[userID] {
			return nil, customError.WrapValidation(customError.ErrCodeInvalidRoster,
				fmt.Sprintf("duplicate user %s in roster", userID))
		}
		seen[userID] = true

		member, err := s.directory.GetMember(ctx, req.CommunityID, userID)
		if err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
		if member == nil || !member.IsActive {
			return nil, customError.WrapValidation(customError.ErrCodeInvalidRoster,
				fmt.Sprintf("user %s is not an active community member", userID))
		}

		if userID == req.CreatorID {
			containsCreator = true
		}
		roster = append(roster, member)
	}

	if !containsCreator {
		return nil, customError.WrapValidation(customError.ErrCodeInvalidRoster,
			"creator must be part of the roster")
	}

	return roster, nil
}

func (s *FormationService) validateCommission(req *domain.CreateGroupRequest) (esusu.CommissionSpec, error) {
	if !req.TakeCommission {
		if req.CommissionType != "" || req.CommissionPercentage.IsPositive() || req.CommissionAmount.IsPositive() {
			return esusu.CommissionSpec{}, customError.WrapValidation(customError.ErrCodeInvalidCommission,
				"commission settings require take_commission to be true")
		}
		return esusu.CommissionSpec{}, nil
	}

	switch req.CommissionType {
	case domain.CommissionTypePercentage:
		if req.CommissionAmount.IsPositive() {
			return esusu.CommissionSpec{}, customError.WrapValidation(customError.ErrCodeInvalidCommission,
				"percentage commission cannot carry a cash amount")
		}
		min, max := s.config.GetCommissionMinPercent(), s.config.GetCommissionMaxPercent()
		if req.CommissionPercentage.LessThan(min) || req.CommissionPercentage.GreaterThan(max) {
			return esusu.CommissionSpec{}, customError.WrapValidation(customError.ErrCodeInvalidCommission,
				fmt.Sprintf("commission percentage must be between %s%% and %s%%", min, max))
		}
		return esusu.CommissionSpec{
			Take:       true,
			Type:       domain.CommissionTypePercentage,
			Percentage: req.CommissionPercentage,
		}, nil
	case domain.CommissionTypeCash:
		if req.CommissionPercentage.IsPositive() {
			return esusu.CommissionSpec{}, customError.WrapValidation(customError.ErrCodeInvalidCommission,
				"cash commission cannot carry a percentage")
		}
		if req.CommissionAmount.LessThan(s.config.GetCommissionMinAmount()) {
			return esusu.CommissionSpec{}, customError.WrapValidation(customError.ErrCodeInvalidCommission,
				fmt.Sprintf("cash commission must be at least %s", s.config.GetCommissionMinAmount()))
		}
		return esusu.CommissionSpec{
			Take:   true,
			Type:   domain.CommissionTypeCash,
			Amount: req.CommissionAmount,
		}, nil
	default:
		return esusu.CommissionSpec{}, customError.WrapValidation(customError.ErrCodeInvalidCommission,
			"commission type must be PERCENTAGE or CASH when take_commission is set")
	}
}

func (s *FormationService) creationNotifications(group *domain.EsusuGroup, participants []*domain.EsusuParticipant, financials *domain.Financials) []notify.Notification {
	notifications := []notify.Notification{{
		UserID: group.CreatorID,
		Title:  "Esusu group created",
		Body:   fmt.Sprintf("Your group %q is ready for participants to join.", group.Name),
		Metadata: map[string]string{
			"group_id": group.ID.String(),
			"event":    "group_created",
		},
	}}

	for _, p := range participants {
		if p.IsCreator {
			continue
		}
		notifications = append(notifications, notify.Notification{
			UserID: p.UserID,
			Title:  "Esusu invitation",
			Body: fmt.Sprintf("You have been invited to %q: contribute %s %s and receive a payout of %s.",
				group.Name, group.ContributionAmount, strings.ToLower(group.Frequency), financials.NetPayout),
			Metadata: map[string]string{
				"group_id":            group.ID.String(),
				"event":               "invitation",
				"contribution_amount": group.ContributionAmount.String(),
				"net_payout":          financials.NetPayout.String(),
				"frequency":           group.Frequency,
				"deadline":            group.ParticipationDeadline.Format(time.RFC3339),
			},
		})
	}

	return notifications
}

// WaitingRoom returns the pre-activation roster view: creator first, slot
// holders by slot ascending, then unassigned participants by name.
func (s *FormationService) WaitingRoom(ctx context.Context, groupID uuid.UUID) (*domain.WaitingRoomView, error) {
	if view, ok := s.cache.GetWaitingRoom(ctx, groupID); ok {
		return view, nil
	}

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

	view := buildWaitingRoom(group, participants)
	s.cache.SetWaitingRoom(ctx, view)

	return view, nil
}

func buildWaitingRoom(group *domain.EsusuGroup, participants []*domain.EsusuParticipant) *domain.WaitingRoomView {
	view := &domain.WaitingRoomView{
		GroupID:   group.ID,
		GroupName: group.Name,
		Status:    group.Status,
		Roster:    make([]*domain.WaitingRoomEntry, 0, len(participants)),
	}

	for _, p := range participants {
		switch p.InviteStatus {
		case domain.InviteStatusAccepted:
			view.AcceptedCount++
		case domain.InviteStatusInvited:
			view.PendingCount++
		case domain.InviteStatusDeclined:
			view.DeclinedCount++
		}
		view.Roster = append(view.Roster, &domain.WaitingRoomEntry{
			UserID:       p.UserID,
			UserName:     p.UserName,
			InviteStatus: p.InviteStatus,
			IsCreator:    p.IsCreator,
			SlotNumber:   p.SlotNumber,
		})
	}

	sort.SliceStable(view.Roster, func(i, j int) bool {
		a, b := view.Roster[i], view.Roster[j]
		if a.IsCreator != b.IsCreator {
			return a.IsCreator
		}
		switch {
		case a.SlotNumber != nil && b.SlotNumber != nil:
			return *a.SlotNumber < *b.SlotNumber
		case a.SlotNumber != nil:
			return true
		case b.SlotNumber != nil:
			return false
		default:
			return a.UserName < b.UserName
		}
	})

	return view
}
