package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a business error so the transport layer can map it to a
// response status without matching on individual codes.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindState
	KindNotFound
	KindAuthorization
)

// Domain errors
var (
	ErrGroupNotFound        = errors.New("esusu group not found")
	ErrParticipantNotFound  = errors.New("participant not found")
	ErrCommunityNotFound    = errors.New("community not found")
	ErrNameTaken            = errors.New("group name already in use")
	ErrSlotTaken            = errors.New("slot already taken")
	ErrAlreadyResponded     = errors.New("invitation already responded to")
	ErrDeadlinePassed       = errors.New("participation deadline has passed")
	ErrCreatorCannotDecline = errors.New("creator cannot decline own invitation")
	ErrGroupNotPending      = errors.New("group is not accepting responses")
	ErrNotEligible          = errors.New("community is not eligible for esusu")
	ErrNotAccepted          = errors.New("participant has not accepted the invitation")
	ErrSlotAlreadyAssigned  = errors.New("participant already holds a slot")
	ErrWrongPayoutOrder     = errors.New("group does not use slot selection")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(kind Kind, code, message string, err error) *BusinessError {
	return &BusinessError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// KindOf returns err's kind if it is a BusinessError, KindInternal otherwise.
func KindOf(err error) Kind {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindInternal
}

// CodeOf returns err's code if it is a BusinessError, empty otherwise.
func CodeOf(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// Error codes
const (
	ErrCodeGroupNotFound        = "GROUP_NOT_FOUND"
	ErrCodeParticipantNotFound  = "PARTICIPANT_NOT_FOUND"
	ErrCodeCommunityNotFound    = "COMMUNITY_NOT_FOUND"
	ErrCodeNameTaken            = "GROUP_NAME_TAKEN"
	ErrCodeNameReserved         = "GROUP_NAME_RESERVED"
	ErrCodeSlotTaken            = "SLOT_TAKEN"
	ErrCodeSlotOutOfRange       = "SLOT_OUT_OF_RANGE"
	ErrCodeSlotAlreadyAssigned  = "SLOT_ALREADY_ASSIGNED"
	ErrCodeAlreadyResponded     = "ALREADY_RESPONDED"
	ErrCodeDeadlinePassed       = "DEADLINE_PASSED"
	ErrCodeCreatorCannotDecline = "CREATOR_CANNOT_DECLINE"
	ErrCodeGroupNotPending      = "GROUP_NOT_PENDING"
	ErrCodeWrongPayoutOrder     = "WRONG_PAYOUT_ORDER"
	ErrCodeNotAccepted          = "NOT_ACCEPTED"
	ErrCodeNotAdmin             = "NOT_ADMIN"
	ErrCodeInvalidRoster        = "INVALID_ROSTER"
	ErrCodeInvalidCommission    = "INVALID_COMMISSION"
	ErrCodeInvalidSchedule      = "INVALID_SCHEDULE"
	ErrCodeInvalidGroupName     = "INVALID_GROUP_NAME"
	ErrCodeInvalidAmount        = "INVALID_AMOUNT"
	ErrCodeDatabaseError        = "DATABASE_ERROR"
)

// Wrap common errors with business context

func WrapGroupNotFound(groupID string) *BusinessError {
	return NewBusinessError(
		KindNotFound,
		ErrCodeGroupNotFound,
		fmt.Sprintf("Esusu group %s not found", groupID),
		ErrGroupNotFound,
	)
}

func WrapParticipantNotFound(groupID, userID string) *BusinessError {
	return NewBusinessError(
		KindNotFound,
		ErrCodeParticipantNotFound,
		fmt.Sprintf("User %s is not a participant of group %s", userID, groupID),
		ErrParticipantNotFound,
	)
}

func WrapCommunityNotFound(communityID string) *BusinessError {
	return NewBusinessError(
		KindNotFound,
		ErrCodeCommunityNotFound,
		fmt.Sprintf("Community %s not found", communityID),
		ErrCommunityNotFound,
	)
}

func WrapNameTaken(name string) *BusinessError {
	return NewBusinessError(
		KindConflict,
		ErrCodeNameTaken,
		fmt.Sprintf("An active esusu group named %q already exists in this community", name),
		ErrNameTaken,
	)
}

func WrapSlotTaken(slot int) *BusinessError {
	return NewBusinessError(
		KindConflict,
		ErrCodeSlotTaken,
		fmt.Sprintf("Slot %d is already taken", slot),
		ErrSlotTaken,
	)
}

func WrapSlotAlreadyAssigned(slot int) *BusinessError {
	return NewBusinessError(
		KindState,
		ErrCodeSlotAlreadyAssigned,
		fmt.Sprintf("Participant already holds slot %d", slot),
		ErrSlotAlreadyAssigned,
	)
}

func WrapAlreadyResponded(userID string) *BusinessError {
	return NewBusinessError(
		KindState,
		ErrCodeAlreadyResponded,
		fmt.Sprintf("User %s has already responded to this invitation", userID),
		ErrAlreadyResponded,
	)
}

func WrapDeadlinePassed() *BusinessError {
	return NewBusinessError(
		KindState,
		ErrCodeDeadlinePassed,
		"The participation deadline for this group has passed",
		ErrDeadlinePassed,
	)
}

func WrapCreatorCannotDecline() *BusinessError {
	return NewBusinessError(
		KindState,
		ErrCodeCreatorCannotDecline,
		"The creator cannot decline; cancel the group instead",
		ErrCreatorCannotDecline,
	)
}

func WrapGroupNotPending(status string) *BusinessError {
	return NewBusinessError(
		KindState,
		ErrCodeGroupNotPending,
		fmt.Sprintf("Group is %s and no longer accepting responses", status),
		ErrGroupNotPending,
	)
}

func WrapWrongPayoutOrder() *BusinessError {
	return NewBusinessError(
		KindState,
		ErrCodeWrongPayoutOrder,
		"Slot selection only applies to first-come-first-served groups",
		ErrWrongPayoutOrder,
	)
}

func WrapNotAccepted(userID string) *BusinessError {
	return NewBusinessError(
		KindState,
		ErrCodeNotAccepted,
		fmt.Sprintf("User %s must accept the invitation before selecting a slot", userID),
		ErrNotAccepted,
	)
}

func WrapNotEligible(code, reason string) *BusinessError {
	kind := KindValidation
	if code == ErrCodeNotAdmin {
		kind = KindAuthorization
	}
	return NewBusinessError(kind, code, reason, ErrNotEligible)
}

func WrapValidation(code, message string) *BusinessError {
	return NewBusinessError(KindValidation, code, message, nil)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		KindInternal,
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}
