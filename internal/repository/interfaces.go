package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/adetunjii/esusu-engine/internal/domain"
)

// GroupRepository defines the interface for esusu group data operations.
type GroupRepository interface {
	// CreateGroup persists a group together with its full participant
	// roster in one transaction.
	CreateGroup(ctx context.Context, group *domain.EsusuGroup, participants []*domain.EsusuParticipant) error

	// GetGroup retrieves a group by id
	GetGroup(ctx context.Context, groupID uuid.UUID) (*domain.EsusuGroup, error)

	// GetParticipants retrieves the full roster of a group
	GetParticipants(ctx context.Context, groupID uuid.UUID) ([]*domain.EsusuParticipant, error)

	// NameExists reports whether a non-archived group with the given name
	// (case-insensitive) exists in the community.
	NameExists(ctx context.Context, communityID, name string) (bool, error)

	// ListPendingWithDeadlineBetween returns PENDING_MEMBERS groups whose
	// participation deadline falls inside [from, to).
	ListPendingWithDeadlineBetween(ctx context.Context, from, to time.Time) ([]*domain.EsusuGroup, error)

	// WithGroupTx runs fn inside a transaction holding a row lock on the
	// group. Concurrent operations on the same group serialize here;
	// operations on different groups do not contend.
	WithGroupTx(ctx context.Context, groupID uuid.UUID, fn func(tx GroupTx) error) error
}

// GroupTx is the mutation surface available while a group's row lock is held.
type GroupTx interface {
	// Group returns the locked group snapshot
	Group() *domain.EsusuGroup

	// Participants retrieves the roster within the transaction
	Participants(ctx context.Context) ([]*domain.EsusuParticipant, error)

	// SetInviteStatus records a participant's response
	SetInviteStatus(ctx context.Context, userID, status string, respondedAt time.Time) error

	// AssignSlot writes a participant's slot number; the partial unique
	// index rejects a second holder of the same slot at commit time.
	AssignSlot(ctx context.Context, userID string, slot int) error

	// SetGroupStatus transitions the group
	SetGroupStatus(ctx context.Context, status string) error
}
