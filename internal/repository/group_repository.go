package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/adetunjii/esusu-engine/internal/domain"
)

const groupColumns = `id, community_id, creator_id, name, description, icon_url,
	number_of_participants, contribution_amount, frequency,
	participation_deadline, collection_date,
	take_commission, commission_type, commission_percentage, commission_amount,
	payout_order_type, status, current_cycle, created_at, updated_at`

const participantColumns = `group_id, user_id, user_name, invite_status, is_creator,
	slot_number, responded_at, created_at`

type groupRepository struct {
	db *sqlx.DB
}

func NewGroupRepository(db *sqlx.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) CreateGroup(ctx context.Context, group *domain.EsusuGroup, participants []*domain.EsusuParticipant) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO esusu_groups (` + groupColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err = tx.ExecContext(ctx, query,
		group.ID,
		group.CommunityID,
		group.CreatorID,
		group.Name,
		group.Description,
		group.IconURL,
		group.NumberOfParticipants,
		group.ContributionAmount,
		group.Frequency,
		group.ParticipationDeadline,
		group.CollectionDate,
		group.TakeCommission,
		group.CommissionType,
		group.CommissionPercentage,
		group.CommissionAmount,
		group.PayoutOrderType,
		group.Status,
		group.CurrentCycle,
		group.CreatedAt,
		group.UpdatedAt,
	)
	if err != nil {
		return err
	}

	participantQuery := `
		INSERT INTO esusu_participants (` + participantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, p := range participants {
		_, err = tx.ExecContext(ctx, participantQuery,
			p.GroupID,
			p.UserID,
			p.UserName,
			p.InviteStatus,
			p.IsCreator,
			p.SlotNumber,
			p.RespondedAt,
			p.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *groupRepository) GetGroup(ctx context.Context, groupID uuid.UUID) (*domain.EsusuGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM esusu_groups WHERE id = $1`

	var group domain.EsusuGroup
	if err := r.db.GetContext(ctx, &group, query, groupID); err != nil {
		return nil, err
	}

	return &group, nil
}

func (r *groupRepository) GetParticipants(ctx context.Context, groupID uuid.UUID) ([]*domain.EsusuParticipant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM esusu_participants
		WHERE group_id = $1
		ORDER BY user_id
	`

	var participants []*domain.EsusuParticipant
	if err := r.db.SelectContext(ctx, &participants, query, groupID); err != nil {
		return nil, err
	}

	return participants, nil
}

func (r *groupRepository) NameExists(ctx context.Context, communityID, name string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM esusu_groups
			WHERE community_id = $1
			  AND lower(name) = lower($2)
			  AND status NOT IN ($3, $4)
		)
	`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, communityID, name,
		domain.GroupStatusCancelled, domain.GroupStatusCompleted)
	return exists, err
}

func (r *groupRepository) ListPendingWithDeadlineBetween(ctx context.Context, from, to time.Time) ([]*domain.EsusuGroup, error) {
	query := `
		SELECT ` + groupColumns + `
		FROM esusu_groups
		WHERE status = $1 AND participation_deadline >= $2 AND participation_deadline < $3
		ORDER BY participation_deadline
	`

	var groups []*domain.EsusuGroup
	err := r.db.SelectContext(ctx, &groups, query, domain.GroupStatusPendingMembers, from, to)
	return groups, err
}

func (r *groupRepository) WithGroupTx(ctx context.Context, groupID uuid.UUID, fn func(tx GroupTx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `SELECT ` + groupColumns + ` FROM esusu_groups WHERE id = $1 FOR UPDATE`

	var group domain.EsusuGroup
	if err := tx.GetContext(ctx, &group, query, groupID); err != nil {
		return err
	}

	if err := fn(&groupTx{tx: tx, group: &group}); err != nil {
		return err
	}

	return tx.Commit()
}

type groupTx struct {
	tx    *sqlx.Tx
	group *domain.EsusuGroup
}

func (t *groupTx) Group() *domain.EsusuGroup {
	return t.group
}

func (t *groupTx) Participants(ctx context.Context) ([]*domain.EsusuParticipant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM esusu_participants
		WHERE group_id = $1
		ORDER BY user_id
	`

	var participants []*domain.EsusuParticipant
	if err := t.tx.SelectContext(ctx, &participants, query, t.group.ID); err != nil {
		return nil, err
	}

	return participants, nil
}

func (t *groupTx) SetInviteStatus(ctx context.Context, userID, status string, respondedAt time.Time) error {
	query := `
		UPDATE esusu_participants
		SET invite_status = $3, responded_at = $4
		WHERE group_id = $1 AND user_id = $2
	`

	result, err := t.tx.ExecContext(ctx, query, t.group.ID, userID, status, respondedAt)
	if err != nil {
		return err
	}

	return requireRow(result)
}

func (t *groupTx) AssignSlot(ctx context.Context, userID string, slot int) error {
	query := `
		UPDATE esusu_participants
		SET slot_number = $3
		WHERE group_id = $1 AND user_id = $2
	`

	result, err := t.tx.ExecContext(ctx, query, t.group.ID, userID, slot)
	if err != nil {
		return err
	}

	return requireRow(result)
}

func (t *groupTx) SetGroupStatus(ctx context.Context, status string) error {
	query := `
		UPDATE esusu_groups
		SET status = $2, updated_at = $3
		WHERE id = $1
	`

	_, err := t.tx.ExecContext(ctx, query, t.group.ID, status, time.Now())
	if err == nil {
		t.group.Status = status
	}
	return err
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Constraint names from the schema, used to map commit-time conflicts.
const (
	ConstraintSlotUnique = "esusu_participants_slot_unique"
	ConstraintNameUnique = "esusu_groups_name_unique"
)

// IsUniqueViolation reports whether err is a Postgres unique violation,
// optionally on a specific constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return constraint == "" || pqErr.Constraint == constraint
	}
	return false
}
