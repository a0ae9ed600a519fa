package directory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// Member is a community membership record as resolved by the directory.
type Member struct {
	UserID   string `db:"user_id"`
	UserName string `db:"user_name"`
	Role     string `db:"role"`
	IsActive bool   `db:"is_active"`
}

// Community carries the community facts eligibility is evaluated against.
type Community struct {
	ID             string `db:"id"`
	Name           string `db:"name"`
	IsDefault      bool   `db:"is_default"`
	HasGroupWallet bool   `db:"has_group_wallet"`
}

// MembershipDirectory resolves identity and membership facts. The formation
// engine treats it as an external collaborator; this package also ships a
// Postgres-backed implementation over the communities tables.
type MembershipDirectory interface {
	// GetCommunity returns nil when the community does not exist.
	GetCommunity(ctx context.Context, communityID string) (*Community, error)

	// GetMember returns nil when the user is not a member.
	GetMember(ctx context.Context, communityID, userID string) (*Member, error)

	// CountMembers counts active members of the community.
	CountMembers(ctx context.Context, communityID string) (int, error)
}

type postgresDirectory struct {
	db *sqlx.DB
}

func NewPostgresDirectory(db *sqlx.DB) MembershipDirectory {
	return &postgresDirectory{db: db}
}

func (d *postgresDirectory) GetCommunity(ctx context.Context, communityID string) (*Community, error) {
	query := `SELECT id, name, is_default, has_group_wallet FROM communities WHERE id = $1`

	var community Community
	err := d.db.GetContext(ctx, &community, query, communityID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &community, nil
}

func (d *postgresDirectory) GetMember(ctx context.Context, communityID, userID string) (*Member, error) {
	query := `
		SELECT user_id, user_name, role, is_active
		FROM community_members
		WHERE community_id = $1 AND user_id = $2
	`

	var member Member
	err := d.db.GetContext(ctx, &member, query, communityID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &member, nil
}

func (d *postgresDirectory) CountMembers(ctx context.Context, communityID string) (int, error) {
	query := `SELECT count(*) FROM community_members WHERE community_id = $1 AND is_active`

	var count int
	err := d.db.GetContext(ctx, &count, query, communityID)
	return count, err
}
