package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Schema is the engine's DDL. Slot uniqueness and non-archived name
// uniqueness are enforced here so races lose at commit, not just at read.
const Schema = `
CREATE TABLE IF NOT EXISTS communities (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	is_default       BOOLEAN NOT NULL DEFAULT FALSE,
	has_group_wallet BOOLEAN NOT NULL DEFAULT FALSE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS community_members (
	community_id TEXT NOT NULL REFERENCES communities(id),
	user_id      TEXT NOT NULL,
	user_name    TEXT NOT NULL DEFAULT '',
	role         TEXT NOT NULL DEFAULT 'MEMBER',
	is_active    BOOLEAN NOT NULL DEFAULT TRUE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (community_id, user_id)
);

CREATE TABLE IF NOT EXISTS esusu_groups (
	id                     UUID PRIMARY KEY,
	community_id           TEXT NOT NULL,
	creator_id             TEXT NOT NULL,
	name                   TEXT NOT NULL,
	description            TEXT NOT NULL DEFAULT '',
	icon_url               TEXT NOT NULL DEFAULT '',
	number_of_participants INT NOT NULL CHECK (number_of_participants > 0),
	contribution_amount    NUMERIC(20,2) NOT NULL CHECK (contribution_amount > 0),
	frequency              TEXT NOT NULL CHECK (frequency IN ('WEEKLY','MONTHLY','QUARTERLY')),
	participation_deadline TIMESTAMPTZ NOT NULL,
	collection_date        TIMESTAMPTZ NOT NULL,
	take_commission        BOOLEAN NOT NULL DEFAULT FALSE,
	commission_type        TEXT CHECK (commission_type IN ('PERCENTAGE','CASH')),
	commission_percentage  NUMERIC(5,2),
	commission_amount      NUMERIC(20,2),
	payout_order_type      TEXT NOT NULL CHECK (payout_order_type IN ('RANDOM','FIRST_COME_FIRST_SERVED')),
	status                 TEXT NOT NULL DEFAULT 'PENDING_MEMBERS'
		CHECK (status IN ('PENDING_MEMBERS','READY_TO_START','ACTIVE','PAUSED','COMPLETED','CANCELLED')),
	current_cycle          INT NOT NULL DEFAULT 0,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS esusu_groups_name_unique
	ON esusu_groups (community_id, lower(name))
	WHERE status NOT IN ('CANCELLED','COMPLETED');

CREATE TABLE IF NOT EXISTS esusu_participants (
	group_id      UUID NOT NULL REFERENCES esusu_groups(id),
	user_id       TEXT NOT NULL,
	user_name     TEXT NOT NULL DEFAULT '',
	invite_status TEXT NOT NULL DEFAULT 'INVITED'
		CHECK (invite_status IN ('INVITED','ACCEPTED','DECLINED')),
	is_creator    BOOLEAN NOT NULL DEFAULT FALSE,
	slot_number   INT,
	responded_at  TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (group_id, user_id)
);

CREATE UNIQUE INDEX IF NOT EXISTS esusu_participants_slot_unique
	ON esusu_participants (group_id, slot_number)
	WHERE slot_number IS NOT NULL;
`

// EnsureSchema applies the DDL. Statements are idempotent.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	return err
}
