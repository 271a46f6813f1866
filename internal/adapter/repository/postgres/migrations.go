package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
)

// schema is applied idempotently by Migrate.
// goals and finances belong to the goal and finance services; they are created here
// only so a fresh local database is usable.
const schema = `
CREATE TABLE IF NOT EXISTS transfer_schedules (
	id                UUID PRIMARY KEY,
	user_id           UUID NOT NULL,
	goal_id           UUID NOT NULL,
	amount            NUMERIC(18, 2) NOT NULL CHECK (amount > 0),
	cadence           TEXT NOT NULL CHECK (cadence IN ('weekly', 'biweekly', 'monthly')),
	active            BOOLEAN NOT NULL DEFAULT TRUE,
	next_due_at       TIMESTAMPTZ NOT NULL,
	last_fired_at     TIMESTAMPTZ,
	total_transferred NUMERIC(18, 2) NOT NULL DEFAULT 0,
	fired_count       INTEGER NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS transfer_schedules_active_goal_idx
	ON transfer_schedules (user_id, goal_id) WHERE active;

CREATE INDEX IF NOT EXISTS transfer_schedules_due_idx
	ON transfer_schedules (next_due_at, active);

CREATE TABLE IF NOT EXISTS transfer_ledger (
	id          UUID PRIMARY KEY,
	user_id     UUID NOT NULL,
	goal_id     UUID NOT NULL,
	schedule_id UUID,
	amount      NUMERIC(18, 2) NOT NULL,
	outcome     TEXT NOT NULL CHECK (outcome IN ('success', 'failed', 'skipped')),
	kind        TEXT NOT NULL CHECK (kind IN ('automated', 'manual')),
	reason      TEXT NOT NULL DEFAULT '',
	occurred_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS transfer_ledger_user_idx
	ON transfer_ledger (user_id, occurred_at DESC);

CREATE INDEX IF NOT EXISTS transfer_ledger_goal_idx
	ON transfer_ledger (goal_id, occurred_at DESC);

CREATE TABLE IF NOT EXISTS goals (
	id             UUID PRIMARY KEY,
	user_id        UUID NOT NULL,
	title          TEXT NOT NULL,
	category       TEXT NOT NULL DEFAULT '',
	target_amount  NUMERIC(18, 2) NOT NULL,
	current_amount NUMERIC(18, 2) NOT NULL DEFAULT 0,
	priority_tier  INTEGER NOT NULL DEFAULT 3,
	due_date       TIMESTAMPTZ,
	status         TEXT NOT NULL DEFAULT 'planned'
);

CREATE TABLE IF NOT EXISTS finances (
	id      UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	savings NUMERIC(18, 2) NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS finances_user_idx ON finances (user_id);
`

// Migrate creates the tables and indexes the engine needs
func Migrate(ctx context.Context, db *DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to apply schema")
	}
	return nil
}
