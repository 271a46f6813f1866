package postgres

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/autofund-backend/internal/domain"
)

// ledgerRepository implements domain.LedgerRepository
// It only ever inserts into transfer_ledger.
type ledgerRepository struct {
	q querier
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *DB) domain.LedgerRepository {
	return &ledgerRepository{q: db.DB}
}

// Append inserts entries in order, atomically
func (r *ledgerRepository) Append(ctx context.Context, entries ...*domain.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	query := `
		INSERT INTO transfer_ledger (id, user_id, goal_id, schedule_id, amount, outcome, kind, reason, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	return inTx(ctx, r.q, func(q querier) error {
		for _, e := range entries {
			_, err := q.ExecContext(ctx, query,
				e.ID,
				e.UserID,
				e.GoalID,
				uuid.NullUUID{UUID: derefUUID(e.ScheduleID), Valid: e.ScheduleID != nil},
				e.Amount.String(),
				string(e.Outcome),
				string(e.Kind),
				e.Reason,
				e.OccurredAt,
			)
			if err != nil {
				return errors.Wrap(err, "failed to insert ledger entry")
			}
		}
		return nil
	})
}

// History retrieves a user's entries joined with goal summaries, most recent first
func (r *ledgerRepository) History(ctx context.Context, userID uuid.UUID, goalID *uuid.UUID, limit int) ([]*domain.LedgerEntry, error) {
	args := []any{userID}
	filter := ""
	if goalID != nil {
		args = append(args, *goalID)
		filter = "AND l.goal_id = $2"
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT l.id, l.user_id, l.goal_id, l.schedule_id, l.amount, l.outcome, l.kind, l.reason, l.occurred_at,
			COALESCE(g.title, ''), COALESCE(g.category, ''), COALESCE(g.priority_tier, 0)
		FROM transfer_ledger l
		LEFT JOIN goals g ON g.id = l.goal_id
		WHERE l.user_id = $1 %s
		ORDER BY l.occurred_at DESC
		LIMIT $%d
	`, filter, len(args))

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query ledger history")
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var scheduleID uuid.NullUUID
		var amountStr, outcome, kind string

		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.GoalID,
			&scheduleID,
			&amountStr,
			&outcome,
			&kind,
			&e.Reason,
			&e.OccurredAt,
			&e.GoalTitle,
			&e.GoalCategory,
			&e.GoalPriority,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan ledger entry")
		}

		if scheduleID.Valid {
			id := scheduleID.UUID
			e.ScheduleID = &id
		}
		e.Outcome = domain.Outcome(outcome)
		e.Kind = domain.TransferKind(kind)

		// Parse amount (NUMERIC)
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse amount")
		}
		e.Amount = amount

		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate ledger history")
	}
	return entries, nil
}

func derefUUID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
