package postgres

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/autofund-backend/internal/domain"
)

// goalRepository implements domain.GoalRepository over the goal service's table
type goalRepository struct {
	q querier
}

// NewGoalRepository creates a new goal repository
func NewGoalRepository(db *DB) domain.GoalRepository {
	return &goalRepository{q: db.DB}
}

// Find retrieves a goal owned by ownerID and locks it for the rest of the transaction
func (r *goalRepository) Find(ctx context.Context, id, ownerID uuid.UUID) (*domain.Goal, error) {
	query := `
		SELECT id, user_id, title, category, target_amount, current_amount, priority_tier, due_date, status
		FROM goals
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`

	var goal domain.Goal
	var targetStr, currentStr, status string
	var dueDate sql.NullTime

	err := r.q.QueryRowContext(ctx, query, id, ownerID).Scan(
		&goal.ID,
		&goal.UserID,
		&goal.Title,
		&goal.Category,
		&targetStr,
		&currentStr,
		&goal.PriorityTier,
		&dueDate,
		&status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(domain.ErrNotFound, "goal %s", id)
		}
		return nil, errors.Wrap(err, "failed to get goal")
	}

	goal.Status = domain.GoalStatus(status)
	if dueDate.Valid {
		d := dueDate.Time
		goal.DueDate = &d
	}

	// Parse target_amount and current_amount (NUMERIC)
	if goal.TargetAmount, err = decimal.NewFromString(targetStr); err != nil {
		return nil, errors.Wrap(err, "failed to parse target_amount")
	}
	if goal.CurrentAmount, err = decimal.NewFromString(currentStr); err != nil {
		return nil, errors.Wrap(err, "failed to parse current_amount")
	}

	return &goal, nil
}

// Save persists the funding fields of a goal
func (r *goalRepository) Save(ctx context.Context, goal *domain.Goal) error {
	query := `
		UPDATE goals
		SET current_amount = $3, status = $4
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.q.ExecContext(ctx, query,
		goal.ID,
		goal.UserID,
		goal.CurrentAmount.String(),
		string(goal.Status),
	)
	if err != nil {
		return errors.Wrap(err, "failed to save goal")
	}

	return expectOneRow(result, "goal", goal.ID)
}
