package coordinator

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/autofund-backend/internal/domain"
	"github.com/simaogato/autofund-backend/internal/usecase/allocator"
)

// ContributeInput represents a one-off transfer from the savings pool into a goal
type ContributeInput struct {
	UserID uuid.UUID
	GoalID uuid.UUID
	Amount decimal.Decimal
}

// ContributeResult is the recorded outcome of a manual contribution
type ContributeResult struct {
	Result        domain.TransferResult
	Goal          domain.Goal // Goal state after the contribution
	PoolRemaining decimal.Decimal
}

// Contribute moves money into one goal outside any schedule
// It shares the user's lock and transaction boundary with Run. An insufficient pool
// is an outcome, recorded as a failed manual row, not an error.
func (c *Coordinator) Contribute(ctx context.Context, input ContributeInput) (*ContributeResult, error) {
	if !input.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	unlock := c.locks.Lock(input.UserID)
	defer unlock()

	now := c.Now()
	var out *ContributeResult
	err := c.UnitOfWork.WithinUser(ctx, input.UserID, func(ctx context.Context, repos domain.Repositories) error {
		goal, err := repos.Goals.Find(ctx, input.GoalID, input.UserID)
		if err != nil {
			return err
		}
		if goal.Status.IsTerminal() {
			return errors.WithHintf(domain.ErrGoalTerminal, "goal is %s", goal.Status)
		}

		pool, err := repos.Finance.TotalSavings(ctx, input.UserID)
		if err != nil {
			return errors.Wrap(err, "read savings pool")
		}
		if pool.IsNegative() {
			pool = decimal.Zero
		}

		result, transferred := allocator.Apply(goal, input.Amount, pool)
		if result.Outcome == domain.OutcomeSuccess {
			if err := repos.Goals.Save(ctx, goal); err != nil {
				return errors.Wrapf(err, "save goal %s", goal.ID)
			}
		}

		entry, err := ledgerEntry(input.UserID, result, domain.TransferKindManual, now)
		if err != nil {
			return err
		}
		if err := repos.Ledger.Append(ctx, entry); err != nil {
			return errors.Wrap(err, "append ledger entry")
		}

		out = &ContributeResult{
			Result:        result,
			Goal:          *goal,
			PoolRemaining: pool.Sub(transferred),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordOutcomes(domain.TransferKindManual, []domain.TransferResult{out.Result})
	c.logger.Infow("Manual contribution recorded",
		"user_id", input.UserID,
		"goal_id", input.GoalID,
		"status", out.Result.Outcome,
		"amount", out.Result.Amount.String(),
	)
	return out, nil
}
