package allocator

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/simaogato/autofund-backend/internal/domain"
)

// Allocation is the outcome of executing one user's ranked schedules against their pool
type Allocation struct {
	Items         []domain.FundingItem    // Mutated copies, same order as the input
	Results       []domain.TransferResult // Exactly one per item, same order
	PoolRemaining decimal.Decimal
}

// Executed returns the number of successful transfers
func (a *Allocation) Executed() int {
	n := 0
	for _, r := range a.Results {
		if r.Outcome == domain.OutcomeSuccess {
			n++
		}
	}
	return n
}

// Transferred returns the total amount moved into goals
func (a *Allocation) Transferred() decimal.Decimal {
	total := decimal.Zero
	for _, r := range a.Results {
		if r.Outcome == domain.OutcomeSuccess {
			total = total.Add(r.Amount)
		}
	}
	return total
}

// Execute consumes pool greedily across ranked items
// Logic, per item in order, with remaining := pool:
//  1. Goal completed/archived -> skipped, schedule permanently deactivated
//  2. remaining < schedule amount -> failed "insufficient pool", schedule untouched (still due)
//  3. Otherwise transfer min(schedule amount, goal remaining need), fund the goal,
//     advance the schedule from now, decrement remaining
//
// The caller's items are not modified; mutated copies are returned.
// Safety: Ensures the sum of successful transfers equals pool - remaining and never exceeds pool.
func Execute(now time.Time, pool decimal.Decimal, ranked []domain.FundingItem) (*Allocation, error) {
	if pool.IsNegative() {
		return nil, errors.New("pool cannot be negative")
	}

	alloc := &Allocation{
		Items:   make([]domain.FundingItem, len(ranked)),
		Results: make([]domain.TransferResult, 0, len(ranked)),
	}
	copy(alloc.Items, ranked)

	remaining := pool
	for i := range alloc.Items {
		item := &alloc.Items[i]
		scheduleID := item.Schedule.ID

		// Step 1: Terminal goals are skipped and stop being scheduled
		if item.Goal.Status.IsTerminal() {
			item.Schedule.Active = false
			item.Schedule.UpdatedAt = now
			alloc.Results = append(alloc.Results, domain.TransferResult{
				ScheduleID: &scheduleID,
				GoalID:     item.Goal.ID,
				Outcome:    domain.OutcomeSkipped,
				Amount:     decimal.Zero,
				Reason:     domain.GoalStatusReason(item.Goal.Status),
			})
			continue
		}

		// Steps 2 and 3
		result, transferred := Apply(&item.Goal, item.Schedule.Amount, remaining)
		result.ScheduleID = &scheduleID
		if result.Outcome == domain.OutcomeSuccess {
			item.Schedule.RecordSuccess(now, transferred)
			remaining = remaining.Sub(transferred)
		}
		alloc.Results = append(alloc.Results, result)
	}

	alloc.PoolRemaining = remaining

	// Safety check: conservation of the pool
	transferred := alloc.Transferred()
	if !transferred.Add(remaining).Equal(pool) || transferred.GreaterThan(pool) {
		return nil, errors.AssertionFailedf("allocation of %s does not conserve pool %s (remaining %s)",
			transferred, pool, remaining)
	}

	return alloc, nil
}

// Apply funds one goal with a nominal amount drawn from remaining
// The nominal amount must be fully available, but only the goal's remaining need
// is actually moved (capping). Returns the result and the amount moved.
func Apply(goal *domain.Goal, amount, remaining decimal.Decimal) (domain.TransferResult, decimal.Decimal) {
	if remaining.LessThan(amount) {
		return domain.TransferResult{
			GoalID:  goal.ID,
			Outcome: domain.OutcomeFailed,
			Amount:  decimal.Zero,
			Reason:  domain.ReasonInsufficientPool,
		}, decimal.Zero
	}

	transferAmount := decimal.Min(amount, goal.Remaining())
	goal.Fund(transferAmount)

	return domain.TransferResult{
		GoalID:  goal.ID,
		Outcome: domain.OutcomeSuccess,
		Amount:  transferAmount,
	}, transferAmount
}
