package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GoalStatus represents the lifecycle state of a savings goal
type GoalStatus string

const (
	GoalStatusPlanned    GoalStatus = "planned"
	GoalStatusInProgress GoalStatus = "in_progress"
	GoalStatusCompleted  GoalStatus = "completed"
	GoalStatusArchived   GoalStatus = "archived"
)

// IsTerminal reports whether a goal in this status can no longer be funded
func (s GoalStatus) IsTerminal() bool {
	return s == GoalStatusCompleted || s == GoalStatusArchived
}

// Goal is a savings goal owned by the goal service.
// The engine only writes CurrentAmount and Status, and only as a result of funding.
type Goal struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Title         string
	Category      string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	PriorityTier  int        // Lower = more urgent (1 = critical)
	DueDate       *time.Time // Optional
	Status        GoalStatus
}

// Remaining returns how much the goal still needs, never negative
func (g *Goal) Remaining() decimal.Decimal {
	need := g.TargetAmount.Sub(g.CurrentAmount)
	if need.IsNegative() {
		return decimal.Zero
	}
	return need
}

// Fund adds amount to the goal and applies the funding transitions:
// reaching the target completes the goal, otherwise planned becomes in_progress.
func (g *Goal) Fund(amount decimal.Decimal) {
	g.CurrentAmount = g.CurrentAmount.Add(amount)
	if g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount) {
		g.Status = GoalStatusCompleted
	} else if g.Status == GoalStatusPlanned {
		g.Status = GoalStatusInProgress
	}
}
