package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FundingItem pairs a due schedule with a snapshot of the goal it funds
type FundingItem struct {
	Schedule TransferSchedule
	Goal     Goal
}

// TransferResult is the outcome of one schedule within a run.
// It mirrors the ledger row written for it.
type TransferResult struct {
	ScheduleID *uuid.UUID      `json:"scheduleId,omitempty"`
	GoalID     uuid.UUID       `json:"goalId"`
	Outcome    Outcome         `json:"status"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason,omitempty"`
}

// RunSummary describes one run of the coordinator for one user.
// A run is not persisted; afterwards it exists only as the ledger rows it produced.
type RunSummary struct {
	UserID        uuid.UUID
	Executed      int // Number of successful transfers
	Results       []TransferResult
	PoolAtStart   decimal.Decimal
	PoolRemaining decimal.Decimal
	RanAt         time.Time
}

// ScheduleView is a schedule joined with the goal summary fields shown to its owner
type ScheduleView struct {
	Schedule TransferSchedule
	Goal     *Goal // nil if the goal has since been removed
}
