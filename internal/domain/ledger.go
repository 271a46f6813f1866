package domain

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Outcome represents the result of one transfer attempt
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// TransferKind distinguishes scheduled transfers from one-off contributions
type TransferKind string

const (
	TransferKindAutomated TransferKind = "automated"
	TransferKindManual    TransferKind = "manual"
)

// Reason codes written to the ledger
const (
	ReasonInsufficientPool = "insufficient pool"
	ReasonGoalMissing      = "goal missing"
)

// GoalStatusReason returns the skip reason for a terminal goal, e.g. "goal archived"
func GoalStatusReason(status GoalStatus) string {
	return "goal " + string(status)
}

// LedgerEntry is an immutable audit row for one transfer attempt.
// Entries are appended once and never updated or deleted.
type LedgerEntry struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	GoalID     uuid.UUID
	ScheduleID *uuid.UUID // NULL for manual transfers
	Amount     decimal.Decimal
	Outcome    Outcome
	Kind       TransferKind
	Reason     string
	OccurredAt time.Time

	// Goal summary, populated on history reads only
	GoalTitle    string
	GoalCategory string
	GoalPriority int
}

// Validate ensures the entry adheres to domain rules
// CRITICAL: only successful entries may carry a non-zero amount
func (e *LedgerEntry) Validate() error {
	switch e.Outcome {
	case OutcomeSuccess:
		if e.Amount.IsNegative() {
			return errors.New("successful ledger entry amount cannot be negative")
		}
	case OutcomeFailed, OutcomeSkipped:
		if !e.Amount.IsZero() {
			return errors.Newf("%s ledger entry must have a zero amount", e.Outcome)
		}
	default:
		return errors.Newf("unknown ledger outcome %q", e.Outcome)
	}

	if e.Kind != TransferKindAutomated && e.Kind != TransferKindManual {
		return errors.Newf("unknown transfer kind %q", e.Kind)
	}
	if e.Kind == TransferKindAutomated && e.ScheduleID == nil {
		return errors.New("automated ledger entry must reference a schedule")
	}
	return nil
}
