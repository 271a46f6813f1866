package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ScheduleRepository defines the interface for transfer schedule persistence operations
type ScheduleRepository interface {
	// Create persists a new schedule
	// Returns ErrDuplicateSchedule if an active schedule exists for the same (user, goal)
	Create(ctx context.Context, schedule *TransferSchedule) error

	// GetByID retrieves a schedule owned by userID
	// Returns ErrNotFound if it does not exist or belongs to another user
	GetByID(ctx context.Context, id, userID uuid.UUID) (*TransferSchedule, error)

	// Update overwrites the mutable fields of an existing schedule
	Update(ctx context.Context, schedule *TransferSchedule) error

	// Delete hard-deletes a schedule owned by userID
	// Ledger rows referencing it are left untouched
	Delete(ctx context.Context, id, userID uuid.UUID) error

	// ListByUser retrieves all schedules of a user, newest first
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*TransferSchedule, error)

	// FindActive retrieves the active schedule for (userID, goalID), or nil if none exists
	FindActive(ctx context.Context, userID, goalID uuid.UUID) (*TransferSchedule, error)

	// DueForUser retrieves active schedules with next_due_at <= asOf, in no particular order
	DueForUser(ctx context.Context, userID uuid.UUID, asOf time.Time) ([]*TransferSchedule, error)

	// UsersWithDue returns up to limit distinct users having at least one due schedule,
	// ordered by user ID and strictly greater than after (uuid.Nil for the first page)
	UsersWithDue(ctx context.Context, asOf time.Time, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

// GoalRepository is the engine's view of the goal service
type GoalRepository interface {
	// Find retrieves a goal owned by ownerID
	// Returns ErrNotFound if it does not exist or belongs to another user
	Find(ctx context.Context, id, ownerID uuid.UUID) (*Goal, error)

	// Save persists the funding fields (current amount and status) of a goal
	Save(ctx context.Context, goal *Goal) error
}

// FinanceRepository is the engine's view of the finance service
type FinanceRepository interface {
	// TotalSavings returns the user's available savings pool
	TotalSavings(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

// LedgerRepository defines the interface for the append-only execution ledger.
// There is deliberately no update or delete operation.
type LedgerRepository interface {
	// Append adds entries in order
	Append(ctx context.Context, entries ...*LedgerEntry) error

	// History retrieves entries for a user, most recent first
	// If goalID is nil, returns entries for all goals
	History(ctx context.Context, userID uuid.UUID, goalID *uuid.UUID, limit int) ([]*LedgerEntry, error)
}

// Repositories groups the repositories bound to one unit of work
type Repositories struct {
	Schedules ScheduleRepository
	Goals     GoalRepository
	Finance   FinanceRepository
	Ledger    LedgerRepository
}

// UnitOfWork runs a function atomically on behalf of one user
type UnitOfWork interface {
	// WithinUser runs fn with repositories bound to a single transaction that holds
	// an exclusive lock on userID. All writes made through repos are committed if fn
	// returns nil and discarded otherwise.
	WithinUser(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, repos Repositories) error) error
}
