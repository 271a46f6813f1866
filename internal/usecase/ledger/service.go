package ledger

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/autofund-backend/internal/domain"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// RecordInput represents one transfer attempt to be recorded
type RecordInput struct {
	UserID     uuid.UUID
	GoalID     uuid.UUID
	ScheduleID *uuid.UUID
	Amount     decimal.Decimal
	Outcome    domain.Outcome
	Kind       domain.TransferKind
	Reason     string
}

// LedgerService handles the append-only execution ledger
type LedgerService struct {
	LedgerRepo domain.LedgerRepository
	Now        func() time.Time
}

// NewLedgerService creates a new LedgerService instance
func NewLedgerService(ledgerRepo domain.LedgerRepository) *LedgerService {
	return &LedgerService{
		LedgerRepo: ledgerRepo,
		Now:        time.Now,
	}
}

// NewEntry builds a validated, timestamped ledger row without persisting it.
// The coordinator uses it to stage a run's rows inside its own transaction.
func NewEntry(input RecordInput, occurredAt time.Time) (*domain.LedgerEntry, error) {
	kind := input.Kind
	if kind == "" {
		kind = domain.TransferKindAutomated
	}
	entry := &domain.LedgerEntry{
		ID:         uuid.New(),
		UserID:     input.UserID,
		GoalID:     input.GoalID,
		ScheduleID: input.ScheduleID,
		Amount:     input.Amount,
		Outcome:    input.Outcome,
		Kind:       kind,
		Reason:     input.Reason,
		OccurredAt: occurredAt,
	}
	if err := entry.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid ledger entry")
	}
	return entry, nil
}

// Record appends one immutable entry with OccurredAt = now
func (s *LedgerService) Record(ctx context.Context, input RecordInput) (*domain.LedgerEntry, error) {
	entry, err := NewEntry(input, s.Now())
	if err != nil {
		return nil, err
	}
	if err := s.LedgerRepo.Append(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// History returns the user's entries, most recent first
// A zero limit means DefaultHistoryLimit; limits above MaxHistoryLimit are clamped.
func (s *LedgerService) History(ctx context.Context, userID uuid.UUID, goalID *uuid.UUID, limit int) ([]*domain.LedgerEntry, error) {
	switch {
	case limit < 0:
		return nil, domain.ErrInvalidLimit
	case limit == 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	return s.LedgerRepo.History(ctx, userID, goalID, limit)
}
