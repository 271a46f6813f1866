package domain

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cadence represents how often a schedule fires
type Cadence string

const (
	CadenceWeekly   Cadence = "weekly"
	CadenceBiweekly Cadence = "biweekly"
	CadenceMonthly  Cadence = "monthly"
)

// ParseCadence converts a wire value into a Cadence.
// An empty string defaults to monthly, matching the REST surface default.
func ParseCadence(s string) (Cadence, error) {
	if s == "" {
		return CadenceMonthly, nil
	}
	c := Cadence(s)
	if !c.IsValid() {
		return "", errors.Wrapf(ErrInvalidCadence, "got %q", s)
	}
	return c, nil
}

// IsValid reports whether c is one of the known cadences
func (c Cadence) IsValid() bool {
	switch c {
	case CadenceWeekly, CadenceBiweekly, CadenceMonthly:
		return true
	}
	return false
}

// Next returns the due time one cycle after from.
// Monthly uses calendar months, so Jan 31 + 1 month normalizes to early March.
func (c Cadence) Next(from time.Time) time.Time {
	switch c {
	case CadenceWeekly:
		return from.AddDate(0, 0, 7)
	case CadenceBiweekly:
		return from.AddDate(0, 0, 14)
	default:
		return from.AddDate(0, 1, 0)
	}
}

// TransferSchedule represents one recurring rule that moves a fixed amount into a goal
type TransferSchedule struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	GoalID           uuid.UUID       // Referenced, not owned
	Amount           decimal.Decimal // Nominal amount per cycle (always positive)
	Cadence          Cadence
	Active           bool
	NextDueAt        time.Time
	LastFiredAt      *time.Time // NULL until the first successful transfer
	TotalTransferred decimal.Decimal
	FiredCount       int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Validate ensures the schedule adheres to domain rules
func (s *TransferSchedule) Validate() error {
	if s.UserID == uuid.Nil {
		return errors.New("schedule must reference a user")
	}
	if s.GoalID == uuid.Nil {
		return errors.New("schedule must reference a goal")
	}
	if s.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if !s.Cadence.IsValid() {
		return ErrInvalidCadence
	}
	if s.TotalTransferred.IsNegative() || s.FiredCount < 0 {
		return errors.New("schedule counters cannot be negative")
	}
	return nil
}

// IsDue reports whether the schedule should fire at asOf
func (s *TransferSchedule) IsDue(asOf time.Time) bool {
	return s.Active && !s.NextDueAt.After(asOf)
}

// RecordSuccess advances the schedule after a successful transfer of amount at now
func (s *TransferSchedule) RecordSuccess(now time.Time, amount decimal.Decimal) {
	fired := now
	s.LastFiredAt = &fired
	s.NextDueAt = s.Cadence.Next(now)
	s.TotalTransferred = s.TotalTransferred.Add(amount)
	s.FiredCount++
	s.UpdatedAt = now
}

// Reschedule recomputes NextDueAt for a new cadence, anchored on the last
// successful transfer or on now if the schedule never fired.
func (s *TransferSchedule) Reschedule(cadence Cadence, now time.Time) {
	s.Cadence = cadence
	anchor := now
	if s.LastFiredAt != nil {
		anchor = *s.LastFiredAt
	}
	s.NextDueAt = cadence.Next(anchor)
}
