package domain

import "github.com/cockroachdb/errors"

// Sentinel errors returned by the funding engine. Adapters map them to
// transport status codes with errors.Is, so wrap them rather than replace them.
var (
	// ErrNotFound indicates the schedule or goal does not exist or is not owned by the caller
	ErrNotFound = errors.New("not found")

	// ErrDuplicateSchedule indicates an active schedule already exists for the (user, goal) pair
	ErrDuplicateSchedule = errors.New("an active auto-transfer already exists for this goal")

	// ErrInvalidAmount indicates a non-positive transfer amount
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidCadence indicates an unknown transfer frequency
	ErrInvalidCadence = errors.New("invalid frequency: must be weekly, biweekly, or monthly")

	// ErrGoalTerminal indicates the goal is completed or archived and cannot be funded
	ErrGoalTerminal = errors.New("goal is completed or archived")

	// ErrInvalidLimit indicates a non-positive history limit
	ErrInvalidLimit = errors.New("invalid limit: must be positive")
)

// IsValidationError reports whether err should be surfaced to the caller as a
// bad request rather than a server fault.
func IsValidationError(err error) bool {
	return errors.IsAny(err,
		ErrDuplicateSchedule,
		ErrInvalidAmount,
		ErrInvalidCadence,
		ErrGoalTerminal,
		ErrInvalidLimit,
	)
}
