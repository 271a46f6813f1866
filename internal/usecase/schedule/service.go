package schedule

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/autofund-backend/internal/domain"
)

// CreateInput represents the input for creating a schedule
type CreateInput struct {
	UserID  uuid.UUID
	GoalID  uuid.UUID
	Amount  decimal.Decimal
	Cadence domain.Cadence
}

// UpdateInput represents a partial update; nil fields are left unchanged
type UpdateInput struct {
	ID      uuid.UUID
	UserID  uuid.UUID
	Amount  *decimal.Decimal
	Cadence *domain.Cadence
	Active  *bool
}

// ScheduleService handles the transfer schedule registry
// Writes run inside the owner's unit of work, so they serialize with auto-transfer
// runs for the same user and never overwrite a run's progress with stale values.
type ScheduleService struct {
	UnitOfWork   domain.UnitOfWork
	ScheduleRepo domain.ScheduleRepository // Reads outside any unit of work
	GoalRepo     domain.GoalRepository
	Now          func() time.Time
}

// NewScheduleService creates a new ScheduleService instance
func NewScheduleService(uow domain.UnitOfWork, scheduleRepo domain.ScheduleRepository, goalRepo domain.GoalRepository) *ScheduleService {
	return &ScheduleService{
		UnitOfWork:   uow,
		ScheduleRepo: scheduleRepo,
		GoalRepo:     goalRepo,
		Now:          time.Now,
	}
}

// Create registers a new recurring transfer into a goal owned by the user
// Logic:
//  1. Validate amount and cadence
//  2. Verify the goal exists and belongs to the user (ErrNotFound otherwise)
//  3. Reject if an active schedule already exists for (user, goal)
//  4. First due date is one cadence cycle from now
func (s *ScheduleService) Create(ctx context.Context, input CreateInput) (*domain.TransferSchedule, error) {
	now := s.Now()
	schedule := &domain.TransferSchedule{
		ID:               uuid.New(),
		UserID:           input.UserID,
		GoalID:           input.GoalID,
		Amount:           input.Amount,
		Cadence:          input.Cadence,
		Active:           true,
		NextDueAt:        input.Cadence.Next(now),
		TotalTransferred: decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}

	err := s.UnitOfWork.WithinUser(ctx, input.UserID, func(ctx context.Context, repos domain.Repositories) error {
		if _, err := repos.Goals.Find(ctx, input.GoalID, input.UserID); err != nil {
			return errors.Wrap(err, "goal lookup")
		}

		existing, err := repos.Schedules.FindActive(ctx, input.UserID, input.GoalID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicateSchedule
		}

		return repos.Schedules.Create(ctx, schedule)
	})
	if err != nil {
		return nil, err
	}

	return schedule, nil
}

// Update applies a partial change to a schedule owned by the user
// Changing the cadence recomputes the next due date from the last transfer
// (or now), which may move it earlier or later.
// Reactivation is always explicit and is refused for terminal goals or when
// another active schedule already funds the same goal.
func (s *ScheduleService) Update(ctx context.Context, input UpdateInput) (*domain.TransferSchedule, error) {
	var schedule *domain.TransferSchedule
	err := s.UnitOfWork.WithinUser(ctx, input.UserID, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		schedule, err = repos.Schedules.GetByID(ctx, input.ID, input.UserID)
		if err != nil {
			return err
		}
		now := s.Now()

		if input.Amount != nil {
			schedule.Amount = *input.Amount
		}
		if input.Cadence != nil {
			schedule.Reschedule(*input.Cadence, now)
		}
		if input.Active != nil {
			if *input.Active && !schedule.Active {
				if err := checkReactivation(ctx, repos, schedule); err != nil {
					return err
				}
			}
			schedule.Active = *input.Active
		}
		schedule.UpdatedAt = now

		if err := schedule.Validate(); err != nil {
			return err
		}

		return repos.Schedules.Update(ctx, schedule)
	})
	if err != nil {
		return nil, err
	}

	return schedule, nil
}

func checkReactivation(ctx context.Context, repos domain.Repositories, schedule *domain.TransferSchedule) error {
	goal, err := repos.Goals.Find(ctx, schedule.GoalID, schedule.UserID)
	if err != nil {
		return errors.Wrap(err, "goal lookup")
	}
	if goal.Status.IsTerminal() {
		return errors.WithHint(
			errors.Wrapf(domain.ErrGoalTerminal, "goal %s is %s", goal.ID, goal.Status),
			"raise the goal target or reopen the goal before reactivating its auto-transfer",
		)
	}

	existing, err := repos.Schedules.FindActive(ctx, schedule.UserID, schedule.GoalID)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != schedule.ID {
		return domain.ErrDuplicateSchedule
	}
	return nil
}

// Delete hard-deletes a schedule owned by the user; ledger history is kept
func (s *ScheduleService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.UnitOfWork.WithinUser(ctx, userID, func(ctx context.Context, repos domain.Repositories) error {
		return repos.Schedules.Delete(ctx, id, userID)
	})
}

// List returns the user's schedules joined with their goal summaries
func (s *ScheduleService) List(ctx context.Context, userID uuid.UUID) ([]domain.ScheduleView, error) {
	schedules, err := s.ScheduleRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]domain.ScheduleView, 0, len(schedules))
	goals := make(map[uuid.UUID]*domain.Goal)
	for _, schedule := range schedules {
		goal, seen := goals[schedule.GoalID]
		if !seen {
			goal, err = s.GoalRepo.Find(ctx, schedule.GoalID, userID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
			goals[schedule.GoalID] = goal
		}
		views = append(views, domain.ScheduleView{Schedule: *schedule, Goal: goal})
	}

	return views, nil
}

// DueForUser returns the user's active schedules due at asOf, unordered
func (s *ScheduleService) DueForUser(ctx context.Context, userID uuid.UUID, asOf time.Time) ([]*domain.TransferSchedule, error) {
	return s.ScheduleRepo.DueForUser(ctx, userID, asOf)
}
