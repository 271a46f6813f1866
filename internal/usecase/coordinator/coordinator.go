// Package coordinator drives auto-transfer runs: one atomic run per user, manual
// contributions, and periodic sweeps over every user with due schedules.
package coordinator

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/simaogato/autofund-backend/internal/domain"
	"github.com/simaogato/autofund-backend/internal/metrics"
	"github.com/simaogato/autofund-backend/internal/usecase/allocator"
	"github.com/simaogato/autofund-backend/internal/usecase/ledger"
	"github.com/simaogato/autofund-backend/internal/usecase/ranker"
)

// Config tunes sweeps
type Config struct {
	SweepConcurrency int     // Users processed in parallel (default: 4)
	SweepRate        float64 // Runs dispatched per second, 0 = unlimited
	SweepPageSize    int     // Users fetched per page (default: 100)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		SweepConcurrency: 4,
		SweepRate:        0,
		SweepPageSize:    100,
	}
}

// Coordinator executes runs and manual contributions
type Coordinator struct {
	UnitOfWork domain.UnitOfWork
	Schedules  domain.ScheduleRepository // Used outside any unit of work, by sweeps
	Now        func() time.Time

	cfg    Config
	locks  *userLocks
	logger *zap.SugaredLogger
}

// NewCoordinator creates a new Coordinator instance
func NewCoordinator(uow domain.UnitOfWork, schedules domain.ScheduleRepository, cfg Config, logger *zap.SugaredLogger) *Coordinator {
	defaults := DefaultConfig()
	if cfg.SweepConcurrency <= 0 {
		cfg.SweepConcurrency = defaults.SweepConcurrency
	}
	if cfg.SweepPageSize <= 0 {
		cfg.SweepPageSize = defaults.SweepPageSize
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Coordinator{
		UnitOfWork: uow,
		Schedules:  schedules,
		Now:        time.Now,
		cfg:        cfg,
		locks:      newUserLocks(),
		logger:     logger,
	}
}

// Run executes every due schedule of one user as a single atomic unit
// Logic:
//  1. Load due schedules; nothing due -> empty summary, nothing written
//  2. Join each schedule with its goal; a missing goal -> skipped, schedule deactivated
//  3. Read the pool, rank, allocate
//  4. Persist goals, schedules and one ledger row per schedule
//
// Any error rolls back every write of the run. Runs for the same user are serialized,
// so a repeated call after a successful run finds nothing due.
func (c *Coordinator) Run(ctx context.Context, userID uuid.UUID) (*domain.RunSummary, error) {
	return c.runAt(ctx, userID, c.Now())
}

// runAt is Run with an explicit clock reading; sweeps pass their asOf so each user
// runs against the same due set it was selected by.
func (c *Coordinator) runAt(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.RunSummary, error) {
	unlock := c.locks.Lock(userID)
	defer unlock()

	start := time.Now()

	var summary *domain.RunSummary
	err := c.UnitOfWork.WithinUser(ctx, userID, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		summary, err = c.run(ctx, repos, userID, now)
		return err
	})
	metrics.RunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RunsTotal.WithLabelValues("error").Inc()
		c.logger.Errorw("Auto-transfer run failed", "user_id", userID, "error", err)
		return nil, errors.Wrapf(err, "auto-transfer run for user %s", userID)
	}

	if len(summary.Results) == 0 {
		metrics.RunsTotal.WithLabelValues("empty").Inc()
		return summary, nil
	}

	metrics.RunsTotal.WithLabelValues("ok").Inc()
	recordOutcomes(domain.TransferKindAutomated, summary.Results)
	c.logger.Infow("Auto-transfer run completed",
		"user_id", userID,
		"schedules", len(summary.Results),
		"executed", summary.Executed,
		"pool_start", summary.PoolAtStart.String(),
		"pool_remaining", summary.PoolRemaining.String(),
	)
	return summary, nil
}

func (c *Coordinator) run(ctx context.Context, repos domain.Repositories, userID uuid.UUID, now time.Time) (*domain.RunSummary, error) {
	summary := &domain.RunSummary{
		UserID:  userID,
		Results: []domain.TransferResult{},
		RanAt:   now,
	}

	due, err := repos.Schedules.DueForUser(ctx, userID, now)
	if err != nil {
		return nil, errors.Wrap(err, "load due schedules")
	}
	if len(due) == 0 {
		return summary, nil
	}

	// Step 2: Join goals
	items := make([]domain.FundingItem, 0, len(due))
	var orphans []*domain.TransferSchedule
	for _, schedule := range due {
		goal, err := repos.Goals.Find(ctx, schedule.GoalID, userID)
		if errors.Is(err, domain.ErrNotFound) {
			orphans = append(orphans, schedule)
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "load goal %s", schedule.GoalID)
		}
		items = append(items, domain.FundingItem{Schedule: *schedule, Goal: *goal})
	}

	// Step 3: Allocate
	pool, err := repos.Finance.TotalSavings(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "read savings pool")
	}
	if pool.IsNegative() {
		c.logger.Warnw("Savings pool is negative, treating as empty", "user_id", userID, "pool", pool.String())
		pool = decimal.Zero
	}
	summary.PoolAtStart = pool

	alloc, err := allocator.Execute(now, pool, ranker.Rank(items))
	if err != nil {
		return nil, err
	}

	// Step 4: Persist
	entries := make([]*domain.LedgerEntry, 0, len(due))
	for i := range alloc.Items {
		item := &alloc.Items[i]
		result := alloc.Results[i]

		switch result.Outcome {
		case domain.OutcomeSuccess:
			if err := repos.Goals.Save(ctx, &item.Goal); err != nil {
				return nil, errors.Wrapf(err, "save goal %s", item.Goal.ID)
			}
			if err := repos.Schedules.Update(ctx, &item.Schedule); err != nil {
				return nil, errors.Wrapf(err, "save schedule %s", item.Schedule.ID)
			}
		case domain.OutcomeSkipped:
			if err := repos.Schedules.Update(ctx, &item.Schedule); err != nil {
				return nil, errors.Wrapf(err, "deactivate schedule %s", item.Schedule.ID)
			}
		}

		entry, err := ledgerEntry(userID, result, domain.TransferKindAutomated, now)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	summary.Results = append(summary.Results, alloc.Results...)

	for _, schedule := range orphans {
		schedule.Active = false
		schedule.UpdatedAt = now
		if err := repos.Schedules.Update(ctx, schedule); err != nil {
			return nil, errors.Wrapf(err, "deactivate schedule %s", schedule.ID)
		}

		scheduleID := schedule.ID
		result := domain.TransferResult{
			ScheduleID: &scheduleID,
			GoalID:     schedule.GoalID,
			Outcome:    domain.OutcomeSkipped,
			Amount:     decimal.Zero,
			Reason:     domain.ReasonGoalMissing,
		}
		entry, err := ledgerEntry(userID, result, domain.TransferKindAutomated, now)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
		summary.Results = append(summary.Results, result)
	}

	if err := repos.Ledger.Append(ctx, entries...); err != nil {
		return nil, errors.Wrap(err, "append ledger entries")
	}

	summary.Executed = alloc.Executed()
	summary.PoolRemaining = alloc.PoolRemaining
	return summary, nil
}

func ledgerEntry(userID uuid.UUID, result domain.TransferResult, kind domain.TransferKind, now time.Time) (*domain.LedgerEntry, error) {
	return ledger.NewEntry(ledger.RecordInput{
		UserID:     userID,
		GoalID:     result.GoalID,
		ScheduleID: result.ScheduleID,
		Amount:     result.Amount,
		Outcome:    result.Outcome,
		Kind:       kind,
		Reason:     result.Reason,
	}, now)
}

func recordOutcomes(kind domain.TransferKind, results []domain.TransferResult) {
	for _, r := range results {
		metrics.TransfersTotal.WithLabelValues(string(r.Outcome), string(kind)).Inc()
		if r.Outcome == domain.OutcomeSuccess {
			metrics.TransferredAmount.WithLabelValues(string(kind)).Add(r.Amount.InexactFloat64())
		}
	}
}
