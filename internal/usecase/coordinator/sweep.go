package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/simaogato/autofund-backend/internal/metrics"
)

// SweepSummary aggregates one sweep over all users with due schedules
type SweepSummary struct {
	AsOf      time.Time
	Users     int // Users dispatched
	Succeeded int
	Failed    int
	Transfers int // Successful transfers across all users
}

// Sweep runs every user that has at least one schedule due at asOf, as of asOf
// Users are paged in ID order and run concurrently, bounded by SweepConcurrency and
// throttled by SweepRate. A failed user is logged and counted but does not stop
// the sweep; only listing errors and cancellation are returned.
func (c *Coordinator) Sweep(ctx context.Context, asOf time.Time) (*SweepSummary, error) {
	start := time.Now()
	defer func() {
		metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	limit := rate.Inf
	if c.cfg.SweepRate > 0 {
		limit = rate.Limit(c.cfg.SweepRate)
	}
	limiter := rate.NewLimiter(limit, 1)

	summary := &SweepSummary{AsOf: asOf}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(c.cfg.SweepConcurrency)

	dispatchErr := func() error {
		after := uuid.Nil
		for {
			users, err := c.Schedules.UsersWithDue(ctx, asOf, after, c.cfg.SweepPageSize)
			if err != nil {
				return errors.Wrap(err, "list users with due schedules")
			}

			for _, userID := range users {
				if err := limiter.Wait(ctx); err != nil {
					return err
				}
				userID := userID
				mu.Lock()
				summary.Users++
				mu.Unlock()

				g.Go(func() error {
					run, err := c.runAt(ctx, userID, asOf)

					mu.Lock()
					defer mu.Unlock()
					if err != nil {
						summary.Failed++
						metrics.SweepUsers.WithLabelValues("error").Inc()
						c.logger.Warnw("Sweep run failed", "user_id", userID, "error", err)
						return nil
					}
					summary.Succeeded++
					summary.Transfers += run.Executed
					metrics.SweepUsers.WithLabelValues("ok").Inc()
					return nil
				})
			}

			if len(users) < c.cfg.SweepPageSize {
				return nil
			}
			after = users[len(users)-1]
		}
	}()

	_ = g.Wait()
	if dispatchErr != nil {
		return summary, dispatchErr
	}

	c.logger.Infow("Sweep completed",
		"as_of", asOf,
		"users", summary.Users,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"transfers", summary.Transfers,
		"duration", time.Since(start),
	)
	return summary, nil
}
