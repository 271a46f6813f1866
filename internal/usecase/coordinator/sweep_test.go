package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/autofund-backend/internal/domain"
)

func TestSweep_RunsEveryDueUser(t *testing.T) {
	f := newFixture(t)
	f.coordinator.cfg.SweepPageSize = 2 // force paging

	var users []uuid.UUID
	for i := 0; i < 5; i++ {
		userID := uuid.New()
		g := f.goal(t, userID, 1, domain.GoalStatusPlanned, 1000, 0)
		f.schedule(t, userID, g.ID, 100, fixedNow.Add(-time.Hour))
		f.store.SetSavings(userID, decimal.NewFromInt(500))
		users = append(users, userID)
	}

	// Not due: must not be counted
	idle := uuid.New()
	g := f.goal(t, idle, 1, domain.GoalStatusPlanned, 1000, 0)
	f.schedule(t, idle, g.ID, 100, fixedNow.Add(time.Hour))

	summary, err := f.coordinator.Sweep(context.Background(), fixedNow)

	require.NoError(t, err)
	assert.Equal(t, 5, summary.Users)
	assert.Equal(t, 5, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 5, summary.Transfers)
	for _, userID := range users {
		assert.Len(t, f.history(t, userID), 1)
	}
	assert.Empty(t, f.history(t, idle))
}

func TestSweep_UserFailureIsIsolated(t *testing.T) {
	f := newFixture(t)

	healthy, broken := uuid.New(), uuid.New()
	for _, userID := range []uuid.UUID{healthy, broken} {
		g := f.goal(t, userID, 1, domain.GoalStatusPlanned, 1000, 0)
		f.schedule(t, userID, g.ID, 100, fixedNow.Add(-time.Hour))
		f.store.SetSavings(userID, decimal.NewFromInt(500))
	}
	f.coordinator.UnitOfWork = &failingUnitOfWork{inner: f.store, users: map[uuid.UUID]bool{broken: true}}

	summary, err := f.coordinator.Sweep(context.Background(), fixedNow)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Users)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Len(t, f.history(t, healthy), 1)
	assert.Empty(t, f.history(t, broken))
}

func TestSweep_RunsUsersAsOfSweepTime(t *testing.T) {
	f := newFixture(t)
	asOf := fixedNow.AddDate(0, 0, 2)

	// Due after the coordinator's clock but before asOf
	userID := uuid.New()
	g := f.goal(t, userID, 1, domain.GoalStatusPlanned, 1000, 0)
	s := f.schedule(t, userID, g.ID, 100, fixedNow.AddDate(0, 0, 1))
	f.store.SetSavings(userID, decimal.NewFromInt(500))

	summary, err := f.coordinator.Sweep(context.Background(), asOf)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Users)
	assert.Equal(t, 1, summary.Transfers)

	entries := f.history(t, userID)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.OutcomeSuccess, entries[0].Outcome)
	assert.Equal(t, asOf, entries[0].OccurredAt)

	stored := f.findSchedule(t, s)
	require.NotNil(t, stored.LastFiredAt)
	assert.Equal(t, asOf, *stored.LastFiredAt)
	assert.Equal(t, asOf.AddDate(0, 1, 0), stored.NextDueAt)
}

func TestSweep_CancelledContext(t *testing.T) {
	f := newFixture(t)
	f.coordinator.cfg.SweepRate = 0.001 // the second dispatch would wait ~17 minutes

	for i := 0; i < 2; i++ {
		userID := uuid.New()
		g := f.goal(t, userID, 1, domain.GoalStatusPlanned, 1000, 0)
		f.schedule(t, userID, g.ID, 100, fixedNow.Add(-time.Hour))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	summary, err := f.coordinator.Sweep(ctx, fixedNow)

	assert.Error(t, err)
	assert.Equal(t, 1, summary.Users)
}

func TestTicker_SweepsPeriodically(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	g := f.goal(t, userID, 1, domain.GoalStatusPlanned, 1000, 0)
	f.schedule(t, userID, g.ID, 100, fixedNow.Add(-time.Hour))
	f.store.SetSavings(userID, decimal.NewFromInt(500))

	ticker := NewTicker(context.Background(), f.coordinator, TickerConfig{Interval: 10 * time.Millisecond}, nil)
	ticker.Start()

	assert.Eventually(t, func() bool { return ticker.Sweeps() >= 2 }, 2*time.Second, 5*time.Millisecond)
	ticker.Stop()

	assert.Equal(t, fixedNow, ticker.LastSweepAt())
	// The clock is frozen, so only the first sweep found the schedule due
	assert.Len(t, f.history(t, userID), 1)
}
