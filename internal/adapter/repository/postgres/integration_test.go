//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/autofund-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/autofund-backend/internal/config"
	"github.com/simaogato/autofund-backend/internal/domain"
	"github.com/simaogato/autofund-backend/internal/usecase/coordinator"
	"github.com/simaogato/autofund-backend/internal/usecase/schedule"
)

var db *postgres.DB

// TestMain connects to the database named by the DB_* or AUTOFUND_DATABASE_* environment
// and applies the schema.
func TestMain(m *testing.M) {
	cfg, err := config.LoadWithViper(config.New())
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	db, err = postgres.NewDB(cfg.Database.DSN(), postgres.PoolConfig{MaxOpenConns: 10, MaxIdleConns: 5})
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}

	if err := postgres.Migrate(context.Background(), db); err != nil {
		panic(fmt.Sprintf("Failed to migrate: %v", err))
	}

	code := m.Run()
	db.Close()
	os.Exit(code)
}

// seedUser inserts goals and a savings row for a fresh user
func seedUser(t *testing.T, savings int64, goals ...domain.Goal) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	userID := uuid.New()

	for _, g := range goals {
		_, err := db.ExecContext(ctx, `
			INSERT INTO goals (id, user_id, title, category, target_amount, current_amount, priority_tier, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			g.ID, userID, g.Title, g.Category, g.TargetAmount.String(), g.CurrentAmount.String(), g.PriorityTier, string(g.Status))
		require.NoError(t, err)
	}

	_, err := db.ExecContext(ctx, `INSERT INTO finances (id, user_id, savings) VALUES ($1, $2, $3)`,
		uuid.New(), userID, decimal.NewFromInt(savings).String())
	require.NoError(t, err)

	return userID
}

func newGoal(title string, tier int, target int64) domain.Goal {
	return domain.Goal{
		ID:            uuid.New(),
		Title:         title,
		Category:      "savings",
		TargetAmount:  decimal.NewFromInt(target),
		CurrentAmount: decimal.Zero,
		PriorityTier:  tier,
		Status:        domain.GoalStatusInProgress,
	}
}

func newCoordinator(at time.Time) *coordinator.Coordinator {
	repos := postgres.NewRepositories(db)
	c := coordinator.NewCoordinator(postgres.NewUnitOfWork(db), repos.Schedules, coordinator.DefaultConfig(), nil)
	c.Now = func() time.Time { return at }
	return c
}

func TestEndToEnd_RunRankAndLedger(t *testing.T) {
	ctx := context.Background()
	repos := postgres.NewRepositories(db)
	schedules := schedule.NewScheduleService(postgres.NewUnitOfWork(db), repos.Schedules, repos.Goals)

	critical := newGoal("Emergency fund", 1, 5000)
	optional := newGoal("Holiday", 3, 5000)
	userID := seedUser(t, 1000, critical, optional)

	for _, g := range []domain.Goal{optional, critical} {
		_, err := schedules.Create(ctx, schedule.CreateInput{
			UserID: userID, GoalID: g.ID, Amount: decimal.NewFromInt(600), Cadence: domain.CadenceMonthly,
		})
		require.NoError(t, err)
	}

	// A second active schedule for the same goal violates the partial unique index
	_, err := schedules.Create(ctx, schedule.CreateInput{
		UserID: userID, GoalID: critical.ID, Amount: decimal.NewFromInt(10), Cadence: domain.CadenceWeekly,
	})
	assert.True(t, errors.Is(err, domain.ErrDuplicateSchedule), "got %v", err)

	runAt := time.Now().AddDate(0, 2, 0)
	summary, err := newCoordinator(runAt).Run(ctx, userID)
	require.NoError(t, err)

	require.Len(t, summary.Results, 2)
	assert.Equal(t, 1, summary.Executed)
	assert.Equal(t, critical.ID, summary.Results[0].GoalID)
	assert.Equal(t, domain.OutcomeSuccess, summary.Results[0].Outcome)
	assert.Equal(t, optional.ID, summary.Results[1].GoalID)
	assert.Equal(t, domain.ReasonInsufficientPool, summary.Results[1].Reason)
	assert.True(t, summary.PoolRemaining.Equal(decimal.NewFromInt(400)))

	goal, err := repos.Goals.Find(ctx, critical.ID, userID)
	require.NoError(t, err)
	assert.True(t, goal.CurrentAmount.Equal(decimal.NewFromInt(600)))

	history, err := repos.Ledger.History(ctx, userID, nil, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, entry := range history {
		assert.Equal(t, domain.TransferKindAutomated, entry.Kind)
		assert.NotEmpty(t, entry.GoalTitle)
	}
}

func TestEndToEnd_ConcurrentRunsFireOnce(t *testing.T) {
	ctx := context.Background()
	repos := postgres.NewRepositories(db)
	schedules := schedule.NewScheduleService(postgres.NewUnitOfWork(db), repos.Schedules, repos.Goals)

	g := newGoal("House deposit", 1, 50000)
	userID := seedUser(t, 10000, g)
	created, err := schedules.Create(ctx, schedule.CreateInput{
		UserID: userID, GoalID: g.ID, Amount: decimal.NewFromInt(250), Cadence: domain.CadenceWeekly,
	})
	require.NoError(t, err)

	// Separate coordinators share no in-process lock, so only the advisory lock serializes them
	runAt := time.Now().AddDate(0, 0, 8)
	var wg sync.WaitGroup
	executed := make([]int, 4)
	for i := range executed {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			summary, err := newCoordinator(runAt).Run(ctx, userID)
			if assert.NoError(t, err) {
				executed[i] = summary.Executed
			}
		}(i)
	}
	wg.Wait()

	total := 0
	for _, n := range executed {
		total += n
	}
	assert.Equal(t, 1, total)

	stored, err := repos.Schedules.GetByID(ctx, created.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.FiredCount)
	assert.True(t, stored.TotalTransferred.Equal(decimal.NewFromInt(250)))

	goal, err := repos.Goals.Find(ctx, g.ID, userID)
	require.NoError(t, err)
	assert.True(t, goal.CurrentAmount.Equal(decimal.NewFromInt(250)))
}

func TestEndToEnd_SweepFindsDueUsers(t *testing.T) {
	ctx := context.Background()
	repos := postgres.NewRepositories(db)
	schedules := schedule.NewScheduleService(postgres.NewUnitOfWork(db), repos.Schedules, repos.Goals)

	g := newGoal("Car", 2, 3000)
	userID := seedUser(t, 500, g)
	_, err := schedules.Create(ctx, schedule.CreateInput{
		UserID: userID, GoalID: g.ID, Amount: decimal.NewFromInt(100), Cadence: domain.CadenceBiweekly,
	})
	require.NoError(t, err)

	// Other users' data may be due too; only this user's outcome is asserted
	asOf := time.Now().AddDate(0, 0, 15)
	summary, err := newCoordinator(asOf).Sweep(ctx, asOf)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, summary.Users, 1)

	history, err := repos.Ledger.History(ctx, userID, &g.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.OutcomeSuccess, history[0].Outcome)
	assert.True(t, history[0].Amount.Equal(decimal.NewFromInt(100)))
}
