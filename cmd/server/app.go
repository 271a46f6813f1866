package main

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/simaogato/autofund-backend/internal/adapter/repository/memory"
	"github.com/simaogato/autofund-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/autofund-backend/internal/config"
	"github.com/simaogato/autofund-backend/internal/domain"
	"github.com/simaogato/autofund-backend/internal/logger"
	"github.com/simaogato/autofund-backend/internal/usecase/coordinator"
	"github.com/simaogato/autofund-backend/internal/usecase/ledger"
	"github.com/simaogato/autofund-backend/internal/usecase/schedule"
)

// app holds the wired services shared by every command
type app struct {
	cfg    *config.Config
	logger *zap.SugaredLogger
	db     *postgres.DB // nil with the memory driver

	schedules   *schedule.ScheduleService
	ledger      *ledger.LedgerService
	coordinator *coordinator.Coordinator
}

// newApp loads configuration, connects the store and builds the services
func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: log}

	var repos domain.Repositories
	var uow domain.UnitOfWork
	switch cfg.Database.Driver {
	case "memory":
		log.Warnw("Using in-memory store; data is lost on exit")
		store := memory.NewStore()
		repos, uow = store.Repositories(), store
	default:
		db, err := connect(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		a.db = db
		repos, uow = postgres.NewRepositories(db), postgres.NewUnitOfWork(db)
	}

	a.schedules = schedule.NewScheduleService(uow, repos.Schedules, repos.Goals)
	a.ledger = ledger.NewLedgerService(repos.Ledger)
	a.coordinator = coordinator.NewCoordinator(uow, repos.Schedules, coordinator.Config{
		SweepConcurrency: cfg.Sweep.Concurrency,
		SweepRate:        cfg.Sweep.Rate,
		SweepPageSize:    cfg.Sweep.PageSize,
	}, log)

	return a, nil
}

// connect opens the database, waiting StartupDelay first so Postgres can come up
func connect(ctx context.Context, cfg config.DatabaseConfig, log *zap.SugaredLogger) (*postgres.DB, error) {
	if cfg.StartupDelay > 0 {
		select {
		case <-time.After(cfg.StartupDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	db, err := postgres.NewDB(cfg.DSN(), postgres.PoolConfig{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, errors.WithHint(err, "check the database.* settings or DB_* environment variables")
	}
	log.Infow("Connected to database", "host", cfg.Host, "name", cfg.Name)
	return db, nil
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warnw("Failed to close database", "error", err)
		}
	}
	_ = a.logger.Sync()
}
