package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/simaogato/autofund-backend/internal/domain"
)

// unitOfWork implements domain.UnitOfWork with one transaction per call
type unitOfWork struct {
	db *DB
}

// NewUnitOfWork creates a unit of work backed by db
func NewUnitOfWork(db *DB) domain.UnitOfWork {
	return &unitOfWork{db: db}
}

// NewRepositories returns repositories that run each call in autocommit mode
func NewRepositories(db *DB) domain.Repositories {
	return bind(db.DB)
}

func bind(q querier) domain.Repositories {
	return domain.Repositories{
		Schedules: &scheduleRepository{q: q},
		Goals:     &goalRepository{q: q},
		Finance:   &financeRepository{q: q},
		Ledger:    &ledgerRepository{q: q},
	}
}

// WithinUser runs fn in a transaction holding a transaction-scoped advisory lock on userID
// The lock serializes runs for the same user across processes and is released on
// commit or rollback.
func (u *unitOfWork) WithinUser(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, repos domain.Repositories) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID.String()); err != nil {
		return errors.Wrap(err, "failed to acquire user lock")
	}

	if err := fn(ctx, bind(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}
