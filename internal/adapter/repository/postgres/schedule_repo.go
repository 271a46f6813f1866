package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/autofund-backend/internal/domain"
)

const scheduleColumns = `id, user_id, goal_id, amount, cadence, active, next_due_at, last_fired_at,
		total_transferred, fired_count, created_at, updated_at`

// scheduleRepository implements domain.ScheduleRepository
type scheduleRepository struct {
	q querier
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db *DB) domain.ScheduleRepository {
	return &scheduleRepository{q: db.DB}
}

// Create inserts a new schedule
// The partial unique index on (user_id, goal_id) WHERE active backs the duplicate check.
func (r *scheduleRepository) Create(ctx context.Context, s *domain.TransferSchedule) error {
	query := `
		INSERT INTO transfer_schedules (` + scheduleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.q.ExecContext(ctx, query,
		s.ID,
		s.UserID,
		s.GoalID,
		s.Amount.String(),
		string(s.Cadence),
		s.Active,
		s.NextDueAt,
		nullTime(s.LastFiredAt),
		s.TotalTransferred.String(),
		s.FiredCount,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateSchedule
		}
		return errors.Wrap(err, "failed to create schedule")
	}

	return nil
}

// GetByID retrieves a schedule owned by userID and locks it for the rest of the transaction
func (r *scheduleRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.TransferSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM transfer_schedules
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`

	s, err := scanSchedule(r.q.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(domain.ErrNotFound, "schedule %s", id)
		}
		return nil, errors.Wrap(err, "failed to get schedule by ID")
	}
	return s, nil
}

// Update overwrites the mutable fields of a schedule
func (r *scheduleRepository) Update(ctx context.Context, s *domain.TransferSchedule) error {
	query := `
		UPDATE transfer_schedules
		SET amount = $3, cadence = $4, active = $5, next_due_at = $6, last_fired_at = $7,
			total_transferred = $8, fired_count = $9, updated_at = $10
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.q.ExecContext(ctx, query,
		s.ID,
		s.UserID,
		s.Amount.String(),
		string(s.Cadence),
		s.Active,
		s.NextDueAt,
		nullTime(s.LastFiredAt),
		s.TotalTransferred.String(),
		s.FiredCount,
		s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateSchedule
		}
		return errors.Wrap(err, "failed to update schedule")
	}

	return expectOneRow(result, "schedule", s.ID)
}

// Delete hard-deletes a schedule; ledger rows keep their schedule_id
func (r *scheduleRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM transfer_schedules WHERE id = $1 AND user_id = $2`

	result, err := r.q.ExecContext(ctx, query, id, userID)
	if err != nil {
		return errors.Wrap(err, "failed to delete schedule")
	}

	return expectOneRow(result, "schedule", id)
}

// ListByUser retrieves all schedules of a user, newest first
func (r *scheduleRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.TransferSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM transfer_schedules
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, userID)
}

// FindActive retrieves the active schedule for a goal, or nil
func (r *scheduleRepository) FindActive(ctx context.Context, userID, goalID uuid.UUID) (*domain.TransferSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM transfer_schedules
		WHERE user_id = $1 AND goal_id = $2 AND active
	`

	s, err := scanSchedule(r.q.QueryRowContext(ctx, query, userID, goalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find active schedule")
	}
	return s, nil
}

// DueForUser retrieves the user's active schedules due at asOf
// Rows are locked for the rest of the transaction.
func (r *scheduleRepository) DueForUser(ctx context.Context, userID uuid.UUID, asOf time.Time) ([]*domain.TransferSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM transfer_schedules
		WHERE user_id = $1 AND active AND next_due_at <= $2
		FOR UPDATE
	`
	return r.list(ctx, query, userID, asOf)
}

// UsersWithDue pages through users having due schedules, ordered by user ID
func (r *scheduleRepository) UsersWithDue(ctx context.Context, asOf time.Time, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT user_id
		FROM transfer_schedules
		WHERE active AND next_due_at <= $1 AND user_id > $2
		ORDER BY user_id
		LIMIT $3
	`

	rows, err := r.q.QueryContext(ctx, query, asOf, after, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users with due schedules")
	}
	defer rows.Close()

	var users []uuid.UUID
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return nil, errors.Wrap(err, "failed to scan user ID")
		}
		users = append(users, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate users")
	}
	return users, nil
}

func (r *scheduleRepository) list(ctx context.Context, query string, args ...any) ([]*domain.TransferSchedule, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query schedules")
	}
	defer rows.Close()

	var schedules []*domain.TransferSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan schedule")
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate schedules")
	}
	return schedules, nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (*domain.TransferSchedule, error) {
	var s domain.TransferSchedule
	var amountStr, totalStr, cadence string
	var lastFired sql.NullTime

	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.GoalID,
		&amountStr,
		&cadence,
		&s.Active,
		&s.NextDueAt,
		&lastFired,
		&totalStr,
		&s.FiredCount,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Cadence = domain.Cadence(cadence)
	if lastFired.Valid {
		t := lastFired.Time
		s.LastFiredAt = &t
	}

	// Parse amount and total_transferred (NUMERIC)
	if s.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, errors.Wrap(err, "failed to parse amount")
	}
	if s.TotalTransferred, err = decimal.NewFromString(totalStr); err != nil {
		return nil, errors.Wrap(err, "failed to parse total_transferred")
	}

	return &s, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// expectOneRow maps "no row affected" to ErrNotFound
func expectOneRow(result sql.Result, entity string, id uuid.UUID) error {
	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if n == 0 {
		return errors.Wrapf(domain.ErrNotFound, "%s %s", entity, id)
	}
	return nil
}
