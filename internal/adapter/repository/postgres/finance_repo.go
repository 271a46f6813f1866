package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/autofund-backend/internal/domain"
)

// financeRepository implements domain.FinanceRepository over the finance service's table
type financeRepository struct {
	q querier
}

// NewFinanceRepository creates a new finance repository
func NewFinanceRepository(db *DB) domain.FinanceRepository {
	return &financeRepository{q: db.DB}
}

// TotalSavings returns the sum of the user's savings across all finance records
func (r *financeRepository) TotalSavings(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(savings), 0)::TEXT FROM finances WHERE user_id = $1`

	var totalStr string
	if err := r.q.QueryRowContext(ctx, query, userID).Scan(&totalStr); err != nil {
		return decimal.Zero, errors.Wrap(err, "failed to sum savings")
	}

	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "failed to parse savings total")
	}
	return total, nil
}
