// Package testutil provides testify mocks of the domain repositories shared by use case tests.
package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/simaogato/autofund-backend/internal/domain"
)

// MockScheduleRepository is a mock implementation of ScheduleRepository for testing
type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) Create(ctx context.Context, schedule *domain.TransferSchedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockScheduleRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.TransferSchedule, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransferSchedule), args.Error(1)
}

func (m *MockScheduleRepository) Update(ctx context.Context, schedule *domain.TransferSchedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockScheduleRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockScheduleRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.TransferSchedule, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TransferSchedule), args.Error(1)
}

func (m *MockScheduleRepository) FindActive(ctx context.Context, userID, goalID uuid.UUID) (*domain.TransferSchedule, error) {
	args := m.Called(ctx, userID, goalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransferSchedule), args.Error(1)
}

func (m *MockScheduleRepository) DueForUser(ctx context.Context, userID uuid.UUID, asOf time.Time) ([]*domain.TransferSchedule, error) {
	args := m.Called(ctx, userID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TransferSchedule), args.Error(1)
}

func (m *MockScheduleRepository) UsersWithDue(ctx context.Context, asOf time.Time, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	args := m.Called(ctx, asOf, after, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockGoalRepository is a mock implementation of GoalRepository for testing
type MockGoalRepository struct {
	mock.Mock
}

func (m *MockGoalRepository) Find(ctx context.Context, id, ownerID uuid.UUID) (*domain.Goal, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Goal), args.Error(1)
}

func (m *MockGoalRepository) Save(ctx context.Context, goal *domain.Goal) error {
	args := m.Called(ctx, goal)
	return args.Error(0)
}

// MockFinanceRepository is a mock implementation of FinanceRepository for testing
type MockFinanceRepository struct {
	mock.Mock
}

func (m *MockFinanceRepository) TotalSavings(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockLedgerRepository is a mock implementation of LedgerRepository for testing
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Append(ctx context.Context, entries ...*domain.LedgerEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockLedgerRepository) History(ctx context.Context, userID uuid.UUID, goalID *uuid.UUID, limit int) ([]*domain.LedgerEntry, error) {
	args := m.Called(ctx, userID, goalID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LedgerEntry), args.Error(1)
}

// UnitOfWork runs callbacks directly against fixed repositories, recording the users
// it was entered for. It provides no isolation and is meant for mock-backed tests.
type UnitOfWork struct {
	Repos domain.Repositories
	Users []uuid.UUID
}

func (u *UnitOfWork) WithinUser(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, repos domain.Repositories) error) error {
	u.Users = append(u.Users, userID)
	return fn(ctx, u.Repos)
}
