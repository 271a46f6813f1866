// Package memory provides an in-process implementation of the domain repositories.
// Writes made inside WithinUser are staged and only applied when the callback
// succeeds, which gives the same all-or-nothing guarantee as the Postgres store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/autofund-backend/internal/domain"
)

// Store holds all state in memory
type Store struct {
	mu        sync.RWMutex
	schedules map[uuid.UUID]domain.TransferSchedule
	goals     map[uuid.UUID]domain.Goal
	savings   map[uuid.UUID]decimal.Decimal
	ledger    []domain.LedgerEntry

	userMu    sync.Mutex
	userLocks map[uuid.UUID]*sync.Mutex
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		schedules: make(map[uuid.UUID]domain.TransferSchedule),
		goals:     make(map[uuid.UUID]domain.Goal),
		savings:   make(map[uuid.UUID]decimal.Decimal),
		userLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// PutGoal inserts or replaces a goal, standing in for the goal service
func (s *Store) PutGoal(goal domain.Goal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[goal.ID] = goal
}

// SetSavings sets the user's savings pool, standing in for the finance service
func (s *Store) SetSavings(userID uuid.UUID, amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.savings[userID] = amount
}

// Repositories returns repositories that write through immediately
func (s *Store) Repositories() domain.Repositories {
	v := &view{store: s}
	return domain.Repositories{Schedules: v, Goals: v, Finance: v, Ledger: v}
}

// WithinUser implements domain.UnitOfWork
func (s *Store) WithinUser(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, repos domain.Repositories) error) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	v := &view{store: s, staged: newStage()}
	if err := fn(ctx, domain.Repositories{Schedules: v, Goals: v, Finance: v, Ledger: v}); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	v.staged.applyTo(s)
	return nil
}

func (s *Store) userLock(userID uuid.UUID) *sync.Mutex {
	s.userMu.Lock()
	defer s.userMu.Unlock()
	l, ok := s.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.userLocks[userID] = l
	}
	return l
}

// stage collects the writes of one unit of work
type stage struct {
	schedules map[uuid.UUID]*domain.TransferSchedule // nil value = deleted
	goals     map[uuid.UUID]domain.Goal
	ledger    []domain.LedgerEntry
}

func newStage() *stage {
	return &stage{
		schedules: make(map[uuid.UUID]*domain.TransferSchedule),
		goals:     make(map[uuid.UUID]domain.Goal),
	}
}

func (st *stage) applyTo(s *Store) {
	for id, schedule := range st.schedules {
		if schedule == nil {
			delete(s.schedules, id)
			continue
		}
		s.schedules[id] = *schedule
	}
	for id, goal := range st.goals {
		s.goals[id] = goal
	}
	s.ledger = append(s.ledger, st.ledger...)
}

// view implements every domain repository over a Store, optionally staging writes
type view struct {
	store  *Store
	staged *stage
}

// schedule returns the visible version of a schedule
func (v *view) schedule(id uuid.UUID) (domain.TransferSchedule, bool) {
	if v.staged != nil {
		if staged, ok := v.staged.schedules[id]; ok {
			if staged == nil {
				return domain.TransferSchedule{}, false
			}
			return *staged, true
		}
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	s, ok := v.store.schedules[id]
	return s, ok
}

// allSchedules returns the visible schedules merged with staged writes
func (v *view) allSchedules() []domain.TransferSchedule {
	v.store.mu.RLock()
	merged := make(map[uuid.UUID]domain.TransferSchedule, len(v.store.schedules))
	for id, s := range v.store.schedules {
		merged[id] = s
	}
	v.store.mu.RUnlock()

	if v.staged != nil {
		for id, s := range v.staged.schedules {
			if s == nil {
				delete(merged, id)
				continue
			}
			merged[id] = *s
		}
	}

	out := make([]domain.TransferSchedule, 0, len(merged))
	for _, s := range merged {
		out = append(out, s)
	}
	return out
}

func (v *view) putSchedule(schedule domain.TransferSchedule) {
	if v.staged != nil {
		v.staged.schedules[schedule.ID] = &schedule
		return
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	v.store.schedules[schedule.ID] = schedule
}

// Create implements domain.ScheduleRepository
func (v *view) Create(ctx context.Context, schedule *domain.TransferSchedule) error {
	if schedule.Active {
		existing, err := v.FindActive(ctx, schedule.UserID, schedule.GoalID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicateSchedule
		}
	}
	v.putSchedule(*schedule)
	return nil
}

// GetByID implements domain.ScheduleRepository
func (v *view) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.TransferSchedule, error) {
	s, ok := v.schedule(id)
	if !ok || s.UserID != userID {
		return nil, errors.Wrapf(domain.ErrNotFound, "schedule %s", id)
	}
	return &s, nil
}

// Update implements domain.ScheduleRepository
func (v *view) Update(ctx context.Context, schedule *domain.TransferSchedule) error {
	if _, err := v.GetByID(ctx, schedule.ID, schedule.UserID); err != nil {
		return err
	}
	if schedule.Active {
		existing, err := v.FindActive(ctx, schedule.UserID, schedule.GoalID)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != schedule.ID {
			return domain.ErrDuplicateSchedule
		}
	}
	v.putSchedule(*schedule)
	return nil
}

// Delete implements domain.ScheduleRepository
func (v *view) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := v.GetByID(ctx, id, userID); err != nil {
		return err
	}
	if v.staged != nil {
		v.staged.schedules[id] = nil
		return nil
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	delete(v.store.schedules, id)
	return nil
}

// ListByUser implements domain.ScheduleRepository
func (v *view) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.TransferSchedule, error) {
	var out []*domain.TransferSchedule
	for _, s := range v.allSchedules() {
		if s.UserID == userID {
			s := s
			out = append(out, &s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// FindActive implements domain.ScheduleRepository
func (v *view) FindActive(ctx context.Context, userID, goalID uuid.UUID) (*domain.TransferSchedule, error) {
	for _, s := range v.allSchedules() {
		if s.UserID == userID && s.GoalID == goalID && s.Active {
			s := s
			return &s, nil
		}
	}
	return nil, nil
}

// DueForUser implements domain.ScheduleRepository
func (v *view) DueForUser(ctx context.Context, userID uuid.UUID, asOf time.Time) ([]*domain.TransferSchedule, error) {
	var out []*domain.TransferSchedule
	for _, s := range v.allSchedules() {
		if s.UserID == userID && s.IsDue(asOf) {
			s := s
			out = append(out, &s)
		}
	}
	return out, nil
}

// UsersWithDue implements domain.ScheduleRepository
func (v *view) UsersWithDue(ctx context.Context, asOf time.Time, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var users []uuid.UUID
	for _, s := range v.allSchedules() {
		if !s.IsDue(asOf) || seen[s.UserID] {
			continue
		}
		seen[s.UserID] = true
		if s.UserID.String() > after.String() {
			users = append(users, s.UserID)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].String() < users[j].String()
	})
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

// Find implements domain.GoalRepository
func (v *view) Find(ctx context.Context, id, ownerID uuid.UUID) (*domain.Goal, error) {
	if v.staged != nil {
		if g, ok := v.staged.goals[id]; ok {
			if g.UserID != ownerID {
				return nil, errors.Wrapf(domain.ErrNotFound, "goal %s", id)
			}
			return &g, nil
		}
	}
	v.store.mu.RLock()
	g, ok := v.store.goals[id]
	v.store.mu.RUnlock()
	if !ok || g.UserID != ownerID {
		return nil, errors.Wrapf(domain.ErrNotFound, "goal %s", id)
	}
	return &g, nil
}

// Save implements domain.GoalRepository
func (v *view) Save(ctx context.Context, goal *domain.Goal) error {
	if _, err := v.Find(ctx, goal.ID, goal.UserID); err != nil {
		return err
	}
	if v.staged != nil {
		v.staged.goals[goal.ID] = *goal
		return nil
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	v.store.goals[goal.ID] = *goal
	return nil
}

// TotalSavings implements domain.FinanceRepository
func (v *view) TotalSavings(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	return v.store.savings[userID], nil
}

// Append implements domain.LedgerRepository
func (v *view) Append(ctx context.Context, entries ...*domain.LedgerEntry) error {
	rows := make([]domain.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, *e)
	}
	if v.staged != nil {
		v.staged.ledger = append(v.staged.ledger, rows...)
		return nil
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	v.store.ledger = append(v.store.ledger, rows...)
	return nil
}

// History implements domain.LedgerRepository
func (v *view) History(ctx context.Context, userID uuid.UUID, goalID *uuid.UUID, limit int) ([]*domain.LedgerEntry, error) {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()

	rows := make([]domain.LedgerEntry, 0, len(v.store.ledger))
	rows = append(rows, v.store.ledger...)
	if v.staged != nil {
		rows = append(rows, v.staged.ledger...)
	}

	var out []*domain.LedgerEntry
	// Newest first; insertion order breaks timestamp ties
	for i := len(rows) - 1; i >= 0; i-- {
		e := rows[i]
		if e.UserID != userID || (goalID != nil && e.GoalID != *goalID) {
			continue
		}
		if g, ok := v.store.goals[e.GoalID]; ok {
			e.GoalTitle = g.Title
			e.GoalCategory = g.Category
			e.GoalPriority = g.PriorityTier
		}
		out = append(out, &e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
