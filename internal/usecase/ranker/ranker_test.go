package ranker

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/autofund-backend/internal/domain"
)

func item(tier int, status domain.GoalStatus, due *time.Time) domain.FundingItem {
	goalID := uuid.New()
	return domain.FundingItem{
		Schedule: domain.TransferSchedule{ID: uuid.New(), GoalID: goalID},
		Goal: domain.Goal{
			ID:           goalID,
			PriorityTier: tier,
			Status:       status,
			DueDate:      due,
		},
	}
}

func goalIDs(items []domain.FundingItem) []uuid.UUID {
	ids := make([]uuid.UUID, len(items))
	for i, it := range items {
		ids[i] = it.Goal.ID
	}
	return ids
}

func ptr(t time.Time) *time.Time { return &t }

func TestRank_PriorityTierFirst(t *testing.T) {
	low := item(3, domain.GoalStatusInProgress, nil)
	critical := item(1, domain.GoalStatusPlanned, nil)
	high := item(2, domain.GoalStatusInProgress, nil)

	ranked := Rank([]domain.FundingItem{low, critical, high})

	assert.Equal(t, []uuid.UUID{critical.Goal.ID, high.Goal.ID, low.Goal.ID}, goalIDs(ranked))
}

func TestRank_StatusWithinTier(t *testing.T) {
	archived := item(2, domain.GoalStatusArchived, nil)
	planned := item(2, domain.GoalStatusPlanned, nil)
	unknown := item(2, domain.GoalStatus("wishlist"), nil)
	completed := item(2, domain.GoalStatusCompleted, nil)
	inProgress := item(2, domain.GoalStatusInProgress, nil)

	ranked := Rank([]domain.FundingItem{archived, planned, unknown, completed, inProgress})

	assert.Equal(t, []uuid.UUID{
		inProgress.Goal.ID,
		planned.Goal.ID,
		completed.Goal.ID,
		archived.Goal.ID,
		unknown.Goal.ID,
	}, goalIDs(ranked))
}

func TestRank_DueDateWithinStatus(t *testing.T) {
	base := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	noDue := item(1, domain.GoalStatusInProgress, nil)
	later := item(1, domain.GoalStatusInProgress, ptr(base.AddDate(0, 2, 0)))
	sooner := item(1, domain.GoalStatusInProgress, ptr(base))

	ranked := Rank([]domain.FundingItem{noDue, later, sooner})

	assert.Equal(t, []uuid.UUID{sooner.Goal.ID, later.Goal.ID, noDue.Goal.ID}, goalIDs(ranked))
}

func TestRank_StableForTies(t *testing.T) {
	// Ten identical keys must come out in input order every time
	items := make([]domain.FundingItem, 10)
	for i := range items {
		items[i] = item(2, domain.GoalStatusPlanned, nil)
	}

	for run := 0; run < 5; run++ {
		ranked := Rank(items)
		require.Len(t, ranked, len(items))
		assert.Equal(t, goalIDs(items), goalIDs(ranked))
	}
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	first := item(5, domain.GoalStatusPlanned, nil)
	second := item(1, domain.GoalStatusPlanned, nil)
	input := []domain.FundingItem{first, second}

	_ = Rank(input)

	assert.Equal(t, first.Goal.ID, input[0].Goal.ID)
	assert.Equal(t, second.Goal.ID, input[1].Goal.ID)
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(nil))
}
