package ranker

import (
	"sort"

	"github.com/simaogato/autofund-backend/internal/domain"
)

// statusRank orders active work before not-yet-started work, and terminal goals
// last so they are visited (and skipped) rather than dropped.
var statusRank = map[domain.GoalStatus]int{
	domain.GoalStatusInProgress: 1,
	domain.GoalStatusPlanned:    2,
	domain.GoalStatusCompleted:  3,
	domain.GoalStatusArchived:   4,
}

const unknownStatusRank = 5

// Rank orders the funding items of one user
// Ordering key (ascending):
//  1. Goal priority tier (Lower = First)
//  2. Goal status rank (in_progress, planned, completed, archived, anything else)
//  3. Goal due date, goals without one after goals with one
//
// Ties keep their input order. The input slice is not modified.
func Rank(items []domain.FundingItem) []domain.FundingItem {
	ranked := make([]domain.FundingItem, len(items))
	copy(ranked, items)

	sort.SliceStable(ranked, func(i, j int) bool {
		return less(&ranked[i].Goal, &ranked[j].Goal)
	})

	return ranked
}

func less(a, b *domain.Goal) bool {
	if a.PriorityTier != b.PriorityTier {
		return a.PriorityTier < b.PriorityTier
	}

	ra, rb := rankOf(a.Status), rankOf(b.Status)
	if ra != rb {
		return ra < rb
	}

	switch {
	case a.DueDate != nil && b.DueDate != nil:
		return a.DueDate.Before(*b.DueDate)
	case a.DueDate != nil:
		return true
	default:
		return false
	}
}

func rankOf(status domain.GoalStatus) int {
	if r, ok := statusRank[status]; ok {
		return r
	}
	return unknownStatusRank
}
