package events

import (
	"fmt"
	"sort"
)

// Ranker orders scored events and slices them into pages.
type Ranker struct{}

func NewRanker() *Ranker {
	return &Ranker{}
}

// Run sorts by (score desc, start time asc, title asc) and returns the
// requested 1-indexed page plus the total count. A page beyond the available
// range yields an empty page, not an error.
func (r *Ranker) Run(scored []ScoredEvent, page, pageSize int) ([]ScoredEvent, int, error) {
	if page < 1 {
		return nil, 0, NewValidationError(fmt.Sprintf("page must be >= 1, got %d", page))
	}
	if pageSize < 1 {
		return nil, 0, NewValidationError(fmt.Sprintf("page_size must be >= 1, got %d", pageSize))
	}

	ordered := make([]ScoredEvent, len(scored))
	copy(ordered, scored)

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.StartTime.Equal(b.StartTime) {
			return a.StartTime.Before(b.StartTime)
		}
		return a.Title < b.Title
	})

	total := len(ordered)
	start := (page - 1) * pageSize
	if start >= total {
		return []ScoredEvent{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return ordered[start:end], total, nil
}
