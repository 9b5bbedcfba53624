package schedule

import (
	"sort"

	"github.com/GoSim-25-26J-441/donna-backend/internal/projects/domain"
)

// SelectRotation picks at most n projects for the day's rotation slots,
// most in need of attention first. Candidates are non-daily projects with a
// path whose id is not excluded. Ordering is by last_worked ascending (never
// worked sorts first), then priority ascending, then id, then input order.
// The input slice is not modified.
func SelectRotation(projects []domain.Project, excluded []string, n int) []domain.Project {
	if n <= 0 {
		return []domain.Project{}
	}

	skip := make(map[string]struct{}, len(excluded))
	for _, id := range excluded {
		skip[id] = struct{}{}
	}

	candidates := make([]domain.Project, 0, len(projects))
	for _, p := range projects {
		if _, ok := skip[p.ID]; ok {
			continue
		}
		if !p.Eligible() {
			continue
		}
		candidates = append(candidates, p)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return rotationLess(candidates[i], candidates[j])
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

func rotationLess(a, b domain.Project) bool {
	switch {
	case a.LastWorked == nil && b.LastWorked != nil:
		return true
	case a.LastWorked != nil && b.LastWorked == nil:
		return false
	case a.LastWorked != nil && b.LastWorked != nil && !a.LastWorked.Equal(*b.LastWorked):
		return a.LastWorked.Before(*b.LastWorked)
	}
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.ID < b.ID
}
