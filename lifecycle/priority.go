package lifecycle

import "sort"

type PriorityLevel int

const (
	Earliest PriorityLevel = -200
	Earlier  PriorityLevel = -100
	Normal   PriorityLevel = 0
	Later    PriorityLevel = 100
	Latest   PriorityLevel = 200
)

// Prioritized overrides the Normal registration priority of a starter or stopper.
// Lower values register earlier. Stable order is preserved for ties.
type Prioritized interface {
	Priority() PriorityLevel
}

func priorityOf(v any) PriorityLevel {
	if p, ok := v.(Prioritized); ok {
		return p.Priority()
	}
	return Normal
}

func sortByPriority[T any](values []T) []T {
	if len(values) <= 1 {
		return values
	}
	out := make([]T, len(values))
	copy(out, values)
	sort.SliceStable(out, func(i, j int) bool {
		return priorityOf(out[i]) < priorityOf(out[j])
	})
	return out
}
