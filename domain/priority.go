package domain

// Priority is a task's urgency label.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var priorityRanks = map[Priority]int{
	PriorityHigh:   3,
	PriorityMedium: 2,
	PriorityLow:    1,
}

// Rank returns the sort weight of the priority. Unrecognized values rank as
// medium so ordering never fails on bad data.
func (p Priority) Rank() int {
	if r, ok := priorityRanks[p]; ok {
		return r
	}
	return priorityRanks[PriorityMedium]
}

// Valid reports whether p is one of the known priority labels.
func (p Priority) Valid() bool {
	_, ok := priorityRanks[p]
	return ok
}
