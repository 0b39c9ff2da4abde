package domain

// Filter is the store-wide view filter. It narrows what consumers see of a
// list's tasks without touching the stored tasks.
type Filter struct {
	HideCompleted bool      `json:"filterCompleted"`
	Priority      *Priority `json:"filterPriority"`
}

// Match reports whether t is visible under f.
func (f Filter) Match(t Task) bool {
	if f.HideCompleted && t.Completed {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	return true
}

// Apply returns copies of the tasks visible under f, in their stored order.
func (f Filter) Apply(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}
