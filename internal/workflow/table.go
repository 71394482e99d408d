package workflow

import "github.com/BuzzLyutic/task-workflow/internal/model"

// transitions is the static status graph. It is never mutated; callers only
// ever receive copies of its slices.
var transitions = map[model.Status][]model.Status{
	model.StatusPending:    {model.StatusInProgress, model.StatusCancelled},
	model.StatusInProgress: {model.StatusDone, model.StatusCancelled, model.StatusPending},
	model.StatusDone:       {},
	model.StatusCancelled:  {model.StatusPending},
}

// Allowed returns the statuses reachable from "from" in one step.
func Allowed(from model.Status) []model.Status {
	next := transitions[from]
	out := make([]model.Status, len(next))
	copy(out, next)
	return out
}

// IsAllowed reports whether to is reachable from "from" in one step.
func IsAllowed(from, to model.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s has no outgoing transitions.
func IsTerminal(s model.Status) bool {
	return s.IsValid() && len(transitions[s]) == 0
}
