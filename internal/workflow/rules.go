package workflow

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BuzzLyutic/task-workflow/internal/model"
)

// MinCompletionNotes is the minimum trimmed description length for DONE.
const MinCompletionNotes = 10

// Capabilities is the identity provider's capability predicate.
type Capabilities interface {
	Allows(actor model.Actor, capability model.Capability) bool
}

// CapabilitiesFunc adapts a function to Capabilities.
type CapabilitiesFunc func(actor model.Actor, capability model.Capability) bool

func (f CapabilitiesFunc) Allows(actor model.Actor, capability model.Capability) bool {
	return f(actor, capability)
}

// CheckAuthenticated fails unless actor is a known, authenticated identity.
func CheckAuthenticated(actor model.Actor) error {
	if !actor.Known() {
		return ErrUnauthenticated
	}
	return nil
}

// CheckTable fails with a *TransitionError when to is not reachable from
// task's current status.
func CheckTable(task model.Task, to model.Status) error {
	if !IsAllowed(task.Status, to) {
		return &TransitionError{From: task.Status, To: to, Allowed: Allowed(task.Status)}
	}
	return nil
}

// CheckBusinessRules evaluates the preconditions of the target status against
// the task snapshot. now is the evaluation time.
func CheckBusinessRules(task model.Task, to model.Status, now time.Time) error {
	switch to {
	case model.StatusInProgress:
		if !task.HasAssignee() {
			return ErrMissingAssignee
		}
		if !task.DueDate.IsZero() && model.Day(task.DueDate).Before(model.Day(now)) {
			return ErrPastDueDate
		}
	case model.StatusDone:
		if utf8.RuneCountInString(strings.TrimSpace(task.Description)) < MinCompletionNotes {
			return ErrMissingCompletionNotes
		}
	}
	return nil
}

// CheckAuthorization applies the role-based rules. A nil caps grants nothing.
func CheckAuthorization(task model.Task, to model.Status, actor model.Actor, caps Capabilities) error {
	elevated := caps != nil && caps.Allows(actor, model.CapabilityElevated)

	switch to {
	case model.StatusDone:
		if task.HasAssignee() && !task.AssignedTo(actor.ID) && !elevated {
			return ErrNotAssignee
		}
	case model.StatusCancelled:
		if task.Status == model.StatusInProgress && !elevated {
			return ErrInsufficientPrivilege
		}
	}
	return nil
}

// CheckReassign guards edits of the assignee: once a task is assigned, only
// that assignee or an elevated actor may change or clear it.
func CheckReassign(task model.Task, assignee *string, actor model.Actor, caps Capabilities) error {
	if !task.HasAssignee() || sameAssignee(task.Assignee, assignee) {
		return nil
	}
	if task.AssignedTo(actor.ID) || (caps != nil && caps.Allows(actor, model.CapabilityElevated)) {
		return nil
	}
	return ErrReassignDenied
}

func sameAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Evaluate runs every check in order and returns the first failure.
func Evaluate(task model.Task, to model.Status, actor model.Actor, caps Capabilities, now time.Time) error {
	if err := CheckAuthenticated(actor); err != nil {
		return err
	}
	if err := CheckTable(task, to); err != nil {
		return err
	}
	if err := CheckBusinessRules(task, to, now); err != nil {
		return err
	}
	return CheckAuthorization(task, to, actor, caps)
}
