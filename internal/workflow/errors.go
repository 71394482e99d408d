package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BuzzLyutic/task-workflow/internal/model"
)

var (
	ErrUnauthenticated        = errors.New("actor is not authenticated")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrMissingAssignee        = errors.New("task must have an assignee before it can start")
	ErrPastDueDate            = errors.New("task due date is in the past")
	ErrMissingCompletionNotes = errors.New("task description must have at least 10 characters to complete")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrConcurrentModification = errors.New("task was modified concurrently")

	ErrNotAssignee           error = &permissionError{"only the assignee or an administrator can complete the task"}
	ErrInsufficientPrivilege error = &permissionError{"only an administrator can cancel a task in progress"}
	ErrReassignDenied        error = &permissionError{"only the assignee or an administrator can reassign the task"}
)

// permissionError is an authorization failure; it matches ErrPermissionDenied.
type permissionError struct {
	msg string
}

func (e *permissionError) Error() string { return e.msg }

func (e *permissionError) Unwrap() error { return ErrPermissionDenied }

// TransitionError reports a target status unreachable from the current one.
type TransitionError struct {
	From    model.Status
	To      model.Status
	Allowed []model.Status
}

func (e *TransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	if len(allowed) == 0 {
		return fmt.Sprintf("cannot move task from %s to %s: %s is terminal", e.From, e.To, e.From)
	}
	return fmt.Sprintf("cannot move task from %s to %s (allowed: %s)", e.From, e.To, strings.Join(allowed, ", "))
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// IsRuleViolation reports whether err is one of the business-rule failures.
func IsRuleViolation(err error) bool {
	return errors.Is(err, ErrMissingAssignee) ||
		errors.Is(err, ErrPastDueDate) ||
		errors.Is(err, ErrMissingCompletionNotes)
}
