package workflow

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/BuzzLyutic/task-workflow/internal/model"
)

var (
	now = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

	alice = model.Actor{ID: "alice", Authenticated: true}
	bob   = model.Actor{ID: "bob", Authenticated: true}
	admin = model.Actor{ID: "root", Roles: []string{"admin"}, Authenticated: true}

	adminCaps = CapabilitiesFunc(func(a model.Actor, c model.Capability) bool {
		return c == model.CapabilityElevated && slices.Contains(a.Roles, "admin")
	})
)

func strPtr(s string) *string { return &s }

func TestCheckAuthenticated(t *testing.T) {
	tests := []struct {
		name    string
		actor   model.Actor
		wantErr error
	}{
		{name: "authenticated user", actor: alice},
		{name: "anonymous", actor: model.Anonymous, wantErr: ErrUnauthenticated},
		{name: "id without authentication", actor: model.Actor{ID: "alice"}, wantErr: ErrUnauthenticated},
		{name: "authenticated without id", actor: model.Actor{Authenticated: true}, wantErr: ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAuthenticated(tt.actor)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckTable_CarriesAllowedSet(t *testing.T) {
	err := CheckTable(model.Task{Status: model.StatusPending}, model.StatusDone)

	assert.ErrorIs(t, err, ErrInvalidTransition)
	var te *TransitionError
	if assert.ErrorAs(t, err, &te) {
		assert.Equal(t, model.StatusPending, te.From)
		assert.Equal(t, model.StatusDone, te.To)
		assert.Equal(t, []model.Status{model.StatusInProgress, model.StatusCancelled}, te.Allowed)
	}
}

func TestCheckBusinessRules(t *testing.T) {
	tomorrow := now.AddDate(0, 0, 1)

	tests := []struct {
		name    string
		task    model.Task
		to      model.Status
		wantErr error
	}{
		{
			name:    "start without assignee",
			task:    model.Task{Status: model.StatusPending, DueDate: tomorrow},
			to:      model.StatusInProgress,
			wantErr: ErrMissingAssignee,
		},
		{
			name:    "start with empty assignee",
			task:    model.Task{Status: model.StatusPending, Assignee: strPtr(""), DueDate: tomorrow},
			to:      model.StatusInProgress,
			wantErr: ErrMissingAssignee,
		},
		{
			name: "start with assignee",
			task: model.Task{Status: model.StatusPending, Assignee: strPtr("alice"), DueDate: tomorrow},
			to:   model.StatusInProgress,
		},
		{
			name: "start on the due date itself",
			task: model.Task{Status: model.StatusPending, Assignee: strPtr("alice"), DueDate: model.Day(now)},
			to:   model.StatusInProgress,
		},
		{
			name:    "start after the due date",
			task:    model.Task{Status: model.StatusPending, Assignee: strPtr("alice"), DueDate: now.AddDate(0, 0, -1)},
			to:      model.StatusInProgress,
			wantErr: ErrPastDueDate,
		},
		{
			name:    "missing assignee wins over past due date",
			task:    model.Task{Status: model.StatusPending, DueDate: now.AddDate(0, 0, -1)},
			to:      model.StatusInProgress,
			wantErr: ErrMissingAssignee,
		},
		{
			name:    "complete with empty description",
			task:    model.Task{Status: model.StatusInProgress},
			to:      model.StatusDone,
			wantErr: ErrMissingCompletionNotes,
		},
		{
			name:    "complete with 9 characters after trim",
			task:    model.Task{Status: model.StatusInProgress, Description: "   123456789   "},
			to:      model.StatusDone,
			wantErr: ErrMissingCompletionNotes,
		},
		{
			name: "complete with exactly 10 characters after trim",
			task: model.Task{Status: model.StatusInProgress, Description: "\t1234567890\n"},
			to:   model.StatusDone,
		},
		{
			name: "complete counts characters not bytes",
			task: model.Task{Status: model.StatusInProgress, Description: "concluídaá"},
			to:   model.StatusDone,
		},
		{
			name: "cancel has no business rule",
			task: model.Task{Status: model.StatusInProgress},
			to:   model.StatusCancelled,
		},
		{
			name: "back to pending has no business rule",
			task: model.Task{Status: model.StatusCancelled},
			to:   model.StatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckBusinessRules(tt.task, tt.to, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckAuthorization(t *testing.T) {
	tests := []struct {
		name    string
		task    model.Task
		to      model.Status
		actor   model.Actor
		wantErr error
	}{
		{
			name:  "assignee completes",
			task:  model.Task{Status: model.StatusInProgress, Assignee: strPtr("alice")},
			to:    model.StatusDone,
			actor: alice,
		},
		{
			name:    "other user completes",
			task:    model.Task{Status: model.StatusInProgress, Assignee: strPtr("alice")},
			to:      model.StatusDone,
			actor:   bob,
			wantErr: ErrNotAssignee,
		},
		{
			name:  "admin completes someone else's task",
			task:  model.Task{Status: model.StatusInProgress, Assignee: strPtr("alice")},
			to:    model.StatusDone,
			actor: admin,
		},
		{
			name:  "anyone completes an unassigned task",
			task:  model.Task{Status: model.StatusInProgress},
			to:    model.StatusDone,
			actor: bob,
		},
		{
			name:    "ordinary user cancels in-progress task",
			task:    model.Task{Status: model.StatusInProgress, Assignee: strPtr("alice")},
			to:      model.StatusCancelled,
			actor:   alice,
			wantErr: ErrInsufficientPrivilege,
		},
		{
			name:  "admin cancels in-progress task",
			task:  model.Task{Status: model.StatusInProgress},
			to:    model.StatusCancelled,
			actor: admin,
		},
		{
			name:  "ordinary user cancels pending task",
			task:  model.Task{Status: model.StatusPending},
			to:    model.StatusCancelled,
			actor: bob,
		},
		{
			name:  "ordinary user reopens cancelled task",
			task:  model.Task{Status: model.StatusCancelled},
			to:    model.StatusPending,
			actor: bob,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAuthorization(tt.task, tt.to, tt.actor, adminCaps)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrPermissionDenied)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckAuthorization_NilCapabilitiesGrantsNothing(t *testing.T) {
	err := CheckAuthorization(model.Task{Status: model.StatusInProgress}, model.StatusCancelled, admin, nil)
	assert.ErrorIs(t, err, ErrInsufficientPrivilege)
}

func TestEvaluate_Order(t *testing.T) {
	past := now.AddDate(0, 0, -5)

	tests := []struct {
		name    string
		task    model.Task
		to      model.Status
		actor   model.Actor
		wantErr error
	}{
		{
			name:    "authentication before table",
			task:    model.Task{Status: model.StatusDone},
			to:      model.StatusPending,
			actor:   model.Anonymous,
			wantErr: ErrUnauthenticated,
		},
		{
			name:    "table before business rules",
			task:    model.Task{Status: model.StatusPending},
			to:      model.StatusDone,
			actor:   alice,
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "business rules before authorization",
			task:    model.Task{Status: model.StatusInProgress, Assignee: strPtr("alice"), Description: "short"},
			to:      model.StatusDone,
			actor:   bob,
			wantErr: ErrMissingCompletionNotes,
		},
		{
			name:    "authorization last",
			task:    model.Task{Status: model.StatusInProgress, Assignee: strPtr("alice"), Description: "all work finished"},
			to:      model.StatusDone,
			actor:   bob,
			wantErr: ErrNotAssignee,
		},
		{
			name:    "past due start",
			task:    model.Task{Status: model.StatusPending, Assignee: strPtr("alice"), DueDate: past},
			to:      model.StatusInProgress,
			actor:   alice,
			wantErr: ErrPastDueDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Evaluate(tt.task, tt.to, tt.actor, adminCaps, now), tt.wantErr)
		})
	}
}

func TestIsRuleViolation(t *testing.T) {
	assert.True(t, IsRuleViolation(ErrMissingAssignee))
	assert.True(t, IsRuleViolation(ErrPastDueDate))
	assert.True(t, IsRuleViolation(ErrMissingCompletionNotes))
	assert.False(t, IsRuleViolation(ErrNotAssignee))
	assert.False(t, IsRuleViolation(ErrUnauthenticated))
}

func TestCheckReassign(t *testing.T) {
	assigned := model.Task{Assignee: strPtr("alice")}

	tests := []struct {
		name     string
		task     model.Task
		assignee *string
		actor    model.Actor
		wantErr  error
	}{
		{name: "unassigned task can be claimed", task: model.Task{}, assignee: strPtr("bob"), actor: bob},
		{name: "same assignee", task: assigned, assignee: strPtr("alice"), actor: bob},
		{name: "assignee hands over", task: assigned, assignee: strPtr("bob"), actor: alice},
		{name: "admin reassigns", task: assigned, assignee: strPtr("bob"), actor: admin},
		{name: "other user takes over", task: assigned, assignee: strPtr("bob"), actor: bob, wantErr: ErrReassignDenied},
		{name: "other user clears", task: assigned, assignee: nil, actor: bob, wantErr: ErrReassignDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckReassign(tt.task, tt.assignee, tt.actor, adminCaps)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrPermissionDenied)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
