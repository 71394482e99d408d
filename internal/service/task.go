package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BuzzLyutic/task-workflow/internal/model"
	"github.com/BuzzLyutic/task-workflow/internal/repo"
	"github.com/BuzzLyutic/task-workflow/internal/workflow"
)

var (
	ErrValidation = errors.New("validation error")
)

// TaskService covers task create/edit/delete. Status is never written here;
// it only changes through the workflow engine. Every mutation requires an
// authenticated actor.
type TaskService struct {
	store repo.Store
	caps  workflow.Capabilities
}

func NewTaskService(store repo.Store, caps workflow.Capabilities) *TaskService {
	return &TaskService{store: store, caps: caps}
}

// Create adds a task to its project. Any supplied status is ignored and the
// task starts PENDING.
func (s *TaskService) Create(ctx context.Context, t model.Task, actor model.Actor) (model.Task, error) {
	if err := workflow.CheckAuthenticated(actor); err != nil {
		return t, err
	}
	if err := validateTask(t); err != nil { // Валидация модели на корректность введенных данных
		return t, err
	}

	project, err := s.store.Projects().Get(ctx, t.ProjectID)
	if err != nil {
		return t, err
	}
	if err := checkDueDate(project, t); err != nil {
		return t, err
	}

	t.Status = model.StatusPending
	return s.store.Tasks().Create(ctx, t)
}

func (s *TaskService) Get(ctx context.Context, id int64) (model.Task, error) {
	return s.store.Tasks().Get(ctx, id)
}

// ListByProject returns the project's tasks, newest first. A missing project
// is repo.ErrorNotFound rather than an empty list.
func (s *TaskService) ListByProject(ctx context.Context, projectID int64) ([]model.Task, error) {
	if _, err := s.store.Projects().Get(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.Tasks().ListByProject(ctx, projectID)
}

// Update edits title, description, assignee and due date under the
// optimistic version check. Status and project are taken from the stored task.
// An assigned task can only be reassigned by its assignee or an elevated actor.
func (s *TaskService) Update(ctx context.Context, t model.Task, actor model.Actor) (model.Task, error) {
	if err := workflow.CheckAuthenticated(actor); err != nil {
		return t, err
	}
	if err := validateTask(t); err != nil {
		return t, err
	}

	current, err := s.store.Tasks().Get(ctx, t.ID)
	if err != nil {
		return t, err
	}
	if err := workflow.CheckReassign(current, t.Assignee, actor, s.caps); err != nil {
		return t, err
	}
	project, err := s.store.Projects().Get(ctx, current.ProjectID)
	if err != nil {
		return t, err
	}
	if err := checkDueDate(project, t); err != nil {
		return t, err
	}

	t.ProjectID = current.ProjectID
	t.Status = current.Status
	return s.store.Tasks().Update(ctx, t)
}

func (s *TaskService) Delete(ctx context.Context, id int64, actor model.Actor) error {
	if err := workflow.CheckAuthenticated(actor); err != nil {
		return err
	}
	return s.store.Tasks().Delete(ctx, id)
}

func validateTask(t model.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if t.DueDate.IsZero() {
		return fmt.Errorf("%w: due date is required", ErrValidation)
	}
	return nil
}

func checkDueDate(p model.Project, t model.Task) error {
	if !p.Covers(t.DueDate) {
		return fmt.Errorf("%w: due date %s is outside the project window %s..%s", ErrValidation,
			t.DueDate.Format(model.DateLayout), p.StartDate.Format(model.DateLayout), p.EndDate.Format(model.DateLayout))
	}
	return nil
}
