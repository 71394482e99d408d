package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/BuzzLyutic/task-workflow/internal/model"
	"github.com/BuzzLyutic/task-workflow/internal/repo"
	"github.com/BuzzLyutic/task-workflow/internal/workflow"
)

// ProjectWithTasks is a project together with its initial tasks.
type ProjectWithTasks struct {
	model.Project
	Tasks []model.Task `json:"tasks"`
}

type ProjectService struct {
	store repo.Store
}

func NewProjectService(store repo.Store) *ProjectService {
	return &ProjectService{store: store}
}

// CreateWithInitialTasks creates the project and all of its tasks in one
// transaction; if any task is rejected nothing is stored. Tasks always start
// PENDING. A non-empty idempotency key that was already used returns the
// project created under it.
func (s *ProjectService) CreateWithInitialTasks(ctx context.Context, p model.Project, tasks []model.Task, actor model.Actor, idempKey string) (ProjectWithTasks, error) {
	if err := workflow.CheckAuthenticated(actor); err != nil {
		return ProjectWithTasks{}, err
	}
	if err := validateProject(p); err != nil {
		return ProjectWithTasks{}, err
	}
	for i, t := range tasks {
		if err := validateTask(t); err != nil {
			return ProjectWithTasks{}, fmt.Errorf("task %d: %w", i, err)
		}
		if err := checkDueDate(p, t); err != nil {
			return ProjectWithTasks{}, fmt.Errorf("task %d: %w", i, err)
		}
	}

	if idempKey != "" { // Обеспечение идемпотентности - если ключ уже использован, проект не создается повторно
		if existingID, err := s.store.Idempotency().Get(ctx, idempKey); err == nil {
			return s.load(ctx, existingID)
		} else if !errors.Is(err, repo.ErrorNotFound) {
			return ProjectWithTasks{}, err
		}
	}

	var result ProjectWithTasks
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Store) error {
		created, err := tx.Projects().Create(ctx, p)
		if err != nil {
			return err
		}

		result = ProjectWithTasks{Project: created, Tasks: make([]model.Task, 0, len(tasks))}
		for _, t := range tasks {
			t.ProjectID = created.ID
			t.Status = model.StatusPending
			task, err := tx.Tasks().Create(ctx, t)
			if err != nil {
				return err
			}
			result.Tasks = append(result.Tasks, task)
		}

		if idempKey != "" {
			return tx.Idempotency().Save(ctx, idempKey, created.ID)
		}
		return nil
	})
	if err != nil {
		// ключ занял параллельный запрос - отдаем его результат
		if idempKey != "" && errors.Is(err, repo.ErrorConflict) {
			if existingID, getErr := s.store.Idempotency().Get(ctx, idempKey); getErr == nil {
				return s.load(ctx, existingID)
			}
		}
		return ProjectWithTasks{}, err
	}
	return result, nil
}

func (s *ProjectService) Get(ctx context.Context, id int64) (model.Project, error) {
	return s.store.Projects().Get(ctx, id)
}

// Delete removes the project and its tasks. Their audit history is kept.
func (s *ProjectService) Delete(ctx context.Context, id int64, actor model.Actor) error {
	if err := workflow.CheckAuthenticated(actor); err != nil {
		return err
	}
	return s.store.Projects().Delete(ctx, id)
}

// Summarize reports the project's task counts by status and its progress.
func (s *ProjectService) Summarize(ctx context.Context, projectID int64) (model.Summary, error) {
	if _, err := s.store.Projects().Get(ctx, projectID); err != nil {
		return model.Summary{}, err
	}
	counts, err := s.store.Tasks().CountByStatus(ctx, projectID)
	if err != nil {
		return model.Summary{}, fmt.Errorf("counting tasks: %w", err)
	}
	return Summarize(projectID, counts), nil
}

// Summarize builds a summary from per-status counts. Progress is the share of
// DONE tasks in percent, rounded to two decimals, and 0 for an empty project.
// Every known status is present in CountsByStatus.
func Summarize(projectID int64, counts map[model.Status]int) model.Summary {
	summary := model.Summary{
		ProjectID:      projectID,
		CountsByStatus: make(map[model.Status]int, len(model.Statuses())),
	}
	for _, st := range model.Statuses() {
		summary.CountsByStatus[st] = 0
	}
	for st, n := range counts {
		summary.CountsByStatus[st] += n
		summary.Total += n
	}
	if summary.Total > 0 {
		pct := 100 * float64(summary.CountsByStatus[model.StatusDone]) / float64(summary.Total)
		summary.ProgressPercentage = math.Round(pct*100) / 100
	}
	return summary
}

func (s *ProjectService) load(ctx context.Context, id int64) (ProjectWithTasks, error) {
	p, err := s.store.Projects().Get(ctx, id)
	if err != nil {
		return ProjectWithTasks{}, err
	}
	tasks, err := s.store.Tasks().ListByProject(ctx, id)
	if err != nil {
		return ProjectWithTasks{}, err
	}
	return ProjectWithTasks{Project: p, Tasks: tasks}, nil
}

func validateProject(p model.Project) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrValidation)
	}
	if !model.Day(p.EndDate).After(model.Day(p.StartDate)) {
		return fmt.Errorf("%w: end date must be after start date", ErrValidation)
	}
	return nil
}
