package repo

import (
	"context"
	"time"

	"github.com/BuzzLyutic/task-workflow/internal/model"
)

// TaskRepository определяет интерфейс для работы с задачами
type TaskRepository interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	Get(ctx context.Context, id int64) (model.Task, error)
	ListByProject(ctx context.Context, projectID int64) ([]model.Task, error)
	// Update edits title, description, assignee and due date. Status is never written here.
	Update(ctx context.Context, t model.Task) (model.Task, error)
	// UpdateStatus writes the status only if the stored version still equals version.
	UpdateStatus(ctx context.Context, id int64, version int, status model.Status) (model.Task, error)
	MarkStarted(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
	CountByStatus(ctx context.Context, projectID int64) (map[model.Status]int, error)
}

type ProjectRepository interface {
	Create(ctx context.Context, p model.Project) (model.Project, error)
	Get(ctx context.Context, id int64) (model.Project, error)
	// Delete removes the project together with its tasks.
	Delete(ctx context.Context, id int64) error
}

// AuditRepository is the append-only transition log.
type AuditRepository interface {
	Append(ctx context.Context, rec model.Transition) error
	ListByTask(ctx context.Context, taskID int64) ([]model.Transition, error)
}

// IdempotencyRepository maps client idempotency keys to created resources.
// Save fails with ErrorConflict when the key is already bound.
type IdempotencyRepository interface {
	Save(ctx context.Context, key string, resourceID int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// Store groups the repositories over one database handle. Inside WithinTx
// every repository of tx shares a single transaction; an error returned by
// fn rolls all of it back.
type Store interface {
	Tasks() TaskRepository
	Projects() ProjectRepository
	Audit() AuditRepository
	Idempotency() IdempotencyRepository
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
