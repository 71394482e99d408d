package worker

import (
	"context"
	"errors"

	"github.com/BuzzLyutic/task-workflow/internal/model"
	"github.com/BuzzLyutic/task-workflow/internal/repo"
)

// StartRecorder stamps a task's actual start time when it first moves from
// PENDING to IN_PROGRESS. Later starts keep the first timestamp.
type StartRecorder struct {
	store repo.Store
}

func NewStartRecorder(store repo.Store) *StartRecorder {
	return &StartRecorder{store: store}
}

func (r *StartRecorder) Name() string { return "start-recorder" }

func (r *StartRecorder) Handle(ctx context.Context, rec model.Transition) error {
	if rec.From != model.StatusPending || rec.To != model.StatusInProgress {
		return nil
	}
	err := r.store.Tasks().MarkStarted(ctx, rec.TaskID, rec.CreatedAt)
	if errors.Is(err, repo.ErrorNotFound) {
		// задачу успели удалить
		return nil
	}
	return err
}
