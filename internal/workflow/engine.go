package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-workflow/internal/model"
	"github.com/BuzzLyutic/task-workflow/internal/repo"
)

// Dispatcher receives committed transitions for post-transition side effects.
// Dispatch must not block.
type Dispatcher interface {
	Dispatch(rec model.Transition)
}

type Engine struct {
	store      repo.Store
	caps       Capabilities
	dispatcher Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

type Option func(*Engine)

// WithClock sets the time source used for due-date checks and audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(store repo.Store, caps Capabilities, dispatcher Dispatcher, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		caps:       caps,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Transition moves task to status "to" on behalf of actor. Checks run in a
// fixed order and the first failure is returned with the task unchanged:
// self-transition short-circuit, authentication, transition table, business
// rules, authorization. On success the status write and the audit record are
// committed together, side effects are dispatched, and the stored task is
// returned.
func (e *Engine) Transition(ctx context.Context, task model.Task, to model.Status, actor model.Actor, reason string) (model.Task, error) {
	if to == task.Status {
		return task, nil
	}

	now := e.now()
	fields := []zap.Field{
		zap.Int64("task_id", task.ID),
		zap.String("from", task.Status.String()),
		zap.String("to", to.String()),
		zap.String("actor", actor.ID),
	}

	if err := Evaluate(task, to, actor, e.caps, now); err != nil {
		e.logger.Info("transition rejected", append(fields, zap.Error(err))...)
		return task, err
	}

	rec := model.Transition{
		ID:        uuid.NewString(),
		TaskID:    task.ID,
		From:      task.Status,
		To:        to,
		ActorID:   actor.ID,
		CreatedAt: now.UTC(),
	}
	if r := strings.TrimSpace(reason); r != "" {
		rec.Reason = &r
	}

	var updated model.Task
	err := e.store.WithinTx(ctx, func(ctx context.Context, tx repo.Store) error {
		var err error
		// версия из снимка: если задачу успели изменить, UPDATE не найдет строку
		updated, err = tx.Tasks().UpdateStatus(ctx, task.ID, task.Version, to)
		if err != nil {
			return err
		}
		return tx.Audit().Append(ctx, rec)
	})
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrorConflict):
			e.logger.Info("transition lost a concurrent update", fields...)
			return task, fmt.Errorf("%w: %w", ErrConcurrentModification, err)
		case errors.Is(err, repo.ErrorNotFound):
			return task, err
		default:
			e.logger.Error("transition commit failed", append(fields, zap.Error(err))...)
			return task, fmt.Errorf("committing transition: %w", err)
		}
	}

	e.logger.Info("transition accepted", append(fields, zap.String("transition_id", rec.ID))...)

	if e.dispatcher != nil {
		e.dispatcher.Dispatch(rec)
	}
	return updated, nil
}

// TransitionByID loads the task and transitions it. A missing task is repo.ErrorNotFound.
func (e *Engine) TransitionByID(ctx context.Context, id int64, to model.Status, actor model.Actor, reason string) (model.Task, error) {
	task, err := e.store.Tasks().Get(ctx, id)
	if err != nil {
		return task, err
	}
	return e.Transition(ctx, task, to, actor, reason)
}

// AvailableTransitions lists the statuses reachable from the task's current
// status. Rules are not evaluated.
func (e *Engine) AvailableTransitions(task model.Task) []model.Status {
	return Allowed(task.Status)
}

// CanTransitionTo is a table-membership pre-filter only; Transition may still
// reject the move on rules or authorization.
func (e *Engine) CanTransitionTo(task model.Task, to model.Status) bool {
	return IsAllowed(task.Status, to)
}

// History returns the task's audit trail, oldest first.
func (e *Engine) History(ctx context.Context, taskID int64) ([]model.Transition, error) {
	return e.store.Audit().ListByTask(ctx, taskID)
}
