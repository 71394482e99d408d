// Package repomock provides testify mocks of the repo interfaces.
package repomock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/BuzzLyutic/task-workflow/internal/model"
	"github.com/BuzzLyutic/task-workflow/internal/repo"
)

// Store - мок хранилища. WithinTx записывает вызов и выполняет fn на этом же моке.
type Store struct {
	mock.Mock
	TaskRepo        *TaskRepository
	ProjectRepo     *ProjectRepository
	AuditRepo       *AuditRepository
	IdempotencyRepo *IdempotencyRepository
}

func NewStore() *Store {
	return &Store{
		TaskRepo:        new(TaskRepository),
		ProjectRepo:     new(ProjectRepository),
		AuditRepo:       new(AuditRepository),
		IdempotencyRepo: new(IdempotencyRepository),
	}
}

func (m *Store) Tasks() repo.TaskRepository               { return m.TaskRepo }
func (m *Store) Projects() repo.ProjectRepository         { return m.ProjectRepo }
func (m *Store) Audit() repo.AuditRepository              { return m.AuditRepo }
func (m *Store) Idempotency() repo.IdempotencyRepository { return m.IdempotencyRepo }

func (m *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repo.Store) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, m)
}

// AssertExpectations checks the store and every repository mock.
func (m *Store) AssertExpectations(t mock.TestingT) bool {
	return m.Mock.AssertExpectations(t) &&
		m.TaskRepo.AssertExpectations(t) &&
		m.ProjectRepo.AssertExpectations(t) &&
		m.AuditRepo.AssertExpectations(t) &&
		m.IdempotencyRepo.AssertExpectations(t)
}

type TaskRepository struct {
	mock.Mock
}

func (m *TaskRepository) Create(ctx context.Context, t model.Task) (model.Task, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *TaskRepository) Get(ctx context.Context, id int64) (model.Task, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *TaskRepository) ListByProject(ctx context.Context, projectID int64) ([]model.Task, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *TaskRepository) Update(ctx context.Context, t model.Task) (model.Task, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *TaskRepository) UpdateStatus(ctx context.Context, id int64, version int, status model.Status) (model.Task, error) {
	args := m.Called(ctx, id, version, status)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *TaskRepository) MarkStarted(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *TaskRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *TaskRepository) CountByStatus(ctx context.Context, projectID int64) (map[model.Status]int, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(map[model.Status]int), args.Error(1)
}

type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, p model.Project) (model.Project, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(model.Project), args.Error(1)
}

func (m *ProjectRepository) Get(ctx context.Context, id int64) (model.Project, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Project), args.Error(1)
}

func (m *ProjectRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type AuditRepository struct {
	mock.Mock
}

func (m *AuditRepository) Append(ctx context.Context, rec model.Transition) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *AuditRepository) ListByTask(ctx context.Context, taskID int64) ([]model.Transition, error) {
	args := m.Called(ctx, taskID)
	return args.Get(0).([]model.Transition), args.Error(1)
}

type IdempotencyRepository struct {
	mock.Mock
}

func (m *IdempotencyRepository) Save(ctx context.Context, key string, resourceID int64) error {
	args := m.Called(ctx, key, resourceID)
	return args.Error(0)
}

func (m *IdempotencyRepository) Get(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}
