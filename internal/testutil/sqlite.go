package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/BuzzLyutic/task-workflow/internal/model"
	"github.com/BuzzLyutic/task-workflow/internal/repo"
)

// NewSQLiteStore opens a migrated SQLite store in the test's temp dir.
func NewSQLiteStore(t *testing.T) *repo.SQLiteStore {
	t.Helper()

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return repo.NewSQLiteStore(db)
}

// Date returns midnight UTC of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SeedProject создает проект, покрывающий [today-30d, today+365d].
func SeedProject(t *testing.T, store repo.Store) model.Project {
	t.Helper()

	today := model.Day(time.Now())
	p, err := store.Projects().Create(context.Background(), model.Project{
		Name:      "Seed project",
		StartDate: today.AddDate(0, 0, -30),
		EndDate:   today.AddDate(1, 0, 0),
	})
	if err != nil {
		t.Fatalf("Failed to seed project: %v", err)
	}
	return p
}

// SeedTasks создает count задач в проекте со сроком завтра
func SeedTasks(t *testing.T, store repo.Store, projectID int64, count int) []model.Task {
	t.Helper()

	due := model.Day(time.Now()).AddDate(0, 0, 1)
	tasks := make([]model.Task, 0, count)
	for i := 0; i < count; i++ {
		task, err := store.Tasks().Create(context.Background(), model.Task{
			ProjectID: projectID,
			Title:     fmt.Sprintf("Task %d", i+1),
			DueDate:   due,
		})
		if err != nil {
			t.Fatalf("Failed to seed task: %v", err)
		}
		tasks = append(tasks, task)
	}
	return tasks
}

// WaitForCondition ждет выполнения условия с таймаутом
func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
