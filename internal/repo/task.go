package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/BuzzLyutic/task-workflow/internal/model"
)

const taskColumns = `id, project_id, title, description, status, assignee, due_date,
	started_at, version, created_at, updated_at`

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	db DBTX
}

func NewTaskRepo(db DBTX) *TaskRepo { // Конструктор
	return &TaskRepo{
		db: db,
	}
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.Assignee, &t.DueDate,
		&t.StartedAt, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

// Create всегда создает задачу в статусе PENDING, переданный статус игнорируется
func (r *TaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	created, err := scanTask(r.db.QueryRow(ctx, `
		INSERT INTO tasks (project_id, title, description, status, assignee, due_date)
		VALUES ($1, $2, $3, 'PENDING', $4, $5)
		RETURNING `+taskColumns,
		t.ProjectID, t.Title, t.Description, t.Assignee, model.Day(t.DueDate),
	))
	return created, mapPgError(err)
}

func (r *TaskRepo) Get(ctx context.Context, id int64) (model.Task, error) {
	t, err := scanTask(r.db.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1
	`, id))

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, err
}

func (r *TaskRepo) ListByProject(ctx context.Context, projectID int64) ([]model.Task, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE project_id = $1
		ORDER BY created_at DESC, id DESC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepo) Update(ctx context.Context, t model.Task) (model.Task, error) {
	updated, err := scanTask(r.db.QueryRow(ctx, `
		UPDATE tasks
		SET title = $2, description = $3, assignee = $4, due_date = $5,
		    version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $6
		RETURNING `+taskColumns,
		t.ID, t.Title, t.Description, t.Assignee, model.Day(t.DueDate), t.Version,
	))

	if errors.Is(err, pgx.ErrNoRows) {
		return t, r.missOrConflict(ctx, t.ID)
	}
	return updated, err
}

func (r *TaskRepo) UpdateStatus(ctx context.Context, id int64, version int, status model.Status) (model.Task, error) {
	updated, err := scanTask(r.db.QueryRow(ctx, `
		UPDATE tasks
		SET status = $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $3
		RETURNING `+taskColumns,
		id, status, version,
	))

	if errors.Is(err, pgx.ErrNoRows) {
		return updated, r.missOrConflict(ctx, id)
	}
	return updated, err
}

func (r *TaskRepo) MarkStarted(ctx context.Context, id int64, at time.Time) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE tasks SET started_at = $2 WHERE id = $1 AND started_at IS NULL
	`, id, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		// либо задачи нет, либо старт уже записан
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *TaskRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *TaskRepo) CountByStatus(ctx context.Context, projectID int64) (map[model.Status]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT status, COUNT(*)
		FROM tasks
		WHERE project_id = $1
		GROUP BY status
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.Status]int)
	for rows.Next() {
		var (
			status model.Status
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// missOrConflict различает отсутствующую задачу и устаревшую версию
func (r *TaskRepo) missOrConflict(ctx context.Context, id int64) error {
	var exists bool
	if err := r.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)", id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrorNotFound
	}
	return ErrorConflict
}
