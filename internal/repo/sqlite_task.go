package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/BuzzLyutic/task-workflow/internal/model"
)

const sqliteTaskColumns = `id, project_id, title, description, status, assignee, due_date,
	started_at, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// SQLiteTaskRepo implements TaskRepository on SQLite.
type SQLiteTaskRepo struct {
	db SQLDBTX
}

func scanSQLiteTask(row rowScanner) (model.Task, error) {
	var (
		t                           model.Task
		assignee, startedAt         sql.NullString
		dueDate, created, updatedAt string
	)
	if err := row.Scan(
		&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &assignee, &dueDate,
		&startedAt, &t.Version, &created, &updatedAt,
	); err != nil {
		return t, err
	}

	var err error
	t.Assignee = stringPtr(assignee)
	if t.DueDate, err = parseDate(dueDate); err != nil {
		return t, fmt.Errorf("parsing due_date: %w", err)
	}
	if t.StartedAt, err = parseNullableTimestamp(startedAt); err != nil {
		return t, fmt.Errorf("parsing started_at: %w", err)
	}
	if t.CreatedAt, err = parseTimestamp(created); err != nil {
		return t, fmt.Errorf("parsing created_at: %w", err)
	}
	if t.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return t, fmt.Errorf("parsing updated_at: %w", err)
	}
	return t, nil
}

func (r *SQLiteTaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	now := nowTimestamp()
	created, err := scanSQLiteTask(r.db.QueryRowContext(ctx, `
		INSERT INTO tasks (project_id, title, description, status, assignee, due_date, version, created_at, updated_at)
		VALUES (?, ?, ?, 'PENDING', ?, ?, 1, ?, ?)
		RETURNING `+sqliteTaskColumns,
		t.ProjectID, t.Title, t.Description, nullableString(t.Assignee), formatDate(t.DueDate), now, now,
	))
	return created, mapSQLiteError(err)
}

func (r *SQLiteTaskRepo) Get(ctx context.Context, id int64) (model.Task, error) {
	t, err := scanSQLiteTask(r.db.QueryRowContext(ctx, `
		SELECT `+sqliteTaskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, err
}

func (r *SQLiteTaskRepo) ListByProject(ctx context.Context, projectID int64) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sqliteTaskColumns+`
		FROM tasks
		WHERE project_id = ?
		ORDER BY created_at DESC, id DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanSQLiteTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *SQLiteTaskRepo) Update(ctx context.Context, t model.Task) (model.Task, error) {
	updated, err := scanSQLiteTask(r.db.QueryRowContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, assignee = ?, due_date = ?,
		    version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
		RETURNING `+sqliteTaskColumns,
		t.Title, t.Description, nullableString(t.Assignee), formatDate(t.DueDate), nowTimestamp(), t.ID, t.Version,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return t, r.missOrConflict(ctx, t.ID)
	}
	return updated, err
}

func (r *SQLiteTaskRepo) UpdateStatus(ctx context.Context, id int64, version int, status model.Status) (model.Task, error) {
	updated, err := scanSQLiteTask(r.db.QueryRowContext(ctx, `
		UPDATE tasks
		SET status = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
		RETURNING `+sqliteTaskColumns,
		string(status), nowTimestamp(), id, version,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return updated, r.missOrConflict(ctx, id)
	}
	return updated, err
}

func (r *SQLiteTaskRepo) MarkStarted(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET started_at = ? WHERE id = ? AND started_at IS NULL`,
		formatTimestamp(at), id)
	if err != nil {
		return fmt.Errorf("marking task started: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteTaskRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *SQLiteTaskRepo) CountByStatus(ctx context.Context, projectID int64) (map[model.Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM tasks WHERE project_id = ? GROUP BY status`, projectID)
	if err != nil {
		return nil, fmt.Errorf("counting tasks: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[model.Status(status)] = n
	}
	return counts, rows.Err()
}

func (r *SQLiteTaskRepo) missOrConflict(ctx context.Context, id int64) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = ?)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrorNotFound
	}
	return ErrorConflict
}

func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return ErrorConflict
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return ErrorNotFound
		}
	}
	return err
}
