package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/BuzzLyutic/task-workflow/internal/model"
)

type SQLiteProjectRepo struct {
	db SQLDBTX
}

func (r *SQLiteProjectRepo) Create(ctx context.Context, p model.Project) (model.Project, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (name, description, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.Description, formatDate(p.StartDate), formatDate(p.EndDate), nowTimestamp())
	if err != nil {
		return p, mapSQLiteError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return p, fmt.Errorf("reading project id: %w", err)
	}
	return r.Get(ctx, id)
}

func (r *SQLiteProjectRepo) Get(ctx context.Context, id int64) (model.Project, error) {
	var (
		p                        model.Project
		start, end, createdAtStr string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, start_date, end_date, created_at
		FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &start, &end, &createdAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrorNotFound
	}
	if err != nil {
		return p, err
	}

	if p.StartDate, err = parseDate(start); err != nil {
		return p, fmt.Errorf("parsing start_date: %w", err)
	}
	if p.EndDate, err = parseDate(end); err != nil {
		return p, fmt.Errorf("parsing end_date: %w", err)
	}
	if p.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return p, fmt.Errorf("parsing created_at: %w", err)
	}
	return p, nil
}

func (r *SQLiteProjectRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrorNotFound
	}
	return nil
}

type SQLiteAuditRepo struct {
	db SQLDBTX
}

func (r *SQLiteAuditRepo) Append(ctx context.Context, rec model.Transition) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO task_transitions (id, task_id, from_status, to_status, actor_id, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.TaskID, string(rec.From), string(rec.To), rec.ActorID, nullableString(rec.Reason), formatTimestamp(rec.CreatedAt))
	return mapSQLiteError(err)
}

func (r *SQLiteAuditRepo) ListByTask(ctx context.Context, taskID int64) ([]model.Transition, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, task_id, from_status, to_status, actor_id, reason, created_at
		FROM task_transitions
		WHERE task_id = ?
		ORDER BY created_at, rowid`, taskID)
	if err != nil {
		return nil, fmt.Errorf("listing transitions: %w", err)
	}
	defer rows.Close()

	history := make([]model.Transition, 0)
	for rows.Next() {
		var (
			rec        model.Transition
			from, to   string
			reason     sql.NullString
			createdStr string
		)
		if err := rows.Scan(&rec.ID, &rec.TaskID, &from, &to, &rec.ActorID, &reason, &createdStr); err != nil {
			return nil, err
		}
		rec.From, rec.To = model.Status(from), model.Status(to)
		rec.Reason = stringPtr(reason)
		if rec.CreatedAt, err = parseTimestamp(createdStr); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		history = append(history, rec)
	}
	return history, rows.Err()
}

type SQLiteIdempotencyRepo struct {
	db SQLDBTX
}

func (r *SQLiteIdempotencyRepo) Save(ctx context.Context, key string, resourceID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO idempotency_keys (key, resource_id, created_at) VALUES (?, ?, ?)`,
		key, resourceID, nowTimestamp())
	return mapSQLiteError(err)
}

func (r *SQLiteIdempotencyRepo) Get(ctx context.Context, key string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT resource_id FROM idempotency_keys WHERE key = ?`, key).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrorNotFound
	}
	return id, err
}
