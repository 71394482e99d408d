package repo

import (
	"context"

	"github.com/BuzzLyutic/task-workflow/internal/model"
)

// AuditRepo пишет журнал переходов. Только INSERT и SELECT.
type AuditRepo struct {
	db DBTX
}

func NewAuditRepo(db DBTX) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Append(ctx context.Context, rec model.Transition) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO task_transitions (id, task_id, from_status, to_status, actor_id, reason, created_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)
	`, rec.ID, rec.TaskID, rec.From, rec.To, rec.ActorID, rec.Reason, rec.CreatedAt)
	return mapPgError(err)
}

func (r *AuditRepo) ListByTask(ctx context.Context, taskID int64) ([]model.Transition, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id::text, task_id, from_status, to_status, actor_id, reason, created_at
		FROM task_transitions
		WHERE task_id = $1
		ORDER BY created_at, id
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]model.Transition, 0)
	for rows.Next() {
		var rec model.Transition
		if err := rows.Scan(&rec.ID, &rec.TaskID, &rec.From, &rec.To, &rec.ActorID, &rec.Reason, &rec.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, rec)
	}
	return history, rows.Err()
}
