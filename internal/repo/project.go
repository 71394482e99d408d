package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/BuzzLyutic/task-workflow/internal/model"
)

type ProjectRepo struct {
	db DBTX
}

func NewProjectRepo(db DBTX) *ProjectRepo {
	return &ProjectRepo{db: db}
}

func (r *ProjectRepo) Create(ctx context.Context, p model.Project) (model.Project, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO projects (name, description, start_date, end_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, description, start_date, end_date, created_at
	`, p.Name, p.Description, model.Day(p.StartDate), model.Day(p.EndDate)).Scan(
		&p.ID, &p.Name, &p.Description, &p.StartDate, &p.EndDate, &p.CreatedAt,
	)
	return p, mapPgError(err)
}

func (r *ProjectRepo) Get(ctx context.Context, id int64) (model.Project, error) {
	var p model.Project
	err := r.db.QueryRow(ctx, `
		SELECT id, name, description, start_date, end_date, created_at
		FROM projects
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.StartDate, &p.EndDate, &p.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return p, ErrorNotFound
	}
	return p, err
}

// Delete удаляет проект, задачи удаляются каскадно (ON DELETE CASCADE)
func (r *ProjectRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, "DELETE FROM projects WHERE id = $1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}
