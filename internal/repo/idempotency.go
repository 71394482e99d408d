package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

type IdempotencyRepo struct {
	db DBTX
}

func NewIdempotencyRepo(db DBTX) *IdempotencyRepo {
	return &IdempotencyRepo{db: db}
}

// Save binds key to resourceID. A key that is already bound is ErrorConflict.
func (r *IdempotencyRepo) Save(ctx context.Context, key string, resourceID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO idempotency_keys (key, resource_id) VALUES ($1, $2)
	`, key, resourceID)
	return mapPgError(err)
}

func (r *IdempotencyRepo) Get(ctx context.Context, key string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		SELECT resource_id FROM idempotency_keys WHERE key = $1
	`, key).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrorNotFound
	}
	return id, err
}
