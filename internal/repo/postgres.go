package repo

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var (
	_ DBTX = (*pgxpool.Pool)(nil)
	_ DBTX = (pgx.Tx)(nil)
)

// PgStore is the Postgres-backed Store.
type PgStore struct {
	db DBTX
}

func NewPgStore(db DBTX) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) Tasks() TaskRepository               { return NewTaskRepo(s.db) }
func (s *PgStore) Projects() ProjectRepository         { return NewProjectRepo(s.db) }
func (s *PgStore) Audit() AuditRepository              { return NewAuditRepo(s.db) }
func (s *PgStore) Idempotency() IdempotencyRepository { return NewIdempotencyRepo(s.db) }

// WithinTx runs fn in a transaction. Called on a store that is already inside
// a transaction it opens a savepoint.
func (s *PgStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(ctx, NewPgStore(tx))
	})
}

// MigratePostgres applies the embedded schema. Statements are idempotent.
func MigratePostgres(ctx context.Context, db DBTX) error {
	files, err := fs.Glob(postgresMigrations, "migrations/postgres/*.up.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, name := range files {
		stmt, err := postgresMigrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		if _, err := db.Exec(ctx, string(stmt)); err != nil {
			return fmt.Errorf("applying %s: %w", name, err)
		}
	}
	return nil
}
