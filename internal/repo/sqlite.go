package repo

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql
var sqliteMigrations embed.FS

const (
	dateLayout = "2006-01-02"
	// фиксированная ширина, чтобы строки сортировались как время
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// SQLDBTX is the common interface of *sql.DB and *sql.Tx.
type SQLDBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ SQLDBTX = (*sql.DB)(nil)
	_ SQLDBTX = (*sql.Tx)(nil)
)

// OpenSQLite opens (and migrates) a SQLite database file.
func OpenSQLite(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite допускает одного писателя; так транзакции сериализуются без SQLITE_BUSY
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode = WAL", "PRAGMA foreign_keys = ON"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := MigrateSQLite(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

func MigrateSQLite(ctx context.Context, db SQLDBTX) error {
	files, err := fs.Glob(sqliteMigrations, "migrations/sqlite/*.up.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, name := range files {
		stmt, err := sqliteMigrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(stmt)); err != nil {
			return fmt.Errorf("applying %s: %w", name, err)
		}
	}
	return nil
}

// SQLiteStore is the SQLite-backed Store, used for local runs and tests.
type SQLiteStore struct {
	db *sql.DB
	tx *sql.Tx
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) conn() SQLDBTX {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *SQLiteStore) Tasks() TaskRepository               { return &SQLiteTaskRepo{db: s.conn()} }
func (s *SQLiteStore) Projects() ProjectRepository         { return &SQLiteProjectRepo{db: s.conn()} }
func (s *SQLiteStore) Audit() AuditRepository              { return &SQLiteAuditRepo{db: s.conn()} }
func (s *SQLiteStore) Idempotency() IdempotencyRepository { return &SQLiteIdempotencyRepo{db: s.conn()} }

// WithinTx runs fn in a transaction. Nested calls join the outer transaction.
func (s *SQLiteStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.tx != nil {
		return fn(ctx, s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, &SQLiteStore{db: s.db, tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(timestampLayout, s)
}

func parseNullableTimestamp(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTimestamp(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nowTimestamp() string {
	return formatTimestamp(time.Now())
}
