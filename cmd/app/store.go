package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-workflow/internal/config"
	"github.com/BuzzLyutic/task-workflow/internal/repo"
)

// openStore connects to the configured database. The returned func releases it.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (repo.Store, func(), error) {
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		db, err := repo.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Opened SQLite database", zap.String("path", cfg.SQLitePath))
		return repo.NewSQLiteStore(db), func() { db.Close() }, nil

	default:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL) // Создаем новое соединение к БД
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil { // Пытаемся пингануть БД
			pool.Close()
			return nil, nil, fmt.Errorf("pinging database: %w", err)
		}
		logger.Info("Successfully connected to the Database!")
		return repo.NewPgStore(pool), pool.Close, nil
	}
}

// migrateStore applies the schema. SQLite migrates itself on open.
func migrateStore(ctx context.Context, cfg config.Config) error {
	if cfg.DatabaseDriver == config.DriverSQLite {
		db, err := repo.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return err
		}
		return db.Close()
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()
	return repo.MigratePostgres(ctx, pool)
}
