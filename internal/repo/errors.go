package repo

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

func mapPgError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return ErrorConflict
		case "23503": // foreign_key_violation
			return ErrorNotFound
		}
	}
	return err
}
