package sqlstore

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/warp/inventory-engine/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translate wraps a driver error as a *domain.PersistenceError. Unique
// violations also match domain.ErrConflict; foreign key violations also
// carry a *domain.ValidationError naming the dangling reference.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case isUniqueConstraintError(err):
		return &domain.PersistenceError{Op: op, Err: fmt.Errorf("%w: %w", domain.ErrConflict, err)}
	case isForeignKeyError(err):
		return &domain.PersistenceError{Op: op, Err: errors.Join(domain.Invalid("reference", "refers to a missing record"), err)}
	}
	return &domain.PersistenceError{Op: op, Err: err}
}

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == pgUniqueViolation
	}
	return false
}

func isForeignKeyError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == pgForeignKeyViolation
	}
	return false
}
