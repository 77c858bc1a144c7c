package store

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
)

const (
	pgUniqueViolation = "23505"

	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// UniqueViolationError reports an insert rejected by a unique index.
type UniqueViolationError struct {
	Constraint string
	Err        error
}

func (e *UniqueViolationError) Error() string {
	if e.Constraint != "" {
		return "unique constraint violated: " + e.Constraint + ": " + e.Err.Error()
	}
	return "unique constraint violated: " + e.Err.Error()
}

func (e *UniqueViolationError) Unwrap() error {
	return e.Err
}

// IsUniqueViolation reports whether err (or any error in its chain) is a
// unique-constraint breach. Structured driver codes are checked first;
// message patterns cover drivers that only expose text.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var uv *UniqueViolationError
	if errors.As(err, &uv) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqliteConstraintUnique || code == sqliteConstraintPrimaryKey
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "unique") ||
		strings.Contains(lower, "duplicate") ||
		strings.Contains(msg, "IX_") ||
		strings.Contains(msg, "idx_")
}

// uniqueViolation wraps err as a *UniqueViolationError when it is one.
func uniqueViolation(err error) error {
	if !IsUniqueViolation(err) {
		return err
	}
	uv := &UniqueViolationError{Err: err}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		uv.Constraint = pgErr.ConstraintName
	}
	return uv
}
