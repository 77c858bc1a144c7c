package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
)

const (
	sqliteBusy   = 5
	sqliteLocked = 6
)

// TransientError marks an error as safe to retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as transient.
func NewTransientError(err error) *TransientError {
	return &TransientError{Err: err}
}

// IsTransient reports whether err looks like a database that is not ready
// yet or briefly unavailable: refused or reset connections, timeouts,
// PostgreSQL connection-class and startup errors, and SQLite busy/locked.
// Constraint violations and other statement errors are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isTransientSQLState(pgErr.Code)
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		primary := liteErr.Code() & 0xff
		return primary == sqliteBusy || primary == sqliteLocked
	}

	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection refused",
		"connection reset by peer",
		"broken pipe",
		"no such host",
		"i/o timeout",
		"the database system is starting up",
		"database is locked",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// isTransientSQLState reports whether a PostgreSQL SQLSTATE is worth
// retrying: class 08 (connection exception), 53300 too_many_connections,
// 57P03 cannot_connect_now, and 40001/40P01 serialization and deadlock.
func isTransientSQLState(code string) bool {
	if strings.HasPrefix(code, "08") {
		return true
	}
	switch code {
	case "53300", "57P03", "40001", "40P01":
		return true
	default:
		return false
	}
}
