package store

import (
	"context"
	"database/sql"
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/employee-contacts/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS employees (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	tel        TEXT NOT NULL,
	joined     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_employee_email ON employees(email);
CREATE INDEX IF NOT EXISTS idx_employee_name ON employees(name);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// sqliteLookupChunk bounds the bound parameters per IN query, well below
// SQLite's variable limit.
const sqliteLookupChunk = 500

// FindExistingEmails looks the emails up in chunks of sqliteLookupChunk.
func (s *SQLiteStore) FindExistingEmails(ctx context.Context, emails []string) ([]string, error) {
	if len(emails) == 0 {
		return nil, nil
	}

	var existing []string
	for chunk := range slices.Chunk(emails, sqliteLookupChunk) {
		found, err := s.findExistingChunk(ctx, chunk)
		if err != nil {
			return nil, err
		}
		existing = append(existing, found...)
	}
	return existing, nil
}

func (s *SQLiteStore) findExistingChunk(ctx context.Context, emails []string) ([]string, error) {
	args := make([]any, len(emails))
	for i, e := range emails {
		args[i] = e
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(emails)), ", ")

	rows, err := s.db.QueryContext(ctx,
		`SELECT email FROM employees WHERE email IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find existing emails")
	}
	defer rows.Close()

	var existing []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan email")
		}
		existing = append(existing, email)
	}
	return existing, eris.Wrap(rows.Err(), "sqlite: find existing emails iterate")
}

// SaveAll inserts employees in one transaction.
func (s *SQLiteStore) SaveAll(ctx context.Context, employees []model.Employee) (int, error) {
	if len(employees) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO employees (name, email, tel, joined, created_at) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert employee")
	}
	defer stmt.Close()

	for _, e := range employees {
		if _, err := stmt.ExecContext(ctx, e.Name, e.Email, e.Phone, e.Joined.String(), e.CreatedAt.UTC()); err != nil {
			return 0, eris.Wrapf(uniqueViolation(err), "sqlite: insert employee %s", e.Email)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(uniqueViolation(err), "sqlite: commit employees")
	}
	return len(employees), nil
}

func (s *SQLiteStore) ListEmployees(ctx context.Context, page, pageSize int) ([]model.Employee, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, tel, joined, created_at FROM employees ORDER BY id LIMIT ? OFFSET ?`,
		pageSize, page*pageSize,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list employees")
	}
	defer rows.Close()
	return scanEmployees(rows)
}

func (s *SQLiteStore) CountEmployees(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count employees")
}

func (s *SQLiteStore) FindByName(ctx context.Context, name string) ([]model.Employee, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, tel, joined, created_at FROM employees WHERE name = ? ORDER BY id`,
		name,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find employees by name %s", name)
	}
	defer rows.Close()
	return scanEmployees(rows)
}

// helpers

func scanEmployees(rows *sql.Rows) ([]model.Employee, error) {
	employees := []model.Employee{}
	for rows.Next() {
		var e model.Employee
		var joined string
		var createdAt time.Time
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.Phone, &joined, &createdAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan employee")
		}
		d, err := time.Parse(time.DateOnly, joined)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse joined date of employee %d", e.ID)
		}
		e.Joined = model.DateOf(d)
		e.CreatedAt = createdAt.UTC()
		employees = append(employees, e)
	}
	return employees, eris.Wrap(rows.Err(), "sqlite: scan employees iterate")
}
