package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/employee-contacts/internal/db"
	"github.com/sells-group/employee-contacts/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

var employeeColumns = []string{"name", "email", "tel", "joined", "created_at"}

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"find_existing_emails": `SELECT email FROM employees WHERE email = ANY($1)`,
	"list_employees":       `SELECT id, name, email, tel, joined, created_at FROM employees ORDER BY id LIMIT $1 OFFSET $2`,
	"count_employees":      `SELECT COUNT(*) FROM employees`,
	"find_by_name":         `SELECT id, name, email, tel, joined, created_at FROM employees WHERE name = $1 ORDER BY id`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS employees (
	id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	name       VARCHAR(100) NOT NULL,
	email      VARCHAR(255) NOT NULL,
	tel        VARCHAR(20) NOT NULL,
	joined     DATE NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_employee_email ON employees(email);
CREATE INDEX IF NOT EXISTS idx_employee_name ON employees(name);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) FindExistingEmails(ctx context.Context, emails []string) ([]string, error) {
	if len(emails) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `SELECT email FROM employees WHERE email = ANY($1)`, emails)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find existing emails")
	}
	defer rows.Close()

	var existing []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, eris.Wrap(err, "postgres: scan email")
		}
		existing = append(existing, email)
	}
	return existing, eris.Wrap(rows.Err(), "postgres: find existing emails iterate")
}

// SaveAll inserts employees with a single COPY, which is all-or-nothing.
func (s *PostgresStore) SaveAll(ctx context.Context, employees []model.Employee) (int, error) {
	if len(employees) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(employees))
	for i, e := range employees {
		rows[i] = []any{e.Name, e.Email, e.Phone, e.Joined.Time(), e.CreatedAt.UTC()}
	}

	n, err := db.CopyFrom(ctx, s.pool, "employees", employeeColumns, rows)
	if err != nil {
		return 0, eris.Wrap(uniqueViolation(err), "postgres: save employees")
	}
	return int(n), nil
}

func (s *PostgresStore) ListEmployees(ctx context.Context, page, pageSize int) ([]model.Employee, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, email, tel, joined, created_at FROM employees ORDER BY id LIMIT $1 OFFSET $2`,
		pageSize, page*pageSize,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list employees")
	}
	return collectEmployees(rows)
}

func (s *PostgresStore) CountEmployees(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM employees`).Scan(&n)
	return n, eris.Wrap(err, "postgres: count employees")
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) ([]model.Employee, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, email, tel, joined, created_at FROM employees WHERE name = $1 ORDER BY id`,
		name,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: find employees by name %s", name)
	}
	return collectEmployees(rows)
}

func collectEmployees(rows pgx.Rows) ([]model.Employee, error) {
	defer rows.Close()

	employees := []model.Employee{}
	for rows.Next() {
		var e model.Employee
		var joined time.Time
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.Phone, &joined, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan employee")
		}
		e.Joined = model.DateOf(joined)
		employees = append(employees, e)
	}
	return employees, eris.Wrap(rows.Err(), "postgres: scan employees iterate")
}
