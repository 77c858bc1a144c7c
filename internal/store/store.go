package store

import (
	"context"

	"github.com/sells-group/employee-contacts/internal/model"
)

// MaxPageSize bounds ListEmployees page sizes.
const MaxPageSize = 100

// Store defines the persistence interface for employee records. The email
// column carries a unique index; SaveAll is atomic.
type Store interface {
	// FindExistingEmails returns the subset of emails already persisted.
	FindExistingEmails(ctx context.Context, emails []string) ([]string, error)
	// SaveAll inserts all employees or none. A unique-email breach is
	// reported as a *UniqueViolationError.
	SaveAll(ctx context.Context, employees []model.Employee) (int, error)

	// ListEmployees returns one page ordered by ID ascending.
	ListEmployees(ctx context.Context, page, pageSize int) ([]model.Employee, error)
	CountEmployees(ctx context.Context) (int64, error)
	// FindByName returns employees whose name matches exactly.
	FindByName(ctx context.Context, name string) ([]model.Employee, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
