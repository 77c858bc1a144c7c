package ingest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/employee-contacts/internal/model"
)

// mockStore implements Store for testing.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) FindExistingEmails(ctx context.Context, emails []string) ([]string, error) {
	args := m.Called(ctx, emails)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockStore) SaveAll(ctx context.Context, employees []model.Employee) (int, error) {
	args := m.Called(ctx, employees)
	return args.Int(0), args.Error(1)
}
