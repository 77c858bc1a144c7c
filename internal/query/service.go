// Package query serves paged and by-name reads of persisted employees.
package query

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/employee-contacts/internal/model"
	"github.com/sells-group/employee-contacts/internal/store"
)

// Store is the read side of store.Store.
type Store interface {
	ListEmployees(ctx context.Context, page, pageSize int) ([]model.Employee, error)
	CountEmployees(ctx context.Context) (int64, error)
	FindByName(ctx context.Context, name string) ([]model.Employee, error)
}

// Service answers employee queries.
type Service struct {
	store Store
	log   *zap.Logger
}

// New creates a Service reading from st. A nil logger discards output.
func New(st Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, log: logger}
}

// FindAll returns the zero-based page of employees ordered by ID.
func (s *Service) FindAll(ctx context.Context, page, pageSize int) (*model.Page, error) {
	if page < 0 {
		return nil, &model.InvalidArgumentError{Name: "page", Reason: "must be 0 or greater"}
	}
	if pageSize < 1 || pageSize > store.MaxPageSize {
		return nil, &model.InvalidArgumentError{Name: "pageSize", Reason: "must be between 1 and 100"}
	}

	var (
		content []model.Employee
		total   int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		content, err = s.store.ListEmployees(gctx, page, pageSize)
		return eris.Wrapf(err, "query: list page %d", page)
	})
	g.Go(func() error {
		var err error
		total, err = s.store.CountEmployees(gctx)
		return eris.Wrap(err, "query: count employees")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if content == nil {
		content = []model.Employee{}
	}
	s.log.Debug("query: page served",
		zap.Int("page", page),
		zap.Int("page_size", pageSize),
		zap.Int("returned", len(content)),
		zap.Int64("total", total),
	)
	return &model.Page{
		Content:       content,
		Page:          page,
		PageSize:      pageSize,
		TotalElements: total,
		TotalPages:    model.TotalPages(total, pageSize),
	}, nil
}

// FindByName returns employees whose name equals name after trimming. The
// result is never nil.
func (s *Service) FindByName(ctx context.Context, name string) ([]model.Employee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &model.InvalidArgumentError{Name: "name", Reason: "must not be blank"}
	}

	employees, err := s.store.FindByName(ctx, name)
	if err != nil {
		return nil, eris.Wrapf(err, "query: find by name %q", name)
	}
	if employees == nil {
		employees = []model.Employee{}
	}
	return employees, nil
}
