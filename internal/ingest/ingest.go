// Package ingest validates and persists batches of employee records.
package ingest

import (
	"context"
	"slices"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/employee-contacts/internal/model"
	"github.com/sells-group/employee-contacts/internal/parser"
	"github.com/sells-group/employee-contacts/internal/store"
)

// Store is the subset of store.Store the ingester writes through.
type Store interface {
	FindExistingEmails(ctx context.Context, emails []string) ([]string, error)
	SaveAll(ctx context.Context, employees []model.Employee) (int, error)
}

// Ingester runs a batch through duplicate detection and an atomic save.
type Ingester struct {
	store      Store
	dispatcher *parser.Dispatcher
	now        func() time.Time
	log        *zap.Logger
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(in *Ingester) {
		if l != nil {
			in.log = l
		}
	}
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(in *Ingester) {
		if now != nil {
			in.now = now
		}
	}
}

// WithDispatcher replaces the default CSV/JSON/XLSX dispatcher.
func WithDispatcher(d *parser.Dispatcher) Option {
	return func(in *Ingester) {
		if d != nil {
			in.dispatcher = d
		}
	}
}

// New creates an Ingester writing to st.
func New(st Store, opts ...Option) *Ingester {
	in := &Ingester{
		store: st,
		now:   func() time.Time { return time.Now().UTC() },
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.dispatcher == nil {
		in.dispatcher = parser.NewDispatcher(in.log)
	}
	return in
}

// IngestContent parses content with the format dispatcher and ingests the
// resulting batch.
func (in *Ingester) IngestContent(ctx context.Context, content []byte, contentType, filename string) (int, error) {
	records, format, err := in.dispatcher.Parse(parser.Input{
		Content:     content,
		ContentType: contentType,
		Filename:    filename,
	})
	if err != nil {
		return 0, err
	}
	in.log.Debug("ingest: parsed upload",
		zap.String("format", format),
		zap.String("filename", filename),
		zap.Int("records", len(records)),
	)
	return in.Ingest(ctx, records)
}

// Ingest persists records all-or-nothing and returns how many were saved.
// Any email repeated within the batch, or already persisted, fails the whole
// batch with a *model.DuplicateEmailError before anything is written.
func (in *Ingester) Ingest(ctx context.Context, records []model.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	if dups := batchDuplicates(records); len(dups) > 0 {
		in.log.Info("ingest: rejected batch with repeated emails",
			zap.Int("records", len(records)),
			zap.Strings("emails", dups),
		)
		return 0, model.DuplicateEmails(dups...)
	}

	emails := make([]string, len(records))
	for i, r := range records {
		emails[i] = r.Email()
	}

	if err := ctx.Err(); err != nil {
		return 0, eris.Wrap(err, "ingest: check existing emails")
	}
	existing, err := in.store.FindExistingEmails(ctx, emails)
	if err != nil {
		return 0, eris.Wrap(err, "ingest: check existing emails")
	}
	if len(existing) > 0 {
		existing = slices.Clone(existing)
		slices.Sort(existing)
		existing = slices.Compact(existing)
		in.log.Info("ingest: rejected batch with persisted emails",
			zap.Int("records", len(records)),
			zap.Strings("emails", existing),
		)
		return 0, model.DuplicateEmails(existing...)
	}

	createdAt := in.now()
	employees := make([]model.Employee, len(records))
	for i, r := range records {
		employees[i] = model.NewEmployee(r, createdAt)
	}

	if err := ctx.Err(); err != nil {
		return 0, eris.Wrap(err, "ingest: save employees")
	}
	n, err := in.store.SaveAll(ctx, employees)
	if err != nil {
		if store.IsUniqueViolation(err) {
			in.log.Warn("ingest: unique index rejected batch after existence check", zap.Error(err))
			return 0, model.ConcurrentDuplicate(err)
		}
		return 0, eris.Wrap(err, "ingest: save employees")
	}

	in.log.Info("ingest: saved employees", zap.Int("count", n))
	return n, nil
}

// batchDuplicates returns the sorted set of emails occurring more than once.
func batchDuplicates(records []model.Record) []string {
	seen := make(map[string]int, len(records))
	for _, r := range records {
		seen[r.Email()]++
	}
	var dups []string
	for email, n := range seen {
		if n > 1 {
			dups = append(dups, email)
		}
	}
	slices.Sort(dups)
	return dups
}
