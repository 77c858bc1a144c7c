package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/employee-contacts/internal/model"
	"github.com/sells-group/employee-contacts/internal/parser"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func record(t *testing.T, name, email string) model.Record {
	t.Helper()
	r, err := model.ParseRecord(name, email, "010-1234-5678", "2020-01-15")
	require.NoError(t, err)
	return r
}

func newTestIngester(st Store) *Ingester {
	return New(st, WithClock(func() time.Time { return fixedNow }))
}

func TestIngest_SavesBatch(t *testing.T) {
	st := new(mockStore)
	records := []model.Record{
		record(t, "김철수", "charles@example.com"),
		record(t, "박영희", "matilda@example.com"),
	}

	st.On("FindExistingEmails", mock.Anything, []string{"charles@example.com", "matilda@example.com"}).
		Return(nil, nil)
	st.On("SaveAll", mock.Anything, mock.MatchedBy(func(es []model.Employee) bool {
		return len(es) == 2 &&
			es[0].Email == "charles@example.com" &&
			es[0].Phone == "01012345678" &&
			es[1].CreatedAt.Equal(fixedNow)
	})).Return(2, nil)

	n, err := newTestIngester(st).Ingest(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	st.AssertExpectations(t)
}

func TestIngest_EmptyBatch(t *testing.T) {
	st := new(mockStore)

	n, err := newTestIngester(st).Ingest(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	st.AssertNotCalled(t, "FindExistingEmails", mock.Anything, mock.Anything)
	st.AssertNotCalled(t, "SaveAll", mock.Anything, mock.Anything)
}

func TestIngest_InBatchDuplicate(t *testing.T) {
	st := new(mockStore)
	records := []model.Record{
		record(t, "Zed", "z@example.com"),
		record(t, "A", "a@example.com"),
		record(t, "Other A", "a@example.com"),
		record(t, "Other Zed", "z@example.com"),
		record(t, "Unique", "u@example.com"),
	}

	_, err := newTestIngester(st).Ingest(context.Background(), records)
	require.Error(t, err)

	var de *model.DuplicateEmailError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, []string{"a@example.com", "z@example.com"}, de.Emails)
	assert.Equal(t, "Duplicate email(s) found: a@example.com, z@example.com", err.Error())
	st.AssertNotCalled(t, "FindExistingEmails", mock.Anything, mock.Anything)
	st.AssertNotCalled(t, "SaveAll", mock.Anything, mock.Anything)
}

func TestIngest_ExistingEmail(t *testing.T) {
	st := new(mockStore)
	records := []model.Record{
		record(t, "New", "new@example.com"),
		record(t, "Old", "old@example.com"),
	}

	st.On("FindExistingEmails", mock.Anything, mock.Anything).Return([]string{"old@example.com"}, nil)

	_, err := newTestIngester(st).Ingest(context.Background(), records)
	require.Error(t, err)
	assert.True(t, model.IsDuplicate(err))
	assert.Equal(t, "Duplicate email found: old@example.com", err.Error())
	st.AssertNotCalled(t, "SaveAll", mock.Anything, mock.Anything)
	st.AssertExpectations(t)
}

func TestIngest_ConcurrentInsertRace(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"postgres", eris.Wrap(&pgconn.PgError{Code: "23505", ConstraintName: "idx_employee_email"}, "postgres: save employees")},
		{"sqlite text", errors.New("constraint failed: UNIQUE constraint failed: employees.email")},
		{"index name", errors.New("violation of idx_employee_email")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := new(mockStore)
			st.On("FindExistingEmails", mock.Anything, mock.Anything).Return(nil, nil)
			st.On("SaveAll", mock.Anything, mock.Anything).Return(0, tt.err)

			_, err := newTestIngester(st).Ingest(context.Background(), []model.Record{record(t, "A", "a@example.com")})
			require.Error(t, err)

			var de *model.DuplicateEmailError
			require.ErrorAs(t, err, &de)
			assert.True(t, de.Concurrent)
			assert.Equal(t, "Duplicate email detected (concurrent request)", err.Error())
			st.AssertExpectations(t)
		})
	}
}

func TestIngest_StoreFailurePropagates(t *testing.T) {
	st := new(mockStore)
	cause := errors.New("connection reset by peer")
	st.On("FindExistingEmails", mock.Anything, mock.Anything).Return(nil, nil)
	st.On("SaveAll", mock.Anything, mock.Anything).Return(0, cause)

	_, err := newTestIngester(st).Ingest(context.Background(), []model.Record{record(t, "A", "a@example.com")})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.False(t, model.IsDuplicate(err))
	assert.False(t, model.IsValidation(err))
}

func TestIngest_LookupFailurePropagates(t *testing.T) {
	st := new(mockStore)
	cause := errors.New("database is locked")
	st.On("FindExistingEmails", mock.Anything, mock.Anything).Return(nil, cause)

	_, err := newTestIngester(st).Ingest(context.Background(), []model.Record{record(t, "A", "a@example.com")})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	st.AssertNotCalled(t, "SaveAll", mock.Anything, mock.Anything)
}

func TestIngest_CancelledContext(t *testing.T) {
	st := new(mockStore)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestIngester(st).Ingest(ctx, []model.Record{record(t, "A", "a@example.com")})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	st.AssertNotCalled(t, "FindExistingEmails", mock.Anything, mock.Anything)
}

func TestIngestContent_CSV(t *testing.T) {
	st := new(mockStore)
	st.On("FindExistingEmails", mock.Anything, []string{"charles@example.com", "matilda@example.com"}).Return(nil, nil)
	st.On("SaveAll", mock.Anything, mock.Anything).Return(2, nil)

	body := "김철수, charles@example.com, 01075312468, 2018.03.07\n" +
		"박영희, matilda@example.com, 01087654321, 2021.04.28\n"

	n, err := newTestIngester(st).IngestContent(context.Background(), []byte(body), "text/csv", "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	st.AssertExpectations(t)
}

func TestIngestContent_ParseFailureSkipsStore(t *testing.T) {
	st := new(mockStore)
	body := "김철수, charles@example.com, 01075312468, 2018.03.07\n" +
		"박영희, matilda@example.com, 02-123-4567, 2021.04.28\n"

	_, err := newTestIngester(st).IngestContent(context.Background(), []byte(body), "text/csv", "")
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
	assert.Contains(t, err.Error(), "Error at line 2")
	st.AssertNotCalled(t, "FindExistingEmails", mock.Anything, mock.Anything)
}

func TestIngestContent_Unsupported(t *testing.T) {
	st := new(mockStore)
	in := New(st, WithDispatcher(parser.NewDispatcher(nil, parser.NewJSON(nil))))

	_, err := in.IngestContent(context.Background(), []byte("a, a@example.com, 01012345678, 2020-01-01"), "text/csv", "staff.csv")
	require.Error(t, err)

	var ue *model.UnsupportedFormatError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "staff.csv", ue.Filename)
	st.AssertNotCalled(t, "FindExistingEmails", mock.Anything, mock.Anything)
}
