package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var joined = Date{Year: 2018, Month: time.March, Day: 7}

func TestNewRecord_Valid(t *testing.T) {
	t.Parallel()

	r, err := NewRecord("  김철수 ", " Charles@Example.com ", "010-7531-2468", joined)
	require.NoError(t, err)
	assert.Equal(t, "김철수", r.Name())
	assert.Equal(t, "Charles@Example.com", r.Email(), "email case is preserved")
	assert.Equal(t, "01075312468", r.Phone())
	assert.Equal(t, joined, r.Joined())
}

func TestNewRecord_NameRules(t *testing.T) {
	t.Parallel()

	_, err := NewRecord("   ", "a@example.com", "01012345678", joined)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "name", fe.Field)
	assert.Equal(t, "Invalid name: Name cannot be blank", err.Error())

	_, err = NewRecord(strings.Repeat("가", 100), "a@example.com", "01012345678", joined)
	assert.NoError(t, err, "100 multi-byte characters fit")

	_, err = NewRecord(strings.Repeat("a", 101), "a@example.com", "01012345678", joined)
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Name too long (max 100 characters)", fe.Reason)
}

func TestNewRecord_EmailRules(t *testing.T) {
	t.Parallel()

	for _, email := range []string{"", "plain", "a@b", "a@b.c", "a b@example.com", "@example.com", "a@example.c0m"} {
		_, err := NewRecord("Kim", email, "01012345678", joined)
		var fe *FieldError
		require.ErrorAs(t, err, &fe, email)
		assert.Equal(t, "email", fe.Field, email)
	}

	for _, email := range []string{"a.b+tag@sub.example.co.kr", "x_y%z@host-1.io"} {
		_, err := NewRecord("Kim", email, "01012345678", joined)
		assert.NoError(t, err, email)
	}
}

func TestNewRecord_EmailLength(t *testing.T) {
	t.Parallel()

	atLimit := strings.Repeat("a", 243) + "@example.com"
	require.Len(t, atLimit, MaxEmailLength)
	_, err := NewRecord("Kim", atLimit, "01012345678", joined)
	assert.NoError(t, err)

	_, err = NewRecord("Kim", "a"+atLimit, "01012345678", joined)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "email", fe.Field)
	assert.Equal(t, "Invalid email: Email too long (max 255 characters)", err.Error())
	assert.True(t, IsValidation(err))
}

func TestNewRecord_FirstFailureWins(t *testing.T) {
	t.Parallel()

	_, err := NewRecord("", "bad", "bad", joined)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "name", fe.Field)

	_, err = NewRecord("Kim", "bad", "bad", joined)
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "email", fe.Field)

	_, err = NewRecord("Kim", "kim@example.com", "bad", joined)
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "tel", fe.Field)
}

func TestParseRecord(t *testing.T) {
	t.Parallel()

	r, err := ParseRecord("Kim", "kim@example.com", "010-1111-2222", "2020/12/31")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2020, Month: time.December, Day: 31}, r.Joined())

	_, err = ParseRecord("", "kim@example.com", "010-1111-2222", "31-12-2020")
	var fmtErr *FormatError
	require.ErrorAs(t, err, &fmtErr, "the date is checked before the other fields")
	assert.Equal(t, FormatDate, fmtErr.Kind)
}

func TestNewEmployee(t *testing.T) {
	t.Parallel()

	r, err := NewRecord("Kim", "kim@example.com", "01012345678", joined)
	require.NoError(t, err)

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	e := NewEmployee(r, now)
	assert.Zero(t, e.ID)
	assert.Equal(t, "Kim", e.Name)
	assert.Equal(t, "kim@example.com", e.Email)
	assert.Equal(t, "01012345678", e.Phone)
	assert.Equal(t, joined, e.Joined)
	assert.Equal(t, now, e.CreatedAt)
}
