package model

import (
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestDuplicateEmailError_Message(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Duplicate email found: a@example.com", DuplicateEmails("a@example.com").Error())
	assert.Equal(t, "Duplicate email(s) found: a@example.com, b@example.com",
		DuplicateEmails("a@example.com", "b@example.com").Error())
}

func TestConcurrentDuplicate(t *testing.T) {
	t.Parallel()

	cause := errors.New("UNIQUE constraint failed: employees.email")
	err := ConcurrentDuplicate(cause)
	assert.Equal(t, "Duplicate email detected (concurrent request)", err.Error())
	assert.NotContains(t, err.Error(), "employees.email")
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsDuplicate(err))
	assert.False(t, IsValidation(err))
}

func TestFormatError_Messages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Invalid CSV format: Empty content", InvalidCSV("Empty content").Error())
	assert.Equal(t, "Invalid JSON format: Empty content", InvalidJSON("Empty content").Error())

	inner := InvalidField("tel", "Phone number cannot be blank")
	wrapped := WrapEntry(FormatCSV, "line 2", inner)
	assert.Equal(t, "Invalid CSV format: Error at line 2: Invalid tel: Phone number cannot be blank", wrapped.Error())

	var fe *FieldError
	assert.True(t, errors.As(wrapped, &fe), "entry error stays reachable")
}

func TestIsValidation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValidation(InvalidField("name", "x")))
	assert.True(t, IsValidation(eris.Wrap(InvalidCSV("x"), "parse")))
	assert.True(t, IsValidation(&UnsupportedFormatError{}))
	assert.True(t, IsValidation(&InvalidArgumentError{Name: "page", Reason: "x"}))
	assert.False(t, IsValidation(DuplicateEmails("a@example.com")))
	assert.False(t, IsValidation(errors.New("boom")))
	assert.False(t, IsValidation(nil))
}

func TestIsDuplicate(t *testing.T) {
	t.Parallel()

	assert.True(t, IsDuplicate(eris.Wrap(DuplicateEmails("a@example.com"), "ingest")))
	assert.False(t, IsDuplicate(InvalidCSV("x")))
	assert.False(t, IsDuplicate(nil))
}
