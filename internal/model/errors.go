package model

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError reports a single field that failed its domain rule.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("Invalid %s: %s", e.Field, e.Reason)
}

// InvalidField returns a FieldError for the named field.
func InvalidField(field, reason string) *FieldError {
	return &FieldError{Field: field, Reason: reason}
}

// FormatKind names the structure a FormatError was raised for.
type FormatKind string

const (
	FormatCSV     FormatKind = "CSV"
	FormatJSON    FormatKind = "JSON"
	FormatXLSX    FormatKind = "XLSX"
	FormatDate    FormatKind = "date"
	FormatCharset FormatKind = "charset"
)

// FormatError is a structural parse failure. Err, when set, is the entry
// level failure that caused it (e.g. a FieldError on a CSV line).
type FormatError struct {
	Kind   FormatKind
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("Invalid %s format: %s", e.Kind, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// InvalidCSV returns a CSV FormatError.
func InvalidCSV(reason string) *FormatError {
	return &FormatError{Kind: FormatCSV, Reason: reason}
}

// InvalidJSON returns a JSON FormatError.
func InvalidJSON(reason string) *FormatError {
	return &FormatError{Kind: FormatJSON, Reason: reason}
}

// InvalidXLSX returns an XLSX FormatError.
func InvalidXLSX(reason string) *FormatError {
	return &FormatError{Kind: FormatXLSX, Reason: reason}
}

// InvalidDate returns the error for text that matches none of the accepted
// date layouts.
func InvalidDate(text string) *FormatError {
	return &FormatError{
		Kind:   FormatDate,
		Reason: fmt.Sprintf("%s. Expected formats: yyyy.MM.dd, yyyy-MM-dd or yyyy/MM/dd", text),
	}
}

// InvalidCharset returns the error for an undecodable declared charset.
func InvalidCharset(charset string, err error) *FormatError {
	return &FormatError{Kind: FormatCharset, Reason: fmt.Sprintf("Unsupported charset %q", charset), Err: err}
}

// WrapEntry tags an entry-level failure with its locator, e.g.
// "Error at line 3: Invalid tel: ...".
func WrapEntry(kind FormatKind, locator string, err error) *FormatError {
	return &FormatError{Kind: kind, Reason: fmt.Sprintf("Error at %s: %s", locator, err.Error()), Err: err}
}

// DuplicateEmailError reports emails that collide within a batch or with
// persisted records. Concurrent marks a collision only the store's unique
// index caught; Emails is then unknown and Err holds the store failure.
type DuplicateEmailError struct {
	Emails     []string
	Concurrent bool
	Err        error
}

func (e *DuplicateEmailError) Error() string {
	if e.Concurrent {
		return "Duplicate email detected (concurrent request)"
	}
	if len(e.Emails) == 1 {
		return "Duplicate email found: " + e.Emails[0]
	}
	return "Duplicate email(s) found: " + strings.Join(e.Emails, ", ")
}

// DuplicateEmails returns a DuplicateEmailError carrying the given set.
func DuplicateEmails(emails ...string) *DuplicateEmailError {
	return &DuplicateEmailError{Emails: emails}
}

// ConcurrentDuplicate returns the DuplicateEmailError for a batch that passed
// the existence check but lost an insert race to another request.
func ConcurrentDuplicate(err error) *DuplicateEmailError {
	return &DuplicateEmailError{Concurrent: true, Err: err}
}

func (e *DuplicateEmailError) Unwrap() error {
	return e.Err
}

// UnsupportedFormatError is returned when no parser accepts the input.
type UnsupportedFormatError struct {
	ContentType string
	Filename    string
}

func (e *UnsupportedFormatError) Error() string {
	return "Unsupported file format"
}

// InvalidArgumentError reports a request parameter outside its allowed range.
type InvalidArgumentError struct {
	Name   string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("Invalid %s: %s", e.Name, e.Reason)
}

// IsValidation reports whether err is a client input failure: a field, format,
// unsupported-format or argument error anywhere in its chain.
func IsValidation(err error) bool {
	var fe *FieldError
	var fmtErr *FormatError
	var ue *UnsupportedFormatError
	var ae *InvalidArgumentError
	return errors.As(err, &fe) || errors.As(err, &fmtErr) || errors.As(err, &ue) || errors.As(err, &ae)
}

// IsDuplicate reports whether err carries a DuplicateEmailError.
func IsDuplicate(err error) bool {
	var de *DuplicateEmailError
	return errors.As(err, &de)
}
