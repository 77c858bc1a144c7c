package model

import (
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^01\d{8,9}$`)

var phoneSeparators = strings.NewReplacer("-", "", " ", "")

// NormalizePhone strips hyphens and spaces from a domestic mobile number and
// validates the result. The normalized digit string is the canonical phone
// value everywhere downstream.
func NormalizePhone(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", InvalidField("tel", "Phone number cannot be blank")
	}

	trimmed := strings.TrimSpace(raw)
	normalized := phoneSeparators.Replace(trimmed)
	if !phonePattern.MatchString(normalized) {
		return "", InvalidField("tel", "Invalid phone number format: "+trimmed)
	}
	return normalized, nil
}
