package model

import (
	"encoding/json"
	"strings"
	"time"
)

// dateLayouts are tried in order; the first exact match wins.
var dateLayouts = []string{
	"2006.01.02",
	"2006-01-02",
	"2006/01/02",
}

// Date is a calendar date without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses s against the accepted layouts after trimming it.
func ParseDate(s string) (Date, error) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, InvalidDate(trimmed)
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return d.Time().Format(time.DateOnly)
}

// MarshalJSON encodes d as "yyyy-MM-dd".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// MarshalYAML encodes d as "yyyy-MM-dd".
func (d Date) MarshalYAML() (any, error) {
	return d.String(), nil
}
