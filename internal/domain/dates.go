package domain

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used for every stored date.
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// ParseDay parses an ISO date or an RFC 3339 timestamp and returns the calendar
// day at UTC midnight. Timestamps are reduced to their UTC date.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Day(t.UTC()), nil
	}
	// "2025-01-01T10:00:00" without a zone
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return Day(t), nil
	}
	return time.Time{}, ErrInvalidDate
}

// Day truncates t to its calendar day, expressed at UTC midnight.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDay renders a day as an ISO date.
func FormatDay(t time.Time) string {
	return t.Format(DateLayout)
}
