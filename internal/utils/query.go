// Package utils holds small parsing helpers for query-string values. They
// know nothing about records; handlers turn their results into domain types.
package utils

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-date form accepted next to RFC 3339.
const DateLayout = "2006-01-02"

// AtoiDefault parses s as an int, returning def when s is empty or invalid.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ParseID parses a positive int64 identifier.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("must be a positive integer")
	}
	return id, nil
}

// OptionalID is ParseID for optional parameters: "" yields nil.
func OptionalID(s string) (*int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	id, err := ParseID(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// OptionalBool parses "true"/"false"/"1"/"0" and friends; "" yields nil.
func OptionalBool(s string) (*bool, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.New("must be true or false")
	}
	return &b, nil
}

// ParseTime accepts RFC 3339 or a bare calendar date. dateOnly reports
// which form matched so callers can widen a date to the whole day.
func ParseTime(s string) (t time.Time, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	if t, err = time.Parse(DateLayout, s); err == nil {
		return t.UTC(), true, nil
	}
	if t, err = time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), false, nil
	}
	return time.Time{}, false, errors.New("must be YYYY-MM-DD or RFC 3339")
}

// OptionalTime is ParseTime for optional values. With endOfDay, a bare date
// is moved to its last instant so it works as an inclusive upper bound.
func OptionalTime(s string, endOfDay bool) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, dateOnly, err := ParseTime(s)
	if err != nil {
		return nil, err
	}
	if dateOnly && endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// SplitCSV splits comma separated values, trimming blanks. Repeated query
// parameters should be joined by the caller first.
func SplitCSV(vals ...string) []string {
	var out []string
	for _, v := range vals {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
