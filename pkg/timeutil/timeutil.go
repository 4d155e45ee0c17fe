// Package timeutil converts between Unix epochs, ISO-8601 strings and time.Time.
package timeutil

import (
	"fmt"
	"time"
)

// iso8601Seconds is the canonical output layout: UTC, whole seconds, literal Z.
const iso8601Seconds = "2006-01-02T15:04:05Z"

// ParseError reports a timestamp string that is not valid RFC 3339.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse timestamp %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FromUnixMilli returns the UTC instant ms milliseconds after the Unix epoch.
func FromUnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// FromUnixSeconds returns the UTC instant s seconds after the Unix epoch.
func FromUnixSeconds(s int64) time.Time {
	return time.Unix(s, 0).UTC()
}

// ParseISO8601 parses an RFC 3339 timestamp, keeping its offset.
func ParseISO8601(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, &ParseError{Input: s, Err: err}
	}
	return t, nil
}

// FormatISO8601 formats t in UTC truncated to whole seconds, e.g. 2021-01-01T00:00:00Z.
func FormatISO8601(t time.Time) string {
	return t.UTC().Format(iso8601Seconds)
}
