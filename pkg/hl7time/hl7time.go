// Package hl7time canonicalizes calendar timestamps into the HL7 V3
// time grammar used by CDA-family documents (YYYYMMDDHHMMSS, UTC).
package hl7time

import (
	"fmt"
	"time"
)

// Layout is the HL7 wire layout produced by this package.
const Layout = "20060102150405"

// acceptedLayouts are tried in order when parsing caller input.
// Date-only values resolve to midnight UTC.
var acceptedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Format converts an ISO-like timestamp string into the HL7 wire form.
// It fails on input that does not parse as a calendar timestamp; callers
// are expected to surface that error unmodified.
func Format(value string) (string, error) {
	t, err := Parse(value)
	if err != nil {
		return "", err
	}
	return FormatTime(t), nil
}

// FormatTime renders an already-resolved time in the HL7 wire form.
func FormatTime(t time.Time) string {
	return t.UTC().Format(Layout)
}

// FormatDate renders only the calendar date portion (YYYYMMDD), used for
// values such as birth times where the time of day is not meaningful.
func FormatDate(t time.Time) string {
	return t.UTC().Format("20060102")
}

// Parse resolves an ISO-like timestamp string to a time.Time. Inputs
// without an explicit zone are interpreted as UTC.
func Parse(value string) (time.Time, error) {
	for _, layout := range acceptedLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("hl7time: unparseable timestamp %q", value)
}

// Midnight truncates a time to midnight UTC on the same calendar date.
func Midnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
