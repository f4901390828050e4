package track

import (
	"fmt"
	"time"
)

// DateLayout is the storage and wire layout for report dates.
const DateLayout = "2006-01-02"

// Day truncates t to its calendar day, expressed at midnight UTC.
// The calendar day is taken in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PreviousDay returns the calendar day before d.
func PreviousDay(d time.Time) time.Time {
	return Day(d).AddDate(0, 0, -1)
}

// FormatDate renders d in DateLayout.
func FormatDate(d time.Time) string {
	return Day(d).Format(DateLayout)
}

// ParseDate parses a DateLayout string into a Day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Day(t), nil
}

// MustParseDate is like ParseDate but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustParseDate(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
