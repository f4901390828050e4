package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/sigtrack/internal/track"
)

// dateText renders a report date for storage.
func dateText(d time.Time) string {
	return track.FormatDate(d)
}

// parseDateText parses a stored report date.
func parseDateText(s string) (time.Time, error) {
	d, err := track.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("stored date: %w", err)
	}
	return d, nil
}

// nullableInt converts an optional count to a nullable column value.
func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// nullableFloat converts an optional ratio to a nullable column value.
func nullableFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// intPtr converts a nullable column value back to an optional count.
func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

// floatPtr converts a nullable column value back to an optional ratio.
func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
