package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/sigtrack/internal/track"
)

// InsertSummary writes one (org unit, technician) rollup row.
func (t *Tx) InsertSummary(ctx context.Context, s track.DailySummary) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO daily_summaries
		(report_date, org_unit, technician, current_total, new_count, removed_count,
		 persisting_count, managed_population, ratio)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		dateText(s.ReportDate),
		s.OrgUnit,
		s.Technician,
		s.CurrentTotal,
		s.NewCount,
		s.RemovedCount,
		s.PersistingCount,
		nullableInt(s.ManagedPopulation),
		nullableFloat(s.Ratio),
	)
	if err != nil {
		return fmt.Errorf("insert summary %s/%s: %w", s.OrgUnit, s.Technician, err)
	}
	return nil
}

// ReadSummaries returns the day's rollups ordered by org unit, technician.
//
// Returns an empty slice (not nil) if the day has no rows.
func (r reader) ReadSummaries(ctx context.Context, date time.Time) ([]track.DailySummary, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT report_date, org_unit, technician, current_total, new_count, removed_count,
		       persisting_count, managed_population, ratio
		FROM daily_summaries
		WHERE report_date = ?
		ORDER BY org_unit COLLATE BINARY ASC, technician COLLATE BINARY ASC
	`, dateText(date))
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	summaries := []track.DailySummary{}
	for rows.Next() {
		var (
			s     track.DailySummary
			day   string
			pop   sql.NullInt64
			ratio sql.NullFloat64
		)
		if err := rows.Scan(
			&day, &s.OrgUnit, &s.Technician, &s.CurrentTotal, &s.NewCount,
			&s.RemovedCount, &s.PersistingCount, &pop, &ratio,
		); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		if s.ReportDate, err = parseDateText(day); err != nil {
			return nil, err
		}
		s.ManagedPopulation = intPtr(pop)
		s.Ratio = floatPtr(ratio)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}

	return summaries, nil
}
