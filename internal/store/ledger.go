package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/sigtrack/internal/track"
)

const runColumns = `report_date, run_id, input_digest, item_count, engine_version, committed_at`

// HasRun reports whether a run ledger entry exists for the date.
func (r reader) HasRun(ctx context.Context, date time.Time) (bool, error) {
	var count int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM run_ledger WHERE report_date = ?`, dateText(date),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check run: %w", err)
	}
	return count > 0, nil
}

// ReadRun returns the run ledger entry for the date.
// The boolean is false when the day has not been committed.
func (r reader) ReadRun(ctx context.Context, date time.Time) (track.RunEntry, bool, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM run_ledger
		WHERE report_date = ?
	`, dateText(date))

	entry, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return track.RunEntry{}, false, nil
	}
	if err != nil {
		return track.RunEntry{}, false, err
	}
	return entry, true, nil
}

// ListRuns returns every committed day in date order.
func (r reader) ListRuns(ctx context.Context) ([]track.RunEntry, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM run_ledger
		ORDER BY report_date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	entries := []track.RunEntry{}
	for rows.Next() {
		entry, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return entries, nil
}

// LatestRunAfter returns the most recent committed day strictly after the
// date. The boolean is false when no later day has been committed.
func (r reader) LatestRunAfter(ctx context.Context, date time.Time) (time.Time, bool, error) {
	var day sql.NullString
	err := r.q.QueryRowContext(ctx,
		`SELECT MAX(report_date) FROM run_ledger WHERE report_date > ?`, dateText(date),
	).Scan(&day)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query latest run: %w", err)
	}
	if !day.Valid {
		return time.Time{}, false, nil
	}
	d, err := parseDateText(day.String)
	if err != nil {
		return time.Time{}, false, err
	}
	return d, true, nil
}

// InsertRun writes the run ledger entry. Written last in a commit, so its
// presence means every other row for the day is complete.
func (t *Tx) InsertRun(ctx context.Context, entry track.RunEntry) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO run_ledger (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		dateText(entry.ReportDate),
		entry.RunID,
		entry.InputDigest,
		entry.ItemCount,
		entry.EngineVersion,
		entry.CommittedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", dateText(entry.ReportDate), err)
	}
	return nil
}

func scanRun(row scanner) (track.RunEntry, error) {
	var entry track.RunEntry
	var day, committedAt string

	if err := row.Scan(
		&day, &entry.RunID, &entry.InputDigest, &entry.ItemCount,
		&entry.EngineVersion, &committedAt,
	); err != nil {
		return entry, fmt.Errorf("scan run: %w", err)
	}

	var err error
	if entry.ReportDate, err = parseDateText(day); err != nil {
		return entry, err
	}
	if entry.CommittedAt, err = time.Parse(time.RFC3339Nano, committedAt); err != nil {
		return entry, fmt.Errorf("scan run: committed_at: %w", err)
	}
	return entry, nil
}
