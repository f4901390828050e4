package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/sigtrack/internal/track"
)

// ReadSnapshot returns the stored population for a report date ordered by key.
//
// Returns an empty slice (not nil) if no snapshot exists for the date.
func (r reader) ReadSnapshot(ctx context.Context, date time.Time) ([]track.TrackedItem, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT item_key, org_unit, technician, display_name, address, serial_number, port
		FROM snapshots
		WHERE report_date = ?
		ORDER BY item_key COLLATE BINARY ASC
	`, dateText(date))
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	items := []track.TrackedItem{}
	for rows.Next() {
		var item track.TrackedItem
		if err := rows.Scan(
			&item.Key, &item.OrgUnit, &item.Technician,
			&item.Attributes.DisplayName, &item.Attributes.Address,
			&item.Attributes.SerialNumber, &item.Attributes.Port,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot: %w", err)
	}

	return items, nil
}

// HasSnapshot reports whether any snapshot row exists for the date.
func (r reader) HasSnapshot(ctx context.Context, date time.Time) (bool, error) {
	var count int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snapshots WHERE report_date = ?`, dateText(date),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check snapshot: %w", err)
	}
	return count > 0, nil
}

// InsertSnapshot writes today's population. Fails on a duplicate key, so the
// day must have been cleared with DeleteDay first.
func (t *Tx) InsertSnapshot(ctx context.Context, date time.Time, items []track.TrackedItem) error {
	stmt, err := t.tx.PrepareContext(ctx, `
		INSERT INTO snapshots
		(report_date, item_key, org_unit, technician, display_name, address, serial_number, port)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("insert snapshot: prepare: %w", err)
	}
	defer stmt.Close()

	day := dateText(date)
	for _, item := range items {
		if _, err := stmt.ExecContext(ctx,
			day, item.Key, item.OrgUnit, item.Technician,
			item.Attributes.DisplayName, item.Attributes.Address,
			item.Attributes.SerialNumber, item.Attributes.Port,
		); err != nil {
			return fmt.Errorf("insert snapshot %q: %w", item.Key, err)
		}
	}
	return nil
}

// DeleteDay removes every day-scoped row for the date: snapshot, change
// records, summaries and the run ledger entry. Tracking state is restored
// separately via RestoreUndo.
// Safe no-op when nothing exists for the date.
func (t *Tx) DeleteDay(ctx context.Context, date time.Time) error {
	day := dateText(date)
	for _, table := range []string{"snapshots", "change_records", "daily_summaries", "run_ledger"} {
		if _, err := t.tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE report_date = ?", day); err != nil {
			return fmt.Errorf("delete day %s from %s: %w", day, table, err)
		}
	}
	return nil
}
