package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/sigtrack/internal/track"
)

// categoryOrder sorts change records NEW, PERSISTING, REMOVED.
const categoryOrder = `CASE category WHEN 'NEW' THEN 0 WHEN 'PERSISTING' THEN 1 ELSE 2 END`

const changeColumns = `report_date, item_key, category, org_unit, technician,
	display_name, address, serial_number, port, consecutive_days`

// InsertChange writes one classified row to the change ledger.
func (t *Tx) InsertChange(ctx context.Context, rec track.ChangeRecord) error {
	if !rec.Category.Valid() {
		return fmt.Errorf("insert change %q: invalid category %q", rec.Key, rec.Category)
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO change_records (`+changeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		dateText(rec.ReportDate),
		rec.Key,
		string(rec.Category),
		rec.Item.OrgUnit,
		rec.Item.Technician,
		rec.Item.Attributes.DisplayName,
		rec.Item.Attributes.Address,
		rec.Item.Attributes.SerialNumber,
		rec.Item.Attributes.Port,
		rec.ConsecutiveDays,
	)
	if err != nil {
		return fmt.Errorf("insert change %q: %w", rec.Key, err)
	}
	return nil
}

// ReadChanges returns the change ledger for a report date, ordered by
// category (NEW, PERSISTING, REMOVED) and then key.
//
// Returns an empty slice (not nil) if the day has no rows.
func (r reader) ReadChanges(ctx context.Context, date time.Time) ([]track.ChangeRecord, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+changeColumns+`
		FROM change_records
		WHERE report_date = ?
		ORDER BY `+categoryOrder+`, item_key COLLATE BINARY ASC
	`, dateText(date))
	if err != nil {
		return nil, fmt.Errorf("query changes: %w", err)
	}
	return collectChanges(rows)
}

// ReadHistory returns every change record for a key in date order.
func (r reader) ReadHistory(ctx context.Context, key string) ([]track.ChangeRecord, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+changeColumns+`
		FROM change_records
		WHERE item_key = ?
		ORDER BY report_date ASC
	`, key)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return collectChanges(rows)
}

func collectChanges(rows *sql.Rows) ([]track.ChangeRecord, error) {
	defer rows.Close()

	records := []track.ChangeRecord{}
	for rows.Next() {
		rec, err := scanChange(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changes: %w", err)
	}
	return records, nil
}

func scanChange(row scanner) (track.ChangeRecord, error) {
	var rec track.ChangeRecord
	var day, category string

	if err := row.Scan(
		&day, &rec.Key, &category, &rec.Item.OrgUnit, &rec.Item.Technician,
		&rec.Item.Attributes.DisplayName, &rec.Item.Attributes.Address,
		&rec.Item.Attributes.SerialNumber, &rec.Item.Attributes.Port,
		&rec.ConsecutiveDays,
	); err != nil {
		return rec, fmt.Errorf("scan change: %w", err)
	}

	d, err := parseDateText(day)
	if err != nil {
		return rec, err
	}
	rec.ReportDate = d
	rec.Category = track.Category(category)
	rec.Item.Key = rec.Key
	return rec, nil
}
