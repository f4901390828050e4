package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/sigtrack/internal/track"
)

const trackingColumns = `item_key, first_seen_date, last_seen_date, consecutive_days, status`

// ReadTracking returns the tracking state for a key.
// The boolean is false when the key has never been tracked.
func (r reader) ReadTracking(ctx context.Context, key string) (track.TrackingState, bool, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+trackingColumns+`
		FROM tracking_state
		WHERE item_key = ?
	`, key)

	state, err := scanTracking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return track.TrackingState{}, false, nil
	}
	if err != nil {
		return track.TrackingState{}, false, err
	}
	return state, true, nil
}

// ListTracking returns tracking rows ordered by key.
// An empty status returns every row.
func (r reader) ListTracking(ctx context.Context, status track.Status) ([]track.TrackingState, error) {
	query := `SELECT ` + trackingColumns + ` FROM tracking_state`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY item_key COLLATE BINARY ASC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tracking: %w", err)
	}
	return collectTracking(rows)
}

// ListStaleActive returns ACTIVE rows last seen strictly before the date.
func (r reader) ListStaleActive(ctx context.Context, before time.Time) ([]track.TrackingState, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+trackingColumns+`
		FROM tracking_state
		WHERE status = 'ACTIVE' AND last_seen_date < ?
		ORDER BY item_key COLLATE BINARY ASC
	`, dateText(before))
	if err != nil {
		return nil, fmt.Errorf("query stale tracking: %w", err)
	}
	return collectTracking(rows)
}

// PutTracking inserts or overwrites the tracking row for state.Key.
func (t *Tx) PutTracking(ctx context.Context, state track.TrackingState) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO tracking_state (`+trackingColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(item_key) DO UPDATE SET
			first_seen_date = excluded.first_seen_date,
			last_seen_date = excluded.last_seen_date,
			consecutive_days = excluded.consecutive_days,
			status = excluded.status
	`,
		state.Key,
		dateText(state.FirstSeenDate),
		dateText(state.LastSeenDate),
		state.ConsecutiveDays,
		string(state.Status),
	)
	if err != nil {
		return fmt.Errorf("put tracking %q: %w", state.Key, err)
	}
	return nil
}

// SaveUndo records the tracking row a key had before the date's run touched
// it. prior is nil when the key had no row. Only the first call per
// (date, key) is kept, so the undo row always holds the pre-run state.
func (t *Tx) SaveUndo(ctx context.Context, date time.Time, key string, prior *track.TrackingState) error {
	var (
		hadPrior  int
		firstSeen sql.NullString
		lastSeen  sql.NullString
		days      sql.NullInt64
		status    sql.NullString
	)
	if prior != nil {
		hadPrior = 1
		firstSeen = sql.NullString{String: dateText(prior.FirstSeenDate), Valid: true}
		lastSeen = sql.NullString{String: dateText(prior.LastSeenDate), Valid: true}
		days = sql.NullInt64{Int64: int64(prior.ConsecutiveDays), Valid: true}
		status = sql.NullString{String: string(prior.Status), Valid: true}
	}

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO tracking_undo
		(report_date, item_key, had_prior, first_seen_date, last_seen_date, consecutive_days, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(report_date, item_key) DO NOTHING
	`, dateText(date), key, hadPrior, firstSeen, lastSeen, days, status)
	if err != nil {
		return fmt.Errorf("save undo %q: %w", key, err)
	}
	return nil
}

// RestoreUndo puts every key the date's run touched back to its pre-run
// tracking state and clears the date's undo rows. Returns the number of keys
// restored.
func (t *Tx) RestoreUndo(ctx context.Context, date time.Time) (int, error) {
	day := dateText(date)
	rows, err := t.tx.QueryContext(ctx, `
		SELECT item_key, had_prior, first_seen_date, last_seen_date, consecutive_days, status
		FROM tracking_undo
		WHERE report_date = ?
		ORDER BY item_key COLLATE BINARY ASC
	`, day)
	if err != nil {
		return 0, fmt.Errorf("restore undo: query: %w", err)
	}

	type undoRow struct {
		key   string
		prior *track.TrackingState
	}
	var undo []undoRow
	for rows.Next() {
		var (
			key       string
			hadPrior  int
			firstSeen sql.NullString
			lastSeen  sql.NullString
			days      sql.NullInt64
			status    sql.NullString
		)
		if err := rows.Scan(&key, &hadPrior, &firstSeen, &lastSeen, &days, &status); err != nil {
			rows.Close()
			return 0, fmt.Errorf("restore undo: scan: %w", err)
		}
		u := undoRow{key: key}
		if hadPrior == 1 {
			first, err := parseDateText(firstSeen.String)
			if err != nil {
				rows.Close()
				return 0, fmt.Errorf("restore undo %q: %w", key, err)
			}
			last, err := parseDateText(lastSeen.String)
			if err != nil {
				rows.Close()
				return 0, fmt.Errorf("restore undo %q: %w", key, err)
			}
			u.prior = &track.TrackingState{
				Key:             key,
				FirstSeenDate:   first,
				LastSeenDate:    last,
				ConsecutiveDays: int(days.Int64),
				Status:          track.Status(status.String),
			}
		}
		undo = append(undo, u)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("restore undo: iterate: %w", err)
	}
	rows.Close()

	for _, u := range undo {
		if u.prior == nil {
			if _, err := t.tx.ExecContext(ctx, `DELETE FROM tracking_state WHERE item_key = ?`, u.key); err != nil {
				return 0, fmt.Errorf("restore undo %q: delete: %w", u.key, err)
			}
			continue
		}
		if err := t.PutTracking(ctx, *u.prior); err != nil {
			return 0, fmt.Errorf("restore undo: %w", err)
		}
	}

	if _, err := t.tx.ExecContext(ctx, `DELETE FROM tracking_undo WHERE report_date = ?`, day); err != nil {
		return 0, fmt.Errorf("restore undo: clear: %w", err)
	}
	return len(undo), nil
}

// PruneUndo drops undo rows for dates before the given date. Only the latest
// committed day can be re-run, so older rows are never read again.
func (t *Tx) PruneUndo(ctx context.Context, before time.Time) error {
	if _, err := t.tx.ExecContext(ctx,
		`DELETE FROM tracking_undo WHERE report_date < ?`, dateText(before),
	); err != nil {
		return fmt.Errorf("prune undo: %w", err)
	}
	return nil
}

func collectTracking(rows *sql.Rows) ([]track.TrackingState, error) {
	defer rows.Close()

	states := []track.TrackingState{}
	for rows.Next() {
		state, err := scanTracking(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracking: %w", err)
	}
	return states, nil
}

func scanTracking(row scanner) (track.TrackingState, error) {
	var state track.TrackingState
	var first, last, status string

	if err := row.Scan(&state.Key, &first, &last, &state.ConsecutiveDays, &status); err != nil {
		return state, fmt.Errorf("scan tracking: %w", err)
	}

	var err error
	if state.FirstSeenDate, err = parseDateText(first); err != nil {
		return state, err
	}
	if state.LastSeenDate, err = parseDateText(last); err != nil {
		return state, err
	}
	state.Status = track.Status(status)
	return state, nil
}
