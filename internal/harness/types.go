package harness

import (
	"fmt"
	"strconv"

	"github.com/roach88/sigtrack/internal/engine"
	"github.com/roach88/sigtrack/internal/track"
)

// DayTrace is the deterministic record of one commit in a scenario.
type DayTrace struct {
	Date         string   `json:"date"`
	Mode         string   `json:"mode,omitempty"`
	RunID        string   `json:"run_id,omitempty"`
	Changes      []string `json:"changes,omitempty"`
	Summaries    []string `json:"summaries,omitempty"`
	Skipped      []string `json:"skipped,omitempty"`
	StaleClosed  int      `json:"stale_closed,omitempty"`
	InputChanged bool     `json:"input_changed,omitempty"`
	DateFallback bool     `json:"date_fallback,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every day expectation and assertion matches.
	Pass bool `json:"pass"`

	// Trace has one entry per day in order.
	Trace []DayTrace `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []DayTrace{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// traceCommit renders a commit result as a DayTrace.
//
// Change records render as "CATEGORY key streak" and summaries as
// "unit/technician total=N new=N removed=N persisting=N[ ratio=R]".
func traceCommit(res engine.CommitResult) DayTrace {
	dt := DayTrace{
		Date:         track.FormatDate(res.ReportDate),
		Mode:         string(res.Mode),
		RunID:        res.RunID,
		StaleClosed:  res.StaleClosed,
		InputChanged: res.InputChanged,
		DateFallback: res.DateFallback,
	}
	for _, rec := range res.Changes {
		dt.Changes = append(dt.Changes, fmt.Sprintf("%s %s %d", rec.Category, rec.Key, rec.ConsecutiveDays))
	}
	for _, s := range res.Summaries {
		line := fmt.Sprintf("%s/%s total=%d new=%d removed=%d persisting=%d",
			s.OrgUnit, s.Technician, s.CurrentTotal, s.NewCount, s.RemovedCount, s.PersistingCount)
		if s.Ratio != nil {
			line += " ratio=" + strconv.FormatFloat(*s.Ratio, 'f', 4, 64)
		}
		dt.Summaries = append(dt.Summaries, line)
	}
	for _, sk := range res.Skipped {
		if sk.Key != "" {
			dt.Skipped = append(dt.Skipped, fmt.Sprintf("row %d %s: %s", sk.Row, sk.Key, sk.Reason))
		} else {
			dt.Skipped = append(dt.Skipped, fmt.Sprintf("row %d: %s", sk.Row, sk.Reason))
		}
	}
	return dt
}

// canonical converts the trace entry to a map for canonical JSON.
// Empty fields are omitted.
func (d DayTrace) canonical() map[string]any {
	m := map[string]any{"date": d.Date}
	if d.Mode != "" {
		m["mode"] = d.Mode
	}
	if d.RunID != "" {
		m["run_id"] = d.RunID
	}
	if len(d.Changes) > 0 {
		m["changes"] = d.Changes
	}
	if len(d.Summaries) > 0 {
		m["summaries"] = d.Summaries
	}
	if len(d.Skipped) > 0 {
		m["skipped"] = d.Skipped
	}
	if d.StaleClosed > 0 {
		m["stale_closed"] = d.StaleClosed
	}
	if d.InputChanged {
		m["input_changed"] = true
	}
	if d.DateFallback {
		m["date_fallback"] = true
	}
	if d.Error != "" {
		m["error"] = d.Error
	}
	return m
}
