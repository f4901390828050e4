package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/roach88/sigtrack/internal/extract"
	"github.com/roach88/sigtrack/internal/track"
)

// parseDay accepts an ISO date or any of the configured extract layouts.
func parseDay(s string, layouts []string) (time.Time, error) {
	if d, err := track.ParseDate(s); err == nil {
		return d, nil
	}
	d, err := extract.ParseReportDate(s, layouts)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

func formatRatio(r *float64) string {
	if r == nil {
		return ""
	}
	return " ratio=" + strconv.FormatFloat(*r, 'f', 4, 64)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// printChanges writes one line per change record: the category marker, the
// key, unit/technician and the streak in days.
func printChanges(w io.Writer, changes []track.ChangeRecord) {
	for _, rec := range changes {
		fmt.Fprintf(w, "  %s %s  %s/%s  %dd\n",
			categoryMarker(rec.Category), rec.Key, rec.Item.OrgUnit, rec.Item.Technician, rec.ConsecutiveDays)
	}
}

func printSummaries(w io.Writer, summaries []track.DailySummary) {
	if len(summaries) == 0 {
		return
	}
	fmt.Fprintln(w, "Summaries:")
	for _, s := range summaries {
		fmt.Fprintf(w, "  %s/%s  total=%d new=%d removed=%d persisting=%d%s\n",
			s.OrgUnit, s.Technician, s.CurrentTotal, s.NewCount, s.RemovedCount, s.PersistingCount, formatRatio(s.Ratio))
	}
}

func printUnits(w io.Writer, units []track.UnitSummary) {
	if len(units) == 0 {
		return
	}
	fmt.Fprintln(w, "Units:")
	for _, u := range units {
		fmt.Fprintf(w, "  %s  total=%d new=%d removed=%d persisting=%d%s\n",
			u.OrgUnit, u.CurrentTotal, u.NewCount, u.RemovedCount, u.PersistingCount, formatRatio(u.Ratio))
	}
}

// printTracking writes one line per tracking row.
//
//	SIG-1  ACTIVE  3d  first=2024-03-05 last=2024-03-07
func printTracking(w io.Writer, state track.TrackingState) {
	fmt.Fprintf(w, "%s  %s  %dd  first=%s last=%s\n",
		state.Key, statusLabel(state.Status), state.ConsecutiveDays,
		track.FormatDate(state.FirstSeenDate), track.FormatDate(state.LastSeenDate))
}
