package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/sigtrack/internal/store"
	"github.com/roach88/sigtrack/internal/track"
)

// AssertionContext provides the store assertions read from.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Subject  string // What was checked, e.g. "key A on 2024-03-08"
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Subject != "" {
		fmt.Fprintf(&buf, " (%s)", e.Subject)
	}
	fmt.Fprintf(&buf, "\n  Expected: %s\n  Actual: %s", e.Expected, e.Actual)
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(a, actx); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertCategory:
		return assertCategory(a, actx)
	case AssertStreak:
		return assertStreak(a, actx)
	case AssertSummary:
		return assertSummary(a, actx)
	case AssertHistory:
		return assertHistory(a, actx)
	case AssertRunCount:
		return assertRunCount(a, actx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertCategory checks the key's change record on the date.
func assertCategory(a Assertion, actx *AssertionContext) error {
	changes, err := actx.Store.ReadChanges(actx.Ctx, track.MustParseDate(a.Date))
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("key %s on %s", a.Key, a.Date)
	for _, rec := range changes {
		if rec.Key != a.Key {
			continue
		}
		if string(rec.Category) != a.Category {
			return &AssertionError{Type: a.Type, Subject: subject, Expected: a.Category, Actual: string(rec.Category)}
		}
		if a.Days > 0 && rec.ConsecutiveDays != a.Days {
			return &AssertionError{
				Type:     a.Type,
				Subject:  subject,
				Expected: fmt.Sprintf("consecutive_days %d", a.Days),
				Actual:   fmt.Sprintf("consecutive_days %d", rec.ConsecutiveDays),
			}
		}
		return nil
	}
	return &AssertionError{Type: a.Type, Subject: subject, Expected: a.Category, Actual: "no change record"}
}

// assertStreak checks the key's tracking state.
func assertStreak(a Assertion, actx *AssertionContext) error {
	state, ok, err := actx.Store.ReadTracking(actx.Ctx, a.Key)
	if err != nil {
		return err
	}
	subject := "key " + a.Key
	if !ok {
		return &AssertionError{Type: a.Type, Subject: subject, Expected: "tracking state", Actual: "none"}
	}

	if a.Days > 0 && state.ConsecutiveDays != a.Days {
		return &AssertionError{
			Type:     a.Type,
			Subject:  subject,
			Expected: fmt.Sprintf("consecutive_days %d", a.Days),
			Actual:   fmt.Sprintf("consecutive_days %d", state.ConsecutiveDays),
		}
	}
	if a.Status != "" && string(state.Status) != a.Status {
		return &AssertionError{Type: a.Type, Subject: subject, Expected: "status " + a.Status, Actual: "status " + string(state.Status)}
	}
	if a.FirstSeen != "" && track.FormatDate(state.FirstSeenDate) != a.FirstSeen {
		return &AssertionError{
			Type:     a.Type,
			Subject:  subject,
			Expected: "first_seen " + a.FirstSeen,
			Actual:   "first_seen " + track.FormatDate(state.FirstSeenDate),
		}
	}
	return nil
}

// assertSummary checks one (org unit, technician) summary row. Only the
// fields listed in Expect are compared.
func assertSummary(a Assertion, actx *AssertionContext) error {
	summaries, err := actx.Store.ReadSummaries(actx.Ctx, track.MustParseDate(a.Date))
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("%s/%s on %s", a.OrgUnit, a.Technician, a.Date)
	idx := slices.IndexFunc(summaries, func(s track.DailySummary) bool {
		return s.OrgUnit == a.OrgUnit && s.Technician == a.Technician
	})
	if idx < 0 {
		return &AssertionError{Type: a.Type, Subject: subject, Expected: "summary row", Actual: "none"}
	}
	s := summaries[idx]

	actual := map[string]int{
		"current_total":    s.CurrentTotal,
		"new_count":        s.NewCount,
		"removed_count":    s.RemovedCount,
		"persisting_count": s.PersistingCount,
	}
	if s.ManagedPopulation != nil {
		actual["managed_population"] = *s.ManagedPopulation
	}

	fields := make([]string, 0, len(a.Expect))
	for f := range a.Expect {
		fields = append(fields, f)
	}
	slices.Sort(fields)

	for _, f := range fields {
		got, ok := actual[f]
		if !ok {
			return &AssertionError{Type: a.Type, Subject: subject, Expected: fmt.Sprintf("%s %d", f, a.Expect[f]), Actual: f + " absent"}
		}
		if got != a.Expect[f] {
			return &AssertionError{Type: a.Type, Subject: subject, Expected: fmt.Sprintf("%s %d", f, a.Expect[f]), Actual: fmt.Sprintf("%s %d", f, got)}
		}
	}
	return nil
}

// assertHistory checks the key's categories in date order.
func assertHistory(a Assertion, actx *AssertionContext) error {
	history, err := actx.Store.ReadHistory(actx.Ctx, a.Key)
	if err != nil {
		return err
	}
	got := make([]string, len(history))
	for i, rec := range history {
		got[i] = string(rec.Category)
	}
	want := a.Categories
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(got, want) {
		return &AssertionError{
			Type:     a.Type,
			Subject:  "key " + a.Key,
			Expected: fmt.Sprintf("%v", want),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

// assertRunCount checks the number of committed days.
func assertRunCount(a Assertion, actx *AssertionContext) error {
	runs, err := actx.Store.ListRuns(actx.Ctx)
	if err != nil {
		return err
	}
	if len(runs) != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d committed days", a.Count),
			Actual:   fmt.Sprintf("%d committed days", len(runs)),
		}
	}
	return nil
}
