package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/sigtrack/internal/engine"
	"github.com/roach88/sigtrack/internal/extract"
	"github.com/roach88/sigtrack/internal/store"
	"github.com/roach88/sigtrack/internal/testutil"
	"github.com/roach88/sigtrack/internal/track"
)

// Harness is the test execution engine.
// It runs scenarios with a fixed clock and fixed run ids.
type Harness struct {
	store      *store.Store
	engine     *engine.Engine
	normalizer extract.Normalizer
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Commit every day in order, checking its expect clause
// 3. Evaluate assertions against the final store
// 4. Return result with pass/fail, trace, and errors
//
// A returned error means the scenario could not be executed; failed
// expectations are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	now, err := scenario.clock()
	if err != nil {
		return nil, err
	}

	// One id per day covers every WRITE the scenario can perform.
	ids := make([]string, len(scenario.Days))
	for i := range ids {
		ids[i] = fmt.Sprintf("run-%d", i+1)
	}

	opts := []engine.Option{
		engine.WithClock(testutil.NewFixedClock(now)),
		engine.WithRunIDGenerator(engine.NewFixedGenerator(ids...)),
		engine.WithStrictDates(scenario.StrictDates),
	}
	if scenario.Baseline != nil {
		opts = append(opts, engine.WithBaseline(*scenario.Baseline))
	}

	normalizer := extract.DefaultNormalizer{}
	if len(scenario.Directory) > 0 {
		normalizer.Directory = extract.NewStaticDirectory(scenario.Directory)
	}

	h := &Harness{
		store:      st,
		engine:     engine.New(st, opts...),
		normalizer: normalizer,
	}

	ctx := context.Background()
	result := NewResult()
	for i, day := range scenario.Days {
		if err := h.executeDay(ctx, i, day, result); err != nil {
			return nil, err
		}
	}

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// executeDay commits one day and checks its expect clause.
// Commit errors become trace entries; only malformed steps return an error.
func (h *Harness) executeDay(ctx context.Context, index int, day DayStep, result *Result) error {
	items, err := extract.NormalizeAll(h.normalizer, day.Items)
	if err != nil {
		return fmt.Errorf("days[%d]: normalize: %w", index, err)
	}

	req := engine.CommitRequest{
		RawDate: day.RawDate,
		Items:   items,
		Force:   day.Force,
	}
	if day.Date != "" {
		req.ReportDate = track.MustParseDate(day.Date)
	}

	res, commitErr := h.engine.CommitDay(ctx, req)

	var dt DayTrace
	if commitErr != nil {
		dt = DayTrace{Date: day.Date, Error: errorCode(commitErr)}
		if dt.Date == "" {
			dt.Date = day.RawDate
		}
	} else {
		dt = traceCommit(res)
	}
	result.Trace = append(result.Trace, dt)

	prefix := fmt.Sprintf("days[%d] %s", index, dt.Date)
	expect := day.Expect
	if expect == nil {
		expect = &DayExpect{}
	}

	if commitErr != nil {
		if expect.Error == "" {
			result.AddError(fmt.Sprintf("%s: unexpected error: %v", prefix, commitErr))
		} else if expect.Error != dt.Error {
			result.AddError(fmt.Sprintf("%s: expected error %s, got %v", prefix, expect.Error, commitErr))
		}
		return nil
	}
	if expect.Error != "" {
		result.AddError(fmt.Sprintf("%s: expected error %s, got none", prefix, expect.Error))
		return nil
	}

	check := func(field string, want *int, got int) {
		if want != nil && *want != got {
			result.AddError(fmt.Sprintf("%s: expected %s=%d, got %d", prefix, field, *want, got))
		}
	}
	checkBool := func(field string, want *bool, got bool) {
		if want != nil && *want != got {
			result.AddError(fmt.Sprintf("%s: expected %s=%t, got %t", prefix, field, *want, got))
		}
	}

	if expect.Mode != "" && expect.Mode != string(res.Mode) {
		result.AddError(fmt.Sprintf("%s: expected mode %s, got %s", prefix, expect.Mode, res.Mode))
	}
	check("new", expect.New, res.Counts.New)
	check("removed", expect.Removed, res.Counts.Removed)
	check("persisting", expect.Persisting, res.Counts.Persisting)
	check("skipped", expect.Skipped, len(res.Skipped))
	check("stale_closed", expect.StaleClosed, res.StaleClosed)
	checkBool("input_changed", expect.InputChanged, res.InputChanged)
	checkBool("date_fallback", expect.DateFallback, res.DateFallback)
	return nil
}

// errorCode returns the RuntimeError code of err, or "ERROR".
func errorCode(err error) string {
	var re *engine.RuntimeError
	if errors.As(err, &re) {
		return string(re.Code)
	}
	return "ERROR"
}
