package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/sigtrack/internal/extract"
	"github.com/roach88/sigtrack/internal/store"
	"github.com/roach88/sigtrack/internal/track"
)

// Failpoint stages, checked in order inside the write transaction.
const (
	stageAfterSnapshot = "after-snapshot"
	stageAfterChanges  = "after-changes"
	stageBeforeLedger  = "before-ledger"
)

// errRaced aborts a write transaction that found the day already committed
// by a concurrent writer.
var errRaced = errors.New("day committed concurrently")

// Engine commits daily extracts against a store.
//
// Thread-safety: CommitDay may be called from several goroutines or processes
// against the same database; writes are serialized by the store. The engine
// itself holds no mutable state besides its metrics.
type Engine struct {
	store       *store.Store
	clock       Clock
	runIDs      RunIDGenerator
	baseline    Baseline
	metrics     *Metrics
	guard       RunGuard
	dateLayouts []string
	strictDates bool

	// failpoint is called at each write stage; a non-nil error aborts the
	// transaction. Set by tests only.
	failpoint func(stage string) error
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithClock sets the clock used for date fallback and ledger timestamps.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithRunIDGenerator sets the run id generator.
// Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(e *Engine) {
		e.runIDs = g
	}
}

// WithBaseline sets the managed-population baseline used for summary ratios.
func WithBaseline(b Baseline) Option {
	return func(e *Engine) {
		e.baseline = b
	}
}

// WithMetrics records commit metrics on m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithDateLayouts sets the layouts tried when parsing a raw extract date.
// Default: extract.DefaultDateLayouts.
func WithDateLayouts(layouts []string) Option {
	return func(e *Engine) {
		e.dateLayouts = layouts
	}
}

// WithStrictDates makes an unparsable or missing extract date an
// INVALID_INPUT error instead of falling back to the current date.
func WithStrictDates(strict bool) Option {
	return func(e *Engine) {
		e.strictDates = strict
	}
}

// New creates an Engine over the given store.
func New(s *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		clock:    SystemClock{},
		runIDs:   UUIDv7Generator{},
		baseline: NoBaseline{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CommitRequest is one day's full extract.
type CommitRequest struct {
	// ReportDate is the calendar day the extract describes. When zero,
	// RawDate is parsed instead.
	ReportDate time.Time

	// RawDate is the extract's date as written, e.g. "07/03/2024".
	RawDate string

	// Items is every signature in the extract. Keys are trimmed; blank and
	// repeated keys are skipped and reported.
	Items []track.TrackedItem

	// Force re-runs a committed day from scratch. Only the latest committed
	// day can be forced.
	Force bool
}

// CategoryCounts are the number of change records per category.
type CategoryCounts struct {
	New        int `json:"new"`
	Removed    int `json:"removed"`
	Persisting int `json:"persisting"`
}

// CommitResult reports what a CommitDay call did and the day's records.
// A REPLAY returns exactly the rows the original WRITE returned.
type CommitResult struct {
	ReportDate   time.Time            `json:"report_date"`
	Mode         track.Mode           `json:"mode"`
	RunID        string               `json:"run_id"`
	InputDigest  string               `json:"input_digest"`
	Counts       CategoryCounts       `json:"counts"`
	Skipped      []track.SkippedItem  `json:"skipped,omitempty"`
	StaleClosed  int                  `json:"stale_closed,omitempty"`
	DateFallback bool                 `json:"date_fallback,omitempty"`
	InputChanged bool                 `json:"input_changed,omitempty"`
	Changes      []track.ChangeRecord `json:"changes"`
	Summaries    []track.DailySummary `json:"summaries"`
}

// CommitDay processes one day's extract.
//
// If the day is already committed and Force is false, nothing is written and
// the committed records are returned with Mode REPLAY. Otherwise the day is
// classified against the previous calendar day's snapshot and every derived
// row is written in one transaction.
//
// Errors carry a RuntimeError code: INVALID_INPUT before any mutation,
// STREAK_INCONSISTENT or LATER_DAY_COMMITTED from inside the transaction,
// and COMMIT_FAILED wrapping anything else that rolled it back.
func (e *Engine) CommitDay(ctx context.Context, req CommitRequest) (CommitResult, error) {
	start := time.Now()

	date, fallback, err := e.resolveDate(req)
	if err != nil {
		return CommitResult{}, err
	}

	items, skipped := prepareItems(req.Items)
	digest, err := track.SnapshotDigest(items)
	if err != nil {
		return CommitResult{}, NewInputError("digest extract", err)
	}

	res := CommitResult{
		ReportDate:   date,
		InputDigest:  digest,
		Skipped:      skipped,
		DateFallback: fallback,
	}
	for _, s := range skipped {
		slog.Debug("skipping input row",
			"report_date", track.FormatDate(date),
			"row", s.Row,
			"key", s.Key,
			"reason", s.Reason,
		)
	}

	mode, err := e.guard.ShouldWrite(ctx, e.store, date, req.Force)
	if err != nil {
		return CommitResult{}, err
	}

	if mode == track.ModeWrite {
		err = e.write(context.WithoutCancel(ctx), date, items, req.Force, &res)
		if errors.Is(err, errRaced) {
			slog.Info("day committed concurrently, replaying", "report_date", track.FormatDate(date))
			mode, err = track.ModeReplay, nil
		}
		if err != nil {
			e.metrics.observeFailure()
			return CommitResult{}, classifyCommitError(date, err)
		}
	}

	if mode == track.ModeReplay {
		if err := e.replay(ctx, date, &res); err != nil {
			return CommitResult{}, err
		}
	}

	e.metrics.observeCommit(res, time.Since(start))
	slog.Info("day committed",
		"report_date", track.FormatDate(date),
		"mode", res.Mode,
		"run_id", res.RunID,
		"new", res.Counts.New,
		"persisting", res.Counts.Persisting,
		"removed", res.Counts.Removed,
		"skipped", len(res.Skipped),
	)
	return res, nil
}

// resolveDate returns the report date and whether it fell back to today.
func (e *Engine) resolveDate(req CommitRequest) (time.Time, bool, error) {
	if !req.ReportDate.IsZero() {
		return track.Day(req.ReportDate), false, nil
	}

	date, err := extract.ParseReportDate(req.RawDate, e.dateLayouts)
	if err == nil {
		return date, false, nil
	}
	if e.strictDates {
		return time.Time{}, false, NewInputError("report date", err)
	}

	today := track.Day(e.clock.Now())
	slog.Warn("report date unusable, falling back to current date",
		"raw_date", req.RawDate,
		"report_date", track.FormatDate(today),
		"error", err,
	)
	return today, true, nil
}

// prepareItems trims keys and drops blank and repeated keys, keeping the
// first occurrence. Row numbers in the returned skips are 1-based.
func prepareItems(in []track.TrackedItem) ([]track.TrackedItem, []track.SkippedItem) {
	items := make([]track.TrackedItem, 0, len(in))
	var skipped []track.SkippedItem
	seen := make(map[string]struct{}, len(in))

	for i, item := range in {
		item.Key = strings.TrimSpace(item.Key)
		switch _, dup := seen[item.Key]; {
		case item.Key == "":
			skipped = append(skipped, track.SkippedItem{Row: i + 1, Reason: track.SkipBlankKey})
		case dup:
			skipped = append(skipped, track.SkippedItem{Row: i + 1, Key: item.Key, Reason: track.SkipDuplicateKey})
		default:
			seen[item.Key] = struct{}{}
			items = append(items, item)
		}
	}
	return items, skipped
}

// write runs the WRITE path in one transaction and fills res from the rows
// it committed.
func (e *Engine) write(ctx context.Context, date time.Time, items []track.TrackedItem, force bool, res *CommitResult) error {
	day := track.FormatDate(date)

	return e.store.WithTx(ctx, func(tx *store.Tx) error {
		// A concurrent writer may have committed the day since the guard ran.
		mode, err := e.guard.ShouldWrite(ctx, tx, date, force)
		if err != nil {
			return err
		}
		if mode == track.ModeReplay {
			return errRaced
		}

		if latest, ok, err := tx.LatestRunAfter(ctx, date); err != nil {
			return err
		} else if ok {
			return NewLaterDayError(day, track.FormatDate(latest))
		}

		if err := tx.DeleteDay(ctx, date); err != nil {
			return err
		}
		restored, err := tx.RestoreUndo(ctx, date)
		if err != nil {
			return err
		}
		if restored > 0 {
			slog.Info("restored tracking state for re-run", "report_date", day, "keys", restored)
		}

		if err := tx.InsertSnapshot(ctx, date, items); err != nil {
			return err
		}
		if err := e.fail(stageAfterSnapshot); err != nil {
			return err
		}

		yesterday := []track.TrackedItem{}
		prev := track.PreviousDay(date)
		hasPrev, err := tx.HasSnapshot(ctx, prev)
		if err != nil {
			return err
		}
		if hasPrev {
			if yesterday, err = tx.ReadSnapshot(ctx, prev); err != nil {
				return err
			}
		} else {
			slog.Debug("no snapshot for previous day, every key is NEW", "report_date", day)
		}

		changes, err := applyPartition(ctx, tx, date, items, yesterday)
		if err != nil {
			return err
		}

		closed, err := closeStale(ctx, tx, date, items)
		if err != nil {
			return err
		}
		if err := e.fail(stageAfterChanges); err != nil {
			return err
		}

		for _, s := range Aggregate(date, changes, e.baseline) {
			if err := tx.InsertSummary(ctx, s); err != nil {
				return err
			}
		}
		if err := e.fail(stageBeforeLedger); err != nil {
			return err
		}

		entry := track.RunEntry{
			ReportDate:    date,
			RunID:         e.runIDs.Generate(),
			InputDigest:   res.InputDigest,
			ItemCount:     len(items),
			EngineVersion: track.EngineVersion,
			CommittedAt:   e.clock.Now(),
		}
		if err := tx.InsertRun(ctx, entry); err != nil {
			return err
		}
		if err := tx.PruneUndo(ctx, date); err != nil {
			return err
		}

		// Fill the result from the stored rows, so a later replay returns
		// byte-identical records.
		if err := readDay(ctx, tx, date, res); err != nil {
			return err
		}
		res.Mode = track.ModeWrite
		res.RunID = entry.RunID
		res.StaleClosed = closed
		return nil
	})
}

// applyPartition classifies today's items against yesterday's, advances
// every key's streak and writes one change record per key.
func applyPartition(ctx context.Context, tx *store.Tx, date time.Time, today, yesterday []track.TrackedItem) ([]track.ChangeRecord, error) {
	todayByKey := indexItems(today)
	yesterdayByKey := indexItems(yesterday)
	part := Diff(track.KeySet(today), track.KeySet(yesterday))
	streaks := NewStreakTracker(tx, date)

	changes := make([]track.ChangeRecord, 0, part.Len())
	record := func(category track.Category, keys []string, items map[string]track.TrackedItem) error {
		for _, key := range keys {
			state, err := streaks.Apply(ctx, category, key)
			if err != nil {
				return err
			}
			rec := track.ChangeRecord{
				ReportDate:      date,
				Key:             key,
				Category:        category,
				Item:            items[key],
				ConsecutiveDays: state.ConsecutiveDays,
			}
			if err := tx.InsertChange(ctx, rec); err != nil {
				return err
			}
			changes = append(changes, rec)
		}
		return nil
	}

	if err := record(track.CategoryNew, part.New, todayByKey); err != nil {
		return nil, err
	}
	if err := record(track.CategoryPersisting, part.Persisting, todayByKey); err != nil {
		return nil, err
	}
	if err := record(track.CategoryRemoved, part.Removed, yesterdayByKey); err != nil {
		return nil, err
	}
	return changes, nil
}

// closeStale ends ACTIVE streaks last seen before the previous day whose keys
// are absent today. They disappeared across a missing day, so no change
// record is written for them.
func closeStale(ctx context.Context, tx *store.Tx, date time.Time, today []track.TrackedItem) (int, error) {
	stale, err := tx.ListStaleActive(ctx, track.PreviousDay(date))
	if err != nil {
		return 0, err
	}

	present := track.KeySet(today)
	streaks := NewStreakTracker(tx, date)
	closed := 0
	for _, state := range stale {
		if _, ok := present[state.Key]; ok {
			continue
		}
		if _, err := streaks.Close(ctx, state); err != nil {
			return 0, err
		}
		closed++
	}
	if closed > 0 {
		slog.Info("closed stale streaks", "report_date", track.FormatDate(date), "keys", closed)
	}
	return closed, nil
}

// dayReader is the read side shared by *store.Store and *store.Tx.
type dayReader interface {
	ReadRun(ctx context.Context, date time.Time) (track.RunEntry, bool, error)
	ReadChanges(ctx context.Context, date time.Time) ([]track.ChangeRecord, error)
	ReadSummaries(ctx context.Context, date time.Time) ([]track.DailySummary, error)
}

// replay fills res from the committed day without writing.
func (e *Engine) replay(ctx context.Context, date time.Time, res *CommitResult) error {
	entry, ok, err := e.store.ReadRun(ctx, date)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("replay %s: no run ledger entry", track.FormatDate(date))
	}
	if err := readDay(ctx, e.store, date, res); err != nil {
		return err
	}

	res.Mode = track.ModeReplay
	res.RunID = entry.RunID
	res.InputChanged = entry.InputDigest != res.InputDigest
	if res.InputChanged {
		slog.Warn("replayed day differs from committed extract; use force to re-run",
			"report_date", track.FormatDate(date),
			"committed_digest", entry.InputDigest,
			"input_digest", res.InputDigest,
		)
	}
	return nil
}

func readDay(ctx context.Context, r dayReader, date time.Time, res *CommitResult) error {
	changes, err := r.ReadChanges(ctx, date)
	if err != nil {
		return err
	}
	summaries, err := r.ReadSummaries(ctx, date)
	if err != nil {
		return err
	}
	res.Changes = changes
	res.Summaries = summaries
	res.Counts = countChanges(changes)
	return nil
}

// DayReport is everything recorded for one committed day.
type DayReport struct {
	Run       track.RunEntry       `json:"run"`
	Counts    CategoryCounts       `json:"counts"`
	Changes   []track.ChangeRecord `json:"changes"`
	Summaries []track.DailySummary `json:"summaries"`
	Units     []track.UnitSummary  `json:"units"`
}

// ErrDayNotCommitted is returned by Report for a day with no ledger entry.
var ErrDayNotCommitted = errors.New("day not committed")

// Report returns the committed records of a day with per-unit rollups.
func (e *Engine) Report(ctx context.Context, date time.Time) (DayReport, error) {
	date = track.Day(date)
	entry, ok, err := e.store.ReadRun(ctx, date)
	if err != nil {
		return DayReport{}, err
	}
	if !ok {
		return DayReport{}, fmt.Errorf("%s: %w", track.FormatDate(date), ErrDayNotCommitted)
	}

	var res CommitResult
	if err := readDay(ctx, e.store, date, &res); err != nil {
		return DayReport{}, err
	}
	return DayReport{
		Run:       entry,
		Counts:    res.Counts,
		Changes:   res.Changes,
		Summaries: res.Summaries,
		Units:     RollupUnits(res.Summaries, e.baseline),
	}, nil
}

// UnitSummaries returns the per-unit rollups of a committed day.
func (e *Engine) UnitSummaries(ctx context.Context, date time.Time) ([]track.UnitSummary, error) {
	summaries, err := e.store.ReadSummaries(ctx, track.Day(date))
	if err != nil {
		return nil, err
	}
	return RollupUnits(summaries, e.baseline), nil
}

// History returns every change record of a key in date order.
func (e *Engine) History(ctx context.Context, key string) ([]track.ChangeRecord, error) {
	return e.store.ReadHistory(ctx, strings.TrimSpace(key))
}

// RunEntries returns the run ledger in date order.
func (e *Engine) RunEntries(ctx context.Context) ([]track.RunEntry, error) {
	return e.store.ListRuns(ctx)
}

// Tracking returns the current streak state of a key.
func (e *Engine) Tracking(ctx context.Context, key string) (track.TrackingState, bool, error) {
	return e.store.ReadTracking(ctx, strings.TrimSpace(key))
}

// ListTracking returns streak states ordered by key. An empty status lists
// every key.
func (e *Engine) ListTracking(ctx context.Context, status track.Status) ([]track.TrackingState, error) {
	return e.store.ListTracking(ctx, status)
}

func (e *Engine) fail(stage string) error {
	if e.failpoint == nil {
		return nil
	}
	return e.failpoint(stage)
}

func indexItems(items []track.TrackedItem) map[string]track.TrackedItem {
	m := make(map[string]track.TrackedItem, len(items))
	for _, item := range items {
		m[item.Key] = item
	}
	return m
}

func countChanges(changes []track.ChangeRecord) CategoryCounts {
	var c CategoryCounts
	for _, rec := range changes {
		switch rec.Category {
		case track.CategoryNew:
			c.New++
		case track.CategoryPersisting:
			c.Persisting++
		case track.CategoryRemoved:
			c.Removed++
		}
	}
	return c
}

// classifyCommitError passes RuntimeErrors raised inside the transaction
// through unchanged and wraps anything else as COMMIT_FAILED.
func classifyCommitError(date time.Time, err error) error {
	var re *RuntimeError
	if errors.As(err, &re) {
		return err
	}
	return NewCommitError(track.FormatDate(date), err)
}
