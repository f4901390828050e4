package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/sigtrack/internal/store"
	"github.com/roach88/sigtrack/internal/testutil"
	"github.com/roach88/sigtrack/internal/track"
)

// seqRunIDs returns run-1, run-2, ... without running out.
type seqRunIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqRunIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("run-%d", g.n)
}

// mapBaseline is a Baseline backed by literal maps.
type mapBaseline struct {
	units map[string]int
	techs map[string]int // "unit/tech"
}

func (b mapBaseline) UnitPopulation(unit string) (int, bool) {
	n, ok := b.units[unit]
	return n, ok
}

func (b mapBaseline) TechnicianPopulation(unit, tech string) (int, bool) {
	n, ok := b.techs[unit+"/"+tech]
	return n, ok
}

var testNow = time.Date(2024, 3, 20, 8, 30, 0, 0, time.UTC)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *store.Store) {
	t.Helper()
	s := setupTestStore(t)
	base := []Option{
		WithClock(testutil.NewFixedClock(testNow)),
		WithRunIDGenerator(&seqRunIDs{}),
	}
	return New(s, append(base, opts...)...), s
}

func day(s string) time.Time {
	return track.MustParseDate(s)
}

func item(key, unit, tech string) track.TrackedItem {
	return track.TrackedItem{
		Key:        key,
		OrgUnit:    unit,
		Technician: tech,
		Attributes: track.Attributes{DisplayName: "Signature " + key},
	}
}

// items builds items in unit U1 handled by technician T1.
func items(keys ...string) []track.TrackedItem {
	out := make([]track.TrackedItem, len(keys))
	for i, k := range keys {
		out[i] = item(k, "U1", "T1")
	}
	return out
}

func commit(t *testing.T, e *Engine, date string, in []track.TrackedItem) CommitResult {
	t.Helper()
	res, err := e.CommitDay(context.Background(), CommitRequest{ReportDate: day(date), Items: in})
	require.NoError(t, err)
	return res
}

func forceCommit(t *testing.T, e *Engine, date string, in []track.TrackedItem) CommitResult {
	t.Helper()
	res, err := e.CommitDay(context.Background(), CommitRequest{ReportDate: day(date), Items: in, Force: true})
	require.NoError(t, err)
	return res
}

// categories maps key to category for a result's change records.
func categories(res CommitResult) map[string]track.Category {
	m := make(map[string]track.Category, len(res.Changes))
	for _, rec := range res.Changes {
		m[rec.Key] = rec.Category
	}
	return m
}

func streaks(res CommitResult) map[string]int {
	m := make(map[string]int, len(res.Changes))
	for _, rec := range res.Changes {
		m[rec.Key] = rec.ConsecutiveDays
	}
	return m
}

func tracking(t *testing.T, s *store.Store) []track.TrackingState {
	t.Helper()
	states, err := s.ListTracking(context.Background(), "")
	require.NoError(t, err)
	return states
}

func trackingOf(t *testing.T, s *store.Store, key string) track.TrackingState {
	t.Helper()
	state, ok, err := s.ReadTracking(context.Background(), key)
	require.NoError(t, err)
	require.True(t, ok, "no tracking state for %q", key)
	return state
}

func countRows(t *testing.T, s *store.Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

// rowCounts snapshots every table's row count.
func rowCounts(t *testing.T, s *store.Store) map[string]int {
	t.Helper()
	counts := make(map[string]int)
	for _, table := range []string{
		"snapshots", "change_records", "tracking_state", "tracking_undo", "daily_summaries", "run_ledger",
	} {
		counts[table] = countRows(t, s, table)
	}
	return counts
}
