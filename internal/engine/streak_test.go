package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sigtrack/internal/store"
	"github.com/roach88/sigtrack/internal/track"
)

// withTracker runs fn against a StreakTracker for date inside a transaction
// that commits when fn returns nil.
func withTracker(t *testing.T, s *store.Store, date string, fn func(st *StreakTracker) error) error {
	t.Helper()
	return s.WithTx(context.Background(), func(tx *store.Tx) error {
		return fn(NewStreakTracker(tx, day(date)))
	})
}

func seedTracking(t *testing.T, s *store.Store, states ...track.TrackingState) {
	t.Helper()
	require.NoError(t, s.WithTx(context.Background(), func(tx *store.Tx) error {
		for _, st := range states {
			if err := tx.PutTracking(context.Background(), st); err != nil {
				return err
			}
		}
		return nil
	}))
}

func TestStreakTracker_New(t *testing.T) {
	s := setupTestStore(t)
	var got track.TrackingState
	require.NoError(t, withTracker(t, s, "2024-03-07", func(st *StreakTracker) error {
		var err error
		got, err = st.Apply(context.Background(), track.CategoryNew, "A")
		return err
	}))

	want := track.TrackingState{
		Key:             "A",
		FirstSeenDate:   day("2024-03-07"),
		LastSeenDate:    day("2024-03-07"),
		ConsecutiveDays: 1,
		Status:          track.StatusActive,
	}
	assert.Equal(t, want, got)
	assert.Equal(t, want, trackingOf(t, s, "A"))
}

func TestStreakTracker_NewOverwritesEnded(t *testing.T) {
	s := setupTestStore(t)
	seedTracking(t, s, track.TrackingState{
		Key: "A", FirstSeenDate: day("2024-03-01"), LastSeenDate: day("2024-03-04"),
		ConsecutiveDays: 4, Status: track.StatusEnded,
	})

	require.NoError(t, withTracker(t, s, "2024-03-07", func(st *StreakTracker) error {
		_, err := st.Apply(context.Background(), track.CategoryNew, "A")
		return err
	}))

	got := trackingOf(t, s, "A")
	assert.Equal(t, day("2024-03-07"), got.FirstSeenDate)
	assert.Equal(t, 1, got.ConsecutiveDays)
	assert.Equal(t, track.StatusActive, got.Status)
}

func TestStreakTracker_Persisting(t *testing.T) {
	s := setupTestStore(t)
	seedTracking(t, s, track.TrackingState{
		Key: "A", FirstSeenDate: day("2024-03-05"), LastSeenDate: day("2024-03-06"),
		ConsecutiveDays: 2, Status: track.StatusActive,
	})

	var got track.TrackingState
	require.NoError(t, withTracker(t, s, "2024-03-07", func(st *StreakTracker) error {
		var err error
		got, err = st.Apply(context.Background(), track.CategoryPersisting, "A")
		return err
	}))

	assert.Equal(t, 3, got.ConsecutiveDays)
	assert.Equal(t, day("2024-03-05"), got.FirstSeenDate)
	assert.Equal(t, day("2024-03-07"), got.LastSeenDate)
	assert.Equal(t, track.StatusActive, got.Status)
}

func TestStreakTracker_Removed(t *testing.T) {
	s := setupTestStore(t)
	seedTracking(t, s, track.TrackingState{
		Key: "A", FirstSeenDate: day("2024-03-05"), LastSeenDate: day("2024-03-06"),
		ConsecutiveDays: 2, Status: track.StatusActive,
	})

	var got track.TrackingState
	require.NoError(t, withTracker(t, s, "2024-03-07", func(st *StreakTracker) error {
		var err error
		got, err = st.Apply(context.Background(), track.CategoryRemoved, "A")
		return err
	}))

	assert.Equal(t, track.StatusEnded, got.Status)
	assert.Equal(t, 2, got.ConsecutiveDays, "length is kept")
	assert.Equal(t, day("2024-03-06"), got.LastSeenDate, "last seen is not advanced")
}

func TestStreakTracker_Inconsistent(t *testing.T) {
	active := track.TrackingState{
		Key: "A", FirstSeenDate: day("2024-03-01"), LastSeenDate: day("2024-03-04"),
		ConsecutiveDays: 4, Status: track.StatusActive,
	}
	ended := active
	ended.LastSeenDate = day("2024-03-06")
	ended.Status = track.StatusEnded

	tests := []struct {
		name     string
		seed     []track.TrackingState
		category track.Category
	}{
		{"persisting without row", nil, track.CategoryPersisting},
		{"removed without row", nil, track.CategoryRemoved},
		{"persisting on ended row", []track.TrackingState{ended}, track.CategoryPersisting},
		{"removed on ended row", []track.TrackingState{ended}, track.CategoryRemoved},
		{"persisting across a gap", []track.TrackingState{active}, track.CategoryPersisting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupTestStore(t)
			seedTracking(t, s, tt.seed...)

			err := withTracker(t, s, "2024-03-07", func(st *StreakTracker) error {
				_, err := st.Apply(context.Background(), tt.category, "A")
				return err
			})
			require.Error(t, err)
			assert.True(t, IsInconsistencyError(err), "got %v", err)
		})
	}
}

func TestStreakTracker_UnknownCategory(t *testing.T) {
	s := setupTestStore(t)
	err := withTracker(t, s, "2024-03-07", func(st *StreakTracker) error {
		_, err := st.Apply(context.Background(), track.Category("MOVED"), "A")
		return err
	})
	require.Error(t, err)
	assert.False(t, IsInconsistencyError(err))
}

func TestStreakTracker_Close(t *testing.T) {
	s := setupTestStore(t)
	prior := track.TrackingState{
		Key: "A", FirstSeenDate: day("2024-03-01"), LastSeenDate: day("2024-03-04"),
		ConsecutiveDays: 4, Status: track.StatusActive,
	}
	seedTracking(t, s, prior)

	require.NoError(t, withTracker(t, s, "2024-03-07", func(st *StreakTracker) error {
		_, err := st.Close(context.Background(), prior)
		return err
	}))

	got := trackingOf(t, s, "A")
	assert.Equal(t, track.StatusEnded, got.Status)
	assert.Equal(t, day("2024-03-04"), got.LastSeenDate)
	assert.Equal(t, 4, got.ConsecutiveDays)
}

func TestStreakTracker_UndoRestoresPriorState(t *testing.T) {
	s := setupTestStore(t)
	prior := track.TrackingState{
		Key: "A", FirstSeenDate: day("2024-03-05"), LastSeenDate: day("2024-03-06"),
		ConsecutiveDays: 2, Status: track.StatusActive,
	}
	seedTracking(t, s, prior)

	require.NoError(t, withTracker(t, s, "2024-03-07", func(st *StreakTracker) error {
		if _, err := st.Apply(context.Background(), track.CategoryPersisting, "A"); err != nil {
			return err
		}
		_, err := st.Apply(context.Background(), track.CategoryNew, "B")
		return err
	}))

	require.NoError(t, s.WithTx(context.Background(), func(tx *store.Tx) error {
		n, err := tx.RestoreUndo(context.Background(), day("2024-03-07"))
		assert.Equal(t, 2, n)
		return err
	}))

	assert.Equal(t, prior, trackingOf(t, s, "A"))
	_, ok, err := s.ReadTracking(context.Background(), "B")
	require.NoError(t, err)
	assert.False(t, ok, "B had no prior row")
}
