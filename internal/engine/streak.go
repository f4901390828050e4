package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/sigtrack/internal/track"
)

// trackingStore is the slice of the store transaction the StreakTracker
// mutates. Satisfied by *store.Tx.
type trackingStore interface {
	ReadTracking(ctx context.Context, key string) (track.TrackingState, bool, error)
	PutTracking(ctx context.Context, state track.TrackingState) error
	SaveUndo(ctx context.Context, date time.Time, key string, prior *track.TrackingState) error
}

// StreakTracker maintains per-key continuous-appearance state for one
// report date. Every mutation records the key's prior state in the undo
// table first, so a forced re-run of the date can restore it exactly.
type StreakTracker struct {
	tx   trackingStore
	date time.Time
}

// NewStreakTracker creates a tracker that mutates tracking state within tx.
func NewStreakTracker(tx trackingStore, date time.Time) *StreakTracker {
	return &StreakTracker{tx: tx, date: track.Day(date)}
}

// Apply transitions the key's tracking state for its category and returns
// the resulting state.
//
//   - NEW starts a fresh streak at 1, overwriting any prior ENDED row
//   - PERSISTING extends an ACTIVE streak last seen on the previous day
//   - REMOVED ends an ACTIVE streak, keeping its last-seen date and length
//
// A PERSISTING or REMOVED key without a matching ACTIVE row means the
// snapshot and tracking state have diverged; Apply returns a
// STREAK_INCONSISTENT error rather than guessing.
func (s *StreakTracker) Apply(ctx context.Context, category track.Category, key string) (track.TrackingState, error) {
	prior, ok, err := s.tx.ReadTracking(ctx, key)
	if err != nil {
		return track.TrackingState{}, err
	}

	var next track.TrackingState
	switch category {
	case track.CategoryNew:
		next = track.TrackingState{
			Key:             key,
			FirstSeenDate:   s.date,
			LastSeenDate:    s.date,
			ConsecutiveDays: 1,
			Status:          track.StatusActive,
		}

	case track.CategoryPersisting:
		if err := s.requireActive(prior, ok, key, category); err != nil {
			return track.TrackingState{}, err
		}
		if !prior.LastSeenDate.Equal(track.PreviousDay(s.date)) {
			return track.TrackingState{}, NewInconsistencyError(track.FormatDate(s.date), key,
				fmt.Sprintf("PERSISTING key last seen %s, expected %s",
					track.FormatDate(prior.LastSeenDate), track.FormatDate(track.PreviousDay(s.date))))
		}
		next = prior
		next.LastSeenDate = s.date
		next.ConsecutiveDays = prior.ConsecutiveDays + 1

	case track.CategoryRemoved:
		if err := s.requireActive(prior, ok, key, category); err != nil {
			return track.TrackingState{}, err
		}
		next = prior
		next.Status = track.StatusEnded

	default:
		return track.TrackingState{}, fmt.Errorf("streak: unknown category %q", category)
	}

	if err := s.save(ctx, key, prior, ok, next); err != nil {
		return track.TrackingState{}, err
	}
	return next, nil
}

// Close ends the ACTIVE streak of a key that vanished across a missing day.
// No change record is written for it.
func (s *StreakTracker) Close(ctx context.Context, prior track.TrackingState) (track.TrackingState, error) {
	if prior.Status != track.StatusActive {
		return prior, nil
	}
	next := prior
	next.Status = track.StatusEnded
	if err := s.save(ctx, prior.Key, prior, true, next); err != nil {
		return track.TrackingState{}, err
	}
	return next, nil
}

func (s *StreakTracker) requireActive(prior track.TrackingState, ok bool, key string, category track.Category) error {
	if !ok {
		return NewInconsistencyError(track.FormatDate(s.date), key,
			fmt.Sprintf("%s key has no tracking state", category))
	}
	if prior.Status != track.StatusActive {
		return NewInconsistencyError(track.FormatDate(s.date), key,
			fmt.Sprintf("%s key has tracking status %s", category, prior.Status))
	}
	return nil
}

func (s *StreakTracker) save(ctx context.Context, key string, prior track.TrackingState, hadPrior bool, next track.TrackingState) error {
	var undo *track.TrackingState
	if hadPrior {
		undo = &prior
	}
	if err := s.tx.SaveUndo(ctx, s.date, key, undo); err != nil {
		return err
	}
	return s.tx.PutTracking(ctx, next)
}
