package engine

import "time"

// Clock supplies the current time.
//
// The engine reads it for two things only: the fallback report date when an
// extract date is missing or unparsable, and the committed_at stamp on run
// ledger entries. Tests use testutil.FixedClock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current local time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
