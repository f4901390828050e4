// Package engine implements the daily snapshot-diff and historical-tracking
// engine.
//
// ARCHITECTURE:
//
// One call to CommitDay processes one calendar day's full extract:
//
//  1. RunGuard decides WRITE or REPLAY from the run ledger
//  2. REPLAY returns the committed change records and summaries untouched
//  3. WRITE opens one transaction and, inside it:
//     a. deletes the day's snapshot, change records, summaries and ledger row
//     b. restores the tracking state the day started from (forced re-runs)
//     c. inserts today's snapshot
//     d. diffs today's keys against the snapshot of exactly the previous day
//     e. applies the StreakTracker and writes one change record per key
//     f. aggregates summaries per (org unit, technician)
//     g. writes the run ledger entry
//
// Any failure rolls the whole transaction back, so a day is either fully
// recorded exactly once or not recorded at all.
//
// The engine is single-threaded and performs no internal parallelism. Two
// processes racing on the same day are serialized by the store's immediate
// transactions; the second one re-checks the guard inside its transaction,
// finds the ledger row, and replays.
//
// Once a write transaction has begun it is not cancellable: the commit runs
// under context.WithoutCancel so a cancelled caller cannot leave the
// transaction half-applied.
package engine
