// Package store provides SQLite-backed durable storage for sigtrack.
//
// The store holds five tables:
//   - snapshots: full daily population, keyed (report_date, item_key)
//   - change_records: NEW / REMOVED / PERSISTING classification per day
//   - tracking_state: cross-day streak state per key
//   - daily_summaries: per (org unit, technician) rollups per day
//   - run_ledger: idempotency guard, one row per committed day
//
// plus tracking_undo, which lets a forced re-run restore the tracking state
// a day started from.
//
// # Write Discipline
//
// Every mutation goes through a Tx obtained from Store.WithTx. Day-scoped
// rows are replaced by delete-then-insert inside that transaction, never
// merged. Read methods are available on both Store and Tx.
//
// # Deterministic Query Results
//
// Every multi-row query has an explicit ORDER BY so replays return rows in
// the same order as the write path produced them.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON
//   - _txlock=immediate: transactions take the write lock at BEGIN, so two
//     racing commits for the same day are serialized
package store
