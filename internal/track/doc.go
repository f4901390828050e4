// Package track defines the domain types shared by every sigtrack layer.
//
// A TrackedItem is one service record observed in a daily extract. Items are
// grouped into daily snapshots, classified day over day into ChangeRecords,
// followed across days by TrackingState, and rolled up into DailySummary rows.
//
// # Dates
//
// Report dates are calendar days with no time component. They are carried as
// time.Time values normalized to midnight UTC (see Day) and stored as
// "2006-01-02" TEXT so that lexical ordering matches chronological ordering.
//
// # Canonical JSON
//
// Content digests (see SnapshotDigest) are computed over RFC 8785 canonical
// JSON with NFC-normalized strings, so the same extract always produces the
// same digest regardless of input row order.
package track
