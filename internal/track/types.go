package track

import "time"

// Category classifies one key for one report date.
type Category string

const (
	CategoryNew        Category = "NEW"
	CategoryRemoved    Category = "REMOVED"
	CategoryPersisting Category = "PERSISTING"
)

// Categories lists the change categories in report order.
var Categories = []Category{CategoryNew, CategoryPersisting, CategoryRemoved}

// Valid reports whether c is one of the three change categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryNew, CategoryRemoved, CategoryPersisting:
		return true
	}
	return false
}

// Status is the lifecycle state of a TrackingState row.
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusEnded  Status = "ENDED"
)

// Mode is the RunGuard decision for one commit.
type Mode string

const (
	ModeWrite  Mode = "WRITE"
	ModeReplay Mode = "REPLAY"
)

// Attributes are the descriptive fields carried with an item for reporting.
// They never influence classification.
type Attributes struct {
	DisplayName  string `json:"display_name,omitempty" yaml:"display_name"`
	Address      string `json:"address,omitempty" yaml:"address"`
	SerialNumber string `json:"serial_number,omitempty" yaml:"serial_number"`
	Port         string `json:"port,omitempty" yaml:"port"`
}

// TrackedItem is one tracked record for one day, after normalization.
type TrackedItem struct {
	Key        string     `json:"key" yaml:"key"`
	OrgUnit    string     `json:"org_unit" yaml:"org_unit"`
	Technician string     `json:"technician" yaml:"technician"`
	Attributes Attributes `json:"attributes" yaml:",inline"`
}

// ChangeRecord is one classified row in the change ledger.
//
// REMOVED records carry the attributes stored in the previous day's snapshot.
// ConsecutiveDays is the streak as of ReportDate: 1 for NEW, the incremented
// count for PERSISTING, and the frozen final count for REMOVED.
type ChangeRecord struct {
	ReportDate      time.Time   `json:"report_date"`
	Key             string      `json:"key"`
	Category        Category    `json:"category"`
	Item            TrackedItem `json:"item"`
	ConsecutiveDays int         `json:"consecutive_days"`
}

// TrackingState is the cross-day streak state of one key.
type TrackingState struct {
	Key             string    `json:"key"`
	FirstSeenDate   time.Time `json:"first_seen_date"`
	LastSeenDate    time.Time `json:"last_seen_date"`
	ConsecutiveDays int       `json:"consecutive_days"`
	Status          Status    `json:"status"`
}

// DailySummary rolls up one day's change records for one
// (org unit, technician) group.
//
// ManagedPopulation and Ratio are nil when no baseline exists for the group.
type DailySummary struct {
	ReportDate        time.Time `json:"report_date"`
	OrgUnit           string    `json:"org_unit"`
	Technician        string    `json:"technician"`
	CurrentTotal      int       `json:"current_total"`
	NewCount          int       `json:"new_count"`
	RemovedCount      int       `json:"removed_count"`
	PersistingCount   int       `json:"persisting_count"`
	ManagedPopulation *int      `json:"managed_population,omitempty"`
	Ratio             *float64  `json:"ratio,omitempty"`
}

// UnitSummary is the per-org-unit rollup of a day's DailySummary rows.
type UnitSummary struct {
	ReportDate        time.Time `json:"report_date"`
	OrgUnit           string    `json:"org_unit"`
	CurrentTotal      int       `json:"current_total"`
	NewCount          int       `json:"new_count"`
	RemovedCount      int       `json:"removed_count"`
	PersistingCount   int       `json:"persisting_count"`
	ManagedPopulation *int      `json:"managed_population,omitempty"`
	Ratio             *float64  `json:"ratio,omitempty"`
}

// RunEntry is the idempotency ledger row for one committed report date.
type RunEntry struct {
	ReportDate    time.Time `json:"report_date"`
	RunID         string    `json:"run_id"`
	InputDigest   string    `json:"input_digest"`
	ItemCount     int       `json:"item_count"`
	EngineVersion string    `json:"engine_version"`
	CommittedAt   time.Time `json:"committed_at"`
}

// SkipReason explains why a raw record was excluded before diffing.
type SkipReason string

const (
	SkipBlankKey     SkipReason = "blank key"
	SkipDuplicateKey SkipReason = "duplicate key"
)

// SkippedItem records one excluded input row.
type SkippedItem struct {
	Row    int        `json:"row"`
	Key    string     `json:"key,omitempty"`
	Reason SkipReason `json:"reason"`
}
