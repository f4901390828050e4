package track

// Version constants for the store schema and engine.
const (
	// SchemaVersion is the store schema version recorded in PRAGMA user_version.
	SchemaVersion = 2

	// EngineVersion is recorded on every run ledger entry.
	EngineVersion = "0.3.0"
)
