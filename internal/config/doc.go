// Package config loads sigtrack configuration from CUE.
//
// A user file is unified with the embedded #Config schema, so unknown fields,
// wrong types, and non-positive populations are rejected with file positions.
// Fields the user omits take the schema defaults.
//
// Example sigtrack.cue:
//
//	database:     "/var/lib/sigtrack/sigtrack.db"
//	strict_dates: true
//	baseline: {
//		units: North: 120
//		technicians: North: alice: 40
//	}
//	directory: "technicians.yaml"
package config
