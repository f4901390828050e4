// Package harness runs multi-day conformance scenarios against the engine.
//
// A scenario is a YAML file listing consecutive daily extracts and the
// expected outcome of each commit, followed by assertions on the final store:
//
//	name: gone_and_back
//	description: A key that disappears for a day restarts its streak
//	days:
//	  - date: "2024-03-07"
//	    items:
//	      - {key: A, org_unit: North, technician: alice}
//	    expect: {mode: WRITE, new: 1}
//	  - date: "2024-03-08"
//	    items: []
//	    expect: {removed: 1}
//	assertions:
//	  - {type: streak, key: A, days: 1, status: ENDED}
//
// Every scenario runs in a fresh in-memory database with a fixed clock and
// fixed run ids, so its day-by-day trace is deterministic and can be compared
// against a golden file in <scenarios-dir>/golden/<name>.golden.
package harness
