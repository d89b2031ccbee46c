// Package domain models citizen water-quality reports for Virginia waterways.
//
// # Reports
//
// A Report is a single citizen observation of water condition at a named
// water body. Reports are immutable once created: the submission gateway
// assigns the ID and timestamp, derives the Status from the observed
// condition, and nothing mutates the record afterwards. Aggregation keys on
// the Location string with exact, case-sensitive matching: "James River"
// and "james river" are different locations.
//
// # Status derivation
//
// The observed water condition maps to a Status exactly once, at submission
// time:
//
//	clear      → safe
//	greenish   → caution
//	algae      → warning
//	foam       → warning
//	discolored → caution
//	(other)    → safe
//
// The derived Status is persisted on the Report. Changing the lookup table
// later must not retroactively reinterpret historical reports, so consumers
// always read Report.Status and never re-derive it from the raw condition.
//
// # Severity ordering
//
// Statuses are ordered safe < caution < warning < unsafe. The ordering is
// used only for consensus tie-breaking: when two statuses collect the same
// number of in-window reports, the more severe one wins, biasing the system
// toward flagging hazards rather than clearing them.
package domain
