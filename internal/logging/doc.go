// Package logging builds the slog loggers used throughout the daemon and CLI.
//
// New and NewFromConfig produce console or JSON handlers with shared level
// and output plumbing. The console handler renders one line per record with
// the component name hoisted into a prefix; the JSON handler emits compact
// ts/level/msg keys for machine consumption. Context helpers tag records
// with session and series identifiers pulled from a request context, and
// NewNop supplies a discard logger for tests and optional wiring.
package logging
