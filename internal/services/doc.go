// Package services defines shared utilities consumed by the playback engine,
// the import pipeline, and the daemon surfaces.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, series IDs, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     consistently across IPC and HTTP responses.
//
// Use these helpers when wiring new daemon logic so operational behaviour
// (error handling, observability) stays uniform across components.
package services
