// Package dicomtool mediates access to the external DICOM helper used during
// import.
//
// The helper speaks two verbs, get_info and extract_slices, and answers each
// with a single JSON document on stdout. This package normalizes command
// invocation, enforces per-verb timeouts, decodes the base64 slice payloads,
// and exposes a testable interface for the importer.
//
// Prefer this package over ad-hoc exec.Command usage when interacting with the
// helper so timeout handling and failure reporting remain consistent.
package dicomtool
