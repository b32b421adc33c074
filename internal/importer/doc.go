// Package importer turns DICOM source files into catalog series with
// extracted frame directories.
//
// The importer drives the full pipeline for one source path: it dedupes
// against the catalog, probes the file through the DICOM helper, extracts
// slices, writes zero-padded frame files into the cache directory, records
// the probed study metadata, and moves the series row through the
// importing/ready/failed lifecycle. Failures persist their message on the
// row so the CLI and API can show why an import went wrong.
//
// Centralize new import behaviours here so the daemon, CLI, and media
// monitor all share a single, well-tested pipeline.
package importer
