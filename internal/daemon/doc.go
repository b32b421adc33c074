// Package daemon coordinates the long-running cine process and system
// integration points.
//
// It wires configuration, the series catalog, the importer, and the session
// registry into a single lifecycle with flock-based locking to prevent
// multiple instances. The daemon serves the HTTP API and its WebSocket event
// streams, watches removable media for import candidates, emits dependency
// health summaries, and closes open sessions on shutdown.
//
// Keep orchestration logic here: playback semantics live in the engine and
// import mechanics in the importer while the daemon focuses on startup,
// shutdown, and high level coordination.
package daemon
