// Package main hosts the cine CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into IPC calls against
// the daemon: series catalog management, playback session control, log
// tailing, interactive viewing, and configuration scaffolding. Catalog
// commands fall back to direct store access when no daemon is running, so a
// library can be inspected and populated without one.
//
// Keep this package lean: new functionality belongs in the internal packages
// first, surfaced here through dedicated commands or flags.
package main
