// Package api defines wire-format types and converters for the IPC and HTTP
// API layer. It translates internal catalog, session, and engine state into
// transport-friendly DTOs that frontends can render without coupling to
// internal types.
//
// # Key Types
//
// Series: transport representation of a catalog entry with study metadata,
// frame extraction results, and lifecycle status.
//
// Session: an open viewing session with its current playback state attached.
//
// PlaybackState: engine snapshot with rates, mode, direction, and buffer
// occupancy.
//
// PlaybackCommand/InputEvent: the control vocabulary shared by the unix
// socket, the WebSocket stream, and the terminal watch UI.
//
// DaemonStatus: aggregated runtime information including dependencies.
//
// # Converters
//
// FromSeries: catalog.Series -> Series with RFC3339 timestamps.
//
// FromSession: sessions.Session -> Session with a live engine snapshot.
//
// FromEvent: engine.Event -> SessionEvent for the event stream.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Internal
// enums (catalog.Status, playback.Mode, frameindex.Edge) are exposed as
// lowercase strings. Timestamps use RFC3339 with milliseconds.
//
// ApplyCommand and ApplyInput are the single dispatch points for playback
// control, so every transport accepts the same names and rejects the same
// malformed requests.
package api
