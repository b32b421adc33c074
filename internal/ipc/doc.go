// Package ipc carries the JSON-RPC protocol between the CLI and the daemon.
//
// The server side listens on a Unix domain socket and dispatches onto the
// daemon's catalog, session, and playback operations; the client side wraps
// each RPC in a typed method. Playback commands, input gestures, and event
// polling route through the same api-layer entry points the HTTP surface
// uses, so both transports accept and reject identical requests.
package ipc
