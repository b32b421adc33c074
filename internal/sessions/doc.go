// Package sessions hosts the live viewing sessions the daemon serves.
//
// A session binds one ready catalog series to one engine: the frame
// directory becomes the engine's loader, the configuration supplies the
// engine defaults, and a uuid keys the session for IPC and API callers.
// The registry guards the session table with a mutex and detaches engines
// exactly once when sessions close.
//
// Keep session lifecycle here: command routing belongs to the transport
// layers, and playback semantics belong to the engine.
package sessions
