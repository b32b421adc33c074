// Package engine hosts the frame navigation and cine playback engine for one
// image sequence.
//
// The Engine owns the frame index store, the playback state machine with its
// adaptive rate controller, the input translators, and the prefetch
// coordinator, and serializes every mutation under one mutex. Timers come
// from an injected clock so scheduler, animation, and momentum behavior is
// testable without wall-clock waits. Events produced by a mutation are
// delivered to subscribers after the mutation completes, in order, on the
// mutating goroutine.
//
// Keep policy in the leaf packages: boundary math belongs to frameindex, rate
// correction to playback, gesture translation to input. This package is the
// authoritative home for wiring them together and for timer lifecycles.
package engine
