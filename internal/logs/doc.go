// Package logs reads the daemon log file for the CLI and the IPC tail verb.
//
// Tail serves one-shot reads and follow-mode polling from a single entry
// point. Offsets returned to callers always sit on line boundaries, so a
// follower that resumes after a gap never splits or repeats a line. A
// negative offset means "start from the last Limit lines", which is what
// `cine logs` shows before it begins following.
package logs
