// Package preflight provides readiness checks for the directories, binaries,
// and network surfaces cine depends on.
//
// These checks run in two contexts:
//   - The daemon evaluates CheckSystemDeps at startup so status output can
//     report a missing DICOM helper before the first import fails.
//   - The CLI "cine status" command uses RunAll and the individual check
//     functions to display environment health.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
