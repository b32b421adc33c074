package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolveHelperPath reports the DICOM helper binary the importer will execute.
//
// Packaged installs ship the helper next to the cine executable, so a bare
// command name that is missing from PATH falls back to a sidecar lookup
// beside the running binary. Commands carrying a path separator are used as
// configured.
func ResolveHelperPath(configured string) string {
	name := strings.TrimSpace(configured)
	if name == "" {
		return ""
	}
	if strings.ContainsRune(name, os.PathSeparator) {
		return name
	}
	if _, err := exec.LookPath(name); err == nil {
		return name
	}
	if candidate, ok := helperSidecarCandidate(name); ok {
		if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
			return candidate
		}
	}
	return name
}

// CheckHelperBinary reports availability of the DICOM helper. It follows the
// same lookup order as ResolveHelperPath so status output matches the binary
// the importer executes.
func CheckHelperBinary(configured string) Status {
	result := Status{
		Name:        "DICOM helper",
		Description: "Required for probing and slice extraction",
	}

	resolved := ResolveHelperPath(configured)
	if resolved == "" {
		result.Detail = "command not configured"
		return result
	}
	result.Command = resolved

	if strings.ContainsRune(resolved, os.PathSeparator) {
		if info, err := os.Stat(resolved); err == nil && isExecutable(info) {
			result.Available = true
			return result
		}
		result.Detail = fmt.Sprintf("binary %q not found", resolved)
		return result
	}

	if _, err := exec.LookPath(resolved); err != nil {
		result.Detail = fmt.Sprintf("binary %q not found", resolved)
		return result
	}
	result.Available = true
	return result
}

func helperSidecarCandidate(name string) (string, bool) {
	self, err := os.Executable()
	if err != nil || self == "" {
		return "", false
	}
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		name += ".exe"
	}
	return filepath.Join(filepath.Dir(self), name), true
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
