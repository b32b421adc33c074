// Package deps probes the external binaries cine shells out to: the DICOM
// helper behind probing and slice extraction, and lsblk when removable-media
// watching is on. Daemon startup logs the results and the status surfaces
// render them; resolution here must match what the importer actually
// executes.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names one external binary and whether cine can run without it.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the availability report for one Requirement. Detail is empty
// when the binary resolved.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Check resolves the requirement's command on PATH and reports the outcome.
func (r Requirement) Check() Status {
	status := Status{
		Name:        r.Name,
		Command:     strings.TrimSpace(r.Command),
		Description: strings.TrimSpace(r.Description),
		Optional:    r.Optional,
	}
	switch {
	case status.Command == "":
		status.Detail = "command not configured"
	case lookPathErr(status.Command) != nil:
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
	default:
		status.Available = true
	}
	return status
}

// CheckBinaries reports availability for each requirement, in order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, req.Check())
	}
	return results
}

func lookPathErr(command string) error {
	_, err := exec.LookPath(command)
	return err
}
