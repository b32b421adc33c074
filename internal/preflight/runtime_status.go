package preflight

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"cine/internal/config"
)

// CheckAPIFromConfig evaluates HTTP API status from config and connectivity.
func CheckAPIFromConfig(cfg *config.Config) Result {
	const name = "HTTP API"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.API.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	if strings.TrimSpace(cfg.API.Bind) == "" {
		return Result{Name: name, Detail: "Missing bind address"}
	}
	check := CheckAPI(context.Background(), cfg.API.Bind, cfg.API.Token)
	if check.Passed {
		return Result{Name: name, Passed: true, Detail: check.Detail}
	}
	return Result{Name: name, Detail: check.Detail}
}

// MediaProbe reports one removable filesystem visible to the import watcher.
type MediaProbe struct {
	Device string
	Label  string
	Type   string
}

// ProbeRemovableMedia lists attached removable filesystems via lsblk.
func ProbeRemovableMedia() []MediaProbe {
	if _, err := exec.LookPath("lsblk"); err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "lsblk", "-rno", "NAME,RM,FSTYPE,LABEL")
	output, err := cmd.Output()
	if err != nil {
		return nil
	}

	var probes []MediaProbe
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		// Raw output separates columns with single spaces, so empty
		// columns survive a plain split.
		fields := strings.Split(line, " ")
		if len(fields) < 3 {
			continue
		}
		if fields[1] != "1" || fields[2] == "" {
			continue
		}
		label := "Unlabeled"
		if len(fields) > 3 && fields[3] != "" {
			label = strings.ReplaceAll(fields[3], `\x20`, " ")
		}
		probes = append(probes, MediaProbe{
			Device: "/dev/" + fields[0],
			Label:  label,
			Type:   classifyMediaType(fields[2]),
		})
	}
	return probes
}

func classifyMediaType(fstype string) string {
	switch strings.ToLower(strings.TrimSpace(fstype)) {
	case "vfat", "exfat", "ntfs":
		return "USB storage"
	case "udf", "iso9660":
		return "Optical disc"
	default:
		return "Removable disk"
	}
}

// Detail renders a display-friendly summary for status UIs.
func (p MediaProbe) Detail() string {
	return fmt.Sprintf("%s '%s' on %s", p.Type, p.Label, p.Device)
}
