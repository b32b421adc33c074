package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cine/internal/api"
	"cine/internal/catalog"
	"cine/internal/config"
	"cine/internal/ipc"
	"cine/internal/preflight"
)

// BuildStatusSnapshot assembles the status view the CLI renders. When the
// daemon is unreachable the catalog and dependency sections are computed
// locally so status output stays useful offline.
func BuildStatusSnapshot(ctx context.Context, socketPath string, cfg *config.Config) (*ipc.StatusResponse, error) {
	if cfg == nil {
		return nil, errors.New("no configuration available")
	}

	snapshot := &ipc.StatusResponse{}
	if client, err := ipc.Dial(socketPath); err == nil {
		defer client.Close()
		if resp, err := client.Status(); err == nil && resp != nil {
			snapshot = resp
		}
	}

	if !snapshot.Running {
		snapshot.CatalogStats = offlineCatalogStats(ctx, cfg, snapshot.CatalogStats)
		snapshot.CatalogDBPath = cfg.CatalogPath()
		snapshot.SocketPath = socketPath
	}

	if len(snapshot.Dependencies) == 0 {
		snapshot.Dependencies = ResolveDependencies(context.Background(), cfg)
	}
	for i := range snapshot.Dependencies {
		dep := &snapshot.Dependencies[i]
		if strings.TrimSpace(dep.Severity) == "" {
			dep.Severity = dependencySeverity(dep.Available, dep.Optional)
		}
	}

	snapshot.SystemChecks = BuildSystemChecks(cfg, snapshot.Running, snapshot.MediaWatching)
	snapshot.StoragePaths = BuildStoragePathChecks(cfg)
	snapshot.DependencySummary = BuildDependencySummary(snapshot.Dependencies)
	return snapshot, nil
}

// offlineCatalogStats queries series counts directly from the catalog
// database. The fallback map is returned when the store cannot be opened.
func offlineCatalogStats(ctx context.Context, cfg *config.Config, fallback map[string]int) map[string]int {
	queryCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	store, err := catalog.Open(cfg)
	if err != nil {
		return fallback
	}
	defer store.Close()

	stats, err := store.Stats(queryCtx)
	if err != nil {
		return fallback
	}
	counts := make(map[string]int, len(stats))
	for status, count := range stats {
		counts[string(status)] = count
	}
	return counts
}

// ResolveDependencies runs the dependency probes locally.
func ResolveDependencies(ctx context.Context, cfg *config.Config) []ipc.DependencyStatus {
	if cfg == nil {
		return nil
	}
	checks := preflight.CheckSystemDeps(ctx, cfg)
	statuses := make([]ipc.DependencyStatus, 0, len(checks))
	for _, check := range checks {
		statuses = append(statuses, ipc.DependencyStatus{
			Name:        check.Name,
			Command:     check.Command,
			Description: check.Description,
			Optional:    check.Optional,
			Available:   check.Available,
			Detail:      check.Detail,
			Severity:    dependencySeverity(check.Available, check.Optional),
		})
	}
	return statuses
}

func dependencySeverity(available, optional bool) string {
	switch {
	case available:
		return "ok"
	case optional:
		return "warn"
	default:
		return "error"
	}
}

// BuildSystemChecks summarizes daemon runtime state alongside removable
// media and HTTP API readiness.
func BuildSystemChecks(cfg *config.Config, daemonRunning, mediaWatching bool) []api.StatusLine {
	var lines []api.StatusLine
	add := func(label, severity, detail string) {
		lines = append(lines, api.StatusLine{Label: label, Severity: severity, Detail: detail})
	}

	if daemonRunning {
		add("Cine", "ok", "Running")
	} else {
		add("Cine", "warn", "Not running (run `cine start`)")
	}

	switch {
	case !cfg.Import.WatchRemovableMedia:
		add("Media Watch", "info", "Disabled")
	case !daemonRunning:
		add("Media Watch", "info", "Inactive (daemon not running)")
	case mediaWatching:
		add("Media Watch", "ok", "Watching removable media")
	default:
		add("Media Watch", "warn", "Netlink unavailable (import manually via `cine series scan`)")
	}

	switch probes := preflight.ProbeRemovableMedia(); len(probes) {
	case 0:
		add("Removable Media", "info", "None detected")
	case 1:
		add("Removable Media", "ok", probes[0].Detail())
	default:
		add("Removable Media", "ok", fmt.Sprintf("%d removable filesystems attached", len(probes)))
	}

	apiCheck := preflight.CheckAPIFromConfig(cfg)
	switch {
	case !apiCheck.Passed:
		add("HTTP API", "warn", apiCheck.Detail)
	case strings.EqualFold(strings.TrimSpace(apiCheck.Detail), "Disabled"):
		add("HTTP API", "info", apiCheck.Detail)
	default:
		add("HTTP API", "ok", apiCheck.Detail)
	}

	return lines
}

// BuildStoragePathChecks verifies each configured storage directory exists
// and is writable.
func BuildStoragePathChecks(cfg *config.Config) []api.StatusLine {
	dirs := []struct {
		label string
		path  string
	}{
		{"Import Inbox", cfg.Paths.ImportDir},
		{"Frame Cache", cfg.Paths.CacheDir},
		{"Logs", cfg.Paths.LogDir},
	}

	lines := make([]api.StatusLine, 0, len(dirs))
	for _, dir := range dirs {
		result := preflight.CheckDirectoryAccess(dir.label, dir.path)
		severity := "error"
		if result.Passed {
			severity = "ok"
		}
		lines = append(lines, api.StatusLine{Label: dir.label, Severity: severity, Detail: result.Detail})
	}
	return lines
}

// BuildDependencySummary aggregates individual dependency checks into one
// headline row.
func BuildDependencySummary(deps []ipc.DependencyStatus) api.DependencySummary {
	if len(deps) == 0 {
		return api.DependencySummary{Severity: "info", Detail: "No dependency checks configured"}
	}

	summary := api.DependencySummary{Total: len(deps), Severity: "ok"}
	for _, dep := range deps {
		if dep.Available {
			summary.Available++
			continue
		}
		if dep.Optional {
			summary.MissingOptional++
		} else {
			summary.MissingRequired++
		}
	}
	switch {
	case summary.MissingRequired > 0:
		summary.Severity = "error"
	case summary.MissingOptional > 0:
		summary.Severity = "warn"
	}

	if summary.Available == summary.Total {
		summary.Detail = fmt.Sprintf("%d/%d available", summary.Available, summary.Total)
	} else {
		summary.Detail = fmt.Sprintf("%d/%d available (missing: %d required, %d optional)",
			summary.Available, summary.Total, summary.MissingRequired, summary.MissingOptional)
	}
	return summary
}
