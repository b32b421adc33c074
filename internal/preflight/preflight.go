package preflight

import (
	"context"

	"cine/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Frame cache and log directories (always checked)
	results = append(results, CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	// Import inbox (when configured)
	if cfg.Paths.ImportDir != "" {
		results = append(results, CheckDirectoryAccess("Import inbox", cfg.Paths.ImportDir))
	}

	// HTTP API (when enabled)
	if cfg.API.Enabled {
		results = append(results, CheckAPI(ctx, cfg.API.Bind, cfg.API.Token))
	}

	return results
}
