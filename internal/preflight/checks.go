package preflight

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"cine/internal/config"
	"cine/internal/deps"
)

// CheckAPI verifies that the daemon's HTTP API answers on the configured bind
// address. It uses a 5-second timeout and a single attempt.
func CheckAPI(ctx context.Context, bind, token string) Result {
	const name = "HTTP API"

	base := apiBaseURL(bind)
	if base == "" {
		return Result{Name: name, Detail: "missing bind address"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/api/status", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("status check failed (%v)", err)}
	}
	if trimmed := strings.TrimSpace(token); trimmed != "" {
		req.Header.Set("Authorization", "Bearer "+trimmed)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unreachable (%v)", err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("serving on %s", strings.TrimSpace(bind))}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid token)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("status check failed (%d)", resp.StatusCode)}
	}
}

// apiBaseURL turns a bind address into a dialable base URL. Wildcard hosts
// are probed through loopback.
func apiBaseURL(bind string) string {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return ""
	}
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return "http://" + bind
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates all system-level dependencies for the given
// config. Both the daemon and the CLI status command use this to avoid
// duplicating the requirements list.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	statuses := []deps.Status{
		deps.CheckHelperBinary(cfg.HelperBinary()),
	}
	if cfg.Import.WatchRemovableMedia {
		statuses = append(statuses, deps.CheckBinaries([]deps.Requirement{{
			Name:        "lsblk",
			Command:     "lsblk",
			Description: "Lists attached removable media in status output",
			Optional:    true,
		}})...)
	}
	return statuses
}
