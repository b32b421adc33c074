package daemonctl

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"cine/internal/config"
	"cine/internal/ipc"
)

const probeInterval = 200 * time.Millisecond

// LaunchOptions controls how a detached daemon process is spawned.
type LaunchOptions struct {
	ConfigPath string
}

// StartState classifies the outcome of a start request.
type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
	StartStateRequested      StartState = "start_requested"
)

// StartResult reports how the daemon reached a running state.
type StartResult struct {
	State    StartState
	Launched bool
	Message  string
}

// StopResult reports how the daemon was brought down.
type StopResult struct {
	StopAcknowledged bool
	ForcedKill       bool
	PID              int
}

// RestartResult combines the stop and start halves of a restart.
type RestartResult struct {
	WasRunning bool
	Stop       StopResult
	Start      StartResult
}

// ErrDaemonNotRunning reports that no daemon is listening on the socket.
var ErrDaemonNotRunning = errors.New("daemon not running")

// Launch spawns a detached daemon process running the serve command.
func Launch(executablePath string, opts LaunchOptions) error {
	executablePath = strings.TrimSpace(executablePath)
	if executablePath == "" {
		return errors.New("launch daemon: executable path is empty")
	}

	args := []string{"serve"}
	if path := strings.TrimSpace(opts.ConfigPath); path != "" {
		args = append(args, "--config", path)
	}

	cmd := exec.Command(executablePath, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return cmd.Process.Release()
}

// WaitForClient polls the socket until the daemon accepts a connection or
// the timeout elapses.
func WaitForClient(socketPath string, timeout time.Duration) (*ipc.Client, error) {
	var lastErr error
	for deadline := time.Now().Add(timeout); time.Now().Before(deadline); time.Sleep(probeInterval) {
		client, err := ipc.Dial(socketPath)
		if err == nil {
			return client, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("timeout waiting for daemon")
	}
	return nil, fmt.Errorf("daemon never became reachable: %w", lastErr)
}

// EnsureStarted makes sure a daemon is serving socketPath, spawning the
// process first when nothing is listening.
func EnsureStarted(socketPath, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	launched := false
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if err := Launch(executablePath, opts); err != nil {
			return StartResult{}, err
		}
		if client, err = WaitForClient(socketPath, waitTimeout); err != nil {
			return StartResult{}, err
		}
		launched = true
	}
	defer client.Close()

	if status, err := client.Status(); err == nil && status != nil && status.Running {
		if launched {
			return StartResult{State: StartStateStarted, Launched: true}, nil
		}
		return StartResult{State: StartStateAlreadyRunning}, nil
	}

	resp, err := client.Start()
	if err != nil {
		return StartResult{}, err
	}
	return classifyStart(resp, launched), nil
}

// classifyStart maps the daemon's start reply onto a StartResult.
func classifyStart(resp *ipc.StartResponse, launched bool) StartResult {
	if resp == nil {
		return StartResult{State: StartStateRequested, Launched: launched, Message: "Start request sent"}
	}

	message := strings.TrimSpace(resp.Message)
	switch {
	case resp.Started:
		return StartResult{State: StartStateStarted, Launched: launched, Message: message}
	case strings.EqualFold(message, "daemon already running"):
		if launched {
			return StartResult{State: StartStateStarted, Launched: true, Message: message}
		}
		return StartResult{State: StartStateAlreadyRunning, Message: message}
	case message != "":
		return StartResult{State: StartStateRequested, Launched: launched, Message: message}
	default:
		return StartResult{State: StartStateRequested, Launched: launched, Message: "Start request sent"}
	}
}

// WaitForShutdown polls until the daemon socket disappears or the daemon
// reports itself stopped.
func WaitForShutdown(socketPath string, timeout time.Duration) error {
	var lastErr error
	for deadline := time.Now().Add(timeout); time.Now().Before(deadline); time.Sleep(probeInterval) {
		stopped, err := probeStopped(socketPath)
		if stopped {
			return nil
		}
		if err != nil {
			lastErr = err
		}
	}
	if lastErr == nil {
		lastErr = errors.New("timeout waiting for shutdown")
	}
	return fmt.Errorf("daemon did not stop: %w", lastErr)
}

// probeStopped reports whether the daemon is gone. Errors other than a
// missing socket are returned so the caller can surface the last one.
func probeStopped(socketPath string) (bool, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if isDaemonUnavailable(err) {
			return true, nil
		}
		return false, err
	}
	status, statusErr := client.Status()
	_ = client.Close()
	if statusErr != nil {
		return false, statusErr
	}
	if !status.Running {
		return true, nil
	}
	return false, errors.New("daemon still running")
}

// ProcessInfo reports whether the daemon answers on socketPath, along with
// its PID when the status call succeeds.
func ProcessInfo(socketPath string) (bool, int, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if isDaemonUnavailable(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	defer client.Close()

	status, err := client.Status()
	if err != nil {
		return true, 0, err
	}
	pid := 0
	if status != nil {
		pid = status.PID
	}
	return true, pid, nil
}

// DeriveLogDir picks the daemon log directory from status hints, falling
// back to the CLI config. Status paths win because the running daemon may
// use a different config file than the CLI.
func DeriveLogDir(lockPath, catalogDBPath string, cfg *config.Config) string {
	switch {
	case lockPath != "":
		return filepath.Dir(lockPath)
	case catalogDBPath != "":
		return filepath.Dir(catalogDBPath)
	case cfg != nil && strings.TrimSpace(cfg.Paths.LogDir) != "":
		return cfg.Paths.LogDir
	default:
		return ""
	}
}

// readPIDFile parses the daemon pid file. Missing files and unparseable
// contents yield 0 with no error so callers can fall back.
func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read pid file %q: %w", path, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, nil
	}
	return pid, nil
}

// ForceKillProcess sends SIGKILL to the daemon and removes its pid and lock
// files. fallbackPID is used when the pid file is absent or unreadable.
func ForceKillProcess(pidPath, lockPath string, fallbackPID int) (int, error) {
	pid, err := readPIDFile(pidPath)
	if err != nil {
		return 0, err
	}
	if pid <= 0 {
		pid = fallbackPID
	}
	if pid <= 0 {
		return 0, fmt.Errorf("cannot determine daemon pid (pid file: %s)", pidPath)
	}
	if pid == os.Getpid() {
		return 0, fmt.Errorf("refusing to kill own process (pid %d)", pid)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("find daemon process %d: %w", pid, err)
	}
	if err := proc.Kill(); err != nil {
		return 0, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}

	if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("remove pid file %q: %w", pidPath, err)
	}
	if lockPath != "" {
		_ = os.Remove(lockPath)
	}
	return pid, nil
}

// StopAndTerminate asks the daemon to stop and escalates to SIGKILL when
// the process is still alive after gracePeriod.
func StopAndTerminate(socketPath string, cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if isDaemonUnavailable(err) {
			return StopResult{}, ErrDaemonNotRunning
		}
		return StopResult{}, err
	}

	var result StopResult
	var lockPath, catalogDBPath string
	if status, err := client.Status(); err == nil && status != nil {
		lockPath = status.LockPath
		catalogDBPath = status.CatalogDBPath
		result.PID = status.PID
	}
	resp, err := client.Stop()
	_ = client.Close()
	if err != nil {
		return StopResult{}, err
	}
	if resp != nil {
		result.StopAcknowledged = resp.Stopped
	}

	_ = WaitForShutdown(socketPath, gracePeriod)
	alive, livePID, err := ProcessInfo(socketPath)
	if err != nil || !alive {
		return result, nil
	}

	pid := livePID
	if pid == 0 {
		pid = result.PID
	}
	logDir := DeriveLogDir(lockPath, catalogDBPath, cfg)
	if logDir == "" {
		return result, errors.New("unable to determine daemon log directory")
	}
	killedPID, err := ForceKillProcess(
		filepath.Join(logDir, "cine.pid"),
		filepath.Join(logDir, "cine.lock"),
		pid,
	)
	if err != nil {
		return result, fmt.Errorf("failed to stop daemon process: %w", err)
	}
	_ = os.Remove(socketPath)
	result.ForcedKill = true
	result.PID = killedPID
	return result, nil
}

// Restart stops any running daemon and brings one back up.
func Restart(socketPath string, cfg *config.Config, executablePath string, opts LaunchOptions, stopGracePeriod, startWaitTimeout time.Duration) (RestartResult, error) {
	var result RestartResult
	stop, err := StopAndTerminate(socketPath, cfg, stopGracePeriod)
	switch {
	case err == nil:
		result.WasRunning = true
		result.Stop = stop
	case errors.Is(err, ErrDaemonNotRunning):
	default:
		return RestartResult{}, err
	}

	start, err := EnsureStarted(socketPath, executablePath, opts, startWaitTimeout)
	if err != nil {
		return RestartResult{}, err
	}
	result.Start = start
	return result, nil
}

func isDaemonUnavailable(err error) bool {
	return os.IsNotExist(err) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
