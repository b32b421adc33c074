package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cine/internal/api"
	"cine/internal/daemonctl"
	"cine/internal/ipc"
)

const (
	startWaitTimeout = 10 * time.Second
	stopGracePeriod  = 5 * time.Second
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newStartCommand(ctx),
		newStopCommand(ctx),
		newRestartCommand(ctx),
		newStatusCommand(ctx),
	}
}

func newStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the cine daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			result, err := daemonctl.EnsureStarted(ctx.socketPath(), exe, daemonLaunchOptions(ctx), startWaitTimeout)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}
			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			default:
				printRequestedMessage(stdout, result.Message)
			}
			return nil
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the cine daemon (completely terminates the process)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), stopGracePeriod)
			switch {
			case errors.Is(err, daemonctl.ErrDaemonNotRunning):
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			case err != nil:
				return err
			}

			if result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stopping daemon...")
			} else {
				fmt.Fprintln(stdout, "Stop request sent")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}
}

func newRestartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Restart the cine daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			result, err := daemonctl.Restart(ctx.socketPath(), ctx.configValue(), exe, daemonLaunchOptions(ctx), stopGracePeriod, startWaitTimeout)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			if result.WasRunning {
				if result.Stop.ForcedKill && result.Stop.PID > 0 {
					fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.Stop.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}
			switch result.Start.State {
			case daemonctl.StartStateStarted, daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon restarted")
			default:
				printRequestedMessage(stdout, result.Start.Message)
			}
			return nil
		},
	}
}

func printRequestedMessage(w io.Writer, message string) {
	if msg := strings.TrimSpace(message); msg != "" {
		fmt.Fprintln(w, msg)
		return
	}
	fmt.Fprintln(w, "Start request sent")
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, dependency, and catalog status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			snapshot, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.socketPath(), ctx.configValue())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, snapshot)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			printSection(stdout, "System Status", colorize)
			printStatusLines(stdout, snapshot.SystemChecks, colorize)
			fmt.Fprintln(stdout)

			printSection(stdout, "Dependencies", colorize)
			for _, line := range dependencyLines(snapshot.Dependencies, snapshot.DependencySummary, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			printSection(stdout, "Storage Paths", colorize)
			printStatusLines(stdout, snapshot.StoragePaths, colorize)
			fmt.Fprintln(stdout)

			printSection(stdout, "Catalog", colorize)
			if rows := buildCatalogStatsRows(snapshot.CatalogStats); len(rows) == 0 {
				fmt.Fprintln(stdout, "Catalog is empty")
			} else {
				fmt.Fprintln(stdout, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			}

			if snapshot.Running {
				fmt.Fprintln(stdout)
				printSection(stdout, "Sessions", colorize)
				if len(snapshot.Sessions) == 0 {
					fmt.Fprintln(stdout, "No open sessions")
				} else {
					fmt.Fprintln(stdout, renderTable(
						[]string{"ID", "Series", "Title", "Frame", "Playing"},
						buildSessionRows(snapshot.Sessions),
						[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignLeft},
					))
				}
			}
			return nil
		},
	}
}

func printSection(w io.Writer, title string, colorize bool) {
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(w, line)
	}
}

func printStatusLines(w io.Writer, lines []api.StatusLine, colorize bool) {
	for _, line := range lines {
		fmt.Fprintln(w, renderStatusLine(line.Label, statusKindFromSeverity(line.Severity), line.Detail, colorize))
	}
}

// dependencyLines renders the dependency section: summary first, one line
// per dependency, then a reminder naming anything missing.
func dependencyLines(deps []ipc.DependencyStatus, summary api.DependencySummary, colorize bool) []string {
	lines := []string{
		renderStatusLine("Summary", statusKindFromSeverity(summary.Severity), summary.Detail, colorize),
	}

	var missing []string
	for _, dep := range deps {
		if !dep.Available {
			detail := strings.TrimSpace(dep.Detail)
			if detail == "" {
				detail = "not available"
			}
			lines = append(lines, renderStatusLine(dep.Name, statusKindFromSeverity(dep.Severity), detail, colorize))
			missing = append(missing, dep.Name)
			continue
		}
		message := "Ready"
		if dep.Command != "" {
			message = fmt.Sprintf("Ready (command: %s)", dep.Command)
		}
		lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
	}

	if len(missing) > 0 {
		hint := fmt.Sprintf("%s (install them, then re-run cine status)", strings.Join(missing, ", "))
		lines = append(lines, renderStatusLine("Missing dependencies", statusWarn, hint, colorize))
	}
	return lines
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	var opts daemonctl.LaunchOptions
	if ctx.configFlag != nil {
		opts.ConfigPath = strings.TrimSpace(*ctx.configFlag)
	}
	return opts
}
