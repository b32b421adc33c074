package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"cine/internal/api"
	"cine/internal/ipc"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Cine", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Cine:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Cine", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestStatusKindFromSeverity(t *testing.T) {
	cases := map[string]statusKind{
		"ok":      statusOK,
		"warn":    statusWarn,
		"warning": statusWarn,
		"error":   statusError,
		"":        statusInfo,
		"bogus":   statusInfo,
	}
	for input, want := range cases {
		if got := statusKindFromSeverity(input); got != want {
			t.Fatalf("statusKindFromSeverity(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestRenderSectionHeader(t *testing.T) {
	lines := renderSectionHeader("System Status", false)
	if len(lines) != 2 {
		t.Fatalf("expected heading and rule, got %d lines", len(lines))
	}
	if lines[0] != "System Status" {
		t.Fatalf("heading = %q", lines[0])
	}
	if lines[1] != strings.Repeat("=", len("System Status")) {
		t.Fatalf("rule = %q", lines[1])
	}
}

func TestDependencyLines(t *testing.T) {
	deps := []ipc.DependencyStatus{
		{Name: "DICOM helper", Available: true, Command: "dicom_tool"},
		{Name: "lsblk", Available: false, Severity: "warn", Detail: "not found on PATH"},
	}
	summary := api.DependencySummary{Severity: "warn", Detail: "1 of 2 available"}
	lines := dependencyLines(deps, summary, false)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "Summary") || !strings.Contains(lines[0], "[WARN] 1 of 2 available") {
		t.Fatalf("expected summary line first, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "[OK] Ready (command: dicom_tool)") {
		t.Fatalf("expected ready detail, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "[WARN] not found on PATH") {
		t.Fatalf("expected warn detail, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "Missing dependencies") || !strings.Contains(lines[3], "lsblk") {
		t.Fatalf("expected missing summary, got %q", lines[3])
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
