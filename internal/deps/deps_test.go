package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}

	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}

	if results[2].Available {
		t.Fatal("expected blank command to be unavailable")
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}
}

func TestCheckHelperBinaryExplicitPath(t *testing.T) {
	tmp := t.TempDir()
	helper := filepath.Join(tmp, "dicom_tool")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(helper, script, 0o755); err != nil {
		t.Fatalf("write helper stub: %v", err)
	}

	status := CheckHelperBinary(helper)
	if !status.Available {
		t.Fatalf("expected configured helper path to be available, got detail %q", status.Detail)
	}
	if status.Command != helper {
		t.Fatalf("expected helper command %q, got %q", helper, status.Command)
	}
}

func TestCheckHelperBinaryPathLookup(t *testing.T) {
	binDir := t.TempDir()
	helper := filepath.Join(binDir, "dicom_tool")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(helper, script, 0o755); err != nil {
		t.Fatalf("write helper stub: %v", err)
	}
	oldPath := os.Getenv("PATH")
	newPath := binDir
	if oldPath != "" {
		newPath = binDir + string(os.PathListSeparator) + oldPath
	}
	t.Setenv("PATH", newPath)

	status := CheckHelperBinary("dicom_tool")
	if !status.Available {
		t.Fatalf("expected helper on PATH to be available, got detail %q", status.Detail)
	}
	if status.Command != "dicom_tool" {
		t.Fatalf("expected bare command name, got %q", status.Command)
	}
}

func TestCheckHelperBinaryNotFound(t *testing.T) {
	t.Setenv("PATH", "")
	status := CheckHelperBinary("clearly-not-present-helper")
	if status.Available {
		t.Fatal("expected helper resolution to fail")
	}
	if status.Detail == "" {
		t.Fatal("expected detail message when helper is unavailable")
	}
}

func TestCheckHelperBinaryNotConfigured(t *testing.T) {
	status := CheckHelperBinary("   ")
	if status.Available {
		t.Fatal("expected unconfigured helper to be unavailable")
	}
	if status.Detail != "command not configured" {
		t.Fatalf("unexpected detail: %q", status.Detail)
	}
}

func TestResolveHelperPathKeepsExplicitPath(t *testing.T) {
	configured := filepath.Join("opt", "cine", "dicom_tool")
	if got := ResolveHelperPath(configured); got != configured {
		t.Fatalf("expected configured path to pass through, got %q", got)
	}
}
