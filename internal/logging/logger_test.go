package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cine/internal/config"
	"cine/internal/logging"
	"cine/internal/services"
)

func TestNewFromConfigConsole(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger instance")
	}
	logger.Info("startup message")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "cine.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "startup message") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleFormatsComponentPrefix(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")

	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	scoped := logging.NewComponentLogger(logger, "playback")
	scoped.Info("frame advanced", logging.Int("frame_index", 12), logging.String("mode", "loop"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := strings.TrimSpace(string(content))

	fields := strings.Fields(line)
	if len(fields) < 3 {
		t.Fatalf("unexpected log line shape: %q", line)
	}
	if _, err := time.Parse(time.RFC3339, fields[0]); err != nil {
		t.Fatalf("expected RFC3339 timestamp prefix, got %q: %v", fields[0], err)
	}
	if fields[1] != "INFO" {
		t.Fatalf("expected INFO level label, got %q", fields[1])
	}
	if !strings.Contains(line, "playback: frame advanced") {
		t.Fatalf("expected component prefix in line %q", line)
	}
	if !strings.Contains(line, "frame_index=12") {
		t.Fatalf("expected frame_index attribute in line %q", line)
	}
	if !strings.Contains(line, "mode=loop") {
		t.Fatalf("expected mode attribute in line %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should be rendered as prefix, not attribute: %q", line)
	}
}

func TestConsoleQuotesValuesWithSpaces(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "quotes.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("series imported", logging.String("title", "CT Chest w/ Contrast"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `title="CT Chest w/ Contrast"`) {
		t.Fatalf("expected quoted title attribute, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "debug",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), ".go:") {
		t.Fatalf("expected caller information in debug-level logs, got %q", content)
	}
}

func TestJSONFormatRewritesCoreKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "log.json")

	logger, err := logging.New(logging.Options{
		Format:      "json",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("json message", logging.Int("total_slices", 240))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, want := range []string{`"ts":`, `"level":"info"`, `"msg":"json message"`, `"total_slices":240`} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("expected %s in JSON output, got %q", want, content)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "buffer underrun", "prefetch-underrun")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, "event_type=prefetch-underrun") {
		t.Fatalf("expected event_type in %q", line)
	}
	if !strings.Contains(line, "error_hint=") {
		t.Fatalf("expected default error_hint in %q", line)
	}
	if !strings.Contains(line, "impact=") {
		t.Fatalf("expected default impact in %q", line)
	}
}

func TestWithContextTagsSessionAndSeries(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "context.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithSessionID(context.Background(), "a1b2c3")
	ctx = services.WithSeriesID(ctx, 42)

	logging.WithContext(ctx, logger).Info("slice changed")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, "session_id=a1b2c3") {
		t.Fatalf("expected session_id attribute in %q", line)
	}
	if !strings.Contains(line, "series_id=42") {
		t.Fatalf("expected series_id attribute in %q", line)
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger == nil {
		t.Fatal("expected no-op logger instance")
	}
	logger.Error("should be discarded", logging.Error(os.ErrNotExist))
}
