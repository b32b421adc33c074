package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	ImportDir string `toml:"import_dir"`
	CacheDir  string `toml:"cache_dir"`
	LogDir    string `toml:"log_dir"`
}

// Viewer contains input-surface enablement defaults for new sessions.
type Viewer struct {
	EnableKeyboard   bool `toml:"enable_keyboard"`
	EnableMouseWheel bool `toml:"enable_mouse_wheel"`
	EnableTouch      bool `toml:"enable_touch"`
	EnableMomentum   bool `toml:"enable_momentum"`
}

// Playback contains cine loop defaults for new sessions.
type Playback struct {
	FrameRate        float64 `toml:"frame_rate"`
	MinFrameRate     float64 `toml:"min_frame_rate"`
	MaxFrameRate     float64 `toml:"max_frame_rate"`
	Mode             string  `toml:"mode"`
	BoundaryBehavior string  `toml:"boundary_behavior"`
	AnimationMS      int     `toml:"animation_ms"`
}

// Input contains translator sensitivity settings.
type Input struct {
	WheelSensitivity float64 `toml:"wheel_sensitivity"`
	TouchSensitivity float64 `toml:"touch_sensitivity"`
}

// Prefetch contains frame buffer coordinator settings.
type Prefetch struct {
	WindowSize int `toml:"window_size"`
}

// Import contains DICOM helper invocation settings.
type Import struct {
	HelperBinary        string `toml:"helper_binary"`
	ProbeTimeout        int    `toml:"probe_timeout"`
	ExtractTimeout      int    `toml:"extract_timeout"`
	MaxSlices           int    `toml:"max_slices"`
	WatchRemovableMedia bool   `toml:"watch_removable_media"`
}

// API contains configuration for the HTTP/WebSocket surface.
type API struct {
	Enabled bool   `toml:"enabled"`
	Bind    string `toml:"bind"`
	Token   string `toml:"token"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for cine.
//
// Configuration sections by subsystem:
//   - Paths: import inbox, frame cache, and log directories
//   - Viewer: which input surfaces new sessions bind by default
//   - Playback: frame rate bounds and cine loop behaviour
//   - Input: wheel and touch sensitivity
//   - Prefetch: frame preload window size
//   - Import: DICOM helper binary and timeouts
//   - API: HTTP/WebSocket bind address and token
//   - Logging: log format, level, and retention
type Config struct {
	Paths    Paths    `toml:"paths"`
	Viewer   Viewer   `toml:"viewer"`
	Playback Playback `toml:"playback"`
	Input    Input    `toml:"input"`
	Prefetch Prefetch `toml:"prefetch"`
	Import   Import   `toml:"import"`
	API      API      `toml:"api"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cine/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/cine/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cine.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// ImportDir is created on a best-effort basis so the daemon can run when the
// inbox lives on storage that is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.ImportDir) != "" {
		// Best-effort to avoid failing config load when storage is offline.
		_ = os.MkdirAll(c.Paths.ImportDir, 0o755)
	}
	return nil
}

// HelperBinary returns the DICOM helper executable used for probing and slice
// extraction.
func (c *Config) HelperBinary() string {
	if bin := strings.TrimSpace(c.Import.HelperBinary); bin != "" {
		return bin
	}
	return defaultHelperBinary
}

// CatalogPath returns the location of the series catalog database.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Paths.LogDir, "catalog.db")
}

// SocketPath returns the location of the daemon control socket.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.LogDir, "cine.sock")
}

// LockPath returns the location of the single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "cine.lock")
}

// PIDPath returns the location of the daemon PID file.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.LogDir, "cine.pid")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "cine", "frames")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/cine/frames"
	}
	return filepath.Join(home, ".cache", "cine", "frames")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
