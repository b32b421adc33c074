package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePlayback()
	c.normalizeInput()
	c.normalizePrefetch()
	c.normalizeImport()
	c.normalizeAPI()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.ImportDir, err = expandPath(c.Paths.ImportDir); err != nil {
		return fmt.Errorf("paths.import_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

// normalizePlayback clamps the requested rate into the configured bounds.
// Ordering mistakes between min and max are left for Validate to report.
func (c *Config) normalizePlayback() {
	c.Playback.Mode = strings.ToLower(strings.TrimSpace(c.Playback.Mode))
	if c.Playback.Mode == "" {
		c.Playback.Mode = defaultPlaybackMode
	}
	c.Playback.BoundaryBehavior = strings.ToLower(strings.TrimSpace(c.Playback.BoundaryBehavior))
	if c.Playback.BoundaryBehavior == "" {
		c.Playback.BoundaryBehavior = defaultBoundaryBehavior
	}
	if c.Playback.FrameRate <= 0 {
		c.Playback.FrameRate = defaultFrameRate
	}
	if c.Playback.MinFrameRate > 0 && c.Playback.MaxFrameRate >= c.Playback.MinFrameRate {
		if c.Playback.FrameRate < c.Playback.MinFrameRate {
			c.Playback.FrameRate = c.Playback.MinFrameRate
		}
		if c.Playback.FrameRate > c.Playback.MaxFrameRate {
			c.Playback.FrameRate = c.Playback.MaxFrameRate
		}
	}
	if c.Playback.AnimationMS < 0 {
		c.Playback.AnimationMS = defaultAnimationMS
	}
}

func (c *Config) normalizeInput() {
	if c.Input.WheelSensitivity <= 0 {
		c.Input.WheelSensitivity = defaultWheelSensitivity
	}
	if c.Input.TouchSensitivity <= 0 {
		c.Input.TouchSensitivity = defaultTouchSensitivity
	}
}

func (c *Config) normalizePrefetch() {
	if c.Prefetch.WindowSize < 0 {
		c.Prefetch.WindowSize = defaultPrefetchWindow
	}
}

func (c *Config) normalizeImport() {
	c.Import.HelperBinary = strings.TrimSpace(c.Import.HelperBinary)
	if c.Import.HelperBinary == "" {
		if value, ok := os.LookupEnv("CINE_DICOM_HELPER"); ok {
			c.Import.HelperBinary = strings.TrimSpace(value)
		}
	}
	if c.Import.HelperBinary == "" {
		c.Import.HelperBinary = defaultHelperBinary
	}
	if c.Import.ProbeTimeout <= 0 {
		c.Import.ProbeTimeout = defaultProbeTimeout
	}
	if c.Import.ExtractTimeout <= 0 {
		c.Import.ExtractTimeout = defaultExtractTimeout
	}
	if c.Import.MaxSlices <= 0 {
		c.Import.MaxSlices = defaultMaxSlices
	}
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("CINE_API_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
