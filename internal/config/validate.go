package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePlayback(); err != nil {
		return err
	}
	if err := c.validateInput(); err != nil {
		return err
	}
	if err := c.validateImport(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		return errors.New("paths.cache_dir must be set")
	}
	return nil
}

func (c *Config) validatePlayback() error {
	if c.Playback.MinFrameRate <= 0 {
		return errors.New("playback.min_frame_rate must be positive")
	}
	if c.Playback.MaxFrameRate < c.Playback.MinFrameRate {
		return errors.New("playback.max_frame_rate must be >= playback.min_frame_rate")
	}
	switch c.Playback.Mode {
	case "once", "loop", "bounce":
	default:
		return fmt.Errorf("playback.mode must be one of once, loop, bounce (got %q)", c.Playback.Mode)
	}
	switch c.Playback.BoundaryBehavior {
	case "stop", "wrap", "bounce":
	default:
		return fmt.Errorf("playback.boundary_behavior must be one of stop, wrap, bounce (got %q)", c.Playback.BoundaryBehavior)
	}
	return nil
}

func (c *Config) validateInput() error {
	if err := ensurePositiveMap(map[string]float64{
		"input.wheel_sensitivity": c.Input.WheelSensitivity,
		"input.touch_sensitivity": c.Input.TouchSensitivity,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateImport() error {
	if strings.TrimSpace(c.Import.HelperBinary) == "" {
		return errors.New("import.helper_binary must be set")
	}
	if c.Import.ProbeTimeout <= 0 {
		return errors.New("import.probe_timeout must be positive (seconds)")
	}
	if c.Import.ExtractTimeout <= 0 {
		return errors.New("import.extract_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.Enabled && strings.TrimSpace(c.API.Bind) == "" {
		return errors.New("api.bind must be set when api.enabled is true")
	}
	return nil
}

func ensurePositiveMap(values map[string]float64) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
