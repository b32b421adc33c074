package config

const (
	defaultImportDir        = "~/dicom"
	defaultLogDir           = "~/.local/share/cine/logs"
	defaultLogRetentionDays = 60
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultAPIBind          = "127.0.0.1:7717"

	defaultFrameRate        = 10.0
	defaultMinFrameRate     = 1.0
	defaultMaxFrameRate     = 60.0
	defaultPlaybackMode     = "loop"
	defaultBoundaryBehavior = "stop"
	defaultAnimationMS      = 200

	defaultWheelSensitivity = 1.0
	defaultTouchSensitivity = 0.5

	defaultPrefetchWindow = 5

	defaultHelperBinary   = "dicom_tool"
	defaultProbeTimeout   = 60
	defaultExtractTimeout = 600
	defaultMaxSlices      = 1024
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ImportDir: defaultImportDir,
			CacheDir:  defaultCacheDir(),
			LogDir:    defaultLogDir,
		},
		Viewer: Viewer{
			EnableKeyboard:   true,
			EnableMouseWheel: true,
			EnableTouch:      true,
			EnableMomentum:   true,
		},
		Playback: Playback{
			FrameRate:        defaultFrameRate,
			MinFrameRate:     defaultMinFrameRate,
			MaxFrameRate:     defaultMaxFrameRate,
			Mode:             defaultPlaybackMode,
			BoundaryBehavior: defaultBoundaryBehavior,
			AnimationMS:      defaultAnimationMS,
		},
		Input: Input{
			WheelSensitivity: defaultWheelSensitivity,
			TouchSensitivity: defaultTouchSensitivity,
		},
		Prefetch: Prefetch{
			WindowSize: defaultPrefetchWindow,
		},
		Import: Import{
			HelperBinary:   defaultHelperBinary,
			ProbeTimeout:   defaultProbeTimeout,
			ExtractTimeout: defaultExtractTimeout,
			MaxSlices:      defaultMaxSlices,
		},
		API: API{
			Enabled: false,
			Bind:    defaultAPIBind,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
