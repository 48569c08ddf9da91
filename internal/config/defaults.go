package config

const (
	defaultConfigPath       = "~/.config/livecap/config.toml"
	defaultRegistryPath     = "~/.config/livecap/sources.json"
	defaultLockDir          = "~/.local/share/livecap/locks"
	defaultOutputDir        = "~/.local/share/livecap/videos"
	defaultLogDir           = "~/.local/share/livecap/logs"
	defaultHistoryFile      = "history.db"
	defaultExecutor         = "ffmpeg"
	defaultOutputExtension  = "mkv"
	defaultSettleDelayMS    = 1000
	defaultPollIntervalMS   = 3000
	defaultStaggerDelayMS   = 1000
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
	defaultAPIBind          = "127.0.0.1:7490"

	// InputPlaceholder is replaced with the source address in capture.args.
	InputPlaceholder = "{input}"
	// OutputPlaceholder is replaced with the output file path in capture.args.
	OutputPlaceholder = "{output}"
)

// DefaultCaptureArgs copies the source stream into a Matroska container,
// re-encoding audio to AAC and overwriting any existing file.
func DefaultCaptureArgs() []string {
	return []string{"-i", InputPlaceholder, "-c:v", "copy", "-c:a", "aac", "-y", OutputPlaceholder}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RegistryPath: defaultRegistryPath,
			LockDir:      defaultLockDir,
			OutputDir:    defaultOutputDir,
			LogDir:       defaultLogDir,
		},
		Capture: Capture{
			Executor:        defaultExecutor,
			Args:            DefaultCaptureArgs(),
			OutputExtension: defaultOutputExtension,
			SettleDelayMS:   defaultSettleDelayMS,
		},
		Dispatch: Dispatch{
			PollIntervalMS: defaultPollIntervalMS,
			StaggerDelayMS: defaultStaggerDelayMS,
		},
		History: History{
			Enabled: true,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
