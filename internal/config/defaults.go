package config

const (
	defaultConfigPath   = "~/.config/hlsenc/config.toml"
	defaultOutputDir    = "~/.local/share/hlsenc/output"
	defaultLogDir       = "~/.local/share/hlsenc/logs"
	defaultHistoryPath  = "~/.local/share/hlsenc/history.db"
	defaultVideoEncoder = "libx264"
	defaultAudioEncoder = "aac"
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Encoder: Encoder{
			VideoEncoder: defaultVideoEncoder,
			AudioEncoder: defaultAudioEncoder,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
