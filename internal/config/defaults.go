package config

const (
	defaultConfigPath         = "~/.config/jhove2/config.toml"
	defaultDataDir            = "~/.local/share/jhove2"
	defaultLogDir             = "~/.local/share/jhove2/logs"
	defaultTempDir            = "~/.cache/jhove2/tmp"
	defaultFailFastLimit      = 0
	defaultMaxAggrefierRounds = 64
	defaultMaxContainerDepth  = 16
	defaultLocale             = "en"
	defaultBufferSize         = 128 * 1024
	defaultBufferType         = "direct"
	defaultTempPrefix         = "jhove2-"
	defaultMaxExpandedBytes   = 1 << 30
	defaultReportFormat       = "auto"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
)

var defaultDigestAlgorithms = []string{"blake3", "sha256"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			TempDir: defaultTempDir,
		},
		Framework: Framework{
			FailFastLimit:      defaultFailFastLimit,
			MaxAggrefierRounds: defaultMaxAggrefierRounds,
			MaxContainerDepth:  defaultMaxContainerDepth,
			Locale:             defaultLocale,
			CalculateDigests:   true,
			DigestAlgorithms:   append([]string(nil), defaultDigestAlgorithms...),
		},
		Input: Input{
			BufferSize: defaultBufferSize,
			BufferType: defaultBufferType,
		},
		Temp: Temp{
			DeleteTempFiles:  true,
			Prefix:           defaultTempPrefix,
			MaxExpandedBytes: defaultMaxExpandedBytes,
		},
		Recognizers: Recognizers{
			Builtin: true,
		},
		Report: Report{
			Format:              defaultReportFormat,
			ShowIdentifications: true,
		},
		Store: Store{
			Enabled:  true,
			Compress: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
