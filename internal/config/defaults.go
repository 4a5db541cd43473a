package config

const (
	defaultDataDir            = "~/.local/share/callboard"
	defaultLogDir             = "~/.local/share/callboard/logs"
	defaultAPIBind            = "127.0.0.1:7823"
	defaultProviderTimeout    = 30
	defaultPollInterval       = 15
	defaultPollTaskTimeout    = 10
	defaultPollParallelism    = 4
	defaultZombieTicks        = 3
	defaultGenerationModel    = "flex-image-2"
	defaultNegativePrompt     = "text, watermark, low quality"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Provider: Provider{
			RequestTimeout: defaultProviderTimeout,
		},
		Poller: Poller{
			Interval:    defaultPollInterval,
			TaskTimeout: defaultPollTaskTimeout,
			Parallelism: defaultPollParallelism,
			ZombieTicks: defaultZombieTicks,
		},
		Generation: Generation{
			DefaultModel:   defaultGenerationModel,
			NegativePrompt: defaultNegativePrompt,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
