package config

const (
	defaultDataDir        = "~/.local/share/fieldsync"
	defaultLogDir         = "~/.local/share/fieldsync/logs"
	defaultUploadPath     = "/analyze"
	defaultHealthPath     = "/health"
	defaultRequestTimeout = 60
	defaultSyncInterval   = 30
	defaultProbeInterval  = 15
	defaultProbeTimeout   = 5
	defaultLogFormat      = "text"
	defaultLogLevel       = "info"
	defaultNetlinkEvents  = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Endpoint: Endpoint{
			UploadPath:     defaultUploadPath,
			HealthPath:     defaultHealthPath,
			RequestTimeout: defaultRequestTimeout,
		},
		Sync: Sync{
			Interval:      defaultSyncInterval,
			ProbeInterval: defaultProbeInterval,
			ProbeTimeout:  defaultProbeTimeout,
			NetlinkEvents: defaultNetlinkEvents,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
