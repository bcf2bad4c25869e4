package config

const (
	defaultBWBinary       = "bw"
	defaultSessionEnv     = "BW_SESSION"
	defaultDestination    = "~/bitwarden-export"
	defaultMaxParallel    = 4
	defaultCatalogFile    = "items.json"
	defaultStateDir       = "~/.local/share/bwexport"
	defaultHistoryEnabled = true
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		BW: BW{
			Binary:     defaultBWBinary,
			SessionEnv: defaultSessionEnv,
		},
		Export: Export{
			Destination: defaultDestination,
			MaxParallel: defaultMaxParallel,
			CatalogFile: defaultCatalogFile,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		History: History{
			Enabled: defaultHistoryEnabled,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
