package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagIDs     = flag.String("ids", "", "Path to the scan/viewpoint manifest")
	flagStates  = flag.String("states", "", "Directory of viewpoint state files")
	flagScans   = flag.String("scans", "", "Matterport scans root directory")
	flagOutput  = flag.String("output", "", "Directory for rendered images")
	flagBackend = flag.String("backend", "", "Render backend (opengl or software)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagIDs != "" {
		cfg.Paths.IDs = *flagIDs
	}
	if *flagStates != "" {
		cfg.Paths.States = *flagStates
	}
	if *flagScans != "" {
		cfg.Paths.Scans = *flagScans
	}
	if *flagOutput != "" {
		cfg.Paths.OutputDir = *flagOutput
	}
	if *flagBackend != "" {
		cfg.Render.Backend = *flagBackend
	}
}
