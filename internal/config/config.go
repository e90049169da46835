package config

import (
	"fmt"
	"os"

	"github.com/paularlott/cli"
)

// Config holds the application configuration
type Config struct {
	OutputDir       string
	ListenAddr      string
	APIAuthToken    string
	MCPAuthToken    string
	Workers         int
	ManifestPath    string // batch manifest run by the scheduler and watcher
	Schedule        string // cron spec, empty disables scheduled audits
	Watch           bool   // re-run the manifest when a dump file changes
	WatchDebounceMS int
}

const (
	defaultOutputDir       = "./reports"
	defaultListenAddr      = ":8080"
	defaultWorkers         = 4
	defaultWatchDebounceMS = 500
)

// Load loads configuration with the following priority (highest to lowest):
// 1. Command-line parameters (passed as opts)
// 2. Environment variables (a .env file is merged into the environment at startup)
// 3. Default values
//
// Numeric and boolean settings come only from opts; their flags read the
// environment through EnvVars.
func Load(opts *Config) *Config {
	cfg := &Config{
		OutputDir:       coalesce(os.Getenv("VLANAUDIT_OUTPUT_DIR"), defaultOutputDir),
		ListenAddr:      coalesce(os.Getenv("VLANAUDIT_LISTEN_ADDR"), defaultListenAddr),
		APIAuthToken:    os.Getenv("VLANAUDIT_API_TOKEN"),
		MCPAuthToken:    os.Getenv("VLANAUDIT_MCP_TOKEN"),
		Workers:         defaultWorkers,
		ManifestPath:    os.Getenv("VLANAUDIT_MANIFEST"),
		Schedule:        os.Getenv("VLANAUDIT_SCHEDULE"),
		WatchDebounceMS: defaultWatchDebounceMS,
	}

	if opts != nil {
		cfg.OutputDir = coalesce(opts.OutputDir, cfg.OutputDir)
		cfg.ListenAddr = coalesce(opts.ListenAddr, cfg.ListenAddr)
		cfg.APIAuthToken = coalesce(opts.APIAuthToken, cfg.APIAuthToken)
		cfg.MCPAuthToken = coalesce(opts.MCPAuthToken, cfg.MCPAuthToken)
		cfg.ManifestPath = coalesce(opts.ManifestPath, cfg.ManifestPath)
		cfg.Schedule = coalesce(opts.Schedule, cfg.Schedule)
		if opts.Workers > 0 {
			cfg.Workers = opts.Workers
		}
		if opts.Watch {
			cfg.Watch = true
		}
		if opts.WatchDebounceMS > 0 {
			cfg.WatchDebounceMS = opts.WatchDebounceMS
		}
	}

	if cfg.Workers < 1 {
		cfg.Workers = defaultWorkers
	}
	if cfg.WatchDebounceMS < 1 {
		cfg.WatchDebounceMS = defaultWatchDebounceMS
	}

	return cfg
}

// GetFlags returns the flags shared by commands that load a Config
func GetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output-dir",
			EnvVars: []string{"VLANAUDIT_OUTPUT_DIR"},
			Usage:   "Directory for generated CSV artifacts",
		},
		&cli.StringFlag{
			Name:    "addr",
			EnvVars: []string{"VLANAUDIT_LISTEN_ADDR"},
			Usage:   "Server listen address (e.g., :8080)",
		},
		&cli.StringFlag{
			Name:    "api-token",
			EnvVars: []string{"VLANAUDIT_API_TOKEN"},
			Usage:   "API bearer token for authentication",
		},
		&cli.StringFlag{
			Name:    "mcp-token",
			EnvVars: []string{"VLANAUDIT_MCP_TOKEN"},
			Usage:   "MCP bearer token for authentication",
		},
		&cli.IntFlag{
			Name:    "workers",
			EnvVars: []string{"VLANAUDIT_WORKERS"},
			Usage:   "Number of audits run concurrently in batch mode",
		},
		&cli.StringFlag{
			Name:    "manifest",
			EnvVars: []string{"VLANAUDIT_MANIFEST"},
			Usage:   "Batch manifest (YAML) for scheduled and watched audits",
		},
		&cli.StringFlag{
			Name:    "schedule",
			EnvVars: []string{"VLANAUDIT_SCHEDULE"},
			Usage:   "Cron spec for re-running the manifest (e.g., \"@every 15m\")",
		},
		&cli.BoolFlag{
			Name:    "watch",
			EnvVars: []string{"VLANAUDIT_WATCH"},
			Usage:   "Re-run the manifest when one of its dump files changes",
		},
		&cli.IntFlag{
			Name:    "watch-debounce-ms",
			EnvVars: []string{"VLANAUDIT_WATCH_DEBOUNCE_MS"},
			Usage:   "Quiet period before a watched change triggers a run",
		},
	}
}

// FromCommand builds CLI overrides from the flags declared by GetFlags
func FromCommand(cmd *cli.Command) *Config {
	return Load(&Config{
		OutputDir:       cmd.GetString("output-dir"),
		ListenAddr:      cmd.GetString("addr"),
		APIAuthToken:    cmd.GetString("api-token"),
		MCPAuthToken:    cmd.GetString("mcp-token"),
		Workers:         cmd.GetInt("workers"),
		ManifestPath:    cmd.GetString("manifest"),
		Schedule:        cmd.GetString("schedule"),
		Watch:           cmd.GetBool("watch"),
		WatchDebounceMS: cmd.GetInt("watch-debounce-ms"),
	})
}

// IsAPIAuthEnabled checks if API authentication is configured
func (c *Config) IsAPIAuthEnabled() bool {
	return c.APIAuthToken != ""
}

// IsMCPEnabled checks if MCP authentication is configured
func (c *Config) IsMCPEnabled() bool {
	return c.MCPAuthToken != ""
}

// IsSchedulerEnabled reports whether the manifest should be run in the background
func (c *Config) IsSchedulerEnabled() bool {
	return c.ManifestPath != "" && (c.Schedule != "" || c.Watch)
}

// String returns a short description of the effective configuration
func (c *Config) String() string {
	return fmt.Sprintf("output_dir=%s addr=%s workers=%d manifest=%q schedule=%q watch=%v",
		c.OutputDir, c.ListenAddr, c.Workers, c.ManifestPath, c.Schedule, c.Watch)
}

// coalesce returns the first non-empty string value
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
