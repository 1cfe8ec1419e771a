package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/missionpack/regionctl/internal/config"
	"github.com/missionpack/regionctl/internal/region"
	"github.com/missionpack/regionctl/internal/store"
)

var (
	// Global flags
	cfgPath   string
	dbPath    string
	logLevel  string
	logFormat string
	quiet     bool
	globalCfg *config.Config
	logger    *slog.Logger
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regionctl",
		Short: "Detect the host network region and manage package mirrors",
		Long: `regionctl figures out whether the host sits behind China's network boundary
and configures package-index (uv/pip) and Docker registry mirrors to match.
Detection probes a small set of in-country and global domains concurrently
and classifies the network with a deliberate bias: unless global reachability
is dominant, in-country mirrors are assumed to be the safer choice.`,
		Example: `  regionctl detect
  regionctl status
  regionctl update --region china
  regionctl update --uv-only
  regionctl docker install --yes
  regionctl history --limit 10`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()

			if shouldSkipConfig(cmd.Name()) {
				return nil
			}

			// Load the mirrors file; fall back to the built-in mirror set
			// when no file exists anywhere.
			if cfgPath == "" {
				found, err := config.FindConfigFile()
				if err != nil {
					logger.Debug("no mirrors file found, using built-in defaults")
					globalCfg = config.DefaultConfig()
					return nil
				}
				cfgPath = found
			}

			var err error
			globalCfg, err = config.Load(cfgPath)
			if err != nil {
				// An unreadable mirrors file is fatal only for commands
				// that write or display it; everything else degrades to
				// the built-in defaults.
				if requiresMirrorConfig(cmd.Name()) {
					return fmt.Errorf("failed to load mirror config: %w", err)
				}
				logger.Warn("mirror config unreadable, using built-in defaults",
					"path", cfgPath, "error", err)
				globalCfg = config.DefaultConfig()
				return nil
			}

			if !quiet {
				logger.Debug("mirror config loaded", "path", cfgPath)
			}
			return nil
		},
	}

	// Add persistent flags
	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to mirrors file (auto-discovered if not specified)")
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to detection history database")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text or json)")
	cmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress non-error output")

	// Add subcommands
	cmd.AddCommand(
		newDetectCmd(),
		newStatusCmd(),
		newUpdateCmd(),
		newDockerCmd(),
		newHistoryCmd(),
		newConfigCmd(),
	)

	return cmd
}

// setupLogging initializes the slog logger based on flags
func setupLogging() {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if quiet {
		level = slog.LevelError
	}

	var handler slog.Handler
	if strings.ToLower(logFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// requiresMirrorConfig checks if a command needs a readable mirrors file
func requiresMirrorConfig(cmdName string) bool {
	requireCfgCmds := map[string]bool{
		"update": true,
		"config": true,
		"show":   true,
	}
	return requireCfgCmds[cmdName]
}

// shouldSkipConfig checks if a command should skip config loading
func shouldSkipConfig(cmdName string) bool {
	skipConfigCmds := map[string]bool{
		"help":    true,
		"version": true,
	}
	return skipConfigCmds[cmdName]
}

// openHistoryStore opens the detection history database. History is a
// convenience, not a requirement: failure to open degrades to nil with a
// logged warning and callers skip recording.
func openHistoryStore() *store.Store {
	path := dbPath
	if path == "" {
		path = store.DefaultDBPath()
	}
	st, err := store.New(path, logger)
	if err != nil {
		logger.Warn("detection history unavailable", "path", path, "error", err)
		return nil
	}
	return st
}

// recordDetection persists one detection outcome, best-effort.
func recordDetection(st *store.Store, r region.Region, china, global region.ProbeSummary) {
	if st == nil {
		return
	}
	d := &store.Detection{
		Region:             r.String(),
		ChinaSuccessRate:   china.SuccessRate,
		GlobalSuccessRate:  global.SuccessRate,
		ChinaAvgLatencyMs:  china.AvgLatency.Milliseconds(),
		GlobalAvgLatencyMs: global.AvgLatency.Milliseconds(),
		DetectedAt:         time.Now().UTC(),
	}
	if err := st.RecordDetection(d); err != nil {
		logger.Warn("failed to record detection", "error", err)
	}
}

// orUnset substitutes a placeholder for empty mirror values in output.
func orUnset(s string) string {
	if s == "" {
		return "unset"
	}
	return s
}
