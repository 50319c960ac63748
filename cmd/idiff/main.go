package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajnelson-nist/dfxml/internal/config"
	"github.com/ajnelson-nist/dfxml/internal/logger"
)

var version = "0.1.0"

var (
	configPath string
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "idiff",
		Short: "idiff - differential analysis of forensic filesystem snapshots",
		Long: `idiff compares an ordered sequence of filesystem snapshots of the same
volumes and reports, per object, what happened between consecutive
snapshots: created, deleted, renamed, reallocated, content-modified,
metadata-modified, or unchanged.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(diffCmd())
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(summarizeCmd())
	rootCmd.AddCommand(historyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Shutdown()
		os.Exit(1)
	}
	logger.Shutdown()
}

// setup loads the configuration and initializes the global logger
func setup() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}

	logCfg := logger.Config{
		Level:  logger.ParseLevel(level),
		Format: logger.ParseFormat(cfg.Log.Format),
	}
	if cfg.Log.File != "" {
		logCfg.File = logger.FileConfig{
			Enabled:    true,
			Path:       cfg.Log.File,
			MaxSizeMB:  10,
			MaxAgeDays: 30,
			MaxBackups: 5,
		}
	}
	if err := logger.Init(logCfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
