package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docrender/internal/config"
	"docrender/internal/infra/logging"
)

var rootCmd = &cobra.Command{
	Use:           "docrender",
	Short:         "docrender renders HTML documents to PDF with headless Chromium",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command selected by os.Args.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the YAML config (default $CONFIG_PATH or config.yaml)")
}

// loadConfig reads the config named by --config, falling back to CONFIG_PATH,
// and initialises the logger from it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return config.Config{}, err
	}

	logging.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)
	return cfg, nil
}
