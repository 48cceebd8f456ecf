// Package cmd provides CLI commands for cashbook.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cashbook-app/cashbook/pkg/config"
	"github.com/cashbook-app/cashbook/pkg/pathutil"
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "cashbook",
	Short: "Double-entry bookkeeping ledger on SQLite",
	Long: `cashbook is a CLI tool for keeping a double-entry ledger in a
SQLite database.

It supports:
- Initializing a ledger from a chart-of-accounts YAML file
- Upgrading databases created by older releases
- Exporting transactions as QIF, OFX or GnuCash XML
- Displaying ledger statistics

Example:
  cashbook init --chart chart.yaml
  cashbook export --format qif
  cashbook stats`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logging
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statsCmd)
}

// loadPaths loads the configuration and builds the path resolver from it.
func loadPaths() (*config.Config, *pathutil.PathResolver) {
	cfg, err := config.Load(cfgFile)
	exitOnError(err, "failed to load configuration")
	exitOnError(cfg.Validate(), "invalid configuration")

	paths := pathutil.New(pathutil.Config{
		Root:      cfg.Ledger.Root,
		DBPath:    cfg.Ledger.DBPath,
		ExportDir: cfg.Ledger.ExportDir,
		ChartPath: cfg.Ledger.ChartPath,
	})
	return cfg, paths
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
