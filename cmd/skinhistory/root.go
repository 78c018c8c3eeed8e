package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/skinhistory/internal/config"
	"github.com/nao1215/skinhistory/internal/log"
)

// NewRootCmd creates the root command for skinhistory.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skinhistory",
		Short: "Track which releases changed each skin's art",
		Long: `skinhistory finds the releases in which a skin's splash art was replaced.

It reads the champion and skin catalogue from the game-data mirror, crawls
every champion's patch-history page on the wiki, matches the skins named
under each release heading, and stores the result in a local database.
When the result changes, a deploy hook can rebuild the site that shows it.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .skinhistory in current or home directory)")
	cmd.PersistentFlags().String("db-dir", "",
		"Database directory (default: XDG data directory)")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON lines")

	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewChangesCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return false
	}
	return verbose
}

// loadConfig builds the configuration shared by all commands: defaults,
// config file, environment, then the global flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		if configPath != "" {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		return nil, err
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}
	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// setupLogger creates the redacting logger and installs it as default.
func setupLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	logger := log.NewSecureLogger(cmd.ErrOrStderr(), verbose)
	if jsonLogs, _ := cmd.Flags().GetBool("log-json"); jsonLogs {
		logger = log.NewSecureJSONLogger(cmd.ErrOrStderr(), verbose)
	}
	slog.SetDefault(logger)
	return logger
}
