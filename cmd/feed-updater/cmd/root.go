package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/release-feed/internal/config"
	"github.com/oshokin/release-feed/internal/logger"
	"github.com/oshokin/release-feed/internal/service/updater"
	"github.com/oshokin/release-feed/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel is the minimum logging level for this invocation.
	logLevel string

	// rootCmd represents the base command for applying updates from the update folder.
	rootCmd = &cobra.Command{
		Use:   "feed-updater",
		Short: "Fetch and apply the latest release from the update folder.",
		Long: `Downloads the remote version record and artifact manifest from the
configured update folder, compares the remote version against the running
build, validates local files against the manifest checksums and atomically
applies any artifact that differs.`,
		Args: cobra.NoArgs,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			applyLogLevel(logLevel)
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &updater.Options{
				ConfigPath: configPath,
			}

			return updater.Run(ctx, options)
		},
	}
)

// Execute runs the feed-updater CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// applyLogLevel sets the global logging level from the flag value.
// Unknown values leave the current level untouched.
func applyLogLevel(value string) {
	if level, ok := logger.ParseLogLevel(value); ok {
		logger.SetLevel(level)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVar(&logLevel, "log-level", logger.Level().String(), "logging level (debug, info, warn, error)")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
}
