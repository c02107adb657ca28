package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/release-feed/internal/config"
	"github.com/oshokin/release-feed/internal/logger"
	"github.com/oshokin/release-feed/internal/service/publisher"
	"github.com/oshokin/release-feed/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel is the minimum logging level for this invocation.
	logLevel string
	// artifactPath overrides the metadata artifact to upload.
	artifactPath string
	// force enables publishing for this invocation regardless of settings.
	force bool

	// rootCmd represents the base command for publishing the metadata artifact.
	rootCmd = &cobra.Command{
		Use:   "feed-publisher",
		Short: "Upload the metadata artifact to the release store.",
		Long: `Uploads the generated update metadata file to the release store bucket
under the fixed release identifier, marked as a pre-release.

Publishing is disabled by default; enable it in settings or pass --force for
a one-off upload.`,
		Args: cobra.NoArgs,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			applyLogLevel(logLevel)
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &publisher.Options{
				ConfigPath:   configPath,
				ArtifactPath: artifactPath,
				Force:        force,
			}

			return publisher.Run(ctx, options)
		},
	}
)

// Execute runs the feed-publisher CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVarP(&artifactPath, "artifact", "a", "", "path to the metadata artifact to upload")
	rootCmd.Flags().BoolVar(&force, "force", false, "publish even when disabled in settings")
}
