package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/release-feed/internal/config"
	"github.com/oshokin/release-feed/internal/logger"
	"github.com/oshokin/release-feed/internal/service/packager"
	"github.com/oshokin/release-feed/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel is the minimum logging level for this invocation.
	logLevel string
	// upload is passed through to the build pipeline unchanged.
	upload bool
	// skipBuild regenerates metadata without invoking the pipeline.
	skipBuild bool
	// artifacts are extra build outputs to include in the checksum manifest.
	artifacts []string

	// rootCmd represents the base command for preparing release metadata.
	rootCmd = &cobra.Command{
		Use:   "feed-packager [tag]",
		Short: "Run the build pipeline and prepare store updater metadata.",
		Long: `Invokes the external build pipeline and generates the metadata consumed
by the application-store updater: a two-line versionName/versionCode file and
a checksummed artifact manifest.

The tag argument is the release version (e.g. 1.2.3). When omitted, the tag
is read from the configured version source manifest. Each run is recorded in
a local history database. Publishing to the release store only happens when
it is explicitly enabled in settings.`,
		Args: cobra.MaximumNArgs(1),
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			applyLogLevel(logLevel)
		},
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var tag string
			if len(args) > 0 {
				tag = args[0]
			}

			options := &packager.Options{
				ConfigPath: configPath,
				Tag:        tag,
				Upload:     upload,
				SkipBuild:  skipBuild,
				Artifacts:  artifacts,
			}

			return packager.Run(ctx, options)
		},
	}
)

// Execute runs the feed-packager CLI and exits with non-zero status on error.
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
	rootCmd.Flags().BoolVarP(&upload, "upload", "u", false, "pass the upload flag through to the build pipeline")
	rootCmd.Flags().BoolVar(&skipBuild, "skip-build", false, "skip the build pipeline and only regenerate metadata")
	rootCmd.Flags().
		StringArrayVarP(&artifacts, "artifact", "a", nil, "extra build output to include in the checksum manifest (repeatable)")
}
