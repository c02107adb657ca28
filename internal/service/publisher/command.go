package publisher

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/oshokin/release-feed/internal/config"
	"github.com/oshokin/release-feed/internal/logger"
	"github.com/oshokin/release-feed/internal/service/updater"
)

// Options contains inputs for the publisher entry point.
type Options struct {
	// ConfigPath is the optional path to settings YAML file.
	ConfigPath string
	// ArtifactPath overrides the artifact to upload (defaults to the
	// fixed metadata filename in the working directory).
	ArtifactPath string
	// Force enables publishing for this invocation even when the
	// configured feature flag is off.
	Force bool
}

// Run executes the publish workflow and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "feed-publisher")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.Force {
		settings.Publish.Enabled = true
	}

	artifactPath := opts.ArtifactPath
	if artifactPath == "" {
		artifactPath = updater.MetadataFilename
	}

	if !settings.Publish.Enabled {
		logger.Info(ctx, "Publishing is disabled in settings, nothing to do")
		return nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("load release store credentials: %w", err)
	}

	service := NewService(settings.Publish, s3.NewFromConfig(awsCfg))

	if err = service.Publish(ctx, artifactPath); err != nil {
		return fmt.Errorf("publisher failed: %w", err)
	}

	logger.Info(ctx, "Publisher completed successfully")

	return nil
}
