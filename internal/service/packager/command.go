package packager

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/release-feed/internal/config"
	"github.com/oshokin/release-feed/internal/domain/release"
	"github.com/oshokin/release-feed/internal/logger"
	"github.com/oshokin/release-feed/internal/repository/history"
	"github.com/oshokin/release-feed/internal/service/pipeline"
	"github.com/oshokin/release-feed/internal/service/publisher"
	"github.com/oshokin/release-feed/internal/service/updater"
)

// Options contains inputs for the packager entry point.
type Options struct {
	// ConfigPath is an optional path to the settings YAML (defaults to settings in the working directory).
	ConfigPath string
	// Tag is the version tag for this release. When empty, it is detected
	// from the configured version source manifest.
	Tag string
	// Upload is passed through to the build pipeline unchanged.
	Upload bool
	// SkipBuild bypasses the pipeline invocation and only regenerates metadata.
	SkipBuild bool
	// Artifacts are extra build outputs to include in the checksum manifest.
	Artifacts []string
}

// packager prepares the release metadata and manifest for distribution.
// It is unexported, callers should use Run, which encapsulates setup and validation.
type packager struct {
	// cfg holds the build pipeline and publish configuration.
	cfg *config.Config
	// cfgFilename is the path the configuration was loaded from.
	cfgFilename string
	// opts are the invocation inputs.
	opts *Options
	// record is the version record derived from the tag.
	record *release.Record
	// manifest accumulates artifact checksums for this release.
	manifest *updater.Manifest
	// runner invokes the external build pipeline.
	runner *pipeline.Runner
	// runs records this invocation in the local history database.
	runs history.Repository
	// runID identifies this invocation in the history.
	runID string
}

var (
	// errUpdaterRunning indicates a packaging attempt while the updater holds the run marker.
	errUpdaterRunning = errors.New("the updater is running now")
	// errTagRequired indicates that no tag was supplied and none could be detected.
	errTagRequired = errors.New("version tag must be provided or detectable from the version source")
)

// Run executes the packaging workflow.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "feed-packager")

	pkg, err := newPackager(ctx, opts)
	if err != nil {
		return fmt.Errorf("initialize packager: %w", err)
	}

	defer func() {
		_ = pkg.runs.Close()
	}()

	if err = pkg.Run(ctx); err != nil {
		return fmt.Errorf("packager failed: %w", err)
	}

	logger.Info(ctx, "Packager completed successfully")

	return nil
}

// newPackager loads settings, resolves the tag and opens the run history.
func newPackager(ctx context.Context, opts *Options) (*packager, error) {
	if updater.IsUpdaterRunningNow(ctx) {
		return nil, errUpdaterRunning
	}

	cfgFilename := opts.ConfigPath
	if cfgFilename == "" {
		cfgFilename = config.DefaultConfigFilename
	}

	settings, err := config.Load(cfgFilename)
	if err != nil {
		return nil, err
	}

	tag, err := resolveTag(ctx, opts.Tag, settings.VersionSource)
	if err != nil {
		return nil, err
	}

	runner, err := pipeline.NewRunner(settings.BuildScript, settings.Timeout)
	if err != nil {
		return nil, err
	}

	runs, err := history.NewSQLiteRepository(settings.HistoryFile)
	if err != nil {
		return nil, err
	}

	return &packager{
		cfg:         settings,
		cfgFilename: cfgFilename,
		opts:        opts,
		record:      release.NewRecord(tag),
		manifest:    updater.NewManifest(tag),
		runner:      runner,
		runs:        runs,
		runID:       uuid.NewString(),
	}, nil
}

// resolveTag returns the explicit tag or falls back to the version source manifest.
func resolveTag(ctx context.Context, tag, versionSource string) (string, error) {
	tag = strings.TrimSpace(tag)
	if tag != "" {
		return tag, nil
	}

	detected, err := pipeline.DetectTag(versionSource)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errTagRequired, err)
	}

	logger.InfoKV(ctx, "Detected version tag from manifest",
		"source", versionSource, "tag", detected)

	return detected, nil
}

// Run drives the release workflow:
// 1) Invoke the build pipeline (unless skipped).
// 2) Write the two-line metadata artifact.
// 3) Compute the checksum manifest.
// 4) Record the run and hand off to the publisher when enabled.
func (p *packager) Run(ctx context.Context) error {
	if err := p.runBuild(ctx); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Writing update metadata",
		"path", updater.MetadataFilename,
		"version_name", p.record.VersionName,
		"version_code", p.record.VersionCode)

	if err := p.writeMetadata(); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Saving artifact manifest", "path", updater.ManifestFilename)

	if err := p.fillManifest(ctx); err != nil {
		return err
	}

	if err := p.saveManifest(); err != nil {
		return err
	}

	if err := p.recordRun(ctx); err != nil {
		return err
	}

	if err := p.publish(ctx); err != nil {
		return err
	}

	p.printNextSteps(ctx)

	return nil
}

// runBuild invokes the external pipeline with the pass-through inputs.
func (p *packager) runBuild(ctx context.Context) error {
	if p.opts.SkipBuild {
		logger.Info(ctx, "Skipping build pipeline on request")
		return nil
	}

	if err := p.runner.Run(ctx, p.opts.Upload, p.record.VersionName); err != nil {
		return err
	}

	return nil
}

// writeMetadata renders the version record to the fixed metadata file.
func (p *packager) writeMetadata() error {
	return os.WriteFile(updater.MetadataFilename, []byte(p.record.Render()), updater.DefaultFileMode)
}

// fillManifest hashes the metadata artifact and any extra build outputs
// concurrently and records the checksums.
func (p *packager) fillManifest(ctx context.Context) error {
	files := append([]string{updater.MetadataFilename}, p.opts.Artifacts...)

	var (
		group, groupCtx = errgroup.WithContext(ctx)
		mu              sync.Mutex
	)

	for _, fileName := range files {
		fileName := fileName

		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			if _, err := os.Stat(fileName); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%s: %w", fileName, os.ErrNotExist)
			} else if err != nil {
				return fmt.Errorf("stat %s: %w", fileName, err)
			}

			checksum, err := updater.GetFileChecksum(fileName)
			if err != nil {
				return err
			}

			mu.Lock()
			p.manifest.Files[fileName] = base64.StdEncoding.EncodeToString(checksum)
			mu.Unlock()

			return nil
		})
	}

	return group.Wait()
}

// saveManifest writes the manifest to the standard ManifestFilename.
func (p *packager) saveManifest() error {
	contents, err := yaml.Marshal(p.manifest)
	if err != nil {
		return err
	}

	return os.WriteFile(updater.ManifestFilename, contents, updater.DefaultFileMode)
}

// recordRun stores this invocation in the local history database.
func (p *packager) recordRun(ctx context.Context) error {
	run := &history.Run{
		ID:        p.runID,
		Tag:       p.record.VersionName,
		BuildCode: p.record.VersionCode,
		StartedAt: time.Now().UTC(),
	}

	if err := p.runs.RecordRun(ctx, run); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Recorded run in history", "run_id", p.runID)

	return nil
}

// publish hands the artifact to the publisher. With the feature flag off
// (the default) this logs a skip and uploads nothing.
func (p *packager) publish(ctx context.Context) error {
	if !p.cfg.Publish.Enabled {
		logger.Info(ctx, "Publishing is disabled, skipping upload step")
		return nil
	}

	err := publisher.Run(ctx, &publisher.Options{
		ConfigPath:   p.cfgFilename,
		ArtifactPath: updater.MetadataFilename,
	})
	if err != nil {
		return err
	}

	return p.runs.MarkPublished(ctx, p.runID)
}

// printNextSteps logs human-readable guidance for the created files.
func (p *packager) printNextSteps(ctx context.Context) {
	files := make([]string, 0, len(p.manifest.Files)+1)
	for fileName := range p.manifest.Files {
		files = append(files, fileName)
	}

	files = append(files, updater.ManifestFilename)
	sort.Strings(files)

	var builder strings.Builder

	builder.WriteString("You should upload the following files to the folder ")
	builder.WriteString(p.cfg.UpdateFolder)
	builder.WriteString(":\n")

	for i, name := range files {
		if i == 0 {
			builder.WriteString(name)
		} else {
			builder.WriteString(",\n")
			builder.WriteString(name)
		}
	}

	logger.Info(ctx, builder.String())
}
