package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds settings shared by the release-feed binaries.
type Config struct {
	// BuildScript is the path to the external build pipeline entry point.
	BuildScript string `yaml:"build_script"`
	// VersionSource is the project manifest scanned for a version line
	// when no tag is supplied on the command line.
	VersionSource string `yaml:"version_source"`
	// UpdateFolder is the URL where update artifacts are hosted.
	UpdateFolder string `yaml:"update_folder"`
	// HistoryFile is the path to the SQLite database recording packager runs.
	HistoryFile string `yaml:"history_file"`
	// Timeout bounds the external build pipeline invocation.
	Timeout time.Duration `yaml:"timeout"`
	// Publish configures the release-store upload step.
	Publish PublishConfig `yaml:"publish"`
}

// PublishConfig controls whether and where the metadata artifact is uploaded.
// Publishing is off unless explicitly enabled.
type PublishConfig struct {
	// Enabled turns the upload step on. Default is false.
	Enabled bool `yaml:"enabled"`
	// Bucket is the release-store bucket receiving the artifact.
	Bucket string `yaml:"bucket"`
	// ReleaseTag is the fixed release identifier the artifact is filed under.
	ReleaseTag string `yaml:"release_tag"`
	// Prerelease marks the uploaded release as a pre-release.
	Prerelease bool `yaml:"prerelease"`
}

const (
	// DefaultConfigFilename is the default filename for packager settings.
	DefaultConfigFilename = "release-feed-settings.yaml"

	// DefaultHistoryFilename is the default filename for the run history database.
	DefaultHistoryFilename = "release-feed-history.db"

	// DefaultVersionSource is the project manifest scanned for the version line.
	DefaultVersionSource = "Cargo.toml"

	// DefaultReleaseTag is the release identifier used when none is configured.
	DefaultReleaseTag = "nightly"

	// DefaultTimeout bounds the build pipeline run.
	DefaultTimeout = 30 * time.Minute

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errBuildScriptRequired is returned when the build pipeline path is missing.
	errBuildScriptRequired = errors.New("build script path must be provided")
	// errBucketRequired is returned when publishing is enabled without a bucket.
	errBucketRequired = errors.New("publish bucket must be provided when publishing is enabled")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.BuildScript == "" {
		return errBuildScriptRequired
	}

	// Fill defaults for optional fields.
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.VersionSource == "" {
		settings.VersionSource = DefaultVersionSource
	}

	if settings.HistoryFile == "" {
		settings.HistoryFile = DefaultHistoryFilename
	}

	if settings.Publish.ReleaseTag == "" {
		settings.Publish.ReleaseTag = DefaultReleaseTag
	}

	if settings.Publish.Enabled && settings.Publish.Bucket == "" {
		return errBucketRequired
	}

	if settings.UpdateFolder == "" {
		return nil
	}

	if _, err := url.ParseRequestURI(settings.UpdateFolder); err != nil {
		return fmt.Errorf("invalid update folder URI: %w", err)
	}

	return nil
}
