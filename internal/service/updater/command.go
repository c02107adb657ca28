package updater

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/release-feed/internal/config"
	"github.com/oshokin/release-feed/internal/domain/release"
	"github.com/oshokin/release-feed/internal/logger"
	"github.com/oshokin/release-feed/internal/version"
)

var (
	errUpdaterAlreadyRunning = errors.New("the updater is already running")
	errUpdateFolderRequired  = errors.New("update folder must be configured")
	errEmptyManifest         = errors.New("update manifest is empty")
	errNoChecksum            = errors.New("checksum missing for file")
	errBadHTTPStatus         = errors.New("unexpected http status")
)

// Options are inputs accepted by the updater entry point.
type Options struct {
	// ConfigPath is the optional path to settings YAML file.
	ConfigPath string
}

// runner holds the mutable state and helpers for a single update execution.
// It is intentionally unexported, call Run(ctx, Options) from callers.
type runner struct {
	manifest           *Manifest         // Remote manifest describing the release.
	remoteRecord       *release.Record   // Remote version record from the update folder.
	cfg                *config.Config    // Settings loaded from YAML.
	temporaryDirectory string            // Where new files are downloaded before apply.
	downloadedFiles    map[string]string // Logical name -> local temp path.
}

// Run executes the updater lifecycle and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "feed-updater")

	up, err := newRunner(ctx, opts)
	if err != nil {
		return err
	}

	defer up.cleanup(ctx)

	if err = up.Run(ctx); err != nil {
		logger.ErrorKV(ctx, "Updater run failed", "error", err)
		return err
	}

	logger.Info(ctx, "Updater completed")

	return nil
}

// newRunner prepares the run and writes a marker to avoid concurrent runs.
func newRunner(ctx context.Context, opts *Options) (*runner, error) {
	u := &runner{
		downloadedFiles: make(map[string]string, defaultMapCapacity),
	}

	if IsUpdaterRunningNow(ctx) {
		return u, errUpdaterAlreadyRunning
	}

	updateMarker, err := os.Create(MarkerFilename)
	if err != nil {
		return u, err
	}

	if err = updateMarker.Close(); err != nil {
		return u, err
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = config.DefaultConfigFilename
	}

	var settings *config.Config

	settings, err = config.Load(configPath)
	if err != nil {
		return u, err
	}

	if settings.UpdateFolder == "" {
		return u, errUpdateFolderRequired
	}

	u.cfg = settings

	return u, nil
}

// Run executes the update workflow for this runner instance:
// 1) Fetch the remote version record.
// 2) Compare against the running build.
// 3) Fetch the manifest and verify local checksums.
// 4) Download and apply files that differ.
func (u *runner) Run(ctx context.Context) error {
	if err := u.fetchRemoteRecord(ctx); err != nil {
		return fmt.Errorf("fetch remote version record: %w", err)
	}

	versionUpdateNeeded := u.compareVersions(ctx)

	if err := u.fetchManifest(ctx); err != nil {
		return fmt.Errorf("fetch manifest: %w", err)
	}

	logger.Info(ctx, "Verifying local files against manifest checksums")

	staleFiles, err := u.staleFiles()
	if err != nil {
		return fmt.Errorf("validate checksums: %w", err)
	}

	if !versionUpdateNeeded && len(staleFiles) == 0 {
		logger.Info(ctx, "No update required - version and files are current")
		return nil
	}

	if versionUpdateNeeded {
		// A version bump means every manifest artifact is refreshed.
		staleFiles = u.manifestFiles()
	}

	logger.InfoKV(ctx, "Downloading update files to a temporary folder", "count", len(staleFiles))

	if err = u.downloadFiles(ctx, staleFiles); err != nil {
		return fmt.Errorf("download update files: %w", err)
	}

	logger.Info(ctx, "Applying downloaded files")

	if err = u.applyFiles(ctx); err != nil {
		return fmt.Errorf("apply update files: %w", err)
	}

	return nil
}

// fetchRemoteRecord downloads and parses the two-line metadata artifact.
func (u *runner) fetchRemoteRecord(ctx context.Context) error {
	contents, err := u.getFileFromServer(ctx, MetadataFilename)
	if err != nil {
		return err
	}

	record, err := release.Parse(contents)
	if err != nil {
		return err
	}

	u.remoteRecord = record

	return nil
}

// compareVersions reports whether the remote version differs from the running build.
func (u *runner) compareVersions(ctx context.Context) bool {
	localVersion := version.Short()
	remoteVersion := u.remoteRecord.VersionName

	if localVersion != remoteVersion {
		logger.InfoKV(ctx, "Version mismatch detected",
			"local", localVersion, "remote", remoteVersion)

		return true
	}

	logger.InfoKV(ctx, "Versions match, checking file integrity",
		"version", localVersion)

	// Still check checksums for integrity.
	return false
}

// fetchManifest downloads and parses the remote artifact manifest.
func (u *runner) fetchManifest(ctx context.Context) error {
	contents, err := u.getFileFromServer(ctx, ManifestFilename)
	if err != nil {
		return err
	}

	var manifest Manifest
	if err = yaml.Unmarshal(contents, &manifest); err != nil {
		return err
	}

	if len(manifest.Files) == 0 {
		return errEmptyManifest
	}

	u.manifest = &manifest

	return nil
}

// staleFiles returns manifest entries whose local checksum differs or is absent.
func (u *runner) staleFiles() ([]string, error) {
	var stale []string

	for _, fileName := range u.manifestFiles() {
		remoteChecksum, err := u.manifestChecksum(fileName)
		if err != nil {
			return nil, err
		}

		localChecksum, err := localFileChecksum(fileName)
		if err != nil {
			return nil, err
		}

		if !bytes.Equal(remoteChecksum, localChecksum) {
			stale = append(stale, fileName)
		}
	}

	return stale, nil
}

// manifestFiles returns all artifact names listed in the manifest.
func (u *runner) manifestFiles() []string {
	files := make([]string, 0, len(u.manifest.Files))
	for fileName := range u.manifest.Files {
		files = append(files, fileName)
	}

	return files
}

// manifestChecksum decodes the manifest checksum for a file.
func (u *runner) manifestChecksum(fileName string) ([]byte, error) {
	encoded, ok := u.manifest.Files[fileName]
	if !ok {
		return nil, fmt.Errorf("checksum for %s: %w", fileName, errNoChecksum)
	}

	checksum, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}

	return checksum, nil
}

// localFileChecksum returns the checksum of a local file,
// or nil when the file does not exist yet.
func localFileChecksum(fileName string) ([]byte, error) {
	if _, err := os.Stat(fileName); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// File doesn't exist, needs update.
			return nil, nil
		}

		return nil, err
	}

	return GetFileChecksum(fileName)
}

// getFileFromServer fetches a file from the update folder and returns its body.
func (u *runner) getFileFromServer(ctx context.Context, fileName string) ([]byte, error) {
	serverUpdateURL, err := url.Parse(u.cfg.UpdateFolder)
	if err != nil {
		return nil, err
	}

	// Use path.Join to normalize duplicate slashes when composing the URL path.
	serverUpdateURL.Path = path.Join(serverUpdateURL.Path, fileName)
	finalURL := serverUpdateURL.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s, %s: %w", finalURL, response.Status, errBadHTTPStatus)
	}

	return io.ReadAll(response.Body)
}

// downloadFiles downloads the listed files into a temporary directory.
func (u *runner) downloadFiles(ctx context.Context, files []string) error {
	temporaryDirectory, err := os.MkdirTemp("", "release-feed-updater-")
	if err != nil {
		return err
	}

	u.temporaryDirectory = temporaryDirectory

	for _, fileName := range files {
		var contents []byte

		contents, err = u.getFileFromServer(ctx, fileName)
		if err != nil {
			return err
		}

		outputFileName := filepath.Clean(filepath.Join(temporaryDirectory, fileName))

		// Manifest entries may carry directory components (e.g. dist/app.apk).
		if err = os.MkdirAll(filepath.Dir(outputFileName), DefaultFileMode); err != nil {
			return err
		}

		if err = os.WriteFile(outputFileName, contents, DefaultFileMode); err != nil {
			return err
		}

		u.downloadedFiles[fileName] = outputFileName
		logger.InfoKV(ctx, "Downloaded file", "path", outputFileName)
	}

	return nil
}

// applyFiles applies downloaded files using go-update with checksum validation.
func (u *runner) applyFiles(ctx context.Context) error {
	for fileName, downloadedFileName := range u.downloadedFiles {
		logger.InfoKV(ctx, "Updating file", "file", fileName)

		data, err := os.ReadFile(filepath.Clean(downloadedFileName))
		if err != nil {
			return err
		}

		checksum, err := u.manifestChecksum(fileName)
		if err != nil {
			return err
		}

		if _, err = os.Stat(fileName); err != nil && errors.Is(err, os.ErrNotExist) {
			if _, err = os.Create(fileName); err != nil {
				return err
			}
		}

		options := goupdate.Options{
			TargetPath: fileName,
			TargetMode: DefaultFileMode,
			Checksum:   checksum,
			Hash:       DefaultChecksumFunction,
		}

		if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
			return err
		}

		oldFileName := fileName + ".old"
		if _, err = os.Stat(oldFileName); err == nil {
			_ = os.Remove(oldFileName)
		}
	}

	return nil
}

// cleanup removes temporary artifacts and the running marker.
func (u *runner) cleanup(ctx context.Context) {
	if _, err := os.Stat(MarkerFilename); err == nil {
		_ = os.Remove(MarkerFilename)
	}

	if u.temporaryDirectory != "" {
		if _, err := os.Stat(u.temporaryDirectory); err == nil {
			_ = os.RemoveAll(u.temporaryDirectory)
		}
	}

	logger.Info(ctx, "The updater has been stopped")
}
