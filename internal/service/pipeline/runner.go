package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/oshokin/release-feed/internal/logger"
)

var (
	// errScriptRequired is returned when no build script path is configured.
	errScriptRequired = errors.New("build script must be provided")
	// ErrVersionNotFound is returned when the manifest has no version line.
	ErrVersionNotFound = errors.New("version line not found in manifest")
)

// Runner invokes the external build pipeline as a child process.
type Runner struct {
	// script is the path to the pipeline entry point.
	script string
	// timeout bounds a single pipeline invocation.
	timeout time.Duration
}

// NewRunner creates a runner for the pipeline at the provided path.
func NewRunner(script string, timeout time.Duration) (*Runner, error) {
	if script == "" {
		return nil, errScriptRequired
	}

	// The path is kept verbatim: cleaning "./build.py" to "build.py" would
	// make exec resolve it via PATH instead of the working directory.
	return &Runner{
		script:  script,
		timeout: timeout,
	}, nil
}

// Run executes the pipeline, passing the upload flag and tag through
// unchanged. Pipeline output streams to the packager's stdout/stderr so CI
// logs stay readable. Failure is propagated to the caller; there is no retry.
func (r *Runner) Run(ctx context.Context, upload bool, tag string) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := Arguments(upload, tag)

	logger.InfoKV(ctx, "Invoking build pipeline", "script", r.script, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, r.script, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("build pipeline %s: %w", r.script, err)
	}

	return nil
}

// Arguments renders the pass-through pipeline arguments for the given inputs.
func Arguments(upload bool, tag string) []string {
	args := []string{"--tag", tag}
	if upload {
		args = append(args, "--upload")
	}

	return args
}

// DetectTag scans the project manifest for its first version line and returns
// the value, mirroring how the legacy build script read it. The expected
// shape is `version = "1.2.3"`; quotes and whitespace are stripped.
func DetectTag(manifestPath string) (string, error) {
	file, err := os.Open(filepath.Clean(manifestPath))
	if err != nil {
		return "", fmt.Errorf("open manifest: %w", err)
	}

	// Best-effort cleanup.
	defer func() {
		_ = file.Close()
	}()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "version") {
			continue
		}

		value := strings.TrimPrefix(line, "version")
		value = strings.ReplaceAll(value, "=", "")
		value = strings.ReplaceAll(value, `"`, "")

		return strings.TrimSpace(value), nil
	}

	if err = scanner.Err(); err != nil {
		return "", fmt.Errorf("scan manifest: %w", err)
	}

	return "", fmt.Errorf("%s: %w", manifestPath, ErrVersionNotFound)
}
