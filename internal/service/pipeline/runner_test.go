package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestArguments verifies the pass-through argument rendering.
func TestArguments(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"--tag", "1.2.3"}, Arguments(false, "1.2.3"))
	require.Equal(t, []string{"--tag", "1.2.3", "--upload"}, Arguments(true, "1.2.3"))
}

// TestNewRunner_RequiresScript rejects an empty script path.
func TestNewRunner_RequiresScript(t *testing.T) {
	t.Parallel()

	_, err := NewRunner("", 0)
	require.Error(t, err)
}

// TestDetectTag reads the version line from a manifest file.
func TestDetectTag(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	manifest := filepath.Join(dir, "Cargo.toml")
	contents := `[package]
name = "example"
version = "1.2.3"
edition = "2021"
`

	require.NoError(t, os.WriteFile(manifest, []byte(contents), 0o600))

	tag, err := DetectTag(manifest)
	require.NoError(t, err)
	require.Equal(t, "1.2.3", tag)
}

// TestDetectTag_NoVersionLine returns ErrVersionNotFound for manifests without one.
func TestDetectTag_NoVersionLine(t *testing.T) {
	t.Parallel()

	manifest := filepath.Join(t.TempDir(), "Cargo.toml")
	require.NoError(t, os.WriteFile(manifest, []byte("[package]\nname = \"example\"\n"), 0o600))

	_, err := DetectTag(manifest)
	require.ErrorIs(t, err, ErrVersionNotFound)
}

// TestDetectTag_MissingFile propagates the read error.
func TestDetectTag_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := DetectTag(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
