package updater

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-feed/internal/config"
)

// TestDownloadFiles_NestedArtifactPath ensures artifacts with directory
// components are downloaded into matching subdirectories of the temp folder.
func TestDownloadFiles_NestedArtifactPath(t *testing.T) {
	t.Parallel()

	payload := []byte("binary payload")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/dist/app-release.apk", r.URL.Path)
		_, _ = w.Write(payload)
	}))
	t.Cleanup(server.Close)

	u := &runner{
		cfg: &config.Config{
			BuildScript:  "./build.py",
			UpdateFolder: server.URL,
		},
		downloadedFiles: make(map[string]string, 1),
	}
	t.Cleanup(func() {
		if u.temporaryDirectory != "" {
			_ = os.RemoveAll(u.temporaryDirectory)
		}
	})

	require.NoError(t, u.downloadFiles(context.Background(), []string{"dist/app-release.apk"}))

	contents, err := os.ReadFile(u.downloadedFiles["dist/app-release.apk"])
	require.NoError(t, err)
	require.Equal(t, payload, contents)
}
