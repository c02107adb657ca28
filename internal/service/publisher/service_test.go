package publisher

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-feed/internal/config"
)

// fakeUploader records PutObject calls instead of talking to a release store.
type fakeUploader struct {
	calls []*s3.PutObjectInput
}

func (f *fakeUploader) PutObject(
	_ context.Context,
	params *s3.PutObjectInput,
	_ ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	f.calls = append(f.calls, params)
	return &s3.PutObjectOutput{}, nil
}

// writeArtifact produces a metadata artifact in a temp directory.
func writeArtifact(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "update-metadata.txt")
	require.NoError(t, os.WriteFile(path, []byte("versionName=1.2.3\nversionCode=123\n"), 0o600))

	return path
}

// TestPublish_DisabledNeverUploads asserts the upload step is unreachable
// while the feature flag is off, regardless of artifact content.
func TestPublish_DisabledNeverUploads(t *testing.T) {
	t.Parallel()

	uploader := new(fakeUploader)
	service := NewService(config.PublishConfig{
		Enabled: false,
		Bucket:  "releases",
	}, uploader)

	require.NoError(t, service.Publish(context.Background(), writeArtifact(t)))
	require.Empty(t, uploader.calls)

	// Even a missing artifact is not an error while disabled.
	require.NoError(t, service.Publish(context.Background(), "does-not-exist.txt"))
	require.Empty(t, uploader.calls)
}

// TestPublish_EnabledUploadsUnderReleaseKey verifies bucket, key,
// pre-release metadata and body of the upload.
func TestPublish_EnabledUploadsUnderReleaseKey(t *testing.T) {
	t.Parallel()

	uploader := new(fakeUploader)
	service := NewService(config.PublishConfig{
		Enabled:    true,
		Bucket:     "releases",
		ReleaseTag: "nightly",
		Prerelease: true,
	}, uploader)

	artifact := writeArtifact(t)

	require.NoError(t, service.Publish(context.Background(), artifact))
	require.Len(t, uploader.calls, 1)

	call := uploader.calls[0]
	require.Equal(t, "releases", aws.ToString(call.Bucket))
	require.Equal(t, "nightly/update-metadata.txt", aws.ToString(call.Key))
	require.Equal(t, "true", call.Metadata["prerelease"])

	body, err := io.ReadAll(call.Body)
	require.NoError(t, err)
	require.Equal(t, "versionName=1.2.3\nversionCode=123\n", string(body))
}

// TestPublish_EnabledRequiresBucket rejects publishing without a destination.
func TestPublish_EnabledRequiresBucket(t *testing.T) {
	t.Parallel()

	uploader := new(fakeUploader)
	service := NewService(config.PublishConfig{Enabled: true}, uploader)

	require.Error(t, service.Publish(context.Background(), writeArtifact(t)))
	require.Empty(t, uploader.calls)
}

// TestReleaseKey falls back to the default release identifier.
func TestReleaseKey(t *testing.T) {
	t.Parallel()

	require.Equal(t, "nightly/update-metadata.txt", ReleaseKey("", "/tmp/update-metadata.txt"))
	require.Equal(t, "v2/update-metadata.txt", ReleaseKey("v2", "update-metadata.txt"))
}
