package publisher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/oshokin/release-feed/internal/config"
	"github.com/oshokin/release-feed/internal/logger"
)

// artifactContentType is the content type of the uploaded metadata artifact.
const artifactContentType = "text/plain; charset=utf-8"

// errBucketNotConfigured is returned when publishing is enabled without a bucket.
var errBucketNotConfigured = errors.New("publish bucket is not configured")

// ObjectUploader is the subset of the S3 client the publisher needs.
// The production implementation is *s3.Client.
type ObjectUploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Service uploads the metadata artifact to the release store.
// The upload only happens when the publish feature flag is enabled;
// with the flag off (the default) Publish is a logged no-op.
type Service struct {
	// cfg carries the publish feature flag and destination.
	cfg config.PublishConfig
	// uploader performs the actual object upload.
	uploader ObjectUploader
}

// NewService creates a publisher over the provided uploader.
func NewService(cfg config.PublishConfig, uploader ObjectUploader) *Service {
	return &Service{
		cfg:      cfg,
		uploader: uploader,
	}
}

// Publish uploads the artifact under the fixed release key.
// When publishing is disabled the uploader is never invoked.
func (s *Service) Publish(ctx context.Context, artifactPath string) error {
	if !s.cfg.Enabled {
		logger.InfoKV(ctx, "Publishing is disabled, skipping upload", "artifact", artifactPath)
		return nil
	}

	if s.cfg.Bucket == "" {
		return errBucketNotConfigured
	}

	contents, err := os.ReadFile(filepath.Clean(artifactPath))
	if err != nil {
		return fmt.Errorf("read artifact: %w", err)
	}

	key := ReleaseKey(s.cfg.ReleaseTag, artifactPath)

	logger.InfoKV(ctx, "Uploading artifact to release store",
		"bucket", s.cfg.Bucket, "key", key, "prerelease", s.cfg.Prerelease)

	_, err = s.uploader.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(contents),
		ContentType: aws.String(artifactContentType),
		Metadata: map[string]string{
			"prerelease": strconv.FormatBool(s.cfg.Prerelease),
		},
	})
	if err != nil {
		return fmt.Errorf("upload artifact: %w", err)
	}

	return nil
}

// ReleaseKey composes the object key the artifact is filed under:
// the fixed release identifier followed by the artifact's base name.
func ReleaseKey(releaseTag, artifactPath string) string {
	if releaseTag == "" {
		releaseTag = config.DefaultReleaseTag
	}

	return path.Join(releaseTag, filepath.Base(artifactPath))
}
