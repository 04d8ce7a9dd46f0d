// Package upload pushes finished export files to S3 or S3-compatible
// object storage.
package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// ErrAccessDenied indicates the principal cannot write to the bucket.
var ErrAccessDenied = errors.New("access denied")

// Config configures the S3 uploader.
type Config struct {
	// Bucket is the destination bucket (required).
	Bucket string

	// Prefix is the key prefix inside the bucket.
	Prefix string

	// Region overrides SDK region resolution.
	Region string

	// Profile selects a shared-config profile.
	Profile string

	// Endpoint points at an S3-compatible store (MinIO, moto).
	Endpoint string

	// AccessKeyID and SecretAccessKey provide explicit credentials.
	// When empty the SDK's default credential chain applies.
	AccessKeyID     string
	SecretAccessKey string
}

// S3Uploader implements exporter.Uploader on top of S3 PutObject.
type S3Uploader struct {
	client *s3.Client
	bucket string
	prefix string
}

// ParseDestination splits an s3://bucket/prefix URI.
func ParseDestination(uri string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("upload: not an s3 URI: %q", uri)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("upload: missing bucket in %q", uri)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// New creates an uploader with the given configuration.
func New(ctx context.Context, cfg Config) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("upload: bucket is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("upload: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// S3-compatible services require path-style URLs.
			o.UsePathStyle = true
		}
	})

	return &S3Uploader{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Upload puts a local file under the configured prefix and returns the
// resulting s3:// URI.
func (u *S3Uploader) Upload(ctx context.Context, localPath, name string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("upload: open %s: %w", localPath, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("upload: stat %s: %w", localPath, err)
	}

	key := name
	if u.prefix != "" {
		key = path.Join(u.prefix, name)
	}

	size := info.Size()
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: &size,
	})
	if err != nil {
		return "", u.wrapError(key, err)
	}

	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}

func (u *S3Uploader) wrapError(key string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("upload: put s3://%s/%s: %w", u.bucket, key, ErrAccessDenied)
		}
	}
	return fmt.Errorf("upload: put s3://%s/%s: %w", u.bucket, key, err)
}
