package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/campushub/campushub/pkg/media"
)

var tracer = otel.Tracer("campushub/storage")

// S3Backend stores uploads in an S3-compatible object store.
type S3Backend struct {
	client *s3.Client
	config Config
}

// NewS3Backend creates a remote storage backend.
func NewS3Backend(ctx context.Context, cfg Config) (*S3Backend, error) {
	var awsConfig aws.Config
	var err error

	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		// Static credentials (MinIO or AWS with explicit keys).
		awsConfig, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.S3Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.S3AccessKey,
				cfg.S3SecretKey,
				"",
			)),
		)
	} else {
		// Default credential chain (IAM roles, env vars, etc.).
		awsConfig, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.S3Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		if cfg.S3UsePathStyle {
			o.UsePathStyle = true
		}
	})

	// Ensure the bucket exists (for local dev against MinIO).
	if err := createBucketIfNotExists(ctx, client, cfg.S3Bucket); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return &S3Backend{client: client, config: cfg}, nil
}

// Kind implements Backend.Kind.
func (b *S3Backend) Kind() BackendKind {
	return BackendRemote
}

// Put implements Backend.Put. The stored identifier is the object's
// fully-qualified public URL.
func (b *S3Backend) Put(ctx context.Context, category media.Category, filename string, content []byte, contentType string) (string, error) {
	key := fmt.Sprintf("%s/%s", category, UniqueFilename(filename))

	ctx, span := tracer.Start(ctx, "S3.PutObject",
		trace.WithAttributes(
			attribute.String("s3.bucket", b.config.S3Bucket),
			attribute.String("s3.key", key),
			attribute.String("media.category", string(category)),
			attribute.Int("content.size", len(content)),
		),
	)
	defer span.End()

	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.config.S3Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upload to s3")
		return "", fmt.Errorf("failed to upload to s3: %w", err)
	}

	span.SetStatus(codes.Ok, "object uploaded")
	return b.publicURL(key), nil
}

// HealthCheck verifies object-store connectivity.
func (b *S3Backend) HealthCheck(ctx context.Context) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.config.S3Bucket),
	})
	if err != nil {
		return fmt.Errorf("s3 health check failed: %w", err)
	}
	return nil
}

func (b *S3Backend) publicURL(key string) string {
	if b.config.PublicBaseURL != "" {
		return strings.TrimSuffix(b.config.PublicBaseURL, "/") + "/" + key
	}
	if b.config.S3Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s",
			strings.TrimSuffix(b.config.S3Endpoint, "/"), b.config.S3Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		b.config.S3Bucket, b.config.S3Region, url.PathEscape(key))
}

func createBucketIfNotExists(ctx context.Context, client *s3.Client, bucket string) error {
	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err == nil {
		return nil
	}

	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		// Ignore the race where another replica created it first.
		if !isBucketAlreadyExistsError(err) {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

func isBucketAlreadyExistsError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "BucketAlreadyExists") ||
		strings.Contains(err.Error(), "BucketAlreadyOwnedByYou"))
}
