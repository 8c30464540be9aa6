package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ufsoft/screener/internal/pkg/config"
)

// aliasMetaKey marks objects that were copied from another rendition.
const aliasMetaKey = "alias-of"

// S3API is the subset of the S3 client used by S3Backend.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Backend stores renditions as objects in an S3 compatible bucket.
type S3Backend struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Client builds an S3 client from the storage configuration.
func NewS3Client(ctx context.Context, cfg config.S3) (*s3.Client, error) {
	awsConfig, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3 compatible services (minio, B2) want path-style URLs
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	}), nil
}

// NewS3Backend wraps client. prefix is prepended to every key.
func NewS3Backend(client S3API, bucket, prefix string) *S3Backend {
	return &S3Backend{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (b *S3Backend) Name() string { return "s3" }

func (b *S3Backend) objectKey(key string) string {
	if b.prefix == "" {
		return key
	}
	return path.Join(b.prefix, key)
}

// ensureAbsent refuses to overwrite an existing object. PutObject and
// CopyObject replace silently, so the check runs before every write.
func (b *S3Backend) ensureAbsent(ctx context.Context, key string) error {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	switch {
	case err == nil:
		return fmt.Errorf("%s: %w", key, fs.ErrExist)
	case isNotFound(err):
		return nil
	default:
		return fmt.Errorf("failed to check s3://%s/%s: %w", b.bucket, b.objectKey(key), err)
	}
}

func (b *S3Backend) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := b.ensureAbsent(ctx, key); err != nil {
		return err
	}
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(b.objectKey(key)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", b.bucket, b.objectKey(key), err)
	}
	log.Debugf("[Storage] Uploaded s3://%s/%s (%d bytes)", b.bucket, b.objectKey(key), len(data))
	return nil
}

// Alias copies target to key server-side. Buckets have no symlinks.
func (b *S3Backend) Alias(ctx context.Context, key, target string) error {
	if err := b.ensureAbsent(ctx, key); err != nil {
		return err
	}
	source := url.PathEscape(b.bucket) + "/" + escapeKey(b.objectKey(target))
	_, err := b.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(b.bucket),
		Key:               aws.String(b.objectKey(key)),
		CopySource:        aws.String(source),
		MetadataDirective: types.MetadataDirectiveReplace,
		Metadata:          map[string]string{aliasMetaKey: target},
	})
	if err != nil {
		return fmt.Errorf("failed to alias s3://%s/%s: %w", b.bucket, b.objectKey(key), err)
	}
	return nil
}

func (b *S3Backend) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, 0, ErrObjectNotFound
		}
		return nil, 0, fmt.Errorf("failed to download s3://%s/%s: %w", b.bucket, b.objectKey(key), err)
	}
	return out.Body, aws.ToInt64(out.ContentLength), nil
}

func (b *S3Backend) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return ObjectInfo{}, ErrObjectNotFound
		}
		return ObjectInfo{}, err
	}
	_, alias := out.Metadata[aliasMetaKey]
	return ObjectInfo{Key: key, Size: aws.ToInt64(out.ContentLength), Alias: alias}, nil
}

func (b *S3Backend) Remove(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete s3://%s/%s: %w", b.bucket, b.objectKey(key), err)
	}
	return nil
}

// RemoveDirIfEmpty is a no-op: prefixes vanish with their last object.
func (b *S3Backend) RemoveDirIfEmpty(context.Context, string) error {
	return nil
}

func (b *S3Backend) Ping(ctx context.Context) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(b.bucket)})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", b.bucket, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
