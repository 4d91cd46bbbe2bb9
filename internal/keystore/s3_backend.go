package keystore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/bitguard/internal/common"
)

// s3API is the part of *s3.Client the backend needs.
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Config locates the key object in an S3-compatible store (AWS, MinIO).
type S3Config struct {
	Bucket       string
	ObjectKey    string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

// S3Backend keeps the 32 raw key bytes as a single object.
type S3Backend struct {
	client s3API
	bucket string
	key    string
}

// NewS3Backend builds the S3 client. Static credentials are used when
// AccessKey is set, the default AWS credential chain otherwise. An empty
// BaseEndpoint means the AWS default endpoint resolution.
func NewS3Backend(ctx context.Context, c S3Config) (*S3Backend, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	if c.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")))
	}
	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Backend{client: client, bucket: c.Bucket, key: c.ObjectKey}, nil
}

func isAPIError(err error, codes ...string) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, c := range codes {
		if apiErr.ErrorCode() == c {
			return true
		}
	}
	return false
}

func (b *S3Backend) Load(ctx context.Context) ([]byte, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
	})
	if err != nil {
		if isAPIError(err, "NoSuchKey", "NotFound") {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("get %s: %w", b.Location(), err)
	}
	defer out.Body.Close()

	// One byte more than a key is enough to detect an oversized object.
	data, err := io.ReadAll(io.LimitReader(out.Body, common.MasterKeySize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.Location(), err)
	}
	return data, nil
}

// Save uses a conditional put (If-None-Match: *) so a key is never replaced.
func (b *S3Backend) Save(ctx context.Context, key []byte) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(b.key),
		Body:        bytes.NewReader(key),
		IfNoneMatch: aws.String("*"),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		if isAPIError(err, "PreconditionFailed", "ConditionalRequestConflict") {
			return ErrKeyExists
		}
		return fmt.Errorf("put %s: %w", b.Location(), err)
	}
	return nil
}

func (b *S3Backend) Location() string {
	return fmt.Sprintf("s3://%s/%s", b.bucket, b.key)
}
