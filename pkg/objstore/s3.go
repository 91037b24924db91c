// Package objstore stores uploaded document bytes in S3-compatible
// object storage and hands back a locator for later retrieval.
package objstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pharmintel/core/internal/apperr"
)

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// PathStyle is required by MinIO and most self-hosted gateways.
	PathStyle bool
}

type S3Store struct {
	client *s3.Client
	bucket string
}

func NewS3Store(config S3Config) (*S3Store, error) {
	if config.Bucket == "" {
		return nil, apperr.New(apperr.InvalidConfiguration, "storage bucket is required")
	}
	if config.AccessKey == "" || config.SecretKey == "" {
		return nil, apperr.New(apperr.InvalidConfiguration, "storage credentials are required")
	}

	opts := s3.Options{
		Region:       config.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(config.AccessKey, config.SecretKey, ""),
		UsePathStyle: config.PathStyle,
	}
	if config.Endpoint != "" {
		opts.BaseEndpoint = aws.String(config.Endpoint)
	}

	return &S3Store{
		client: s3.New(opts),
		bucket: config.Bucket,
	}, nil
}

// Store uploads data under path and returns an s3:// locator.
func (s *S3Store) Store(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to store object %s: %w", path, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, path), nil
}
