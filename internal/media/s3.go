// Copyright (c) 2026 Cliply. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package media

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/taibuivan/cliply/pkg/uuid"
)

// objectStorageAPI is the slice of the S3 client used by the uploader.
// Narrowed to an interface so tests can substitute a fake.
type objectStorageAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader implements [Uploader] against an S3-compatible bucket.
type S3Uploader struct {
	client        objectStorageAPI
	bucket        string
	publicBaseURL string
}

// S3Options holds the connection settings for [NewS3Uploader].
type S3Options struct {
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

// NewS3Uploader builds an S3 client for the configured endpoint and wraps it
// in an [S3Uploader].
//
// Static credentials plus a custom BaseEndpoint cover R2/MinIO deployments;
// with empty credentials the SDK falls back to its default chain.
func NewS3Uploader(ctx context.Context, opts S3Options) (*S3Uploader, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("media: S3 bucket is not configured")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("media: failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(options *s3.Options) {
		if opts.Endpoint != "" {
			options.BaseEndpoint = aws.String(opts.Endpoint)
		}
		// Path-style addressing is required by most S3-compatible stores.
		options.UsePathStyle = opts.Endpoint != ""
	})

	return &S3Uploader{
		client:        client,
		bucket:        opts.Bucket,
		publicBaseURL: strings.TrimRight(opts.PublicBaseURL, "/"),
	}, nil
}

/*
Upload stores the spooled file under a time-partitioned object key and returns
its public URL.

Description: Reads the temporary file, pushes it to the bucket, and removes
the local copy whether or not the push succeeded.

Parameters:
  - context: context.Context
  - localPath: string

Returns:
  - string: Public URL ("" for an empty localPath)
  - error: Read or storage failures
*/
func (uploader *S3Uploader) Upload(context context.Context, localPath string) (string, error) {
	if localPath == "" {
		return "", nil
	}

	// The temp file is consumed here no matter what happens next.
	defer func() { _ = os.Remove(localPath) }()

	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("media: failed to open spooled file: %w", err)
	}
	defer file.Close()

	key := storageKey(localPath)
	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = uploader.client.PutObject(context, &s3.PutObjectInput{
		Bucket:      aws.String(uploader.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("media: upload failed: %w", err)
	}

	return uploader.publicBaseURL + "/" + key, nil
}

// storageKey builds a time-partitioned object key that preserves the file
// extension. Partitioning by date keeps bucket listings manageable.
func storageKey(localPath string) string {
	now := time.Now()
	return fmt.Sprintf("media/%d/%02d/%02d/%s%s",
		now.Year(), now.Month(), now.Day(), uuid.New(), filepath.Ext(localPath))
}
