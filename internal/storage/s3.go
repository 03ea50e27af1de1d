// Package storage uploads vehicle images to an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/dgeemedia/cse340-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const keyPrefix = "vehicles/"

var unsafeName = regexp.MustCompile(`[^a-z0-9.-]+`)

type ImageStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewImageStore builds a client against the configured endpoint. Path-style
// addressing keeps it working with R2 and MinIO.
func NewImageStore(ctx context.Context, cfg *config.Config) (*ImageStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Storage.AccessKey,
			cfg.Storage.SecretKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Storage.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("configure s3 client: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
		}
		o.UsePathStyle = true
	})

	return &ImageStore{
		client:    client,
		bucket:    cfg.Storage.Bucket,
		publicURL: strings.TrimRight(cfg.Storage.PublicURL, "/"),
	}, nil
}

// Put uploads data under a unique key derived from name and returns the
// public URL of the object.
func (s *ImageStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	key := ObjectKey(name)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.URL(key), nil
}

// Ping checks that the bucket is reachable with the configured credentials.
func (s *ImageStore) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

func (s *ImageStore) URL(key string) string {
	return s.publicURL + "/" + key
}

// ObjectKey turns a user-supplied filename into a collision-free key.
func ObjectKey(name string) string {
	base := strings.ToLower(path.Base(name))
	base = strings.Trim(unsafeName.ReplaceAllString(base, "-"), "-.")
	if base == "" {
		base = "image"
	}
	return keyPrefix + uuid.NewString() + "-" + base
}
