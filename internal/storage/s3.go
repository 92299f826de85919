package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config holds the connection settings of an S3-compatible bucket
type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicBaseURL   string
	UseSSL          bool
}

// Configured reports whether enough is set to upload
func (c S3Config) Configured() bool {
	return c.Region != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" && c.Bucket != ""
}

// S3Storage implements Storage on an S3-compatible object store
type S3Storage struct {
	client     *minio.Client
	bucket     string
	region     string
	publicBase string
}

// NewS3Storage connects to the configured endpoint. An empty endpoint means
// AWS S3; any other endpoint is addressed path-style.
func NewS3Storage(cfg S3Config) (*S3Storage, error) {
	endpoint := "s3.amazonaws.com"
	secure := true
	lookup := minio.BucketLookupAuto
	if cfg.Endpoint != "" {
		u, err := url.Parse(cfg.Endpoint)
		if err != nil || u.Host == "" {
			endpoint = strings.TrimRight(cfg.Endpoint, "/")
			secure = cfg.UseSSL
		} else {
			endpoint = u.Host
			secure = u.Scheme == "https"
		}
		lookup = minio.BucketLookupPath
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:       secure,
		Region:       cfg.Region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	publicBase := cfg.PublicBaseURL
	if publicBase == "" {
		publicBase = cfg.Endpoint
	}

	return &S3Storage{
		client:     client,
		bucket:     cfg.Bucket,
		region:     cfg.Region,
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

// URL is <public base>/<bucket>/<key>, or the virtual-hosted AWS URL when no
// base is configured.
func (s *S3Storage) URL(key string) string {
	return PublicURL(s.publicBase, s.bucket, s.region, key)
}

// PublicURL builds the address a stored object is served from
func PublicURL(publicBase, bucket, region, key string) string {
	if publicBase != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(publicBase, "/"), bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}

func (s *S3Storage) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (Object, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	info, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return Object{}, fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return Object{Key: key, URL: s.URL(key), Size: info.Size, ContentType: contentType}, nil
}

func (s *S3Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	return obj, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}
