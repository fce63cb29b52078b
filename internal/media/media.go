// Package media uploads admin-provided images and video to S3-compatible
// object storage and hands back public URLs for the dataset's image fields.
// Optional; when unconfigured, editors paste URLs hosted elsewhere.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"aviationclub/api/internal/archive"
)

// Config holds the object storage connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicBaseURL overrides the URL prefix for uploaded objects, for
	// deployments serving the bucket through a CDN or reverse proxy.
	PublicBaseURL string
}

// Service wraps a MinIO client for one bucket.
type Service struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// New connects to the object store and ensures the bucket exists.
func New(ctx context.Context, cfg Config) (*Service, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("media: connect %s: %w", cfg.Endpoint, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("media: check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("media: create bucket %s: %w", cfg.Bucket, err)
		}
	}

	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &Service{client: client, bucket: cfg.Bucket, baseURL: baseURL}, nil
}

// Upload stores one media file and returns its public URL. File names are
// restricted to the same image and video extensions the archive accepts.
func (s *Service) Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	if !archive.IsMediaFile(name) {
		return "", fmt.Errorf("media: unsupported file type %q", path.Ext(name))
	}

	ext := strings.ToLower(path.Ext(name))
	base := strings.TrimSuffix(path.Base(name), path.Ext(name))
	object := fmt.Sprintf("%s-%s%s", time.Now().UTC().Format("20060102-150405"), archive.Slug(base), ext)

	if _, err := s.client.PutObject(ctx, s.bucket, object, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", fmt.Errorf("media: upload %s: %w", object, err)
	}
	return s.baseURL + "/" + object, nil
}
