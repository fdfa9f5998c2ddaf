package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type BlobConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

func LoadBlobConfigFromEnv() (BlobConfig, error) {
	cfg := BlobConfig{
		Endpoint:  strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		Region:    strings.TrimSpace(os.Getenv("S3_REGION")),
		Bucket:    strings.TrimSpace(os.Getenv("S3_BUCKET")),
		AccessKey: strings.TrimSpace(os.Getenv("S3_ACCESS_KEY")),
		SecretKey: strings.TrimSpace(os.Getenv("S3_SECRET_KEY")),
	}
	useSSL := strings.TrimSpace(os.Getenv("S3_USE_SSL"))
	if useSSL != "" {
		b, err := strconv.ParseBool(useSSL)
		if err != nil {
			return BlobConfig{}, fmt.Errorf("invalid S3_USE_SSL: %w", err)
		}
		cfg.UseSSL = b
	}

	if cfg.Endpoint == "" || cfg.Bucket == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return BlobConfig{}, errors.New("missing required S3 env: S3_ENDPOINT, S3_BUCKET, S3_ACCESS_KEY, S3_SECRET_KEY")
	}
	// Region can be empty for MinIO.
	return cfg, nil
}

// BlobStorage stores message attachments and item images in an S3-compatible
// bucket. Objects are addressed by public URL; the key is re-derived from the
// URL when a delete is issued.
type BlobStorage struct {
	client *minio.Client
	bucket string
	base   string // public URL prefix up to and including the bucket
}

func NewBlobStorage(cfg BlobConfig) (*BlobStorage, error) {
	cl, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	base := fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)

	return &BlobStorage{client: cl, bucket: cfg.Bucket, base: base}, nil
}

// NewObjectKey generates a unique key under the given prefix, e.g.
// "items/5b3f....jpg".
func NewObjectKey(prefix, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "bin"
	}
	return path.Join(prefix, uuid.NewString()+"."+ext)
}

// Upload puts an object and returns its public URL.
func (s *BlobStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return s.base + "/" + key, nil
}

// Delete removes the object a previously returned URL points at.
func (s *BlobStorage) Delete(ctx context.Context, blobURL string) error {
	key, err := s.KeyFromURL(blobURL)
	if err != nil {
		return err
	}
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

// KeyFromURL re-derives the object key from a stored public URL. The URL path
// is "/<bucket>/<key>".
func (s *BlobStorage) KeyFromURL(blobURL string) (string, error) {
	u, err := url.Parse(blobURL)
	if err != nil {
		return "", fmt.Errorf("invalid blob url: %w", err)
	}
	p := strings.TrimPrefix(u.Path, "/")
	if !strings.HasPrefix(p, s.bucket+"/") {
		return "", fmt.Errorf("blob url outside bucket %s: %s", s.bucket, blobURL)
	}
	key := strings.TrimPrefix(p, s.bucket+"/")
	if key == "" {
		return "", fmt.Errorf("blob url has empty key: %s", blobURL)
	}
	return key, nil
}
