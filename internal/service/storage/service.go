package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"blood-donation/internal/config"
	"blood-donation/internal/domain"
)

// MaxImageSize bounds banner and blog image uploads.
const MaxImageSize = 5 << 20

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ErrUnavailable is returned when no object store was configured.
var ErrUnavailable = errors.New("object storage is not configured")

// ObjectStore is the part of *minio.Client the service uses.
type ObjectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type Object struct {
	Key string
	URL string
}

type Service interface {
	UploadImage(ctx context.Context, prefix string, size int64, contentType string, reader io.Reader) (*Object, error)
	Remove(ctx context.Context, publicURL string) error
	PublicURL(key string) string
}

type service struct {
	client ObjectStore
	cfg    *config.Config
	now    func() time.Time
}

func NewService(client ObjectStore, cfg *config.Config) Service {
	return &service{client: client, cfg: cfg, now: time.Now}
}

func (s *service) UploadImage(ctx context.Context, prefix string, size int64, contentType string, reader io.Reader) (*Object, error) {
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, domain.Validationf("unsupported image type %q", contentType)
	}
	if size <= 0 || size > MaxImageSize {
		return nil, domain.Validationf("image must be between 1 byte and %d MB", MaxImageSize>>20)
	}

	if s.client == nil {
		return nil, ErrUnavailable
	}

	key := fmt.Sprintf("%s/%s/%s%s", prefix, s.now().Format("2006/01"), uuid.New().String(), ext)
	_, err := s.client.PutObject(ctx, s.cfg.MinIOBucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to MinIO: %w", err)
	}
	return &Object{Key: key, URL: s.PublicURL(key)}, nil
}

// Remove deletes the object behind a URL produced by PublicURL. URLs that
// point elsewhere are ignored.
func (s *service) Remove(ctx context.Context, publicURL string) error {
	base := s.PublicURL("")
	if !strings.HasPrefix(publicURL, base) {
		return nil
	}
	key, err := url.PathUnescape(strings.TrimPrefix(publicURL, base))
	if err != nil || key == "" {
		return nil
	}
	if s.client == nil {
		return ErrUnavailable
	}
	return s.client.RemoveObject(ctx, s.cfg.MinIOBucket, key, minio.RemoveObjectOptions{})
}

func (s *service) PublicURL(key string) string {
	scheme := "http"
	if s.cfg.MinIOPublicUseSSL {
		scheme = "https"
	}
	escaped := (&url.URL{Path: key}).EscapedPath()
	return fmt.Sprintf("%s://%s/%s", scheme, path.Join(s.cfg.MinIOPublicEndpoint, s.cfg.MinIOBucket), escaped)
}
