package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blood-donation/internal/config"
	"blood-donation/internal/domain"
)

type fakeStore struct {
	objects map[string][]byte
	removed []string
}

func (f *fakeStore) PutObject(_ context.Context, _, objectName string, reader io.Reader, _ int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.objects[objectName] = data
	return minio.UploadInfo{Key: objectName, Size: int64(len(data))}, nil
}

func (f *fakeStore) RemoveObject(_ context.Context, _, objectName string, _ minio.RemoveObjectOptions) error {
	f.removed = append(f.removed, objectName)
	delete(f.objects, objectName)
	return nil
}

func newTestService() (*service, *fakeStore) {
	store := &fakeStore{objects: make(map[string][]byte)}
	cfg := &config.Config{MinIOBucket: "blood", MinIOPublicEndpoint: "cdn.example.com", MinIOPublicUseSSL: true}
	return NewService(store, cfg).(*service), store
}

func TestUploadImage(t *testing.T) {
	svc, store := newTestService()
	body := []byte("png-bytes")

	obj, err := svc.UploadImage(context.Background(), "campaigns", int64(len(body)), "image/png", bytes.NewReader(body))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(obj.Key, "campaigns/"))
	assert.True(t, strings.HasSuffix(obj.Key, ".png"))
	assert.Equal(t, "https://cdn.example.com/blood/"+obj.Key, obj.URL)
	assert.Equal(t, body, store.objects[obj.Key])
}

func TestUploadImage_Rejects(t *testing.T) {
	svc, store := newTestService()

	_, err := svc.UploadImage(context.Background(), "blogs", 10, "application/pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.UploadImage(context.Background(), "blogs", MaxImageSize+1, "image/jpeg", strings.NewReader("x"))
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, store.objects)
}

func TestRemove(t *testing.T) {
	svc, store := newTestService()
	obj, err := svc.UploadImage(context.Background(), "blogs", 3, "image/jpeg", strings.NewReader("abc"))
	require.NoError(t, err)

	require.NoError(t, svc.Remove(context.Background(), "https://elsewhere.example.com/x.jpg"))
	assert.Empty(t, store.removed)

	require.NoError(t, svc.Remove(context.Background(), obj.URL))
	assert.Equal(t, []string{obj.Key}, store.removed)
}

func TestUnconfigured(t *testing.T) {
	svc := NewService(nil, &config.Config{MinIOBucket: "blood", MinIOPublicEndpoint: "cdn.example.com"})

	_, err := svc.UploadImage(context.Background(), "blogs", 3, "image/png", strings.NewReader("png"))
	assert.ErrorIs(t, err, ErrUnavailable)

	assert.ErrorIs(t, svc.Remove(context.Background(), svc.PublicURL("blogs/a.png")), ErrUnavailable)
}
