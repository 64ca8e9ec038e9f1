package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"blood-donation/internal/service/storage"
)

type StorageService struct {
	mock.Mock
}

func (m *StorageService) UploadImage(ctx context.Context, prefix string, size int64, contentType string, reader io.Reader) (*storage.Object, error) {
	args := m.Called(ctx, prefix, size, contentType, reader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Object), args.Error(1)
}

func (m *StorageService) Remove(ctx context.Context, publicURL string) error {
	args := m.Called(ctx, publicURL)
	return args.Error(0)
}

func (m *StorageService) PublicURL(key string) string {
	args := m.Called(key)
	return args.String(0)
}
