package blog

import (
	"context"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blood-donation/internal/config"
	"blood-donation/internal/domain"
	"blood-donation/internal/repository"
	"blood-donation/internal/service/storage"
)

type Service interface {
	Create(ctx context.Context, authorID uuid.UUID, input domain.CreateBlogInput) (*domain.Blog, error)
	Update(ctx context.Context, id uuid.UUID, input domain.UpdateBlogInput) (*domain.Blog, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UploadImage(ctx context.Context, id uuid.UUID, size int64, contentType string, reader io.Reader) (*domain.Blog, error)
	// Get hides drafts unless includeDrafts is set.
	Get(ctx context.Context, id uuid.UUID, includeDrafts bool) (*domain.Blog, error)
	List(ctx context.Context, status *domain.BlogStatus, params domain.PaginationParams) (domain.PaginatedResponse[domain.Blog], error)
}

type service struct {
	blogs   repository.BlogRepository
	storage storage.Service
	logger  *zap.Logger
}

func NewService(blogs repository.BlogRepository, storage storage.Service, logger *zap.Logger) Service {
	return &service{blogs: blogs, storage: storage, logger: logger}
}

func (s *service) Create(ctx context.Context, authorID uuid.UUID, input domain.CreateBlogInput) (*domain.Blog, error) {
	if authorID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	status := domain.BlogDraft
	if input.Status != nil {
		status = *input.Status
	}
	blog := &domain.Blog{
		ID:        uuid.New(),
		AccountID: authorID,
		Title:     input.Title,
		Content:   input.Content,
		Status:    status,
	}
	if err := s.blogs.Create(ctx, blog); err != nil {
		return nil, err
	}
	return blog, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input domain.UpdateBlogInput) (*domain.Blog, error) {
	blog, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if len(*input.Title) < 3 || len(*input.Title) > 255 {
			return nil, domain.Validationf("title must be between 3 and 255 characters")
		}
		blog.Title = *input.Title
	}
	if input.Content != nil {
		if *input.Content == "" {
			return nil, domain.Validationf("content is required")
		}
		blog.Content = *input.Content
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, domain.Validationf("unknown blog status %q", *input.Status)
		}
		blog.Status = *input.Status
	}

	if err := s.blogs.Update(ctx, blog); err != nil {
		return nil, err
	}
	return blog, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	blog, err := s.Get(ctx, id, true)
	if err != nil {
		return err
	}
	if err := s.blogs.Delete(ctx, id); err != nil {
		return err
	}
	if blog.ImageURL != nil {
		if err := s.storage.Remove(ctx, *blog.ImageURL); err != nil {
			s.logger.Warn("Failed to remove blog image", zap.String("blog_id", id.String()), zap.Error(err))
		}
	}
	return nil
}

func (s *service) UploadImage(ctx context.Context, id uuid.UUID, size int64, contentType string, reader io.Reader) (*domain.Blog, error) {
	blog, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}

	obj, err := s.storage.UploadImage(ctx, config.BlogImagePrefix, size, contentType, reader)
	if err != nil {
		return nil, err
	}

	previous := blog.ImageURL
	blog.ImageURL = &obj.URL
	if err := s.blogs.Update(ctx, blog); err != nil {
		_ = s.storage.Remove(ctx, obj.URL)
		return nil, err
	}
	if previous != nil {
		if err := s.storage.Remove(ctx, *previous); err != nil {
			s.logger.Warn("Failed to remove old blog image", zap.String("blog_id", id.String()), zap.Error(err))
		}
	}
	return blog, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID, includeDrafts bool) (*domain.Blog, error) {
	blog, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if blog == nil || (!includeDrafts && blog.Status != domain.BlogPublished) {
		return nil, domain.ErrBlogNotFound
	}
	return blog, nil
}

func (s *service) List(ctx context.Context, status *domain.BlogStatus, params domain.PaginationParams) (domain.PaginatedResponse[domain.Blog], error) {
	params.Validate()
	blogs, total, err := s.blogs.List(ctx, status, params)
	if err != nil {
		return domain.PaginatedResponse[domain.Blog]{}, err
	}
	return domain.NewPaginatedResponse(blogs, params, total), nil
}
