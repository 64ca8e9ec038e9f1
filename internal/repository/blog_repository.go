package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"blood-donation/internal/domain"
)

type BlogRepository interface {
	Create(ctx context.Context, blog *domain.Blog) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Blog, error)
	Update(ctx context.Context, blog *domain.Blog) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, status *domain.BlogStatus, params domain.PaginationParams) ([]domain.Blog, int64, error)
}

type blogRepository struct {
	db dbtx
}

func NewBlogRepository(db dbtx) BlogRepository {
	return &blogRepository{db: db}
}

const blogColumns = `id, account_id, title, content, image_url, status, created_at, updated_at`

func (r *blogRepository) Create(ctx context.Context, blog *domain.Blog) error {
	query := `
		INSERT INTO blogs (id, account_id, title, content, image_url, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		blog.ID, blog.AccountID, blog.Title, blog.Content, blog.ImageURL, blog.Status,
	).Scan(&blog.CreatedAt, &blog.UpdatedAt)
}

func (r *blogRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Blog, error) {
	var blog domain.Blog
	err := r.db.GetContext(ctx, &blog, `SELECT `+blogColumns+` FROM blogs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &blog, nil
}

func (r *blogRepository) Update(ctx context.Context, blog *domain.Blog) error {
	query := `
		UPDATE blogs
		SET title = $2, content = $3, image_url = $4, status = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	return r.db.QueryRowxContext(ctx, query,
		blog.ID, blog.Title, blog.Content, blog.ImageURL, blog.Status,
	).Scan(&blog.UpdatedAt)
}

func (r *blogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = $1`, id)
	return err
}

func (r *blogRepository) List(ctx context.Context, status *domain.BlogStatus, params domain.PaginationParams) ([]domain.Blog, int64, error) {
	params.Validate()

	var total int64
	var blogs []domain.Blog

	if status != nil {
		if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM blogs WHERE status = $1`, *status); err != nil {
			return nil, 0, err
		}
		query := `
			SELECT ` + blogColumns + ` FROM blogs
			WHERE status = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3`
		err := r.db.SelectContext(ctx, &blogs, query, *status, params.PageSize, params.Offset())
		return blogs, total, err
	}

	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM blogs`); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + blogColumns + ` FROM blogs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	err := r.db.SelectContext(ctx, &blogs, query, params.PageSize, params.Offset())
	return blogs, total, err
}
