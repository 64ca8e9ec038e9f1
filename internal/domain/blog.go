package domain

import (
	"time"

	"github.com/google/uuid"
)

type BlogStatus string

const (
	BlogDraft     BlogStatus = "DRAFT"
	BlogPublished BlogStatus = "PUBLISHED"
)

func (s BlogStatus) IsValid() bool {
	return s == BlogDraft || s == BlogPublished
}

type Blog struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	AccountID uuid.UUID  `json:"account_id" db:"account_id"`
	Title     string     `json:"title" db:"title"`
	Content   string     `json:"content" db:"content"`
	ImageURL  *string    `json:"image_url,omitempty" db:"image_url"`
	Status    BlogStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

type CreateBlogInput struct {
	Title   string      `json:"title" validate:"required,min=3,max=255"`
	Content string      `json:"content" validate:"required"`
	Status  *BlogStatus `json:"status,omitempty" validate:"omitempty,oneof=DRAFT PUBLISHED"`
}

func (in CreateBlogInput) Validate() error {
	if len(in.Title) < 3 || len(in.Title) > 255 {
		return Validationf("title must be between 3 and 255 characters")
	}
	if in.Content == "" {
		return Validationf("content is required")
	}
	if in.Status != nil && !in.Status.IsValid() {
		return Validationf("unknown blog status %q", *in.Status)
	}
	return nil
}

type UpdateBlogInput struct {
	Title   *string     `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Content *string     `json:"content,omitempty"`
	Status  *BlogStatus `json:"status,omitempty" validate:"omitempty,oneof=DRAFT PUBLISHED"`
}
