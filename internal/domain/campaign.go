package domain

import (
	"time"

	"github.com/google/uuid"
)

type CampaignStatus string

const (
	CampaignNotStarted CampaignStatus = "NOT_STARTED"
	CampaignActive     CampaignStatus = "ACTIVE"
	CampaignEnded      CampaignStatus = "ENDED"
)

func (s CampaignStatus) IsValid() bool {
	switch s {
	case CampaignNotStarted, CampaignActive, CampaignEnded:
		return true
	default:
		return false
	}
}

type Campaign struct {
	ID                  uuid.UUID      `json:"id" db:"id"`
	Name                string         `json:"name" db:"name"`
	Description         *string        `json:"description,omitempty" db:"description"`
	StartDate           time.Time      `json:"start_date" db:"start_date"`
	EndDate             time.Time      `json:"end_date" db:"end_date"`
	BloodCollectionDate *time.Time     `json:"blood_collection_date,omitempty" db:"blood_collection_date"`
	Location            string         `json:"location" db:"location"`
	LimitDonation       int            `json:"limit_donation" db:"limit_donation"`
	Status              CampaignStatus `json:"status" db:"status"`
	BannerURL           *string        `json:"banner_url,omitempty" db:"banner_url"`
	CreatedBy           uuid.UUID      `json:"created_by" db:"created_by"`
	CreatedAt           time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at" db:"updated_at"`
}

type CreateCampaignInput struct {
	Name                string     `json:"name" validate:"required,min=3"`
	Description         *string    `json:"description,omitempty"`
	StartDate           time.Time  `json:"start_date" validate:"required"`
	EndDate             time.Time  `json:"end_date" validate:"required"`
	BloodCollectionDate *time.Time `json:"blood_collection_date,omitempty"`
	Location            string     `json:"location" validate:"required"`
	LimitDonation       int        `json:"limit_donation" validate:"min=0"`
}

func (in CreateCampaignInput) Validate() error {
	if len(in.Name) < 3 {
		return Validationf("name must be at least 3 characters")
	}
	if in.Location == "" {
		return Validationf("location is required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return Validationf("start_date and end_date are required")
	}
	if in.EndDate.Before(in.StartDate) {
		return Validationf("end_date must not be before start_date")
	}
	if in.LimitDonation < 0 {
		return Validationf("limit_donation must not be negative")
	}
	return nil
}

type UpdateCampaignInput struct {
	Name                *string         `json:"name,omitempty"`
	Description         *string         `json:"description,omitempty"`
	StartDate           *time.Time      `json:"start_date,omitempty"`
	EndDate             *time.Time      `json:"end_date,omitempty"`
	BloodCollectionDate *time.Time      `json:"blood_collection_date,omitempty"`
	Location            *string         `json:"location,omitempty"`
	LimitDonation       *int            `json:"limit_donation,omitempty"`
	Status              *CampaignStatus `json:"status,omitempty"`
}
