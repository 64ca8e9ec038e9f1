package campaign

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blood-donation/internal/config"
	"blood-donation/internal/domain"
	"blood-donation/internal/repository"
	"blood-donation/internal/service/dashboard"
	"blood-donation/internal/service/storage"
)

type Service interface {
	Create(ctx context.Context, staffID uuid.UUID, input domain.CreateCampaignInput) (*domain.Campaign, error)
	Update(ctx context.Context, id uuid.UUID, input domain.UpdateCampaignInput) (*domain.Campaign, error)
	UploadBanner(ctx context.Context, id uuid.UUID, size int64, contentType string, reader io.Reader) (*domain.Campaign, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	List(ctx context.Context, status *domain.CampaignStatus, params domain.PaginationParams) (domain.PaginatedResponse[domain.Campaign], error)
	RefreshStatuses(ctx context.Context, now time.Time) (int64, error)
}

type service struct {
	campaigns repository.CampaignRepository
	storage   storage.Service
	cache     dashboard.Invalidator
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(campaigns repository.CampaignRepository, storage storage.Service, cache dashboard.Invalidator, logger *zap.Logger) Service {
	return &service{
		campaigns: campaigns,
		storage:   storage,
		cache:     cache,
		logger:    logger,
		now:       time.Now,
	}
}

// statusAt derives the status a campaign with these dates has at now.
func statusAt(start, end, now time.Time) domain.CampaignStatus {
	switch {
	case end.Before(now):
		return domain.CampaignEnded
	case !start.After(now):
		return domain.CampaignActive
	default:
		return domain.CampaignNotStarted
	}
}

func (s *service) Create(ctx context.Context, staffID uuid.UUID, input domain.CreateCampaignInput) (*domain.Campaign, error) {
	if staffID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	if input.EndDate.Before(now) {
		return nil, domain.Validationf("end_date must not be in the past")
	}

	campaign := &domain.Campaign{
		ID:                  uuid.New(),
		Name:                input.Name,
		Description:         input.Description,
		StartDate:           input.StartDate,
		EndDate:             input.EndDate,
		BloodCollectionDate: input.BloodCollectionDate,
		Location:            input.Location,
		LimitDonation:       input.LimitDonation,
		Status:              statusAt(input.StartDate, input.EndDate, now),
		CreatedBy:           staffID,
	}
	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return campaign, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input domain.UpdateCampaignInput) (*domain.Campaign, error) {
	campaign, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.Status == domain.CampaignEnded {
		return nil, fmt.Errorf("%w: campaign has ended", domain.ErrInvalidTransition)
	}

	if input.Name != nil {
		if len(*input.Name) < 3 {
			return nil, domain.Validationf("name must be at least 3 characters")
		}
		campaign.Name = *input.Name
	}
	if input.Description != nil {
		campaign.Description = input.Description
	}
	if input.Location != nil {
		if *input.Location == "" {
			return nil, domain.Validationf("location is required")
		}
		campaign.Location = *input.Location
	}
	if input.LimitDonation != nil {
		if *input.LimitDonation < 0 {
			return nil, domain.Validationf("limit_donation must not be negative")
		}
		campaign.LimitDonation = *input.LimitDonation
	}
	if input.BloodCollectionDate != nil {
		campaign.BloodCollectionDate = input.BloodCollectionDate
	}

	datesChanged := false
	if input.StartDate != nil {
		campaign.StartDate = *input.StartDate
		datesChanged = true
	}
	if input.EndDate != nil {
		campaign.EndDate = *input.EndDate
		datesChanged = true
	}
	if campaign.EndDate.Before(campaign.StartDate) {
		return nil, domain.Validationf("end_date must not be before start_date")
	}

	switch {
	case input.Status != nil:
		if !input.Status.IsValid() {
			return nil, domain.Validationf("unknown campaign status %q", *input.Status)
		}
		campaign.Status = *input.Status
	case datesChanged:
		campaign.Status = statusAt(campaign.StartDate, campaign.EndDate, s.now())
	}

	if err := s.campaigns.Update(ctx, campaign); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return campaign, nil
}

func (s *service) UploadBanner(ctx context.Context, id uuid.UUID, size int64, contentType string, reader io.Reader) (*domain.Campaign, error) {
	campaign, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	obj, err := s.storage.UploadImage(ctx, config.CampaignImagePrefix, size, contentType, reader)
	if err != nil {
		return nil, err
	}

	previous := campaign.BannerURL
	campaign.BannerURL = &obj.URL
	if err := s.campaigns.Update(ctx, campaign); err != nil {
		_ = s.storage.Remove(ctx, obj.URL)
		return nil, err
	}

	if previous != nil {
		if err := s.storage.Remove(ctx, *previous); err != nil {
			s.logger.Warn("Failed to remove old campaign banner", zap.String("campaign_id", id.String()), zap.Error(err))
		}
	}
	return campaign, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	campaign, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, domain.ErrCampaignNotFound
	}
	return campaign, nil
}

func (s *service) List(ctx context.Context, status *domain.CampaignStatus, params domain.PaginationParams) (domain.PaginatedResponse[domain.Campaign], error) {
	params.Validate()
	if status != nil && !status.IsValid() {
		return domain.PaginatedResponse[domain.Campaign]{}, domain.Validationf("unknown campaign status %q", *status)
	}
	items, total, err := s.campaigns.List(ctx, status, params)
	if err != nil {
		return domain.PaginatedResponse[domain.Campaign]{}, err
	}
	return domain.NewPaginatedResponse(items, params, total), nil
}

// RefreshStatuses moves campaigns to ACTIVE or ENDED once their dates pass.
func (s *service) RefreshStatuses(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.campaigns.RefreshStatuses(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Refreshed campaign statuses", zap.Int64("count", n))
		s.invalidate(ctx)
	}
	return n, nil
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
