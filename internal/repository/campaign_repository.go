package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"blood-donation/internal/domain"
)

type CampaignRepository interface {
	Create(ctx context.Context, campaign *domain.Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	Update(ctx context.Context, campaign *domain.Campaign) error
	List(ctx context.Context, status *domain.CampaignStatus, params domain.PaginationParams) ([]domain.Campaign, int64, error)
	// RefreshStatuses moves campaigns along NOT_STARTED -> ACTIVE -> ENDED by
	// their dates and returns how many rows changed.
	RefreshStatuses(ctx context.Context, now time.Time) (int64, error)
}

type campaignRepository struct {
	db dbtx
}

func NewCampaignRepository(db dbtx) CampaignRepository {
	return &campaignRepository{db: db}
}

const campaignColumns = `id, name, description, start_date, end_date, blood_collection_date, location,
	limit_donation, status, banner_url, created_by, created_at, updated_at`

func (r *campaignRepository) Create(ctx context.Context, campaign *domain.Campaign) error {
	query := `
		INSERT INTO campaigns (id, name, description, start_date, end_date, blood_collection_date,
			location, limit_donation, status, banner_url, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		campaign.ID, campaign.Name, campaign.Description, campaign.StartDate, campaign.EndDate,
		campaign.BloodCollectionDate, campaign.Location, campaign.LimitDonation, campaign.Status,
		campaign.BannerURL, campaign.CreatedBy,
	).Scan(&campaign.CreatedAt, &campaign.UpdatedAt)
}

func (r *campaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	return r.get(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id)
}

func (r *campaignRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	return r.get(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1 FOR UPDATE`, id)
}

func (r *campaignRepository) get(ctx context.Context, query string, id uuid.UUID) (*domain.Campaign, error) {
	var campaign domain.Campaign
	err := r.db.GetContext(ctx, &campaign, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *campaignRepository) Update(ctx context.Context, campaign *domain.Campaign) error {
	query := `
		UPDATE campaigns
		SET name = $2, description = $3, start_date = $4, end_date = $5, blood_collection_date = $6,
			location = $7, limit_donation = $8, status = $9, banner_url = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	return r.db.QueryRowxContext(ctx, query,
		campaign.ID, campaign.Name, campaign.Description, campaign.StartDate, campaign.EndDate,
		campaign.BloodCollectionDate, campaign.Location, campaign.LimitDonation, campaign.Status,
		campaign.BannerURL,
	).Scan(&campaign.UpdatedAt)
}

func (r *campaignRepository) List(ctx context.Context, status *domain.CampaignStatus, params domain.PaginationParams) ([]domain.Campaign, int64, error) {
	params.Validate()

	var total int64
	var campaigns []domain.Campaign

	if status != nil {
		countQuery := `SELECT COUNT(*) FROM campaigns WHERE status = $1`
		if err := r.db.GetContext(ctx, &total, countQuery, *status); err != nil {
			return nil, 0, err
		}
		query := `
			SELECT ` + campaignColumns + ` FROM campaigns
			WHERE status = $1
			ORDER BY start_date DESC
			LIMIT $2 OFFSET $3`
		err := r.db.SelectContext(ctx, &campaigns, query, *status, params.PageSize, params.Offset())
		return campaigns, total, err
	}

	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM campaigns`); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + campaignColumns + ` FROM campaigns
		ORDER BY start_date DESC
		LIMIT $1 OFFSET $2`
	err := r.db.SelectContext(ctx, &campaigns, query, params.PageSize, params.Offset())
	return campaigns, total, err
}

func (r *campaignRepository) RefreshStatuses(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE campaigns
		SET status = CASE
				WHEN end_date < $1 THEN $2
				WHEN start_date <= $1 THEN $3
				ELSE status
			END,
			updated_at = NOW()
		WHERE status <> $2
			AND (end_date < $1 OR (status = $4 AND start_date <= $1))`

	res, err := r.db.ExecContext(ctx, query, now,
		domain.CampaignEnded, domain.CampaignActive, domain.CampaignNotStarted)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
