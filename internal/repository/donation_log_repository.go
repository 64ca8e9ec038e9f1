package repository

import (
	"context"

	"github.com/google/uuid"

	"blood-donation/internal/domain"
)

type DonationLogRepository interface {
	Create(ctx context.Context, log *domain.CampaignDonationLog) error
	ListByDonation(ctx context.Context, donationID uuid.UUID) ([]domain.CampaignDonationLog, error)
}

type donationLogRepository struct {
	db dbtx
}

func NewDonationLogRepository(db dbtx) DonationLogRepository {
	return &donationLogRepository{db: db}
}

func (r *donationLogRepository) Create(ctx context.Context, log *domain.CampaignDonationLog) error {
	query := `
		INSERT INTO campaign_donation_logs (id, campaign_donation_id, staff_id, previous_status, status, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	return r.db.QueryRowxContext(ctx, query,
		log.ID, log.CampaignDonationID, log.StaffID, log.PreviousStatus, log.Status, log.Note,
	).Scan(&log.CreatedAt)
}

func (r *donationLogRepository) ListByDonation(ctx context.Context, donationID uuid.UUID) ([]domain.CampaignDonationLog, error) {
	query := `
		SELECT id, campaign_donation_id, staff_id, previous_status, status, note, created_at
		FROM campaign_donation_logs
		WHERE campaign_donation_id = $1
		ORDER BY created_at ASC`

	var logs []domain.CampaignDonationLog
	err := r.db.SelectContext(ctx, &logs, query, donationID)
	return logs, err
}
