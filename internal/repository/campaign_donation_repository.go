package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"blood-donation/internal/domain"
)

// Statuses that no longer hold a seat in a campaign.
var releasedDonationStatuses = []string{
	string(domain.DonationAppointmentCancelled),
	string(domain.DonationCustomerCancelled),
}

type CampaignDonationRepository interface {
	Create(ctx context.Context, donation *domain.CampaignDonation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CampaignDonation, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.CampaignDonation, error)
	GetByCampaignAndDonor(ctx context.Context, campaignID, donorID uuid.UUID) (*domain.CampaignDonation, error)
	UpdateStatus(ctx context.Context, donation *domain.CampaignDonation) error
	// MarkBloodUnitCreated links the unit only if none was linked before and
	// reports whether this call won.
	MarkBloodUnitCreated(ctx context.Context, id, unitID uuid.UUID) (bool, error)
	CountActiveByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, params domain.PaginationParams) ([]domain.CampaignDonation, int64, error)
	ListByDonor(ctx context.Context, donorID uuid.UUID, params domain.PaginationParams) ([]domain.CampaignDonation, int64, error)
}

type campaignDonationRepository struct {
	db dbtx
}

func NewCampaignDonationRepository(db dbtx) CampaignDonationRepository {
	return &campaignDonationRepository{db: db}
}

const donationColumns = `id, campaign_id, donor_id, current_status, appointment_date, volume,
	is_blood_unit_created, blood_unit_id, note, created_at, updated_at`

func (r *campaignDonationRepository) Create(ctx context.Context, donation *domain.CampaignDonation) error {
	query := `
		INSERT INTO campaign_donations (id, campaign_id, donor_id, current_status, appointment_date, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		donation.ID, donation.CampaignID, donation.DonorID, donation.CurrentStatus,
		donation.AppointmentDate, donation.Note,
	).Scan(&donation.CreatedAt, &donation.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	return err
}

func (r *campaignDonationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CampaignDonation, error) {
	return r.get(ctx, `SELECT `+donationColumns+` FROM campaign_donations WHERE id = $1`, id)
}

func (r *campaignDonationRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.CampaignDonation, error) {
	return r.get(ctx, `SELECT `+donationColumns+` FROM campaign_donations WHERE id = $1 FOR UPDATE`, id)
}

func (r *campaignDonationRepository) GetByCampaignAndDonor(ctx context.Context, campaignID, donorID uuid.UUID) (*domain.CampaignDonation, error) {
	return r.get(ctx, `SELECT `+donationColumns+` FROM campaign_donations WHERE campaign_id = $1 AND donor_id = $2`,
		campaignID, donorID)
}

func (r *campaignDonationRepository) get(ctx context.Context, query string, args ...interface{}) (*domain.CampaignDonation, error) {
	var donation domain.CampaignDonation
	err := r.db.GetContext(ctx, &donation, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &donation, nil
}

func (r *campaignDonationRepository) UpdateStatus(ctx context.Context, donation *domain.CampaignDonation) error {
	query := `
		UPDATE campaign_donations
		SET current_status = $2, volume = $3, note = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	return r.db.QueryRowxContext(ctx, query,
		donation.ID, donation.CurrentStatus, donation.Volume, donation.Note,
	).Scan(&donation.UpdatedAt)
}

func (r *campaignDonationRepository) MarkBloodUnitCreated(ctx context.Context, id, unitID uuid.UUID) (bool, error) {
	query := `
		UPDATE campaign_donations
		SET is_blood_unit_created = true, blood_unit_id = $2, updated_at = NOW()
		WHERE id = $1 AND is_blood_unit_created = false`

	res, err := r.db.ExecContext(ctx, query, id, unitID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *campaignDonationRepository) CountActiveByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	var total int64
	query := `SELECT COUNT(*) FROM campaign_donations WHERE campaign_id = $1 AND NOT (current_status = ANY($2))`
	err := r.db.GetContext(ctx, &total, query, campaignID, pq.Array(releasedDonationStatuses))
	return total, err
}

func (r *campaignDonationRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID, params domain.PaginationParams) ([]domain.CampaignDonation, int64, error) {
	return r.list(ctx, "campaign_id", campaignID, params)
}

func (r *campaignDonationRepository) ListByDonor(ctx context.Context, donorID uuid.UUID, params domain.PaginationParams) ([]domain.CampaignDonation, int64, error) {
	return r.list(ctx, "donor_id", donorID, params)
}

func (r *campaignDonationRepository) list(ctx context.Context, column string, id uuid.UUID, params domain.PaginationParams) ([]domain.CampaignDonation, int64, error) {
	params.Validate()

	var total int64
	countQuery := `SELECT COUNT(*) FROM campaign_donations WHERE ` + column + ` = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, id); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + donationColumns + ` FROM campaign_donations
		WHERE ` + column + ` = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var donations []domain.CampaignDonation
	err := r.db.SelectContext(ctx, &donations, query, id, params.PageSize, params.Offset())
	return donations, total, err
}

// isUniqueViolation reports a Postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
