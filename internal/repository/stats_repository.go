package repository

import (
	"context"
	"time"

	"blood-donation/internal/domain"
)

type StatsRepository interface {
	BloodUnitsByStatus(ctx context.Context) ([]domain.StatusCount, error)
	AvailableInventory(ctx context.Context, now time.Time) ([]domain.InventoryVolume, error)
	EmergencyRequestsByStatus(ctx context.Context) ([]domain.StatusCount, error)
	DonationsByStatus(ctx context.Context) ([]domain.StatusCount, error)
	CountCustomers(ctx context.Context) (int64, error)
	CountActiveCampaigns(ctx context.Context) (int64, error)
}

type statsRepository struct {
	db dbtx
}

func NewStatsRepository(db dbtx) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) BloodUnitsByStatus(ctx context.Context) ([]domain.StatusCount, error) {
	return r.countBy(ctx, `SELECT status, COUNT(*) AS count FROM blood_units GROUP BY status ORDER BY status`)
}

func (r *statsRepository) EmergencyRequestsByStatus(ctx context.Context) ([]domain.StatusCount, error) {
	return r.countBy(ctx, `SELECT status, COUNT(*) AS count FROM emergency_requests GROUP BY status ORDER BY status`)
}

func (r *statsRepository) DonationsByStatus(ctx context.Context) ([]domain.StatusCount, error) {
	return r.countBy(ctx, `
		SELECT current_status AS status, COUNT(*) AS count
		FROM campaign_donations
		GROUP BY current_status
		ORDER BY current_status`)
}

func (r *statsRepository) countBy(ctx context.Context, query string) ([]domain.StatusCount, error) {
	var counts []domain.StatusCount
	err := r.db.SelectContext(ctx, &counts, query)
	return counts, err
}

func (r *statsRepository) AvailableInventory(ctx context.Context, now time.Time) ([]domain.InventoryVolume, error) {
	query := `
		SELECT blood_group, blood_rh, blood_component_type,
			COUNT(*) AS units, COALESCE(SUM(remaining_volume), 0) AS volume
		FROM blood_units
		WHERE status = $1 AND expired_date > $2
		GROUP BY blood_group, blood_rh, blood_component_type
		ORDER BY blood_group, blood_rh, blood_component_type`

	var rows []domain.InventoryVolume
	err := r.db.SelectContext(ctx, &rows, query, domain.UnitAvailable, now)
	return rows, err
}

func (r *statsRepository) CountCustomers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM accounts WHERE role = $1 AND is_active = true`, domain.RoleCustomer)
	return count, err
}

func (r *statsRepository) CountActiveCampaigns(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM campaigns WHERE status = $1`, domain.CampaignActive)
	return count, err
}
