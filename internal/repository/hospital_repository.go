package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"blood-donation/internal/domain"
)

type HospitalRepository interface {
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*domain.Hospital, error)
	Upsert(ctx context.Context, hospital *domain.Hospital) error
}

type hospitalRepository struct {
	db dbtx
}

func NewHospitalRepository(db dbtx) HospitalRepository {
	return &hospitalRepository{db: db}
}

func (r *hospitalRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*domain.Hospital, error) {
	var hospital domain.Hospital
	query := `
		SELECT account_id, name, phone, ward_name, district_name, province_name, longitude, latitude,
			created_at, updated_at
		FROM hospitals WHERE account_id = $1`

	err := r.db.GetContext(ctx, &hospital, query, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &hospital, nil
}

func (r *hospitalRepository) Upsert(ctx context.Context, hospital *domain.Hospital) error {
	query := `
		INSERT INTO hospitals (account_id, name, phone, ward_name, district_name, province_name, longitude, latitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (account_id) DO UPDATE
		SET name = EXCLUDED.name, phone = EXCLUDED.phone, ward_name = EXCLUDED.ward_name,
			district_name = EXCLUDED.district_name, province_name = EXCLUDED.province_name,
			longitude = EXCLUDED.longitude, latitude = EXCLUDED.latitude, updated_at = NOW()
		RETURNING created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		hospital.AccountID, hospital.Name, hospital.Phone, hospital.WardName, hospital.DistrictName,
		hospital.ProvinceName, hospital.Longitude, hospital.Latitude,
	).Scan(&hospital.CreatedAt, &hospital.UpdatedAt)
}
