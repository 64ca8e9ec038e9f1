package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"blood-donation/internal/domain"
)

type CustomerRepository interface {
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*domain.Customer, error)
	Upsert(ctx context.Context, customer *domain.Customer) error
	// ListContactsByBloodTypes returns active customers of the given types
	// joined with their account contact data.
	ListContactsByBloodTypes(ctx context.Context, types []domain.BloodType) ([]domain.CustomerContact, error)
	TouchLastDonation(ctx context.Context, accountID uuid.UUID, at time.Time) error
}

type customerRepository struct {
	db dbtx
}

func NewCustomerRepository(db dbtx) CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = `c.account_id, c.blood_group, c.blood_rh, c.phone, c.gender, c.date_of_birth,
	c.ward_name, c.district_name, c.province_name, c.longitude, c.latitude,
	c.last_donation_date, c.created_at, c.updated_at`

func (r *customerRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*domain.Customer, error) {
	var customer domain.Customer
	query := `SELECT ` + customerColumns + ` FROM customers c WHERE c.account_id = $1`

	err := r.db.GetContext(ctx, &customer, query, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) Upsert(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (account_id, blood_group, blood_rh, phone, gender, date_of_birth,
			ward_name, district_name, province_name, longitude, latitude, last_donation_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (account_id) DO UPDATE
		SET blood_group = EXCLUDED.blood_group, blood_rh = EXCLUDED.blood_rh,
			phone = EXCLUDED.phone, gender = EXCLUDED.gender, date_of_birth = EXCLUDED.date_of_birth,
			ward_name = EXCLUDED.ward_name, district_name = EXCLUDED.district_name,
			province_name = EXCLUDED.province_name, longitude = EXCLUDED.longitude,
			latitude = EXCLUDED.latitude, last_donation_date = EXCLUDED.last_donation_date,
			updated_at = NOW()
		RETURNING created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		customer.AccountID, customer.BloodGroup, customer.BloodRh, customer.Phone, customer.Gender,
		customer.DateOfBirth, customer.WardName, customer.DistrictName, customer.ProvinceName,
		customer.Longitude, customer.Latitude, customer.LastDonationDate,
	).Scan(&customer.CreatedAt, &customer.UpdatedAt)
}

func (r *customerRepository) ListContactsByBloodTypes(ctx context.Context, types []domain.BloodType) ([]domain.CustomerContact, error) {
	if len(types) == 0 {
		return []domain.CustomerContact{}, nil
	}
	query := `
		SELECT ` + customerColumns + `, a.email, a.first_name, a.last_name
		FROM customers c
		JOIN accounts a ON a.id = c.account_id
		WHERE a.is_active = true
			AND (c.blood_group || ':' || c.blood_rh) = ANY($1)`

	var contacts []domain.CustomerContact
	err := r.db.SelectContext(ctx, &contacts, query, pq.Array(bloodTypeKeys(types)))
	return contacts, err
}

func (r *customerRepository) TouchLastDonation(ctx context.Context, accountID uuid.UUID, at time.Time) error {
	query := `UPDATE customers SET last_donation_date = $2, updated_at = NOW() WHERE account_id = $1`
	_, err := r.db.ExecContext(ctx, query, accountID, at)
	return err
}
