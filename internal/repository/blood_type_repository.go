package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"blood-donation/internal/domain"
)

type BloodTypeRepository interface {
	List(ctx context.Context) ([]domain.BloodType, error)
	// Seed inserts the blood type registry and replaces the compatibility
	// table with pairs, all in one transaction.
	Seed(ctx context.Context, types []domain.BloodType, pairs []domain.BloodCompatibility) error
}

type bloodTypeRepository struct {
	db *sqlx.DB
}

func NewBloodTypeRepository(db *sqlx.DB) BloodTypeRepository {
	return &bloodTypeRepository{db: db}
}

func (r *bloodTypeRepository) List(ctx context.Context) ([]domain.BloodType, error) {
	var types []domain.BloodType
	err := r.db.SelectContext(ctx, &types, `SELECT blood_group, blood_rh FROM blood_types ORDER BY blood_group, blood_rh DESC`)
	return types, err
}

func (r *bloodTypeRepository) Seed(ctx context.Context, types []domain.BloodType, pairs []domain.BloodCompatibility) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, t := range types {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO blood_types (blood_group, blood_rh) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			t.Group, t.Rh)
		if err != nil {
			return fmt.Errorf("seed blood type %s: %w", t, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM blood_compatibilities`); err != nil {
		return fmt.Errorf("clear compatibilities: %w", err)
	}
	for _, p := range pairs {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO blood_compatibilities (donor_blood_group, donor_blood_rh,
				recipient_blood_group, recipient_blood_rh, blood_component_type)
			VALUES (:donor_blood_group, :donor_blood_rh, :recipient_blood_group, :recipient_blood_rh, :blood_component_type)`, p)
		if err != nil {
			return fmt.Errorf("insert compatibility %s -> %s (%s): %w", p.Donor(), p.Recipient(), p.ComponentType, err)
		}
	}

	return tx.Commit()
}
