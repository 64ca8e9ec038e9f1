package repository

import (
	"context"

	"github.com/google/uuid"

	"blood-donation/internal/domain"
)

type BloodUnitActionRepository interface {
	Create(ctx context.Context, action *domain.BloodUnitAction) error
	ListByUnit(ctx context.Context, unitID uuid.UUID) ([]domain.BloodUnitAction, error)
}

type bloodUnitActionRepository struct {
	db dbtx
}

func NewBloodUnitActionRepository(db dbtx) BloodUnitActionRepository {
	return &bloodUnitActionRepository{db: db}
}

func (r *bloodUnitActionRepository) Create(ctx context.Context, action *domain.BloodUnitAction) error {
	query := `
		INSERT INTO blood_unit_actions (id, blood_unit_id, staff_id, action, previous_value, new_value, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	return r.db.QueryRowxContext(ctx, query,
		action.ID, action.BloodUnitID, action.StaffID, action.Action,
		nullableJSON(action.PreviousValue), nullableJSON(action.NewValue), action.Description,
	).Scan(&action.CreatedAt)
}

func (r *bloodUnitActionRepository) ListByUnit(ctx context.Context, unitID uuid.UUID) ([]domain.BloodUnitAction, error) {
	query := `
		SELECT id, blood_unit_id, staff_id, action,
			COALESCE(previous_value, 'null'::jsonb) AS previous_value,
			COALESCE(new_value, 'null'::jsonb) AS new_value,
			description, created_at
		FROM blood_unit_actions
		WHERE blood_unit_id = $1
		ORDER BY created_at ASC`

	var actions []domain.BloodUnitAction
	err := r.db.SelectContext(ctx, &actions, query, unitID)
	return actions, err
}

// nullableJSON stores an empty payload as NULL rather than invalid JSONB.
func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
