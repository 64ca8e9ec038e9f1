package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"blood-donation/internal/domain"
)

type BloodUnitRepository interface {
	Create(ctx context.Context, unit *domain.BloodUnit) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.BloodUnit, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.BloodUnit, error)
	Update(ctx context.Context, unit *domain.BloodUnit) error
	List(ctx context.Context, filter domain.BloodUnitFilter, params domain.PaginationParams) ([]domain.BloodUnit, int64, error)
	ListAvailableByTypes(ctx context.Context, types []domain.BloodType, component domain.ComponentType, now time.Time) ([]domain.BloodUnit, error)
	// ListExpiredForUpdate locks up to limit non-terminal units whose expiry
	// has passed, skipping rows another sweeper already holds.
	ListExpiredForUpdate(ctx context.Context, now time.Time, limit int) ([]domain.BloodUnit, error)
}

type bloodUnitRepository struct {
	db dbtx
}

func NewBloodUnitRepository(db dbtx) BloodUnitRepository {
	return &bloodUnitRepository{db: db}
}

const bloodUnitColumns = `id, member_id, blood_group, blood_rh, blood_component_type, volume,
	remaining_volume, expired_date, status, parent_id, created_at, updated_at`

func (r *bloodUnitRepository) Create(ctx context.Context, unit *domain.BloodUnit) error {
	query := `
		INSERT INTO blood_units (id, member_id, blood_group, blood_rh, blood_component_type,
			volume, remaining_volume, expired_date, status, parent_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		unit.ID, unit.MemberID, unit.Group, unit.Rh, unit.ComponentType,
		unit.Volume, unit.RemainingVolume, unit.ExpiredDate, unit.Status, unit.ParentID,
	).Scan(&unit.CreatedAt, &unit.UpdatedAt)
}

func (r *bloodUnitRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.BloodUnit, error) {
	return r.get(ctx, `SELECT `+bloodUnitColumns+` FROM blood_units WHERE id = $1`, id)
}

func (r *bloodUnitRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.BloodUnit, error) {
	return r.get(ctx, `SELECT `+bloodUnitColumns+` FROM blood_units WHERE id = $1 FOR UPDATE`, id)
}

func (r *bloodUnitRepository) get(ctx context.Context, query string, id uuid.UUID) (*domain.BloodUnit, error) {
	var unit domain.BloodUnit
	err := r.db.GetContext(ctx, &unit, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *bloodUnitRepository) Update(ctx context.Context, unit *domain.BloodUnit) error {
	query := `
		UPDATE blood_units
		SET status = $2, remaining_volume = $3, expired_date = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	return r.db.QueryRowxContext(ctx, query,
		unit.ID, unit.Status, unit.RemainingVolume, unit.ExpiredDate,
	).Scan(&unit.UpdatedAt)
}

func (r *bloodUnitRepository) List(ctx context.Context, filter domain.BloodUnitFilter, params domain.PaginationParams) ([]domain.BloodUnit, int64, error) {
	params.Validate()

	where := []string{"1 = 1"}
	args := []interface{}{}
	argN := 1

	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argN))
		args = append(args, *filter.Status)
		argN++
	}
	if filter.ComponentType != nil {
		where = append(where, fmt.Sprintf("blood_component_type = $%d", argN))
		args = append(args, *filter.ComponentType)
		argN++
	}
	if filter.BloodGroup != nil {
		where = append(where, fmt.Sprintf("blood_group = $%d", argN))
		args = append(args, *filter.BloodGroup)
		argN++
	}
	if filter.BloodRh != nil {
		where = append(where, fmt.Sprintf("blood_rh = $%d", argN))
		args = append(args, *filter.BloodRh)
		argN++
	}
	if filter.MemberID != nil {
		where = append(where, fmt.Sprintf("member_id = $%d", argN))
		args = append(args, *filter.MemberID)
		argN++
	}
	clause := strings.Join(where, " AND ")

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM blood_units WHERE `+clause, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM blood_units
		WHERE %s
		ORDER BY expired_date ASC, created_at DESC
		LIMIT $%d OFFSET $%d`, bloodUnitColumns, clause, argN, argN+1)

	var units []domain.BloodUnit
	err := r.db.SelectContext(ctx, &units, query, append(args, params.PageSize, params.Offset())...)
	return units, total, err
}

// ListAvailableByTypes returns usable units soonest-expiring first.
func (r *bloodUnitRepository) ListAvailableByTypes(ctx context.Context, types []domain.BloodType, component domain.ComponentType, now time.Time) ([]domain.BloodUnit, error) {
	if len(types) == 0 {
		return []domain.BloodUnit{}, nil
	}
	query := `
		SELECT ` + bloodUnitColumns + ` FROM blood_units
		WHERE status = $1
			AND blood_component_type = $2
			AND expired_date > $3
			AND remaining_volume > 0
			AND (blood_group || ':' || blood_rh) = ANY($4)
		ORDER BY expired_date ASC`

	var units []domain.BloodUnit
	err := r.db.SelectContext(ctx, &units, query,
		domain.UnitAvailable, component, now, pq.Array(bloodTypeKeys(types)))
	return units, err
}

func (r *bloodUnitRepository) ListExpiredForUpdate(ctx context.Context, now time.Time, limit int) ([]domain.BloodUnit, error) {
	query := `
		SELECT ` + bloodUnitColumns + ` FROM blood_units
		WHERE status = ANY($1) AND expired_date <= $2
		ORDER BY expired_date ASC
		LIMIT $3
		FOR UPDATE SKIP LOCKED`

	statuses := make([]string, len(domain.NonTerminalUnitStatuses))
	for i, s := range domain.NonTerminalUnitStatuses {
		statuses[i] = string(s)
	}

	var units []domain.BloodUnit
	err := r.db.SelectContext(ctx, &units, query, pq.Array(statuses), now, limit)
	return units, err
}

// bloodTypeKeys encodes blood types as "GROUP:RH" for ANY() matching.
func bloodTypeKeys(types []domain.BloodType) []string {
	keys := make([]string, len(types))
	for i, t := range types {
		keys[i] = string(t.Group) + ":" + string(t.Rh)
	}
	return keys
}
