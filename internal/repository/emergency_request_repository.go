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

type EmergencyRequestRepository interface {
	Create(ctx context.Context, req *domain.EmergencyRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.EmergencyRequest, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.EmergencyRequest, error)
	Update(ctx context.Context, req *domain.EmergencyRequest) error
	List(ctx context.Context, filter domain.EmergencyRequestFilter, params domain.PaginationParams) ([]domain.EmergencyRequest, int64, error)
	// ListPendingForUpdate locks every PENDING request for one blood type and component.
	ListPendingForUpdate(ctx context.Context, bt domain.BloodType, component domain.ComponentType) ([]domain.EmergencyRequest, error)
	// ListExpirableForUpdate locks non-terminal requests created before cutoff,
	// skipping rows another sweeper already holds.
	ListExpirableForUpdate(ctx context.Context, cutoff time.Time, limit int) ([]domain.EmergencyRequest, error)
}

type emergencyRequestRepository struct {
	db dbtx
}

func NewEmergencyRequestRepository(db dbtx) EmergencyRequestRepository {
	return &emergencyRequestRepository{db: db}
}

const emergencyColumns = `id, requested_by_id, blood_unit_id, blood_group, blood_rh, blood_component_type,
	required_volume, used_volume, status, suggested_contacts, rejection_reason, description,
	processed_by, ward_name, district_name, province_name, longitude, latitude, created_at, updated_at`

func (r *emergencyRequestRepository) Create(ctx context.Context, req *domain.EmergencyRequest) error {
	query := `
		INSERT INTO emergency_requests (id, requested_by_id, blood_group, blood_rh, blood_component_type,
			required_volume, used_volume, status, description,
			ward_name, district_name, province_name, longitude, latitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		req.ID, req.RequestedByID, req.Group, req.Rh, req.ComponentType,
		req.RequiredVolume, req.UsedVolume, req.Status, req.Description,
		req.WardName, req.DistrictName, req.ProvinceName, req.Longitude, req.Latitude,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
}

func (r *emergencyRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.EmergencyRequest, error) {
	return r.get(ctx, `SELECT `+emergencyColumns+` FROM emergency_requests WHERE id = $1`, id)
}

func (r *emergencyRequestRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.EmergencyRequest, error) {
	return r.get(ctx, `SELECT `+emergencyColumns+` FROM emergency_requests WHERE id = $1 FOR UPDATE`, id)
}

func (r *emergencyRequestRepository) get(ctx context.Context, query string, id uuid.UUID) (*domain.EmergencyRequest, error) {
	var req domain.EmergencyRequest
	err := r.db.GetContext(ctx, &req, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *emergencyRequestRepository) Update(ctx context.Context, req *domain.EmergencyRequest) error {
	query := `
		UPDATE emergency_requests
		SET blood_unit_id = $2, required_volume = $3, used_volume = $4, status = $5,
			suggested_contacts = $6, rejection_reason = $7, description = $8, processed_by = $9,
			ward_name = $10, district_name = $11, province_name = $12, longitude = $13, latitude = $14,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	return r.db.QueryRowxContext(ctx, query,
		req.ID, req.BloodUnitID, req.RequiredVolume, req.UsedVolume, req.Status,
		req.SuggestedContacts, req.RejectionReason, req.Description, req.ProcessedBy,
		req.WardName, req.DistrictName, req.ProvinceName, req.Longitude, req.Latitude,
	).Scan(&req.UpdatedAt)
}

func (r *emergencyRequestRepository) List(ctx context.Context, filter domain.EmergencyRequestFilter, params domain.PaginationParams) ([]domain.EmergencyRequest, int64, error) {
	params.Validate()

	where := []string{"1 = 1"}
	args := []interface{}{}
	argN := 1

	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argN))
		args = append(args, *filter.Status)
		argN++
	}
	if filter.RequestedByID != nil {
		where = append(where, fmt.Sprintf("requested_by_id = $%d", argN))
		args = append(args, *filter.RequestedByID)
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
	clause := strings.Join(where, " AND ")

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM emergency_requests WHERE `+clause, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM emergency_requests
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, emergencyColumns, clause, argN, argN+1)

	var reqs []domain.EmergencyRequest
	err := r.db.SelectContext(ctx, &reqs, query, append(args, params.PageSize, params.Offset())...)
	return reqs, total, err
}

func (r *emergencyRequestRepository) ListPendingForUpdate(ctx context.Context, bt domain.BloodType, component domain.ComponentType) ([]domain.EmergencyRequest, error) {
	query := `
		SELECT ` + emergencyColumns + ` FROM emergency_requests
		WHERE status = $1 AND blood_group = $2 AND blood_rh = $3 AND blood_component_type = $4
		ORDER BY created_at ASC
		FOR UPDATE`

	var reqs []domain.EmergencyRequest
	err := r.db.SelectContext(ctx, &reqs, query, domain.EmergencyPending, bt.Group, bt.Rh, component)
	return reqs, err
}

func (r *emergencyRequestRepository) ListExpirableForUpdate(ctx context.Context, cutoff time.Time, limit int) ([]domain.EmergencyRequest, error) {
	query := `
		SELECT ` + emergencyColumns + ` FROM emergency_requests
		WHERE status = ANY($1) AND created_at <= $2
		ORDER BY created_at ASC
		LIMIT $3
		FOR UPDATE SKIP LOCKED`

	statuses := make([]string, len(domain.NonTerminalEmergencyStatuses))
	for i, s := range domain.NonTerminalEmergencyStatuses {
		statuses[i] = string(s)
	}

	var reqs []domain.EmergencyRequest
	err := r.db.SelectContext(ctx, &reqs, query, pq.Array(statuses), cutoff, limit)
	return reqs, err
}
