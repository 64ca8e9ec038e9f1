package repository

import (
	"context"

	"github.com/google/uuid"

	"blood-donation/internal/domain"
)

type EmergencyLogRepository interface {
	Create(ctx context.Context, log *domain.EmergencyRequestLog) error
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.EmergencyRequestLog, error)
}

type emergencyLogRepository struct {
	db dbtx
}

func NewEmergencyLogRepository(db dbtx) EmergencyLogRepository {
	return &emergencyLogRepository{db: db}
}

func (r *emergencyLogRepository) Create(ctx context.Context, log *domain.EmergencyRequestLog) error {
	query := `
		INSERT INTO emergency_request_logs (id, emergency_request_id, staff_id, account_id, action,
			previous_value, new_value, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	return r.db.QueryRowxContext(ctx, query,
		log.ID, log.EmergencyRequestID, log.StaffID, log.AccountID, log.Action,
		log.PreviousValue, log.NewValue, log.Note,
	).Scan(&log.CreatedAt)
}

func (r *emergencyLogRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.EmergencyRequestLog, error) {
	query := `
		SELECT id, emergency_request_id, staff_id, account_id, action, previous_value, new_value, note, created_at
		FROM emergency_request_logs
		WHERE emergency_request_id = $1
		ORDER BY created_at ASC`

	var logs []domain.EmergencyRequestLog
	err := r.db.SelectContext(ctx, &logs, query, requestID)
	return logs, err
}
