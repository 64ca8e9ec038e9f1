package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// dbtx is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx, so every
// repository runs unchanged inside or outside a transaction.
type dbtx interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Tx groups the repositories that take part in status transitions. Inside
// WithinTx they share one database transaction.
type Tx interface {
	BloodUnits() BloodUnitRepository
	BloodUnitActions() BloodUnitActionRepository
	Donations() CampaignDonationRepository
	DonationLogs() DonationLogRepository
	EmergencyRequests() EmergencyRequestRepository
	EmergencyLogs() EmergencyLogRepository
	Campaigns() CampaignRepository
	Customers() CustomerRepository
}

// Store exposes the transactional repositories over the pool and a unit of
// work. fn's writes are committed together when it returns nil and discarded
// otherwise.
type Store interface {
	Tx
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

type sqlRepos struct {
	q dbtx
}

func (r sqlRepos) BloodUnits() BloodUnitRepository {
	return &bloodUnitRepository{db: r.q}
}

func (r sqlRepos) BloodUnitActions() BloodUnitActionRepository {
	return &bloodUnitActionRepository{db: r.q}
}

func (r sqlRepos) Donations() CampaignDonationRepository {
	return &campaignDonationRepository{db: r.q}
}

func (r sqlRepos) DonationLogs() DonationLogRepository {
	return &donationLogRepository{db: r.q}
}

func (r sqlRepos) EmergencyRequests() EmergencyRequestRepository {
	return &emergencyRequestRepository{db: r.q}
}

func (r sqlRepos) EmergencyLogs() EmergencyLogRepository {
	return &emergencyLogRepository{db: r.q}
}

func (r sqlRepos) Campaigns() CampaignRepository {
	return &campaignRepository{db: r.q}
}

func (r sqlRepos) Customers() CustomerRepository {
	return &customerRepository{db: r.q}
}

type sqlStore struct {
	sqlRepos
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) Store {
	return &sqlStore{sqlRepos: sqlRepos{q: db}, db: db}
}

func (s *sqlStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(sqlRepos{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
