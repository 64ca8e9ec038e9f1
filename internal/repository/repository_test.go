package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blood-donation/internal/domain"
)

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

var unitRowColumns = []string{
	"id", "member_id", "blood_group", "blood_rh", "blood_component_type", "volume",
	"remaining_volume", "expired_date", "status", "parent_id", "created_at", "updated_at",
}

func TestBloodUnitRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBloodUnitRepository(db)

	id := uuid.New()
	member := uuid.New()
	expires := time.Now().Add(24 * time.Hour)
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM blood_units WHERE id = \$1$`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(unitRowColumns).AddRow(
			id.String(), member.String(), "O", "NEGATIVE", "WHOLE_BLOOD", 450, 300, expires, "AVAILABLE", nil, now, now,
		))

	unit, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, unit)
	assert.Equal(t, domain.BloodType{Group: domain.GroupO, Rh: domain.RhNegative}, unit.BloodType)
	assert.Equal(t, 300, unit.RemainingVolume)
	assert.Equal(t, domain.UnitAvailable, unit.Status)
	assert.Nil(t, unit.ParentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBloodUnitRepository_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBloodUnitRepository(db)

	mock.ExpectQuery(`SELECT .* FROM blood_units`).WillReturnRows(sqlmock.NewRows(unitRowColumns))

	unit, err := repo.GetByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, unit)
}

func TestBloodUnitRepository_GetForUpdateLocksRow(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBloodUnitRepository(db)

	mock.ExpectQuery(`FOR UPDATE$`).WillReturnRows(sqlmock.NewRows(unitRowColumns))

	_, err := repo.GetForUpdate(context.Background(), uuid.New())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBloodUnitRepository_ListFilters(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBloodUnitRepository(db)

	status := domain.UnitAvailable
	component := domain.ComponentPlasma

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM blood_units WHERE 1 = 1 AND status = $1 AND blood_component_type = $2`)).
		WithArgs(status, component).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
	mock.ExpectQuery(`LIMIT \$3 OFFSET \$4`).
		WithArgs(status, component, 10, 10).
		WillReturnRows(sqlmock.NewRows(unitRowColumns))

	units, total, err := repo.List(context.Background(),
		domain.BloodUnitFilter{Status: &status, ComponentType: &component},
		domain.PaginationParams{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, units)
	assert.Equal(t, int64(42), total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBloodUnitRepository_ListAvailableByTypes(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBloodUnitRepository(db)
	now := time.Now()

	types := []domain.BloodType{
		{Group: domain.GroupO, Rh: domain.RhNegative},
		{Group: domain.GroupA, Rh: domain.RhNegative},
	}
	mock.ExpectQuery(`= ANY\(\$4\)`).
		WithArgs(domain.UnitAvailable, domain.ComponentRBC, now, pq.Array([]string{"O:NEGATIVE", "A:NEGATIVE"})).
		WillReturnRows(sqlmock.NewRows(unitRowColumns))

	_, err := repo.ListAvailableByTypes(context.Background(), types, domain.ComponentRBC, now)
	require.NoError(t, err)

	units, err := repo.ListAvailableByTypes(context.Background(), nil, domain.ComponentRBC, now)
	require.NoError(t, err)
	assert.Empty(t, units)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBloodUnitRepository_ListExpiredSkipsLocked(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBloodUnitRepository(db)

	mock.ExpectQuery(`FOR UPDATE SKIP LOCKED`).
		WithArgs(pq.Array([]string{"AVAILABLE", "RESERVED", "TRANSFERRED"}), sqlmock.AnyArg(), 100).
		WillReturnRows(sqlmock.NewRows(unitRowColumns))

	_, err := repo.ListExpiredForUpdate(context.Background(), time.Now(), 100)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignDonationRepository_MarkBloodUnitCreated(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCampaignDonationRepository(db)
	id, unitID := uuid.New(), uuid.New()

	mock.ExpectExec(`WHERE id = \$1 AND is_blood_unit_created = false`).
		WithArgs(id, unitID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`WHERE id = \$1 AND is_blood_unit_created = false`).
		WithArgs(id, unitID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	won, err := repo.MarkBloodUnitCreated(context.Background(), id, unitID)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = repo.MarkBloodUnitCreated(context.Background(), id, unitID)
	require.NoError(t, err)
	assert.False(t, won)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignDonationRepository_CreateDuplicate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCampaignDonationRepository(db)

	mock.ExpectQuery(`INSERT INTO campaign_donations`).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &domain.CampaignDonation{ID: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestStore_WithinTxCommits(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db)
	action := &domain.BloodUnitAction{ID: uuid.New(), BloodUnitID: uuid.New(), Action: domain.UnitActionCreated}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO blood_unit_actions`).
		WithArgs(action.ID, action.BloodUnitID, nil, action.Action, nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(tx Tx) error {
		return tx.BloodUnitActions().Create(context.Background(), action)
	})
	require.NoError(t, err)
	assert.False(t, action.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTxRollsBackOnError(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(tx Tx) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEmergencyRequestRepository_ListPendingForUpdate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEmergencyRequestRepository(db)
	bt := domain.BloodType{Group: domain.GroupB, Rh: domain.RhPositive}

	mock.ExpectQuery(`WHERE status = \$1 AND blood_group = \$2 AND blood_rh = \$3 AND blood_component_type = \$4`).
		WithArgs(domain.EmergencyPending, bt.Group, bt.Rh, domain.ComponentPlatelets).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	reqs, err := repo.ListPendingForUpdate(context.Background(), bt, domain.ComponentPlatelets)
	require.NoError(t, err)
	assert.Empty(t, reqs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_SetRoleMissing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAccountRepository(db)

	mock.ExpectExec(`UPDATE accounts SET role`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetRole(context.Background(), uuid.New(), domain.RoleStaff)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBloodTypeRepository_Seed(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBloodTypeRepository(db)
	oNeg := domain.BloodType{Group: domain.GroupO, Rh: domain.RhNegative}
	pair := domain.BloodCompatibility{
		DonorGroup: domain.GroupO, DonorRh: domain.RhNegative,
		RecipientGroup: domain.GroupO, RecipientRh: domain.RhNegative,
		ComponentType: domain.ComponentPlasma,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO blood_types`).WithArgs("O", "NEGATIVE").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM blood_compatibilities`).WillReturnResult(sqlmock.NewResult(0, 32))
	mock.ExpectExec(`INSERT INTO blood_compatibilities`).
		WithArgs("O", "NEGATIVE", "O", "NEGATIVE", "PLASMA").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Seed(context.Background(), []domain.BloodType{oNeg}, []domain.BloodCompatibility{pair}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBloodTypeRepository_SeedRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBloodTypeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM blood_compatibilities`).WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	err := repo.Seed(context.Background(), nil, nil)
	assert.ErrorContains(t, err, "clear compatibilities")
	require.NoError(t, mock.ExpectationsWereMet())
}
