package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"blood-donation/internal/config"
	"blood-donation/internal/domain"
	"blood-donation/internal/mocks"
	"blood-donation/internal/repository/memory"
	"blood-donation/internal/service/compatibility"
)

var (
	clock = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	cfg   = config.InventoryConfig{
		WholeBloodShelfLife: 35 * 24 * time.Hour,
		RBCShelfLife:        42 * 24 * time.Hour,
		PlasmaShelfLife:     365 * 24 * time.Hour,
		PlateletsShelfLife:  5 * 24 * time.Hour,
		RBCVolume:           200,
		PlasmaVolume:        200,
		PlateletsVolume:     50,
	}
	oNeg = domain.BloodType{Group: domain.GroupO, Rh: domain.RhNegative}
	aPos = domain.BloodType{Group: domain.GroupA, Rh: domain.RhPositive}
)

type fixture struct {
	svc   *service
	store *memory.Store
	staff uuid.UUID
	ctx   context.Context
}

func setup(t *testing.T) *fixture {
	t.Helper()
	engine, err := compatibility.NewDefault()
	require.NoError(t, err)

	store := memory.NewStore()
	store.SetClock(func() time.Time { return clock })
	svc := NewService(store, engine, cfg, nil, zap.NewNop()).(*service)
	svc.now = func() time.Time { return clock }

	return &fixture{svc: svc, store: store, staff: uuid.New(), ctx: context.Background()}
}

func (f *fixture) seedUnit(t *testing.T, bt domain.BloodType, component domain.ComponentType, status domain.BloodUnitStatus, volume int, expires time.Time) *domain.BloodUnit {
	t.Helper()
	unit := &domain.BloodUnit{
		ID:              uuid.New(),
		MemberID:        uuid.New(),
		BloodType:       bt,
		ComponentType:   component,
		Volume:          volume,
		RemainingVolume: volume,
		ExpiredDate:     expires,
		Status:          status,
	}
	require.NoError(t, f.store.BloodUnits().Create(f.ctx, unit))
	return unit
}

func (f *fixture) allUnits(t *testing.T) []domain.BloodUnit {
	t.Helper()
	units, _, err := f.store.BloodUnits().List(f.ctx, domain.BloodUnitFilter{}, domain.PaginationParams{Page: 1, PageSize: 100})
	require.NoError(t, err)
	return units
}

func (f *fixture) actions(t *testing.T, id uuid.UUID) []domain.BloodUnitAction {
	t.Helper()
	actions, err := f.store.BloodUnitActions().ListByUnit(f.ctx, id)
	require.NoError(t, err)
	return actions
}

func snapshot(t *testing.T, raw json.RawMessage) domain.UnitSnapshot {
	t.Helper()
	var s domain.UnitSnapshot
	require.NoError(t, json.Unmarshal(raw, &s))
	return s
}

func TestCreate(t *testing.T) {
	f := setup(t)
	member := uuid.New()
	require.NoError(t, f.store.Customers().Upsert(f.ctx, &domain.Customer{AccountID: member}))

	input := domain.CreateBloodUnitInput{
		MemberID:      member,
		BloodGroup:    domain.GroupO,
		BloodRh:       domain.RhNegative,
		ComponentType: domain.ComponentWholeBlood,
		Volume:        450,
		ExpiredDate:   clock.Add(cfg.WholeBloodShelfLife),
	}

	unit, err := f.svc.Create(f.ctx, f.staff, input)
	require.NoError(t, err)
	assert.Equal(t, domain.UnitAvailable, unit.Status)
	assert.Equal(t, 450, unit.RemainingVolume)

	actions := f.actions(t, unit.ID)
	require.Len(t, actions, 1)
	assert.Equal(t, domain.UnitActionCreated, actions[0].Action)
	assert.Equal(t, f.staff, *actions[0].StaffID)

	t.Run("requires staff", func(t *testing.T) {
		_, err := f.svc.Create(f.ctx, uuid.Nil, input)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("member without customer profile", func(t *testing.T) {
		in := input
		in.MemberID = uuid.New()
		_, err := f.svc.Create(f.ctx, f.staff, in)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("expiry in the past", func(t *testing.T) {
		in := input
		in.ExpiredDate = clock.Add(-time.Hour)
		_, err := f.svc.Create(f.ctx, f.staff, in)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("unknown component", func(t *testing.T) {
		in := input
		in.ComponentType = "SERUM"
		_, err := f.svc.Create(f.ctx, f.staff, in)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestCreate_InvalidatesDashboard(t *testing.T) {
	f := setup(t)
	cache := new(mocks.Invalidator)
	cache.On("Invalidate", mock.Anything).Once()
	f.svc.cache = cache

	member := uuid.New()
	require.NoError(t, f.store.Customers().Upsert(f.ctx, &domain.Customer{AccountID: member}))
	_, err := f.svc.Create(f.ctx, f.staff, domain.CreateBloodUnitInput{
		MemberID: member, BloodGroup: domain.GroupA, BloodRh: domain.RhPositive,
		ComponentType: domain.ComponentPlasma, Volume: 200, ExpiredDate: clock.Add(time.Hour),
	})
	require.NoError(t, err)
	cache.AssertExpectations(t)
}

func TestUpdateStatus(t *testing.T) {
	f := setup(t)
	unit := f.seedUnit(t, aPos, domain.ComponentRBC, domain.UnitAvailable, 200, clock.Add(time.Hour))

	got, err := f.svc.UpdateStatus(f.ctx, unit.ID, f.staff, domain.UpdateBloodUnitStatusInput{Status: domain.UnitReserved})
	require.NoError(t, err)
	assert.Equal(t, domain.UnitReserved, got.Status)

	actions := f.actions(t, unit.ID)
	require.Len(t, actions, 1)
	assert.Equal(t, domain.UnitActionStatusUpdate, actions[0].Action)
	assert.Equal(t, domain.UnitAvailable, snapshot(t, actions[0].PreviousValue).Status)
	assert.Equal(t, domain.UnitReserved, snapshot(t, actions[0].NewValue).Status)

	t.Run("illegal move leaves no trace", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(f.ctx, unit.ID, f.staff, domain.UpdateBloodUnitStatusInput{Status: domain.UnitTransferred})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.Len(t, f.actions(t, unit.ID), 1)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(f.ctx, unit.ID, f.staff, domain.UpdateBloodUnitStatusInput{Status: "LOST"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("terminal is final", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(f.ctx, unit.ID, f.staff, domain.UpdateBloodUnitStatusInput{Status: domain.UnitUsed})
		require.NoError(t, err)
		_, err = f.svc.UpdateStatus(f.ctx, unit.ID, f.staff, domain.UpdateBloodUnitStatusInput{Status: domain.UnitAvailable})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("missing unit", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(f.ctx, uuid.New(), f.staff, domain.UpdateBloodUnitStatusInput{Status: domain.UnitReserved})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestUpdateUnit(t *testing.T) {
	f := setup(t)
	unit := f.seedUnit(t, aPos, domain.ComponentWholeBlood, domain.UnitAvailable, 450, clock.Add(time.Hour))

	v := 300
	got, err := f.svc.UpdateUnit(f.ctx, unit.ID, f.staff, domain.UpdateBloodUnitInput{RemainingVolume: &v})
	require.NoError(t, err)
	assert.Equal(t, 300, got.RemainingVolume)

	actions := f.actions(t, unit.ID)
	require.Len(t, actions, 1)
	assert.Equal(t, domain.UnitActionVolumeChange, actions[0].Action)
	assert.Equal(t, 450, *snapshot(t, actions[0].PreviousValue).RemainingVolume)

	over := 451
	_, err = f.svc.UpdateUnit(f.ctx, unit.ID, f.staff, domain.UpdateBloodUnitInput{RemainingVolume: &over})
	assert.ErrorIs(t, err, domain.ErrValidation)

	expires := clock.Add(48 * time.Hour)
	_, err = f.svc.UpdateUnit(f.ctx, unit.ID, f.staff, domain.UpdateBloodUnitInput{ExpiredDate: &expires})
	require.NoError(t, err)
	actions = f.actions(t, unit.ID)
	require.Len(t, actions, 2)
	assert.Equal(t, domain.UnitActionExpiryUpdate, actions[1].Action)

	_, err = f.svc.UpdateUnit(f.ctx, unit.ID, f.staff, domain.UpdateBloodUnitInput{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	used := f.seedUnit(t, aPos, domain.ComponentWholeBlood, domain.UnitUsed, 450, clock.Add(time.Hour))
	_, err = f.svc.UpdateUnit(f.ctx, used.ID, f.staff, domain.UpdateBloodUnitInput{RemainingVolume: &v})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestSeparate(t *testing.T) {
	f := setup(t)
	source := f.seedUnit(t, oNeg, domain.ComponentWholeBlood, domain.UnitAvailable, 450, clock.Add(10*24*time.Hour))

	result, err := f.svc.Separate(f.ctx, source.ID, f.staff)
	require.NoError(t, err)
	assert.Equal(t, domain.UnitUsed, result.Source.Status)
	require.Len(t, result.Derived, 3)

	want := map[domain.ComponentType]struct {
		volume int
		life   time.Duration
	}{
		domain.ComponentRBC:       {200, cfg.RBCShelfLife},
		domain.ComponentPlasma:    {200, cfg.PlasmaShelfLife},
		domain.ComponentPlatelets: {50, cfg.PlateletsShelfLife},
	}
	for _, d := range result.Derived {
		w, ok := want[d.ComponentType]
		require.True(t, ok, d.ComponentType)
		assert.Equal(t, w.volume, d.Volume)
		assert.Equal(t, w.volume, d.RemainingVolume)
		wantExpiry := clock.Add(w.life)
		if wantExpiry.After(source.ExpiredDate) {
			wantExpiry = source.ExpiredDate
		}
		assert.Equal(t, wantExpiry, d.ExpiredDate)
		assert.Equal(t, oNeg, d.BloodType)
		assert.Equal(t, source.MemberID, d.MemberID)
		assert.Equal(t, source.ID, *d.ParentID)
		assert.Equal(t, domain.UnitAvailable, d.Status)

		actions := f.actions(t, d.ID)
		require.Len(t, actions, 1)
		assert.Equal(t, domain.UnitActionCreated, actions[0].Action)
	}

	stored, err := f.store.BloodUnits().GetByID(f.ctx, source.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UnitUsed, stored.Status)
	sourceActions := f.actions(t, source.ID)
	require.Len(t, sourceActions, 1)
	assert.Equal(t, domain.UnitActionComponentSeparated, sourceActions[0].Action)

	_, err = f.svc.Separate(f.ctx, source.ID, f.staff)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestSeparate_DerivedNeverOutliveSource(t *testing.T) {
	f := setup(t)
	collected := clock.Add(-2 * 24 * time.Hour)
	f.store.SetClock(func() time.Time { return collected })
	source := f.seedUnit(t, oNeg, domain.ComponentWholeBlood, domain.UnitAvailable, 450, clock.Add(24*time.Hour))
	f.store.SetClock(func() time.Time { return clock })

	result, err := f.svc.Separate(f.ctx, source.ID, f.staff)
	require.NoError(t, err)
	require.Len(t, result.Derived, 3)
	for _, d := range result.Derived {
		assert.False(t, d.ExpiredDate.After(source.ExpiredDate), d.ComponentType)
		assert.Equal(t, source.ExpiredDate, d.ExpiredDate, d.ComponentType)
	}
}

func TestSeparate_ComponentAlreadyPastShelfLife(t *testing.T) {
	f := setup(t)
	f.store.SetClock(func() time.Time { return clock.Add(-6 * 24 * time.Hour) })
	source := f.seedUnit(t, oNeg, domain.ComponentWholeBlood, domain.UnitAvailable, 450, clock.Add(24*time.Hour))
	f.store.SetClock(func() time.Time { return clock })

	_, err := f.svc.Separate(f.ctx, source.ID, f.staff)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	units := f.allUnits(t)
	require.Len(t, units, 1)
	assert.Equal(t, domain.UnitAvailable, units[0].Status)
	assert.Equal(t, 450, units[0].RemainingVolume)
	assert.Empty(t, f.actions(t, source.ID))
}

func TestSeparate_FailureLeavesEverythingUnchanged(t *testing.T) {
	f := setup(t)
	source := f.seedUnit(t, oNeg, domain.ComponentWholeBlood, domain.UnitAvailable, 450, clock.Add(10*24*time.Hour))
	boom := errors.New("write failed")
	f.store.InjectFailure("BloodUnits.Create", 2, boom)

	_, err := f.svc.Separate(f.ctx, source.ID, f.staff)
	require.ErrorIs(t, err, boom)

	units := f.allUnits(t)
	require.Len(t, units, 1)
	assert.Equal(t, domain.UnitAvailable, units[0].Status)
	assert.Equal(t, 450, units[0].RemainingVolume)
	assert.Empty(t, f.actions(t, source.ID))
}

func TestSeparate_Rejections(t *testing.T) {
	f := setup(t)

	small := f.seedUnit(t, oNeg, domain.ComponentWholeBlood, domain.UnitAvailable, 400, clock.Add(time.Hour))
	v := 300
	_, err := f.svc.UpdateUnit(f.ctx, small.ID, f.staff, domain.UpdateBloodUnitInput{RemainingVolume: &v})
	require.NoError(t, err)

	_, err = f.svc.Separate(f.ctx, small.ID, f.staff)
	assert.ErrorIs(t, err, domain.ErrInsufficientVolume)
	stored, err := f.store.BloodUnits().GetByID(f.ctx, small.ID)
	require.NoError(t, err)
	assert.Equal(t, 300, stored.RemainingVolume)
	assert.Equal(t, domain.UnitAvailable, stored.Status)

	plasma := f.seedUnit(t, oNeg, domain.ComponentPlasma, domain.UnitAvailable, 450, clock.Add(time.Hour))
	_, err = f.svc.Separate(f.ctx, plasma.ID, f.staff)
	assert.ErrorIs(t, err, domain.ErrValidation)

	reserved := f.seedUnit(t, oNeg, domain.ComponentWholeBlood, domain.UnitReserved, 450, clock.Add(time.Hour))
	_, err = f.svc.Separate(f.ctx, reserved.ID, f.staff)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.Len(t, f.allUnits(t), 3)
}

func TestSweepExpired_Idempotent(t *testing.T) {
	f := setup(t)
	stale := f.seedUnit(t, aPos, domain.ComponentRBC, domain.UnitAvailable, 200, clock.Add(-time.Hour))
	reserved := f.seedUnit(t, aPos, domain.ComponentRBC, domain.UnitReserved, 200, clock)
	fresh := f.seedUnit(t, aPos, domain.ComponentRBC, domain.UnitAvailable, 200, clock.Add(time.Hour))
	f.seedUnit(t, aPos, domain.ComponentRBC, domain.UnitUsed, 200, clock.Add(-time.Hour))

	n, err := f.svc.SweepExpired(f.ctx, clock)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = f.svc.SweepExpired(f.ctx, clock)
	require.NoError(t, err)
	assert.Zero(t, n)

	for _, id := range []uuid.UUID{stale.ID, reserved.ID} {
		unit, err := f.store.BloodUnits().GetByID(f.ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.UnitExpired, unit.Status)

		actions := f.actions(t, id)
		require.Len(t, actions, 1)
		assert.Nil(t, actions[0].StaffID)
		assert.Equal(t, domain.UnitExpired, snapshot(t, actions[0].NewValue).Status)
	}

	unit, err := f.store.BloodUnits().GetByID(f.ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UnitAvailable, unit.Status)
}

func TestSweepExpired_Batches(t *testing.T) {
	f := setup(t)
	for i := 0; i < sweepBatch+5; i++ {
		f.seedUnit(t, aPos, domain.ComponentPlasma, domain.UnitAvailable, 200, clock.Add(-time.Minute))
	}

	n, err := f.svc.SweepExpired(f.ctx, clock)
	require.NoError(t, err)
	assert.Equal(t, sweepBatch+5, n)
}

func TestSearchCompatible(t *testing.T) {
	f := setup(t)
	universal := f.seedUnit(t, oNeg, domain.ComponentRBC, domain.UnitAvailable, 200, clock.Add(time.Hour))
	f.seedUnit(t, aPos, domain.ComponentRBC, domain.UnitAvailable, 200, clock.Add(time.Hour))
	f.seedUnit(t, oNeg, domain.ComponentRBC, domain.UnitAvailable, 200, clock.Add(-time.Hour))
	f.seedUnit(t, oNeg, domain.ComponentPlasma, domain.UnitAvailable, 200, clock.Add(time.Hour))

	units, err := f.svc.SearchCompatible(f.ctx, oNeg, domain.ComponentRBC)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, universal.ID, units[0].ID)

	units, err = f.svc.SearchCompatible(f.ctx, aPos, domain.ComponentRBC)
	require.NoError(t, err)
	assert.Len(t, units, 2)

	_, err = f.svc.SearchCompatible(f.ctx, domain.BloodType{Group: "C", Rh: domain.RhPositive}, domain.ComponentRBC)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestActions_UnknownUnit(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Actions(f.ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
