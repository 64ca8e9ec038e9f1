package account

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"blood-donation/internal/domain"
	"blood-donation/internal/mocks"
	"blood-donation/internal/repository/memory"
)

type fixture struct {
	svc       Service
	accounts  *mocks.AccountRepository
	hospitals *mocks.HospitalRepository
	store     *memory.Store
}

func setup() *fixture {
	f := &fixture{
		accounts:  new(mocks.AccountRepository),
		hospitals: new(mocks.HospitalRepository),
		store:     memory.NewStore(),
	}
	f.svc = NewService(f.accounts, f.store.Customers(), f.hospitals, zap.NewNop())
	return f
}

func TestSyncUser_NewCustomerGetsProfile(t *testing.T) {
	f := setup()
	ctx := context.Background()

	f.accounts.On("GetByExternalID", ctx, "user_1").Return(nil, nil)
	f.accounts.On("UpsertByExternalID", ctx, mock.MatchedBy(func(a *domain.Account) bool {
		return a.Role == domain.RoleCustomer && a.Email == "a@example.com"
	})).Return(nil)

	account, err := f.svc.SyncUser(ctx, domain.IdentityUser{ExternalID: "user_1", Email: "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, account.Role)

	customer, err := f.store.Customers().GetByAccountID(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, customer)
	f.accounts.AssertExpectations(t)
}

func TestSyncUser_KeepsStoredRoleWhenPayloadHasNone(t *testing.T) {
	f := setup()
	ctx := context.Background()
	existing := &domain.Account{ID: uuid.New(), ExternalID: "user_2", Role: domain.RoleStaff}

	f.accounts.On("GetByExternalID", ctx, "user_2").Return(existing, nil)
	f.accounts.On("UpsertByExternalID", ctx, mock.MatchedBy(func(a *domain.Account) bool {
		return a.ID == existing.ID && a.Role == domain.RoleStaff
	})).Return(nil)

	account, err := f.svc.SyncUser(ctx, domain.IdentityUser{ExternalID: "user_2", Email: "s@example.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStaff, account.Role)
	f.accounts.AssertExpectations(t)
}

func TestSyncUser_HospitalProfile(t *testing.T) {
	f := setup()
	ctx := context.Background()
	name := "Saint Paul"

	f.accounts.On("GetByExternalID", ctx, "user_3").Return(nil, nil)
	f.accounts.On("UpsertByExternalID", ctx, mock.Anything).Return(nil)
	f.hospitals.On("GetByAccountID", ctx, mock.Anything).Return(nil, nil)
	f.hospitals.On("Upsert", ctx, mock.MatchedBy(func(h *domain.Hospital) bool { return h.Name == name })).Return(nil)

	_, err := f.svc.SyncUser(ctx, domain.IdentityUser{
		ExternalID: "user_3", Email: "er@example.com", FirstName: &name, Role: domain.RoleHospital,
	})
	require.NoError(t, err)
	f.hospitals.AssertExpectations(t)
}

func TestSyncUser_Rejects(t *testing.T) {
	f := setup()
	ctx := context.Background()
	f.accounts.On("GetByExternalID", ctx, "user_4").Return(nil, nil)

	_, err := f.svc.SyncUser(ctx, domain.IdentityUser{ExternalID: "user_4", Email: "x@example.com", Role: "root"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.SyncUser(ctx, domain.IdentityUser{ExternalID: "user_4"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestHandleEvent_Deleted(t *testing.T) {
	f := setup()
	ctx := context.Background()
	f.accounts.On("DeactivateByExternalID", ctx, "user_5").Return(false, nil)

	err := f.svc.HandleEvent(ctx, domain.IdentityEvent{
		Type: domain.IdentityUserDeleted,
		User: domain.IdentityUser{ExternalID: "user_5"},
	})
	require.NoError(t, err)
	assert.NoError(t, f.svc.HandleEvent(ctx, domain.IdentityEvent{Type: "session.created"}))
	f.accounts.AssertExpectations(t)
}

func TestGetActive(t *testing.T) {
	f := setup()
	ctx := context.Background()
	inactive := &domain.Account{ID: uuid.New()}
	f.accounts.On("GetByID", ctx, inactive.ID).Return(inactive, nil)
	f.accounts.On("GetByID", ctx, mock.Anything).Return(nil, nil)

	_, err := f.svc.GetActive(ctx, inactive.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.svc.GetActive(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateCustomerProfile(t *testing.T) {
	f := setup()
	ctx := context.Background()
	customer := &domain.Account{ID: uuid.New(), Role: domain.RoleCustomer, IsActive: true}
	hospital := &domain.Account{ID: uuid.New(), Role: domain.RoleHospital, IsActive: true}
	f.accounts.On("GetByID", ctx, customer.ID).Return(customer, nil)
	f.accounts.On("GetByID", ctx, hospital.ID).Return(hospital, nil)

	group, rh := domain.GroupAB, domain.RhNegative
	lat, lon := 10.77, 106.69
	got, err := f.svc.UpdateCustomerProfile(ctx, customer.ID, domain.UpdateCustomerInput{
		BloodGroup: &group,
		BloodRh:    &rh,
		Location:   &domain.Location{Latitude: &lat, Longitude: &lon},
	})
	require.NoError(t, err)
	bt, ok := got.BloodType()
	require.True(t, ok)
	assert.Equal(t, "AB-", bt.String())

	profile, err := f.svc.Me(ctx, customer.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.Customer)
	assert.True(t, profile.Customer.HasCoordinates())

	_, err = f.svc.UpdateCustomerProfile(ctx, customer.ID, domain.UpdateCustomerInput{
		Location: &domain.Location{Latitude: &lat},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.UpdateCustomerProfile(ctx, hospital.ID, domain.UpdateCustomerInput{BloodGroup: &group})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAssignRole(t *testing.T) {
	f := setup()
	ctx := context.Background()
	account := &domain.Account{ID: uuid.New(), Role: domain.RoleStaff, IsActive: true}
	f.accounts.On("GetByID", ctx, account.ID).Return(account, nil)
	f.accounts.On("SetRole", ctx, account.ID, domain.RoleCustomer).Return(nil)

	got, err := f.svc.AssignRole(ctx, account.ID, domain.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, got.Role)

	customer, err := f.store.Customers().GetByAccountID(ctx, account.ID)
	require.NoError(t, err)
	assert.NotNil(t, customer)

	_, err = f.svc.AssignRole(ctx, account.ID, "owner")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
