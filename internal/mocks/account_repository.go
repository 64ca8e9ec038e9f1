package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"blood-donation/internal/domain"
)

type AccountRepository struct {
	mock.Mock
}

func (m *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *AccountRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Account, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *AccountRepository) UpsertByExternalID(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *AccountRepository) Update(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *AccountRepository) SetRole(ctx context.Context, id uuid.UUID, role domain.AccountRole) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

func (m *AccountRepository) DeactivateByExternalID(ctx context.Context, externalID string) (bool, error) {
	args := m.Called(ctx, externalID)
	return args.Bool(0), args.Error(1)
}

func (m *AccountRepository) List(ctx context.Context, role *domain.AccountRole, params domain.PaginationParams) ([]domain.Account, int64, error) {
	args := m.Called(ctx, role, params)
	return args.Get(0).([]domain.Account), args.Get(1).(int64), args.Error(2)
}

type HospitalRepository struct {
	mock.Mock
}

func (m *HospitalRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*domain.Hospital, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Hospital), args.Error(1)
}

func (m *HospitalRepository) Upsert(ctx context.Context, hospital *domain.Hospital) error {
	args := m.Called(ctx, hospital)
	return args.Error(0)
}
