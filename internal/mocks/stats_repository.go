package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"blood-donation/internal/domain"
)

type StatsRepository struct {
	mock.Mock
}

func (m *StatsRepository) BloodUnitsByStatus(ctx context.Context) ([]domain.StatusCount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.StatusCount), args.Error(1)
}

func (m *StatsRepository) AvailableInventory(ctx context.Context, now time.Time) ([]domain.InventoryVolume, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]domain.InventoryVolume), args.Error(1)
}

func (m *StatsRepository) EmergencyRequestsByStatus(ctx context.Context) ([]domain.StatusCount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.StatusCount), args.Error(1)
}

func (m *StatsRepository) DonationsByStatus(ctx context.Context) ([]domain.StatusCount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.StatusCount), args.Error(1)
}

func (m *StatsRepository) CountCustomers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *StatsRepository) CountActiveCampaigns(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Invalidator counts dashboard cache invalidations.
type Invalidator struct {
	mock.Mock
}

func (m *Invalidator) Invalidate(ctx context.Context) {
	m.Called(ctx)
}
