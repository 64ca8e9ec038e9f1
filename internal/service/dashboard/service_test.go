package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"blood-donation/internal/domain"
	"blood-donation/internal/mocks"
)

func TestGetStats_Aggregates(t *testing.T) {
	repo := new(mocks.StatsRepository)
	svc := NewService(repo, nil, zap.NewNop())
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.(*service).now = func() time.Time { return fixed }

	ctx := context.Background()
	repo.On("BloodUnitsByStatus", ctx).Return([]domain.StatusCount{{Status: "AVAILABLE", Count: 4}}, nil)
	repo.On("AvailableInventory", ctx, fixed).Return([]domain.InventoryVolume{{
		BloodType:     domain.BloodType{Group: domain.GroupO, Rh: domain.RhNegative},
		ComponentType: domain.ComponentRBC,
		Units:         2,
		Volume:        400,
	}}, nil)
	repo.On("EmergencyRequestsByStatus", ctx).Return([]domain.StatusCount(nil), nil)
	repo.On("DonationsByStatus", ctx).Return([]domain.StatusCount{{Status: "PENDING", Count: 1}}, nil)
	repo.On("CountCustomers", ctx).Return(int64(12), nil)
	repo.On("CountActiveCampaigns", ctx).Return(int64(2), nil)

	stats, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), stats.TotalCustomers)
	assert.Equal(t, int64(2), stats.ActiveCampaigns)
	assert.Equal(t, fixed, stats.GeneratedAt)
	assert.NotNil(t, stats.EmergencyRequestsByStatus)
	assert.Empty(t, stats.EmergencyRequestsByStatus)
	require.Len(t, stats.AvailableInventory, 1)
	assert.Equal(t, int64(400), stats.AvailableInventory[0].Volume)
	repo.AssertExpectations(t)
}

func TestGetStats_PropagatesErrors(t *testing.T) {
	repo := new(mocks.StatsRepository)
	svc := NewService(repo, nil, zap.NewNop())
	boom := errors.New("db down")

	repo.On("BloodUnitsByStatus", mock.Anything).Return([]domain.StatusCount(nil), boom)

	_, err := svc.GetStats(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestInvalidate_WithoutRedisIsNoop(t *testing.T) {
	svc := NewService(new(mocks.StatsRepository), nil, zap.NewNop())
	assert.NotPanics(t, func() { svc.Invalidate(context.Background()) })
}
