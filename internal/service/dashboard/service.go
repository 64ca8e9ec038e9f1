package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"blood-donation/internal/domain"
	"blood-donation/internal/repository"
)

const (
	StatsCacheKey = "dashboard:stats"
	statsTTL      = 5 * time.Minute
)

// Invalidator drops cached statistics after inventory, donation or emergency
// writes. A nil Invalidator is allowed wherever one is accepted.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

type Service interface {
	GetStats(ctx context.Context) (*domain.DashboardStats, error)
	Invalidator
}

type service struct {
	stats  repository.StatsRepository
	redis  *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewService(stats repository.StatsRepository, redis *redis.Client, logger *zap.Logger) Service {
	return &service{
		stats:  stats,
		redis:  redis,
		logger: logger,
		now:    time.Now,
	}
}

func (s *service) GetStats(ctx context.Context) (*domain.DashboardStats, error) {
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, StatsCacheKey).Result(); err == nil {
			var stats domain.DashboardStats
			if json.Unmarshal([]byte(cached), &stats) == nil {
				return &stats, nil
			}
		}
	}

	now := s.now()
	unitsByStatus, err := s.stats.BloodUnitsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	inventory, err := s.stats.AvailableInventory(ctx, now)
	if err != nil {
		return nil, err
	}
	requestsByStatus, err := s.stats.EmergencyRequestsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	donationsByStatus, err := s.stats.DonationsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := s.stats.CountCustomers(ctx)
	if err != nil {
		return nil, err
	}
	campaigns, err := s.stats.CountActiveCampaigns(ctx)
	if err != nil {
		return nil, err
	}

	stats := &domain.DashboardStats{
		BloodUnitsByStatus:        nonNil(unitsByStatus),
		AvailableInventory:        nonNil(inventory),
		EmergencyRequestsByStatus: nonNil(requestsByStatus),
		DonationsByStatus:         nonNil(donationsByStatus),
		TotalCustomers:            customers,
		ActiveCampaigns:           campaigns,
		GeneratedAt:               now,
	}

	if s.redis != nil {
		if statsJSON, err := json.Marshal(stats); err == nil {
			if err := s.redis.Set(ctx, StatsCacheKey, statsJSON, statsTTL).Err(); err != nil {
				s.logger.Warn("Failed to cache dashboard stats", zap.Error(err))
			}
		}
	}

	return stats, nil
}

func (s *service) Invalidate(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, StatsCacheKey).Err(); err != nil {
		s.logger.Warn("Failed to invalidate dashboard stats", zap.Error(err))
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
