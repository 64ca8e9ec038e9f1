package service

import (
	"context"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"blood-donation/internal/config"
	"blood-donation/internal/repository"
	"blood-donation/internal/service/account"
	"blood-donation/internal/service/auth"
	"blood-donation/internal/service/blog"
	"blood-donation/internal/service/bloodtype"
	"blood-donation/internal/service/campaign"
	"blood-donation/internal/service/compatibility"
	"blood-donation/internal/service/dashboard"
	"blood-donation/internal/service/donation"
	"blood-donation/internal/service/email"
	"blood-donation/internal/service/emergency"
	"blood-donation/internal/service/inventory"
	"blood-donation/internal/service/storage"
	"blood-donation/internal/service/sweeper"
)

type Services struct {
	Account   account.Service
	Auth      auth.Service
	BloodType bloodtype.Service
	Campaign  campaign.Service
	Donation  donation.Service
	Inventory inventory.Service
	Emergency emergency.Service
	Blog      blog.Service
	Dashboard dashboard.Service
	Email     email.Service
	Storage   storage.Service
}

func NewServices(repos *repository.Repositories, redis *redis.Client, minioClient *minio.Client, engine *compatibility.Engine, cfg *config.Config, logger *zap.Logger) *Services {
	emailService := email.NewService(cfg, logger)
	dashboardService := dashboard.NewService(repos.Stats, redis, logger)
	var objects storage.ObjectStore
	if minioClient != nil {
		objects = minioClient
	}
	storageService := storage.NewService(objects, cfg)
	accountService := account.NewService(repos.Account, repos.Customer, repos.Hospital, logger)

	return &Services{
		Account:   accountService,
		Auth:      auth.NewService(accountService, cfg),
		BloodType: bloodtype.NewService(repos.BloodType, engine, logger),
		Campaign:  campaign.NewService(repos.Campaign, storageService, dashboardService, logger),
		Donation:  donation.NewService(repos.Store, repos.Account, emailService, dashboardService, cfg.Inventory, logger),
		Inventory: inventory.NewService(repos.Store, engine, cfg.Inventory, dashboardService, logger),
		Emergency: emergency.NewService(repos.Store, repos.Account, repos.Hospital, engine, emailService, dashboardService, cfg, logger),
		Blog:      blog.NewService(repos.Blog, storageService, logger),
		Dashboard: dashboardService,
		Email:     emailService,
		Storage:   storageService,
	}
}

// Sweeper wires the periodic expiry and campaign status tasks.
func (s *Services) Sweeper(interval time.Duration, logger *zap.Logger) *sweeper.Sweeper {
	return sweeper.New(interval, logger, s.SweepTasks()...)
}

func (s *Services) SweepTasks() []sweeper.Task {
	return []sweeper.Task{
		{Name: "blood_units", Run: s.Inventory.SweepExpired},
		{Name: "emergency_requests", Run: s.Emergency.SweepExpired},
		{Name: "campaigns", Run: func(ctx context.Context, now time.Time) (int, error) {
			n, err := s.Campaign.RefreshStatuses(ctx, now)
			return int(n), err
		}},
	}
}
