package donation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blood-donation/internal/config"
	"blood-donation/internal/domain"
	"blood-donation/internal/repository"
	"blood-donation/internal/service/dashboard"
	"blood-donation/internal/service/email"
)

type Service interface {
	Enroll(ctx context.Context, campaignID, donorID uuid.UUID, input domain.EnrollDonationInput) (*domain.CampaignDonation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, actor *domain.Account, input domain.UpdateDonationStatusInput) (*domain.CampaignDonation, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.CampaignDonation, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.CampaignDonation], error)
	ListByDonor(ctx context.Context, donorID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.CampaignDonation], error)
	Logs(ctx context.Context, id uuid.UUID) ([]domain.CampaignDonationLog, error)
}

type service struct {
	store    repository.Store
	accounts repository.AccountRepository
	emailSvc email.Service
	cache    dashboard.Invalidator
	cfg      config.InventoryConfig
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(store repository.Store, accounts repository.AccountRepository, emailSvc email.Service, cache dashboard.Invalidator, cfg config.InventoryConfig, logger *zap.Logger) Service {
	return &service{
		store:    store,
		accounts: accounts,
		emailSvc: emailSvc,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *service) Enroll(ctx context.Context, campaignID, donorID uuid.UUID, input domain.EnrollDonationInput) (*domain.CampaignDonation, error) {
	donation := &domain.CampaignDonation{
		ID:              uuid.New(),
		CampaignID:      campaignID,
		DonorID:         donorID,
		CurrentStatus:   domain.DonationMachine.Initial(),
		AppointmentDate: input.AppointmentDate,
		Note:            input.Note,
	}

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		// The campaign row lock serializes enrollments so the limit holds.
		campaign, err := tx.Campaigns().GetForUpdate(ctx, campaignID)
		if err != nil {
			return err
		}
		if campaign == nil {
			return domain.ErrCampaignNotFound
		}
		if campaign.Status != domain.CampaignActive {
			return fmt.Errorf("%w: campaign is %s", domain.ErrConflict, campaign.Status)
		}
		if d := input.AppointmentDate; d != nil && (d.Before(campaign.StartDate) || d.After(campaign.EndDate)) {
			return domain.Validationf("appointment_date must fall within the campaign")
		}

		donor, err := tx.Customers().GetByAccountID(ctx, donorID)
		if err != nil {
			return err
		}
		if donor == nil {
			return domain.Validationf("donor has no customer profile")
		}

		existing, err := tx.Donations().GetByCampaignAndDonor(ctx, campaignID, donorID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: already enrolled in this campaign", domain.ErrConflict)
		}

		if campaign.LimitDonation > 0 {
			count, err := tx.Donations().CountActiveByCampaign(ctx, campaignID)
			if err != nil {
				return err
			}
			if count >= int64(campaign.LimitDonation) {
				return fmt.Errorf("%w: campaign is full", domain.ErrConflict)
			}
		}

		if err := tx.Donations().Create(ctx, donation); err != nil {
			return err
		}
		return tx.DonationLogs().Create(ctx, &domain.CampaignDonationLog{
			ID:                 uuid.New(),
			CampaignDonationID: donation.ID,
			Status:             donation.CurrentStatus,
			Note:               input.Note,
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return donation, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, actor *domain.Account, input domain.UpdateDonationStatusInput) (*domain.CampaignDonation, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	next := input.Status
	if next == domain.DonationCompleted && (input.Volume == nil || *input.Volume <= 0) {
		return nil, domain.Validationf("volume is required to complete a donation")
	}

	now := s.now()
	var (
		donation *domain.CampaignDonation
		unit     *domain.BloodUnit
	)
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		donation, err = tx.Donations().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if donation == nil {
			return domain.ErrDonationNotFound
		}

		var staffID *uuid.UUID
		if next.IsCustomerInitiated() {
			if actor.ID != donation.DonorID {
				return fmt.Errorf("%w: only the donor can cancel this donation", domain.ErrForbidden)
			}
		} else {
			if !actor.IsStaff() {
				return fmt.Errorf("%w: staff role required", domain.ErrForbidden)
			}
			staffID = &actor.ID
		}

		if err := domain.DonationMachine.Check(donation.CurrentStatus, next); err != nil {
			return err
		}

		if next == domain.DonationCompleted {
			unit, err = s.collect(ctx, tx, donation, *input.Volume, staffID, now)
			if err != nil {
				return err
			}
			donation.Volume = input.Volume
		}

		previous := donation.CurrentStatus
		donation.CurrentStatus = next
		if input.Note != nil {
			donation.Note = input.Note
		}
		if err := tx.Donations().UpdateStatus(ctx, donation); err != nil {
			return err
		}
		return tx.DonationLogs().Create(ctx, &domain.CampaignDonationLog{
			ID:                 uuid.New(),
			CampaignDonationID: donation.ID,
			StaffID:            staffID,
			PreviousStatus:     &previous,
			Status:             next,
			Note:               input.Note,
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	if unit != nil {
		s.notifyCompleted(ctx, donation.DonorID, unit)
	}
	return donation, nil
}

// collect creates the whole-blood unit for a completed donation. The
// conditional mark guarantees at most one unit per donation.
func (s *service) collect(ctx context.Context, tx repository.Tx, donation *domain.CampaignDonation, volume int, staffID *uuid.UUID, now time.Time) (*domain.BloodUnit, error) {
	donor, err := tx.Customers().GetByAccountID(ctx, donation.DonorID)
	if err != nil {
		return nil, err
	}
	if donor == nil {
		return nil, domain.Validationf("donor has no customer profile")
	}
	bt, ok := donor.BloodType()
	if !ok {
		return nil, domain.Validationf("donor blood type is unknown")
	}

	unit := &domain.BloodUnit{
		ID:              uuid.New(),
		MemberID:        donation.DonorID,
		BloodType:       bt,
		ComponentType:   domain.ComponentWholeBlood,
		Volume:          volume,
		RemainingVolume: volume,
		ExpiredDate:     now.Add(s.cfg.WholeBloodShelfLife),
		Status:          domain.BloodUnitMachine.Initial(),
	}
	if err := tx.BloodUnits().Create(ctx, unit); err != nil {
		return nil, err
	}

	remaining := unit.RemainingVolume
	expires := unit.ExpiredDate
	desc := fmt.Sprintf("collected from campaign donation %s", donation.ID)
	if err := tx.BloodUnitActions().Create(ctx, &domain.BloodUnitAction{
		ID:          uuid.New(),
		BloodUnitID: unit.ID,
		StaffID:     staffID,
		Action:      domain.UnitActionCreated,
		NewValue: domain.UnitSnapshot{
			Status:          unit.Status,
			RemainingVolume: &remaining,
			ExpiredDate:     &expires,
		}.JSON(),
		Description: &desc,
	}); err != nil {
		return nil, err
	}

	won, err := tx.Donations().MarkBloodUnitCreated(ctx, donation.ID, unit.ID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, fmt.Errorf("%w: blood unit already created for this donation", domain.ErrConflict)
	}
	donation.IsBloodUnitCreated = true
	donation.BloodUnitID = &unit.ID

	if err := tx.Customers().TouchLastDonation(ctx, donation.DonorID, now); err != nil {
		return nil, err
	}
	return unit, nil
}

func (s *service) notifyCompleted(ctx context.Context, donorID uuid.UUID, unit *domain.BloodUnit) {
	if s.emailSvc == nil || s.accounts == nil {
		return
	}
	account, err := s.accounts.GetByID(ctx, donorID)
	if err != nil || account == nil {
		s.logger.Warn("Donor account lookup failed", zap.String("donor_id", donorID.String()), zap.Error(err))
		return
	}
	if err := s.emailSvc.SendDonationCompleted(ctx, account.Email, account.FullName(), unit); err != nil {
		s.logger.Warn("Failed to send donation email", zap.String("donor_id", donorID.String()), zap.Error(err))
	}
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*domain.CampaignDonation, error) {
	donation, err := s.store.Donations().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		return nil, domain.ErrDonationNotFound
	}
	return donation, nil
}

func (s *service) ListByCampaign(ctx context.Context, campaignID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.CampaignDonation], error) {
	params.Validate()
	items, total, err := s.store.Donations().ListByCampaign(ctx, campaignID, params)
	if err != nil {
		return domain.PaginatedResponse[domain.CampaignDonation]{}, err
	}
	return domain.NewPaginatedResponse(items, params, total), nil
}

func (s *service) ListByDonor(ctx context.Context, donorID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.CampaignDonation], error) {
	params.Validate()
	items, total, err := s.store.Donations().ListByDonor(ctx, donorID, params)
	if err != nil {
		return domain.PaginatedResponse[domain.CampaignDonation]{}, err
	}
	return domain.NewPaginatedResponse(items, params, total), nil
}

func (s *service) Logs(ctx context.Context, id uuid.UUID) ([]domain.CampaignDonationLog, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	logs, err := s.store.DonationLogs().ListByDonation(ctx, id)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []domain.CampaignDonationLog{}
	}
	return logs, nil
}
