package emergency

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blood-donation/internal/config"
	"blood-donation/internal/domain"
	"blood-donation/internal/repository"
	"blood-donation/internal/service/compatibility"
	"blood-donation/internal/service/dashboard"
	"blood-donation/internal/service/email"
)

const sweepBatch = 100

type Service interface {
	Create(ctx context.Context, requester *domain.Account, input domain.CreateEmergencyRequestInput) (*domain.EmergencyRequest, error)
	Update(ctx context.Context, id uuid.UUID, requester *domain.Account, input domain.UpdateEmergencyRequestInput) (*domain.EmergencyRequest, error)
	Approve(ctx context.Context, id, staffID uuid.UUID, input domain.ApproveEmergencyRequestInput) (*domain.EmergencyRequest, error)
	Reject(ctx context.Context, id, staffID uuid.UUID, input domain.RejectEmergencyRequestInput) (*domain.EmergencyRequest, error)
	BulkReject(ctx context.Context, staffID uuid.UUID, input domain.BulkRejectEmergencyInput) (int, error)
	ProvideContacts(ctx context.Context, id, staffID uuid.UUID, input domain.ProvideContactsInput) (*domain.EmergencyRequest, error)
	MarkWaitForDonor(ctx context.Context, id, staffID uuid.UUID, note *string) (*domain.EmergencyRequest, error)
	SweepExpired(ctx context.Context, now time.Time) (int, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.EmergencyRequest, error)
	List(ctx context.Context, filter domain.EmergencyRequestFilter, params domain.PaginationParams) (domain.PaginatedResponse[domain.EmergencyRequest], error)
	Logs(ctx context.Context, id uuid.UUID) ([]domain.EmergencyRequestLog, error)
}

type service struct {
	store     repository.Store
	accounts  repository.AccountRepository
	hospitals repository.HospitalRepository
	matcher   compatibility.Matcher
	emailSvc  email.Service
	cache     dashboard.Invalidator
	config    *config.Config
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(
	store repository.Store,
	accounts repository.AccountRepository,
	hospitals repository.HospitalRepository,
	matcher compatibility.Matcher,
	emailSvc email.Service,
	cache dashboard.Invalidator,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	return &service{
		store:     store,
		accounts:  accounts,
		hospitals: hospitals,
		matcher:   matcher,
		emailSvc:  emailSvc,
		cache:     cache,
		config:    cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func strPtr(s string) *string { return &s }

func describe(req *domain.EmergencyRequest) string {
	return fmt.Sprintf("%s %s %dml", req.BloodType, req.ComponentType, req.RequiredVolume)
}

func requireStaff(staffID uuid.UUID) error {
	if staffID == uuid.Nil {
		return fmt.Errorf("%w: staff id is required", domain.ErrUnauthorized)
	}
	return nil
}

func (s *service) Create(ctx context.Context, requester *domain.Account, input domain.CreateEmergencyRequestInput) (*domain.EmergencyRequest, error) {
	if requester == nil {
		return nil, domain.ErrUnauthorized
	}
	if !requester.HasRole(domain.RoleHospital, domain.RoleCustomer) {
		return nil, fmt.Errorf("%w: only hospitals and customers can request blood", domain.ErrForbidden)
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	location := input.Location
	if location == (domain.Location{}) && requester.Role == domain.RoleHospital && s.hospitals != nil {
		hospital, err := s.hospitals.GetByAccountID(ctx, requester.ID)
		if err != nil {
			return nil, err
		}
		if hospital != nil {
			location = hospital.Location
		}
	}

	req := &domain.EmergencyRequest{
		ID:             uuid.New(),
		RequestedByID:  requester.ID,
		BloodType:      domain.BloodType{Group: input.BloodGroup, Rh: input.BloodRh},
		ComponentType:  input.ComponentType,
		RequiredVolume: input.RequiredVolume,
		Status:         domain.EmergencyMachine.Initial(),
		Description:    input.Description,
		Location:       location,
	}

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		if err := tx.EmergencyRequests().Create(ctx, req); err != nil {
			return err
		}
		return tx.EmergencyLogs().Create(ctx, &domain.EmergencyRequestLog{
			ID:                 uuid.New(),
			EmergencyRequestID: req.ID,
			AccountID:          &requester.ID,
			Action:             domain.EmergencyLogCreate,
			NewValue:           strPtr(describe(req)),
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return req, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, requester *domain.Account, input domain.UpdateEmergencyRequestInput) (*domain.EmergencyRequest, error) {
	if requester == nil {
		return nil, domain.ErrUnauthorized
	}
	if input.RequiredVolume != nil && *input.RequiredVolume <= 0 {
		return nil, domain.Validationf("required_volume must be positive")
	}

	var req *domain.EmergencyRequest
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		req, err = lockRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		if req.RequestedByID != requester.ID {
			return fmt.Errorf("%w: only the requester can edit this request", domain.ErrForbidden)
		}
		if req.Status != domain.EmergencyPending {
			return fmt.Errorf("%w: request is %s", domain.ErrInvalidTransition, req.Status)
		}

		var logs []domain.EmergencyRequestLog
		change := func(action domain.EmergencyLogAction, prev, next string) {
			logs = append(logs, domain.EmergencyRequestLog{
				ID:                 uuid.New(),
				EmergencyRequestID: req.ID,
				AccountID:          &requester.ID,
				Action:             action,
				PreviousValue:      strPtr(prev),
				NewValue:           strPtr(next),
			})
		}

		if v := input.RequiredVolume; v != nil && *v != req.RequiredVolume {
			change(domain.EmergencyLogVolumeChange, fmt.Sprint(req.RequiredVolume), fmt.Sprint(*v))
			req.RequiredVolume = *v
		}
		if loc := input.Location; loc != nil && formatLocation(*loc) != formatLocation(req.Location) {
			change(domain.EmergencyLogLocationChange, formatLocation(req.Location), formatLocation(*loc))
			req.Location = *loc
		}
		if d := input.Description; d != nil && (req.Description == nil || *d != *req.Description) {
			prev := ""
			if req.Description != nil {
				prev = *req.Description
			}
			change(domain.EmergencyLogDescriptionChange, prev, *d)
			req.Description = d
		}
		if len(logs) == 0 {
			return domain.Validationf("nothing to update")
		}

		if err := tx.EmergencyRequests().Update(ctx, req); err != nil {
			return err
		}
		for i := range logs {
			if err := tx.EmergencyLogs().Create(ctx, &logs[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func formatLocation(l domain.Location) string {
	var parts []string
	for _, p := range []*string{l.WardName, l.DistrictName, l.ProvinceName} {
		if p != nil && *p != "" {
			parts = append(parts, *p)
		}
	}
	out := strings.Join(parts, ", ")
	if l.HasCoordinates() {
		out = strings.TrimSpace(fmt.Sprintf("%s (%.5f, %.5f)", out, *l.Latitude, *l.Longitude))
	}
	return out
}

func lockRequest(ctx context.Context, tx repository.Tx, id uuid.UUID) (*domain.EmergencyRequest, error) {
	req, err := tx.EmergencyRequests().GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.ErrEmergencyRequestNotFound
	}
	return req, nil
}

// advance applies a staff or system status change and writes its log row.
func advance(ctx context.Context, tx repository.Tx, req *domain.EmergencyRequest, next domain.EmergencyStatus, action domain.EmergencyLogAction, staffID *uuid.UUID, note *string) error {
	if err := domain.EmergencyMachine.Check(req.Status, next); err != nil {
		return err
	}
	previous := string(req.Status)
	req.Status = next
	if staffID != nil {
		req.ProcessedBy = staffID
	}
	if err := tx.EmergencyRequests().Update(ctx, req); err != nil {
		return err
	}
	return tx.EmergencyLogs().Create(ctx, &domain.EmergencyRequestLog{
		ID:                 uuid.New(),
		EmergencyRequestID: req.ID,
		StaffID:            staffID,
		Action:             action,
		PreviousValue:      &previous,
		NewValue:           strPtr(string(next)),
		Note:               note,
	})
}

func (s *service) Approve(ctx context.Context, id, staffID uuid.UUID, input domain.ApproveEmergencyRequestInput) (*domain.EmergencyRequest, error) {
	if err := requireStaff(staffID); err != nil {
		return nil, err
	}
	if input.UsedVolume <= 0 {
		return nil, domain.Validationf("used_volume must be positive")
	}
	if input.BloodUnitID == uuid.Nil {
		return nil, domain.Validationf("blood_unit_id is required")
	}

	now := s.now()
	var req *domain.EmergencyRequest
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		req, err = lockRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := domain.EmergencyMachine.Check(req.Status, domain.EmergencyApproved); err != nil {
			return err
		}

		unit, err := tx.BloodUnits().GetForUpdate(ctx, input.BloodUnitID)
		if err != nil {
			return err
		}
		if unit == nil {
			return domain.ErrBloodUnitNotFound
		}
		if unit.Status != domain.UnitAvailable && unit.Status != domain.UnitReserved {
			return fmt.Errorf("%w: blood unit is %s", domain.ErrInvalidTransition, unit.Status)
		}
		if unit.IsExpiredAt(now) {
			return fmt.Errorf("%w: blood unit expired", domain.ErrInvalidTransition)
		}
		if unit.ComponentType != req.ComponentType ||
			!s.matcher.IsCompatible(unit.BloodType, req.BloodType, req.ComponentType) {
			return domain.Validationf("blood unit %s %s is not compatible with %s %s",
				unit.BloodType, unit.ComponentType, req.BloodType, req.ComponentType)
		}
		if input.UsedVolume > unit.RemainingVolume {
			return fmt.Errorf("%w: requested %d ml, unit has %d ml",
				domain.ErrInsufficientVolume, input.UsedVolume, unit.RemainingVolume)
		}

		before := unitSnapshot(unit)
		unit.RemainingVolume -= input.UsedVolume
		next := unit.Status
		if unit.RemainingVolume == 0 {
			next = domain.UnitUsed
		} else if unit.Status == domain.UnitAvailable {
			next = domain.UnitReserved
		}
		if next != unit.Status {
			if err := domain.BloodUnitMachine.Check(unit.Status, next); err != nil {
				return err
			}
			unit.Status = next
		}
		if err := tx.BloodUnits().Update(ctx, unit); err != nil {
			return err
		}
		desc := fmt.Sprintf("used %d ml for emergency request %s", input.UsedVolume, req.ID)
		if err := tx.BloodUnitActions().Create(ctx, &domain.BloodUnitAction{
			ID:            uuid.New(),
			BloodUnitID:   unit.ID,
			StaffID:       &staffID,
			Action:        domain.UnitActionEmergencyUsage,
			PreviousValue: before.JSON(),
			NewValue:      unitSnapshot(unit).JSON(),
			Description:   &desc,
		}); err != nil {
			return err
		}

		var prevUnit *string
		if req.BloodUnitID != nil {
			prevUnit = strPtr(req.BloodUnitID.String())
		}
		assigned := fmt.Sprintf("%d ml", input.UsedVolume)
		if err := tx.EmergencyLogs().Create(ctx, &domain.EmergencyRequestLog{
			ID:                 uuid.New(),
			EmergencyRequestID: req.ID,
			StaffID:            &staffID,
			Action:             domain.EmergencyLogBloodUnitAssigned,
			PreviousValue:      prevUnit,
			NewValue:           strPtr(unit.ID.String()),
			Note:               &assigned,
		}); err != nil {
			return err
		}

		req.BloodUnitID = &unit.ID
		req.UsedVolume = input.UsedVolume
		return advance(ctx, tx, req, domain.EmergencyApproved, domain.EmergencyLogApprove, &staffID, input.Note)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return req, nil
}

func unitSnapshot(u *domain.BloodUnit) domain.UnitSnapshot {
	remaining := u.RemainingVolume
	return domain.UnitSnapshot{Status: u.Status, RemainingVolume: &remaining}
}

func (s *service) Reject(ctx context.Context, id, staffID uuid.UUID, input domain.RejectEmergencyRequestInput) (*domain.EmergencyRequest, error) {
	if err := requireStaff(staffID); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(input.RejectionReason)
	if reason == "" {
		return nil, domain.Validationf("rejection_reason is required")
	}

	var req *domain.EmergencyRequest
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		req, err = lockRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		req.RejectionReason = &reason
		return advance(ctx, tx, req, domain.EmergencyRejected, domain.EmergencyLogReject, &staffID, &reason)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.notify(ctx, req, func(to, name string) error {
		return s.emailSvc.SendRequestRejected(ctx, to, name, req)
	})
	return req, nil
}

func (s *service) BulkReject(ctx context.Context, staffID uuid.UUID, input domain.BulkRejectEmergencyInput) (int, error) {
	if err := requireStaff(staffID); err != nil {
		return 0, err
	}
	bt := domain.BloodType{Group: input.BloodGroup, Rh: input.BloodRh}
	if err := bt.Validate(); err != nil {
		return 0, err
	}
	if !input.ComponentType.IsValid() {
		return 0, domain.Validationf("unknown component type %q", input.ComponentType)
	}
	reason := strings.TrimSpace(input.RejectionReason)
	if reason == "" {
		return 0, domain.Validationf("rejection_reason is required")
	}

	count := 0
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		reqs, err := tx.EmergencyRequests().ListPendingForUpdate(ctx, bt, input.ComponentType)
		if err != nil {
			return err
		}
		for i := range reqs {
			reqs[i].RejectionReason = &reason
			if err := advance(ctx, tx, &reqs[i], domain.EmergencyRejected, domain.EmergencyLogMultipleReject, &staffID, &reason); err != nil {
				return fmt.Errorf("reject emergency request %s: %w", reqs[i].ID, err)
			}
		}
		count = len(reqs)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if count > 0 {
		s.logger.Info("Bulk rejected emergency requests",
			zap.String("blood_type", bt.String()),
			zap.String("component", string(input.ComponentType)),
			zap.Int("count", count))
		s.invalidate(ctx)
	}
	return count, nil
}

func (s *service) ProvideContacts(ctx context.Context, id, staffID uuid.UUID, input domain.ProvideContactsInput) (*domain.EmergencyRequest, error) {
	if err := requireStaff(staffID); err != nil {
		return nil, err
	}
	radius := s.config.ContactsRadiusKm
	if input.RadiusKm != nil {
		if *input.RadiusKm <= 0 {
			return nil, domain.Validationf("radius_km must be positive")
		}
		radius = *input.RadiusKm
	}

	var req *domain.EmergencyRequest
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		req, err = lockRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := domain.EmergencyMachine.Check(req.Status, domain.EmergencyContactsProvided); err != nil {
			return err
		}

		donorTypes, err := s.matcher.Donors(req.BloodType, req.ComponentType)
		if err != nil {
			return err
		}
		candidates, err := tx.Customers().ListContactsByBloodTypes(ctx, donorTypes)
		if err != nil {
			return err
		}
		filtered := candidates[:0]
		for _, c := range candidates {
			if c.AccountID != req.RequestedByID {
				filtered = append(filtered, c)
			}
		}

		req.SuggestedContacts = rankContacts(req.Location, filtered, radius, s.config.ContactsMax)
		note := input.Note
		if note == nil {
			note = strPtr(fmt.Sprintf("%d donor contacts provided", len(req.SuggestedContacts)))
		}
		return advance(ctx, tx, req, domain.EmergencyContactsProvided, domain.EmergencyLogContactsProvided, &staffID, note)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.notify(ctx, req, func(to, name string) error {
		return s.emailSvc.SendContactsProvided(ctx, to, name, req)
	})
	return req, nil
}

func (s *service) MarkWaitForDonor(ctx context.Context, id, staffID uuid.UUID, note *string) (*domain.EmergencyRequest, error) {
	if err := requireStaff(staffID); err != nil {
		return nil, err
	}

	var req *domain.EmergencyRequest
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		req, err = lockRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		return advance(ctx, tx, req, domain.EmergencyWaitForDonor, domain.EmergencyLogWaitForDonor, &staffID, note)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return req, nil
}

// SweepExpired expires open requests created more than the configured TTL
// before now. Repeated runs with the same now are no-ops.
func (s *service) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.config.EmergencyRequestTTL)
	note := fmt.Sprintf("no resolution within %s", s.config.EmergencyRequestTTL)
	total := 0
	for {
		batch := 0
		err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
			reqs, err := tx.EmergencyRequests().ListExpirableForUpdate(ctx, cutoff, sweepBatch)
			if err != nil {
				return err
			}
			for i := range reqs {
				if err := advance(ctx, tx, &reqs[i], domain.EmergencyExpired, domain.EmergencyLogExpire, nil, &note); err != nil {
					return fmt.Errorf("expire emergency request %s: %w", reqs[i].ID, err)
				}
			}
			batch = len(reqs)
			return nil
		})
		if err != nil {
			return total, err
		}
		total += batch
		if batch < sweepBatch {
			break
		}
	}

	if total > 0 {
		s.logger.Info("Expired emergency requests", zap.Int("count", total))
		s.invalidate(ctx)
	}
	return total, nil
}

func (s *service) notify(ctx context.Context, req *domain.EmergencyRequest, send func(to, name string) error) {
	if s.emailSvc == nil || s.accounts == nil {
		return
	}
	account, err := s.accounts.GetByID(ctx, req.RequestedByID)
	if err != nil || account == nil {
		s.logger.Warn("Requester lookup failed", zap.String("request_id", req.ID.String()), zap.Error(err))
		return
	}
	if err := send(account.Email, account.FullName()); err != nil {
		s.logger.Warn("Failed to email requester", zap.String("request_id", req.ID.String()), zap.Error(err))
	}
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*domain.EmergencyRequest, error) {
	req, err := s.store.EmergencyRequests().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.ErrEmergencyRequestNotFound
	}
	return req, nil
}

func (s *service) List(ctx context.Context, filter domain.EmergencyRequestFilter, params domain.PaginationParams) (domain.PaginatedResponse[domain.EmergencyRequest], error) {
	params.Validate()
	items, total, err := s.store.EmergencyRequests().List(ctx, filter, params)
	if err != nil {
		return domain.PaginatedResponse[domain.EmergencyRequest]{}, err
	}
	return domain.NewPaginatedResponse(items, params, total), nil
}

func (s *service) Logs(ctx context.Context, id uuid.UUID) ([]domain.EmergencyRequestLog, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	logs, err := s.store.EmergencyLogs().ListByRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []domain.EmergencyRequestLog{}
	}
	return logs, nil
}
