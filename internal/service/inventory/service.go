package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blood-donation/internal/config"
	"blood-donation/internal/domain"
	"blood-donation/internal/repository"
	"blood-donation/internal/service/compatibility"
	"blood-donation/internal/service/dashboard"
)

// sweepBatch bounds how many units one sweep transaction locks.
const sweepBatch = 100

type Service interface {
	Create(ctx context.Context, staffID uuid.UUID, input domain.CreateBloodUnitInput) (*domain.BloodUnit, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.BloodUnit, error)
	List(ctx context.Context, filter domain.BloodUnitFilter, params domain.PaginationParams) (domain.PaginatedResponse[domain.BloodUnit], error)
	ListByMember(ctx context.Context, memberID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.BloodUnit], error)
	Actions(ctx context.Context, id uuid.UUID) ([]domain.BloodUnitAction, error)
	UpdateStatus(ctx context.Context, id, staffID uuid.UUID, input domain.UpdateBloodUnitStatusInput) (*domain.BloodUnit, error)
	UpdateUnit(ctx context.Context, id, staffID uuid.UUID, input domain.UpdateBloodUnitInput) (*domain.BloodUnit, error)
	Separate(ctx context.Context, id, staffID uuid.UUID) (*domain.SeparationResult, error)
	SweepExpired(ctx context.Context, now time.Time) (int, error)
	SearchCompatible(ctx context.Context, recipient domain.BloodType, component domain.ComponentType) ([]domain.BloodUnit, error)
}

type service struct {
	store   repository.Store
	matcher compatibility.Matcher
	cfg     config.InventoryConfig
	cache   dashboard.Invalidator
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(store repository.Store, matcher compatibility.Matcher, cfg config.InventoryConfig, cache dashboard.Invalidator, logger *zap.Logger) Service {
	return &service{
		store:   store,
		matcher: matcher,
		cfg:     cfg,
		cache:   cache,
		logger:  logger,
		now:     time.Now,
	}
}

func requireStaff(staffID uuid.UUID) error {
	if staffID == uuid.Nil {
		return fmt.Errorf("%w: staff id is required", domain.ErrUnauthorized)
	}
	return nil
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

func (s *service) Create(ctx context.Context, staffID uuid.UUID, input domain.CreateBloodUnitInput) (*domain.BloodUnit, error) {
	if err := requireStaff(staffID); err != nil {
		return nil, err
	}
	bt := domain.BloodType{Group: input.BloodGroup, Rh: input.BloodRh}
	if err := bt.Validate(); err != nil {
		return nil, err
	}
	if !input.ComponentType.IsValid() {
		return nil, domain.Validationf("unknown component type %q", input.ComponentType)
	}
	if input.Volume <= 0 {
		return nil, domain.Validationf("volume must be positive")
	}
	if input.MemberID == uuid.Nil {
		return nil, domain.Validationf("member_id is required")
	}
	now := s.now()
	if !input.ExpiredDate.After(now) {
		return nil, domain.Validationf("expired_date must be in the future")
	}

	unit := &domain.BloodUnit{
		ID:              uuid.New(),
		MemberID:        input.MemberID,
		BloodType:       bt,
		ComponentType:   input.ComponentType,
		Volume:          input.Volume,
		RemainingVolume: input.Volume,
		ExpiredDate:     input.ExpiredDate,
		Status:          domain.BloodUnitMachine.Initial(),
	}

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		member, err := tx.Customers().GetByAccountID(ctx, input.MemberID)
		if err != nil {
			return err
		}
		if member == nil {
			return domain.Validationf("member %s has no customer profile", input.MemberID)
		}
		if err := tx.BloodUnits().Create(ctx, unit); err != nil {
			return err
		}
		return createdAction(ctx, tx, unit, &staffID, input.Description)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return unit, nil
}

func createdAction(ctx context.Context, tx repository.Tx, unit *domain.BloodUnit, staffID *uuid.UUID, description *string) error {
	remaining := unit.RemainingVolume
	expires := unit.ExpiredDate
	return tx.BloodUnitActions().Create(ctx, &domain.BloodUnitAction{
		ID:          uuid.New(),
		BloodUnitID: unit.ID,
		StaffID:     staffID,
		Action:      domain.UnitActionCreated,
		NewValue: domain.UnitSnapshot{
			Status:          unit.Status,
			RemainingVolume: &remaining,
			ExpiredDate:     &expires,
		}.JSON(),
		Description: description,
	})
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*domain.BloodUnit, error) {
	unit, err := s.store.BloodUnits().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, domain.ErrBloodUnitNotFound
	}
	return unit, nil
}

func (s *service) List(ctx context.Context, filter domain.BloodUnitFilter, params domain.PaginationParams) (domain.PaginatedResponse[domain.BloodUnit], error) {
	params.Validate()
	units, total, err := s.store.BloodUnits().List(ctx, filter, params)
	if err != nil {
		return domain.PaginatedResponse[domain.BloodUnit]{}, err
	}
	return domain.NewPaginatedResponse(units, params, total), nil
}

func (s *service) ListByMember(ctx context.Context, memberID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.BloodUnit], error) {
	return s.List(ctx, domain.BloodUnitFilter{MemberID: &memberID}, params)
}

func (s *service) Actions(ctx context.Context, id uuid.UUID) ([]domain.BloodUnitAction, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	actions, err := s.store.BloodUnitActions().ListByUnit(ctx, id)
	if err != nil {
		return nil, err
	}
	if actions == nil {
		actions = []domain.BloodUnitAction{}
	}
	return actions, nil
}

func (s *service) UpdateStatus(ctx context.Context, id, staffID uuid.UUID, input domain.UpdateBloodUnitStatusInput) (*domain.BloodUnit, error) {
	if err := requireStaff(staffID); err != nil {
		return nil, err
	}

	var unit *domain.BloodUnit
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		unit, err = lockUnit(ctx, tx, id)
		if err != nil {
			return err
		}
		return transition(ctx, tx, unit, input.Status, &staffID, input.Description)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return unit, nil
}

func lockUnit(ctx context.Context, tx repository.Tx, id uuid.UUID) (*domain.BloodUnit, error) {
	unit, err := tx.BloodUnits().GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, domain.ErrBloodUnitNotFound
	}
	return unit, nil
}

// transition moves a locked unit to next and records one STATUS_UPDATE action.
func transition(ctx context.Context, tx repository.Tx, unit *domain.BloodUnit, next domain.BloodUnitStatus, staffID *uuid.UUID, description *string) error {
	if err := domain.BloodUnitMachine.Check(unit.Status, next); err != nil {
		return err
	}
	previous := unit.Status
	unit.Status = next
	if err := tx.BloodUnits().Update(ctx, unit); err != nil {
		return err
	}
	return tx.BloodUnitActions().Create(ctx, &domain.BloodUnitAction{
		ID:            uuid.New(),
		BloodUnitID:   unit.ID,
		StaffID:       staffID,
		Action:        domain.UnitActionStatusUpdate,
		PreviousValue: domain.UnitSnapshot{Status: previous}.JSON(),
		NewValue:      domain.UnitSnapshot{Status: next}.JSON(),
		Description:   description,
	})
}

func (s *service) UpdateUnit(ctx context.Context, id, staffID uuid.UUID, input domain.UpdateBloodUnitInput) (*domain.BloodUnit, error) {
	if err := requireStaff(staffID); err != nil {
		return nil, err
	}
	if input.RemainingVolume == nil && input.ExpiredDate == nil {
		return nil, domain.Validationf("remaining_volume or expired_date is required")
	}
	if input.ExpiredDate != nil && input.ExpiredDate.IsZero() {
		return nil, domain.Validationf("expired_date must be set")
	}

	var unit *domain.BloodUnit
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		unit, err = lockUnit(ctx, tx, id)
		if err != nil {
			return err
		}
		if domain.BloodUnitMachine.IsTerminal(unit.Status) {
			return fmt.Errorf("%w: blood unit is %s", domain.ErrInvalidTransition, unit.Status)
		}

		var before, after domain.UnitSnapshot
		action := domain.UnitActionExpiryUpdate
		if v := input.RemainingVolume; v != nil {
			if *v < 0 || *v > unit.Volume {
				return domain.Validationf("remaining_volume must be between 0 and %d", unit.Volume)
			}
			prev := unit.RemainingVolume
			before.RemainingVolume, after.RemainingVolume = &prev, v
			unit.RemainingVolume = *v
			action = domain.UnitActionVolumeChange
		}
		if d := input.ExpiredDate; d != nil {
			prev := unit.ExpiredDate
			before.ExpiredDate, after.ExpiredDate = &prev, d
			unit.ExpiredDate = *d
		}

		if err := tx.BloodUnits().Update(ctx, unit); err != nil {
			return err
		}
		return tx.BloodUnitActions().Create(ctx, &domain.BloodUnitAction{
			ID:            uuid.New(),
			BloodUnitID:   unit.ID,
			StaffID:       &staffID,
			Action:        action,
			PreviousValue: before.JSON(),
			NewValue:      after.JSON(),
			Description:   input.Description,
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return unit, nil
}

type derivedSpec struct {
	component domain.ComponentType
	volume    int
	shelfLife time.Duration
}

func (s *service) derivedSpecs() []derivedSpec {
	return []derivedSpec{
		{domain.ComponentRBC, s.cfg.RBCVolume, s.cfg.RBCShelfLife},
		{domain.ComponentPlasma, s.cfg.PlasmaVolume, s.cfg.PlasmaShelfLife},
		{domain.ComponentPlatelets, s.cfg.PlateletsVolume, s.cfg.PlateletsShelfLife},
	}
}

func (s *service) Separate(ctx context.Context, id, staffID uuid.UUID) (*domain.SeparationResult, error) {
	if err := requireStaff(staffID); err != nil {
		return nil, err
	}

	specs := s.derivedSpecs()
	needed := 0
	for _, sp := range specs {
		if sp.volume <= 0 {
			return nil, domain.Validationf("separation volume for %s is not configured", sp.component)
		}
		needed += sp.volume
	}

	now := s.now()
	result := &domain.SeparationResult{}
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		source, err := lockUnit(ctx, tx, id)
		if err != nil {
			return err
		}
		if source.ComponentType != domain.ComponentWholeBlood {
			return domain.Validationf("only %s units can be separated", domain.ComponentWholeBlood)
		}
		if source.Status != domain.UnitAvailable {
			return fmt.Errorf("%w: blood unit is %s", domain.ErrInvalidTransition, source.Status)
		}
		if source.IsExpiredAt(now) {
			return fmt.Errorf("%w: blood unit expired", domain.ErrInvalidTransition)
		}
		if needed > source.RemainingVolume {
			return fmt.Errorf("%w: separation needs %d ml, unit has %d ml",
				domain.ErrInsufficientVolume, needed, source.RemainingVolume)
		}
		if err := domain.BloodUnitMachine.Check(source.Status, domain.UnitUsed); err != nil {
			return err
		}
		expiries := make([]time.Time, len(specs))
		for i, sp := range specs {
			expiries[i] = derivedExpiry(source, sp.shelfLife, now)
			if !expiries[i].After(now) {
				return fmt.Errorf("%w: %s from this unit would already be expired",
					domain.ErrInvalidTransition, sp.component)
			}
		}

		prevRemaining := source.RemainingVolume
		zero := 0
		source.Status = domain.UnitUsed
		source.RemainingVolume = 0
		if err := tx.BloodUnits().Update(ctx, source); err != nil {
			return err
		}
		desc := fmt.Sprintf("separated into %d components", len(specs))
		if err := tx.BloodUnitActions().Create(ctx, &domain.BloodUnitAction{
			ID:            uuid.New(),
			BloodUnitID:   source.ID,
			StaffID:       &staffID,
			Action:        domain.UnitActionComponentSeparated,
			PreviousValue: domain.UnitSnapshot{Status: domain.UnitAvailable, RemainingVolume: &prevRemaining}.JSON(),
			NewValue:      domain.UnitSnapshot{Status: domain.UnitUsed, RemainingVolume: &zero}.JSON(),
			Description:   &desc,
		}); err != nil {
			return err
		}

		derived := make([]domain.BloodUnit, 0, len(specs))
		for i, sp := range specs {
			parent := source.ID
			unit := &domain.BloodUnit{
				ID:              uuid.New(),
				MemberID:        source.MemberID,
				BloodType:       source.BloodType,
				ComponentType:   sp.component,
				Volume:          sp.volume,
				RemainingVolume: sp.volume,
				ExpiredDate:     expiries[i],
				Status:          domain.BloodUnitMachine.Initial(),
				ParentID:        &parent,
			}
			if err := tx.BloodUnits().Create(ctx, unit); err != nil {
				return err
			}
			note := fmt.Sprintf("separated from %s", source.ID)
			if err := createdAction(ctx, tx, unit, &staffID, &note); err != nil {
				return err
			}
			derived = append(derived, *unit)
		}

		result.Source = source
		result.Derived = derived
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return result, nil
}

// derivedExpiry counts a component's shelf life from the source's collection
// and never past the source's own expiry.
func derivedExpiry(source *domain.BloodUnit, shelfLife time.Duration, now time.Time) time.Time {
	collected := source.CreatedAt
	if collected.IsZero() {
		collected = now
	}
	expiry := collected.Add(shelfLife)
	if expiry.After(source.ExpiredDate) {
		expiry = source.ExpiredDate
	}
	return expiry
}

// SweepExpired expires every non-terminal unit past its expiry date in
// batches. Running it again with the same now changes nothing.
func (s *service) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	total := 0
	for {
		batch := 0
		err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
			units, err := tx.BloodUnits().ListExpiredForUpdate(ctx, now, sweepBatch)
			if err != nil {
				return err
			}
			desc := "expired"
			for i := range units {
				if err := transition(ctx, tx, &units[i], domain.UnitExpired, nil, &desc); err != nil {
					return fmt.Errorf("expire blood unit %s: %w", units[i].ID, err)
				}
			}
			batch = len(units)
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
		s.logger.Info("Expired blood units", zap.Int("count", total))
		s.invalidate(ctx)
	}
	return total, nil
}

func (s *service) SearchCompatible(ctx context.Context, recipient domain.BloodType, component domain.ComponentType) ([]domain.BloodUnit, error) {
	donors, err := s.matcher.Donors(recipient, component)
	if err != nil {
		return nil, err
	}
	units, err := s.store.BloodUnits().ListAvailableByTypes(ctx, donors, component, s.now())
	if err != nil {
		return nil, err
	}
	if units == nil {
		units = []domain.BloodUnit{}
	}
	return units, nil
}
