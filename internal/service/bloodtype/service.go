package bloodtype

import (
	"context"

	"go.uber.org/zap"

	"blood-donation/internal/domain"
	"blood-donation/internal/repository"
	"blood-donation/internal/service/compatibility"
)

// Compatibility is a lookup answer: the queried type and the matching types in
// registry order.
type Compatibility struct {
	BloodType     domain.BloodType     `json:"blood_type"`
	Label         string               `json:"label"`
	ComponentType domain.ComponentType `json:"blood_component_type"`
	Matches       []domain.BloodType   `json:"matches"`
}

type Service interface {
	List(ctx context.Context) ([]domain.BloodType, error)
	Donors(group domain.BloodGroup, rh domain.RhFactor, component domain.ComponentType) (*Compatibility, error)
	Recipients(group domain.BloodGroup, rh domain.RhFactor, component domain.ComponentType) (*Compatibility, error)
	// Seed writes the registry and regenerates the compatibility table.
	Seed(ctx context.Context) (int, error)
}

type service struct {
	repo   repository.BloodTypeRepository
	engine *compatibility.Engine
	logger *zap.Logger
}

func NewService(repo repository.BloodTypeRepository, engine *compatibility.Engine, logger *zap.Logger) Service {
	return &service{repo: repo, engine: engine, logger: logger}
}

func (s *service) List(ctx context.Context) ([]domain.BloodType, error) {
	types, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return domain.AllBloodTypes, nil
	}
	return types, nil
}

func (s *service) Donors(group domain.BloodGroup, rh domain.RhFactor, component domain.ComponentType) (*Compatibility, error) {
	return s.lookup(group, rh, component, s.engine.Donors)
}

func (s *service) Recipients(group domain.BloodGroup, rh domain.RhFactor, component domain.ComponentType) (*Compatibility, error) {
	return s.lookup(group, rh, component, s.engine.Recipients)
}

func (s *service) lookup(group domain.BloodGroup, rh domain.RhFactor, component domain.ComponentType,
	fn func(domain.BloodType, domain.ComponentType) ([]domain.BloodType, error)) (*Compatibility, error) {
	bt, err := domain.NewBloodType(group, rh)
	if err != nil {
		return nil, err
	}
	if component == "" {
		component = domain.ComponentWholeBlood
	}
	matches, err := fn(bt, component)
	if err != nil {
		return nil, err
	}
	return &Compatibility{BloodType: bt, Label: bt.String(), ComponentType: component, Matches: matches}, nil
}

func (s *service) Seed(ctx context.Context) (int, error) {
	pairs := s.engine.Pairs()
	if err := s.repo.Seed(ctx, domain.AllBloodTypes, pairs); err != nil {
		return 0, err
	}
	s.logger.Info("Seeded blood types",
		zap.Int("blood_types", len(domain.AllBloodTypes)),
		zap.Int("compatibilities", len(pairs)))
	return len(pairs), nil
}
