package account

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blood-donation/internal/domain"
	"blood-donation/internal/repository"
)

type Service interface {
	// SyncUser mirrors an identity-provider user and makes sure the profile
	// row for its role exists.
	SyncUser(ctx context.Context, user domain.IdentityUser) (*domain.Account, error)
	DeactivateUser(ctx context.Context, externalID string) error
	HandleEvent(ctx context.Context, event domain.IdentityEvent) error

	GetActive(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	Me(ctx context.Context, id uuid.UUID) (*domain.AccountProfile, error)
	UpdateMe(ctx context.Context, id uuid.UUID, input domain.UpdateAccountInput) (*domain.Account, error)
	UpdateCustomerProfile(ctx context.Context, id uuid.UUID, input domain.UpdateCustomerInput) (*domain.Customer, error)
	AssignRole(ctx context.Context, id uuid.UUID, role domain.AccountRole) (*domain.Account, error)
	List(ctx context.Context, role *domain.AccountRole, params domain.PaginationParams) (domain.PaginatedResponse[domain.Account], error)
}

type service struct {
	accounts  repository.AccountRepository
	customers repository.CustomerRepository
	hospitals repository.HospitalRepository
	logger    *zap.Logger
}

func NewService(accounts repository.AccountRepository, customers repository.CustomerRepository, hospitals repository.HospitalRepository, logger *zap.Logger) Service {
	return &service{
		accounts:  accounts,
		customers: customers,
		hospitals: hospitals,
		logger:    logger,
	}
}

func (s *service) HandleEvent(ctx context.Context, event domain.IdentityEvent) error {
	switch event.Type {
	case domain.IdentityUserCreated, domain.IdentityUserUpdated:
		_, err := s.SyncUser(ctx, event.User)
		return err
	case domain.IdentityUserDeleted:
		return s.DeactivateUser(ctx, event.User.ExternalID)
	default:
		s.logger.Debug("Ignoring identity event", zap.String("type", event.Type))
		return nil
	}
}

func (s *service) SyncUser(ctx context.Context, user domain.IdentityUser) (*domain.Account, error) {
	if user.ExternalID == "" {
		return nil, domain.Validationf("user id is required")
	}
	if user.Email == "" {
		return nil, domain.Validationf("user %s has no email address", user.ExternalID)
	}

	existing, err := s.accounts.GetByExternalID(ctx, user.ExternalID)
	if err != nil {
		return nil, err
	}

	role := user.Role
	switch {
	case role != "" && !role.IsValid():
		return nil, domain.Validationf("unknown role %q", role)
	case role == "" && existing != nil:
		role = existing.Role
	case role == "":
		role = domain.RoleCustomer
	}

	account := &domain.Account{
		ID:         uuid.New(),
		ExternalID: user.ExternalID,
		Email:      user.Email,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		AvatarURL:  user.AvatarURL,
		Role:       role,
	}
	if existing != nil {
		account.ID = existing.ID
	}
	if err := s.accounts.UpsertByExternalID(ctx, account); err != nil {
		return nil, err
	}
	if err := s.ensureProfile(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("Synced identity user",
		zap.String("account_id", account.ID.String()),
		zap.String("role", string(account.Role)))
	return account, nil
}

func (s *service) ensureProfile(ctx context.Context, account *domain.Account) error {
	switch account.Role {
	case domain.RoleCustomer:
		customer, err := s.customers.GetByAccountID(ctx, account.ID)
		if err != nil || customer != nil {
			return err
		}
		return s.customers.Upsert(ctx, &domain.Customer{AccountID: account.ID})
	case domain.RoleHospital:
		hospital, err := s.hospitals.GetByAccountID(ctx, account.ID)
		if err != nil || hospital != nil {
			return err
		}
		return s.hospitals.Upsert(ctx, &domain.Hospital{AccountID: account.ID, Name: account.FullName()})
	}
	return nil
}

func (s *service) DeactivateUser(ctx context.Context, externalID string) error {
	if externalID == "" {
		return domain.Validationf("user id is required")
	}
	found, err := s.accounts.DeactivateByExternalID(ctx, externalID)
	if err != nil {
		return err
	}
	if !found {
		s.logger.Warn("Deactivation for unknown identity user", zap.String("external_id", externalID))
	}
	return nil
}

// GetActive loads an account for request authentication.
func (s *service) GetActive(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}
	if !account.IsActive {
		return nil, fmt.Errorf("%w: account is deactivated", domain.ErrUnauthorized)
	}
	return account, nil
}

func (s *service) Me(ctx context.Context, id uuid.UUID) (*domain.AccountProfile, error) {
	account, err := s.GetActive(ctx, id)
	if err != nil {
		return nil, err
	}
	profile := &domain.AccountProfile{Account: *account}

	switch account.Role {
	case domain.RoleCustomer:
		if profile.Customer, err = s.customers.GetByAccountID(ctx, id); err != nil {
			return nil, err
		}
	case domain.RoleHospital:
		if profile.Hospital, err = s.hospitals.GetByAccountID(ctx, id); err != nil {
			return nil, err
		}
	}
	return profile, nil
}

func (s *service) UpdateMe(ctx context.Context, id uuid.UUID, input domain.UpdateAccountInput) (*domain.Account, error) {
	account, err := s.GetActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.FirstName != nil {
		if *input.FirstName == "" {
			return nil, domain.Validationf("first_name must not be empty")
		}
		account.FirstName = input.FirstName
	}
	if input.LastName != nil {
		account.LastName = input.LastName
	}
	if input.AvatarURL != nil {
		account.AvatarURL = input.AvatarURL
	}
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *service) UpdateCustomerProfile(ctx context.Context, id uuid.UUID, input domain.UpdateCustomerInput) (*domain.Customer, error) {
	account, err := s.GetActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.Role != domain.RoleCustomer {
		return nil, fmt.Errorf("%w: only customers have a donor profile", domain.ErrForbidden)
	}
	if input.BloodGroup != nil && !input.BloodGroup.IsValid() {
		return nil, domain.Validationf("unknown blood group %q", *input.BloodGroup)
	}
	if input.BloodRh != nil && !input.BloodRh.IsValid() {
		return nil, domain.Validationf("unknown rh factor %q", *input.BloodRh)
	}
	if loc := input.Location; loc != nil && (loc.Latitude == nil) != (loc.Longitude == nil) {
		return nil, domain.Validationf("latitude and longitude must be set together")
	}

	customer, err := s.customers.GetByAccountID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		customer = &domain.Customer{AccountID: id}
	}
	if input.BloodGroup != nil {
		customer.BloodGroup = input.BloodGroup
	}
	if input.BloodRh != nil {
		customer.BloodRh = input.BloodRh
	}
	if input.Phone != nil {
		customer.Phone = input.Phone
	}
	if input.Gender != nil {
		customer.Gender = input.Gender
	}
	if input.DateOfBirth != nil {
		customer.DateOfBirth = input.DateOfBirth
	}
	if input.Location != nil {
		customer.Location = *input.Location
	}

	if err := s.customers.Upsert(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *service) AssignRole(ctx context.Context, id uuid.UUID, role domain.AccountRole) (*domain.Account, error) {
	if !role.IsValid() {
		return nil, domain.Validationf("unknown role %q", role)
	}
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}
	if err := s.accounts.SetRole(ctx, id, role); err != nil {
		return nil, err
	}
	account.Role = role
	if err := s.ensureProfile(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *service) List(ctx context.Context, role *domain.AccountRole, params domain.PaginationParams) (domain.PaginatedResponse[domain.Account], error) {
	params.Validate()
	if role != nil && !role.IsValid() {
		return domain.PaginatedResponse[domain.Account]{}, domain.Validationf("unknown role %q", *role)
	}
	accounts, total, err := s.accounts.List(ctx, role, params)
	if err != nil {
		return domain.PaginatedResponse[domain.Account]{}, err
	}
	return domain.NewPaginatedResponse(accounts, params, total), nil
}
