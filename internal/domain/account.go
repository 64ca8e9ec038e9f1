package domain

import (
	"time"

	"github.com/google/uuid"
)

type AccountRole string

const (
	RoleAdmin    AccountRole = "admin"
	RoleStaff    AccountRole = "staff"
	RoleCustomer AccountRole = "customer"
	RoleHospital AccountRole = "hospital"
)

func (r AccountRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleCustomer, RoleHospital:
		return true
	default:
		return false
	}
}

// Account mirrors an identity-provider user. ExternalID is the provider's user
// id and is the upsert key for webhook events.
type Account struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	ExternalID string      `json:"external_id" db:"external_id"`
	Email      string      `json:"email" db:"email"`
	FirstName  *string     `json:"first_name,omitempty" db:"first_name"`
	LastName   *string     `json:"last_name,omitempty" db:"last_name"`
	AvatarURL  *string     `json:"avatar_url,omitempty" db:"avatar_url"`
	Role       AccountRole `json:"role" db:"role"`
	IsActive   bool        `json:"is_active" db:"is_active"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`
}

func (a *Account) FullName() string {
	name := ""
	if a.FirstName != nil {
		name = *a.FirstName
	}
	if a.LastName != nil && *a.LastName != "" {
		if name != "" {
			name += " "
		}
		name += *a.LastName
	}
	if name == "" {
		return a.Email
	}
	return name
}

// HasRole treats admin as a superset of staff.
func (a *Account) HasRole(roles ...AccountRole) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
		if r == RoleStaff && a.Role == RoleAdmin {
			return true
		}
	}
	return false
}

func (a *Account) IsStaff() bool {
	return a.HasRole(RoleStaff)
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type Customer struct {
	AccountID        uuid.UUID   `json:"account_id" db:"account_id"`
	BloodGroup       *BloodGroup `json:"blood_group,omitempty" db:"blood_group"`
	BloodRh          *RhFactor   `json:"blood_rh,omitempty" db:"blood_rh"`
	Phone            *string     `json:"phone,omitempty" db:"phone"`
	Gender           *Gender     `json:"gender,omitempty" db:"gender"`
	DateOfBirth      *time.Time  `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Location
	LastDonationDate *time.Time `json:"last_donation_date,omitempty" db:"last_donation_date"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// BloodType returns the customer's blood type when both parts are known.
func (c *Customer) BloodType() (BloodType, bool) {
	if c.BloodGroup == nil || c.BloodRh == nil {
		return BloodType{}, false
	}
	return BloodType{Group: *c.BloodGroup, Rh: *c.BloodRh}, true
}

// CustomerContact joins a customer profile with its account for contact lists.
type CustomerContact struct {
	Customer
	Email     string  `json:"email" db:"email"`
	FirstName *string `json:"first_name,omitempty" db:"first_name"`
	LastName  *string `json:"last_name,omitempty" db:"last_name"`
}

type Hospital struct {
	AccountID uuid.UUID `json:"account_id" db:"account_id"`
	Name      string    `json:"name" db:"name"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	Location
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type UpdateAccountInput struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,min=1"`
	LastName  *string `json:"last_name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

type UpdateCustomerInput struct {
	BloodGroup  *BloodGroup `json:"blood_group,omitempty" validate:"omitempty,oneof=A B AB O"`
	BloodRh     *RhFactor   `json:"blood_rh,omitempty" validate:"omitempty,oneof=POSITIVE NEGATIVE"`
	Phone       *string     `json:"phone,omitempty"`
	Gender      *Gender     `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	DateOfBirth *time.Time  `json:"date_of_birth,omitempty"`
	Location    *Location   `json:"location,omitempty"`
}

type AssignRoleInput struct {
	Role AccountRole `json:"role" validate:"required,oneof=admin staff customer hospital"`
}

// IdentityUser is the subset of an identity-provider user payload the webhook
// consumes.
type IdentityUser struct {
	ExternalID string
	Email      string
	FirstName  *string
	LastName   *string
	AvatarURL  *string
	Role       AccountRole
}

// AccountProfile is an account together with its role profile.
type AccountProfile struct {
	Account
	Customer *Customer `json:"customer,omitempty"`
	Hospital *Hospital `json:"hospital,omitempty"`
}

const (
	IdentityUserCreated = "user.created"
	IdentityUserUpdated = "user.updated"
	IdentityUserDeleted = "user.deleted"
)

type IdentityEvent struct {
	Type string
	User IdentityUser
}
