package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EmergencyStatus string

const (
	EmergencyPending          EmergencyStatus = "PENDING"
	EmergencyWaitForDonor     EmergencyStatus = "WAIT_FOR_DONOR"
	EmergencyApproved         EmergencyStatus = "APPROVED"
	EmergencyRejected         EmergencyStatus = "REJECTED"
	EmergencyContactsProvided EmergencyStatus = "CONTACTS_PROVIDED"
	EmergencyExpired          EmergencyStatus = "EXPIRED"
)

var EmergencyMachine = NewMachine("emergency request", EmergencyPending,
	map[EmergencyStatus][]EmergencyStatus{
		EmergencyPending: {
			EmergencyWaitForDonor, EmergencyApproved, EmergencyRejected,
			EmergencyContactsProvided, EmergencyExpired,
		},
		EmergencyWaitForDonor: {
			EmergencyApproved, EmergencyRejected, EmergencyContactsProvided, EmergencyExpired,
		},
		EmergencyContactsProvided: {
			EmergencyApproved, EmergencyRejected, EmergencyExpired,
		},
	},
	EmergencyApproved, EmergencyRejected, EmergencyExpired,
)

var NonTerminalEmergencyStatuses = []EmergencyStatus{
	EmergencyPending, EmergencyWaitForDonor, EmergencyContactsProvided,
}

// EmergencyLogAction is finer grained than EmergencyStatus: edits that do not
// move the status still leave a trail.
type EmergencyLogAction string

const (
	EmergencyLogCreate            EmergencyLogAction = "CREATE"
	EmergencyLogVolumeChange      EmergencyLogAction = "VOLUME_CHANGE"
	EmergencyLogLocationChange    EmergencyLogAction = "LOCATION_CHANGE"
	EmergencyLogDescriptionChange EmergencyLogAction = "DESCRIPTION_CHANGE"
	EmergencyLogWaitForDonor      EmergencyLogAction = "WAIT_FOR_DONOR"
	EmergencyLogBloodUnitAssigned EmergencyLogAction = "BLOOD_UNIT_ASSIGNED"
	EmergencyLogApprove           EmergencyLogAction = "APPROVE"
	EmergencyLogReject            EmergencyLogAction = "REJECT"
	EmergencyLogMultipleReject    EmergencyLogAction = "MULTIPLE_REJECTIONS"
	EmergencyLogContactsProvided  EmergencyLogAction = "CONTACTS_PROVIDED"
	EmergencyLogExpire            EmergencyLogAction = "EXPIRE"
)

type Location struct {
	WardName     *string  `json:"ward_name,omitempty" db:"ward_name"`
	DistrictName *string  `json:"district_name,omitempty" db:"district_name"`
	ProvinceName *string  `json:"province_name,omitempty" db:"province_name"`
	Longitude    *float64 `json:"longitude,omitempty" db:"longitude"`
	Latitude     *float64 `json:"latitude,omitempty" db:"latitude"`
}

func (l Location) HasCoordinates() bool {
	return l.Longitude != nil && l.Latitude != nil
}

type DonorContact struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      *string   `json:"phone,omitempty"`
	BloodType  string    `json:"blood_type"`
	DistanceKm *float64  `json:"distance_km,omitempty"`
}

// DonorContacts is stored as a JSONB column.
type DonorContacts []DonorContact

func (c DonorContacts) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	return json.Marshal(c)
}

func (c *DonorContacts) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*c = nil
		return nil
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("cannot scan %T into DonorContacts", src)
	}
}

type EmergencyRequest struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	RequestedByID uuid.UUID  `json:"requested_by_id" db:"requested_by_id"`
	BloodUnitID   *uuid.UUID `json:"blood_unit_id,omitempty" db:"blood_unit_id"`
	BloodType
	ComponentType     ComponentType   `json:"blood_component_type" db:"blood_component_type"`
	RequiredVolume    int             `json:"required_volume" db:"required_volume"`
	UsedVolume        int             `json:"used_volume" db:"used_volume"`
	Status            EmergencyStatus `json:"status" db:"status"`
	SuggestedContacts DonorContacts   `json:"suggested_contacts,omitempty" db:"suggested_contacts"`
	RejectionReason   *string         `json:"rejection_reason,omitempty" db:"rejection_reason"`
	Description       *string         `json:"description,omitempty" db:"description"`
	ProcessedBy       *uuid.UUID      `json:"processed_by,omitempty" db:"processed_by"`
	Location
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type EmergencyRequestLog struct {
	ID                 uuid.UUID          `json:"id" db:"id"`
	EmergencyRequestID uuid.UUID          `json:"emergency_request_id" db:"emergency_request_id"`
	StaffID            *uuid.UUID         `json:"staff_id,omitempty" db:"staff_id"`
	AccountID          *uuid.UUID         `json:"account_id,omitempty" db:"account_id"`
	Action             EmergencyLogAction `json:"action" db:"action"`
	PreviousValue      *string            `json:"previous_value,omitempty" db:"previous_value"`
	NewValue           *string            `json:"new_value,omitempty" db:"new_value"`
	Note               *string            `json:"note,omitempty" db:"note"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
}

type CreateEmergencyRequestInput struct {
	BloodGroup     BloodGroup    `json:"blood_group" validate:"required,oneof=A B AB O"`
	BloodRh        RhFactor      `json:"blood_rh" validate:"required,oneof=POSITIVE NEGATIVE"`
	ComponentType  ComponentType `json:"blood_component_type" validate:"required"`
	RequiredVolume int           `json:"required_volume" validate:"required,min=1"`
	Description    *string       `json:"description,omitempty" validate:"omitempty,max=1000"`
	Location
}

func (in CreateEmergencyRequestInput) Validate() error {
	if err := (BloodType{Group: in.BloodGroup, Rh: in.BloodRh}).Validate(); err != nil {
		return err
	}
	if !in.ComponentType.IsValid() {
		return Validationf("unknown component type %q", in.ComponentType)
	}
	if in.RequiredVolume <= 0 {
		return Validationf("required_volume must be positive")
	}
	return nil
}

type UpdateEmergencyRequestInput struct {
	RequiredVolume *int      `json:"required_volume,omitempty" validate:"omitempty,min=1"`
	Description    *string   `json:"description,omitempty"`
	Location       *Location `json:"location,omitempty"`
}

type ApproveEmergencyRequestInput struct {
	BloodUnitID uuid.UUID `json:"blood_unit_id" validate:"required"`
	UsedVolume  int       `json:"used_volume" validate:"required,min=1"`
	Note        *string   `json:"note,omitempty"`
}

type RejectEmergencyRequestInput struct {
	RejectionReason string `json:"rejection_reason" validate:"required"`
}

type BulkRejectEmergencyInput struct {
	BloodGroup      BloodGroup    `json:"blood_group" validate:"required"`
	BloodRh         RhFactor      `json:"blood_rh" validate:"required"`
	ComponentType   ComponentType `json:"blood_component_type" validate:"required"`
	RejectionReason string        `json:"rejection_reason" validate:"required"`
}

type ProvideContactsInput struct {
	RadiusKm *float64 `json:"radius_km,omitempty" validate:"omitempty,gt=0"`
	Note     *string  `json:"note,omitempty"`
}

type EmergencyRequestFilter struct {
	Status        *EmergencyStatus
	RequestedByID *uuid.UUID
	ComponentType *ComponentType
	BloodGroup    *BloodGroup
	BloodRh       *RhFactor
}
