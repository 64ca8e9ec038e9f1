package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type BloodUnitStatus string

const (
	UnitAvailable   BloodUnitStatus = "AVAILABLE"
	UnitReserved    BloodUnitStatus = "RESERVED"
	UnitUsed        BloodUnitStatus = "USED"
	UnitExpired     BloodUnitStatus = "EXPIRED"
	UnitTransferred BloodUnitStatus = "TRANSFERRED"
	UnitDamaged     BloodUnitStatus = "DAMAGED"
)

var BloodUnitMachine = NewMachine("blood unit", UnitAvailable,
	map[BloodUnitStatus][]BloodUnitStatus{
		UnitAvailable:   {UnitReserved, UnitUsed, UnitTransferred, UnitExpired, UnitDamaged},
		UnitReserved:    {UnitUsed, UnitExpired, UnitDamaged},
		UnitTransferred: {UnitExpired, UnitDamaged},
	},
	UnitUsed, UnitExpired, UnitDamaged,
)

// NonTerminalUnitStatuses are the statuses the expiry sweep considers.
var NonTerminalUnitStatuses = []BloodUnitStatus{UnitAvailable, UnitReserved, UnitTransferred}

type BloodUnit struct {
	ID uuid.UUID `json:"id" db:"id"`
	// MemberID is the customer who donated the unit.
	MemberID uuid.UUID `json:"member_id" db:"member_id"`
	BloodType
	ComponentType   ComponentType   `json:"blood_component_type" db:"blood_component_type"`
	Volume          int             `json:"volume" db:"volume"`
	RemainingVolume int             `json:"remaining_volume" db:"remaining_volume"`
	ExpiredDate     time.Time       `json:"expired_date" db:"expired_date"`
	Status          BloodUnitStatus `json:"status" db:"status"`
	ParentID        *uuid.UUID      `json:"parent_id,omitempty" db:"parent_id"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

func (u *BloodUnit) IsExpiredAt(now time.Time) bool {
	return !u.ExpiredDate.After(now)
}

type BloodUnitActionType string

const (
	UnitActionCreated            BloodUnitActionType = "CREATED"
	UnitActionStatusUpdate       BloodUnitActionType = "STATUS_UPDATE"
	UnitActionVolumeChange       BloodUnitActionType = "VOLUME_CHANGE"
	UnitActionExpiryUpdate       BloodUnitActionType = "EXPIRY_UPDATE"
	UnitActionComponentSeparated BloodUnitActionType = "COMPONENT_SEPARATED"
	UnitActionEmergencyUsage     BloodUnitActionType = "EMERGENCY_USAGE"
)

// BloodUnitAction is the append-only audit trail of a blood unit. Previous and
// new values hold only the fields the operation changed.
type BloodUnitAction struct {
	ID            uuid.UUID           `json:"id" db:"id"`
	BloodUnitID   uuid.UUID           `json:"blood_unit_id" db:"blood_unit_id"`
	StaffID       *uuid.UUID          `json:"staff_id,omitempty" db:"staff_id"`
	Action        BloodUnitActionType `json:"action" db:"action"`
	PreviousValue json.RawMessage     `json:"previous_value,omitempty" db:"previous_value"`
	NewValue      json.RawMessage     `json:"new_value,omitempty" db:"new_value"`
	Description   *string             `json:"description,omitempty" db:"description"`
	CreatedAt     time.Time           `json:"created_at" db:"created_at"`
}

// UnitSnapshot is the JSON shape stored in BloodUnitAction values.
type UnitSnapshot struct {
	Status          BloodUnitStatus `json:"status,omitempty"`
	RemainingVolume *int            `json:"remaining_volume,omitempty"`
	ExpiredDate     *time.Time      `json:"expired_date,omitempty"`
}

func (s UnitSnapshot) JSON() json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

type CreateBloodUnitInput struct {
	MemberID      uuid.UUID     `json:"member_id" validate:"required"`
	BloodGroup    BloodGroup    `json:"blood_group" validate:"required,oneof=A B AB O"`
	BloodRh       RhFactor      `json:"blood_rh" validate:"required,oneof=POSITIVE NEGATIVE"`
	ComponentType ComponentType `json:"blood_component_type" validate:"required"`
	Volume        int           `json:"volume" validate:"required,min=1"`
	ExpiredDate   time.Time     `json:"expired_date" validate:"required"`
	Description   *string       `json:"description,omitempty"`
}

type UpdateBloodUnitStatusInput struct {
	Status      BloodUnitStatus `json:"status" validate:"required"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=500"`
}

type UpdateBloodUnitInput struct {
	RemainingVolume *int       `json:"remaining_volume,omitempty" validate:"omitempty,min=0"`
	ExpiredDate     *time.Time `json:"expired_date,omitempty"`
	Description     *string    `json:"description,omitempty" validate:"omitempty,max=500"`
}

type BloodUnitFilter struct {
	Status        *BloodUnitStatus
	ComponentType *ComponentType
	BloodGroup    *BloodGroup
	BloodRh       *RhFactor
	MemberID      *uuid.UUID
}

// SeparationResult is returned by component separation: the consumed source
// and the three derived units.
type SeparationResult struct {
	Source  *BloodUnit  `json:"source"`
	Derived []BloodUnit `json:"derived"`
}
