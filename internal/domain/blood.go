package domain

import (
	"fmt"
	"strings"
)

type BloodGroup string

const (
	GroupA  BloodGroup = "A"
	GroupB  BloodGroup = "B"
	GroupAB BloodGroup = "AB"
	GroupO  BloodGroup = "O"
)

func (g BloodGroup) IsValid() bool {
	switch g {
	case GroupA, GroupB, GroupAB, GroupO:
		return true
	default:
		return false
	}
}

type RhFactor string

const (
	RhPositive RhFactor = "POSITIVE"
	RhNegative RhFactor = "NEGATIVE"
)

func (r RhFactor) IsValid() bool {
	return r == RhPositive || r == RhNegative
}

func (r RhFactor) Sign() string {
	if r == RhNegative {
		return "-"
	}
	return "+"
}

type ComponentType string

const (
	ComponentWholeBlood ComponentType = "WHOLE_BLOOD"
	ComponentRBC        ComponentType = "RBC"
	ComponentPlasma     ComponentType = "PLASMA"
	ComponentPlatelets  ComponentType = "PLATELETS"
)

// Components lists every component type in a stable order.
var Components = []ComponentType{ComponentWholeBlood, ComponentRBC, ComponentPlasma, ComponentPlatelets}

func (c ComponentType) IsValid() bool {
	switch c {
	case ComponentWholeBlood, ComponentRBC, ComponentPlasma, ComponentPlatelets:
		return true
	default:
		return false
	}
}

// BloodType is an ABO group paired with its Rh factor. It is comparable and
// used as a map key throughout the compatibility engine.
type BloodType struct {
	Group BloodGroup `json:"blood_group" db:"blood_group"`
	Rh    RhFactor   `json:"blood_rh" db:"blood_rh"`
}

// AllBloodTypes is the registry of the eight ABO/Rh combinations. Lookups that
// return sets of blood types preserve this order.
var AllBloodTypes = []BloodType{
	{GroupA, RhPositive},
	{GroupA, RhNegative},
	{GroupB, RhPositive},
	{GroupB, RhNegative},
	{GroupAB, RhPositive},
	{GroupAB, RhNegative},
	{GroupO, RhPositive},
	{GroupO, RhNegative},
}

func NewBloodType(group BloodGroup, rh RhFactor) (BloodType, error) {
	bt := BloodType{Group: group, Rh: rh}
	if err := bt.Validate(); err != nil {
		return BloodType{}, err
	}
	return bt, nil
}

func (bt BloodType) Validate() error {
	if !bt.Group.IsValid() {
		return fmt.Errorf("%w: unknown blood group %q", ErrValidation, bt.Group)
	}
	if !bt.Rh.IsValid() {
		return fmt.Errorf("%w: unknown rh factor %q", ErrValidation, bt.Rh)
	}
	return nil
}

func (bt BloodType) String() string {
	return string(bt.Group) + bt.Rh.Sign()
}

// ParseBloodType accepts the short notation used on donor cards ("AB-", "o+").
func ParseBloodType(s string) (BloodType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return BloodType{}, fmt.Errorf("%w: invalid blood type %q", ErrValidation, s)
	}
	rh := RhPositive
	switch s[len(s)-1] {
	case '+':
	case '-':
		rh = RhNegative
	default:
		return BloodType{}, fmt.Errorf("%w: invalid blood type %q", ErrValidation, s)
	}
	return NewBloodType(BloodGroup(s[:len(s)-1]), rh)
}

// BloodCompatibility is one row of the derived compatibility table.
type BloodCompatibility struct {
	DonorGroup     BloodGroup    `json:"donor_blood_group" db:"donor_blood_group"`
	DonorRh        RhFactor      `json:"donor_blood_rh" db:"donor_blood_rh"`
	RecipientGroup BloodGroup    `json:"recipient_blood_group" db:"recipient_blood_group"`
	RecipientRh    RhFactor      `json:"recipient_blood_rh" db:"recipient_blood_rh"`
	ComponentType  ComponentType `json:"blood_component_type" db:"blood_component_type"`
}

func (c BloodCompatibility) Donor() BloodType {
	return BloodType{Group: c.DonorGroup, Rh: c.DonorRh}
}

func (c BloodCompatibility) Recipient() BloodType {
	return BloodType{Group: c.RecipientGroup, Rh: c.RecipientRh}
}
