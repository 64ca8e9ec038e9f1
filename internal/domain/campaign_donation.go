package domain

import (
	"time"

	"github.com/google/uuid"
)

type DonationStatus string

const (
	DonationPending              DonationStatus = "PENDING"
	DonationAppointmentConfirmed DonationStatus = "APPOINTMENT_CONFIRMED"
	DonationCustomerCheckedIn    DonationStatus = "CUSTOMER_CHECKED_IN"
	DonationCompleted            DonationStatus = "COMPLETED"
	DonationResultReturned       DonationStatus = "RESULT_RETURNED"
	DonationNotQualified         DonationStatus = "NOT_QUALIFIED"
	DonationAppointmentCancelled DonationStatus = "APPOINTMENT_CANCELLED"
	DonationAppointmentAbsent    DonationStatus = "APPOINTMENT_ABSENT"
	DonationCustomerCancelled    DonationStatus = "CUSTOMER_CANCELLED"
	DonationNoShowAfterCheckIn   DonationStatus = "NO_SHOW_AFTER_CHECKIN"
)

// DonationMachine lets COMPLETED advance only to RESULT_RETURNED, so a completed
// donation can never be completed a second time.
var DonationMachine = NewMachine("campaign donation", DonationPending,
	map[DonationStatus][]DonationStatus{
		DonationPending: {
			DonationAppointmentConfirmed, DonationCustomerCheckedIn,
			DonationAppointmentCancelled, DonationCustomerCancelled,
		},
		DonationAppointmentConfirmed: {
			DonationCustomerCheckedIn, DonationAppointmentAbsent,
			DonationAppointmentCancelled, DonationCustomerCancelled,
		},
		DonationCustomerCheckedIn: {
			DonationCompleted, DonationNotQualified, DonationNoShowAfterCheckIn,
		},
		DonationCompleted: {DonationResultReturned},
	},
	DonationResultReturned, DonationNotQualified, DonationAppointmentCancelled,
	DonationAppointmentAbsent, DonationCustomerCancelled, DonationNoShowAfterCheckIn,
)

// IsCustomerInitiated reports transitions the donor applies without staff.
func (s DonationStatus) IsCustomerInitiated() bool {
	return s == DonationCustomerCancelled
}

type CampaignDonation struct {
	ID                 uuid.UUID      `json:"id" db:"id"`
	CampaignID         uuid.UUID      `json:"campaign_id" db:"campaign_id"`
	DonorID            uuid.UUID      `json:"donor_id" db:"donor_id"`
	CurrentStatus      DonationStatus `json:"current_status" db:"current_status"`
	AppointmentDate    *time.Time     `json:"appointment_date,omitempty" db:"appointment_date"`
	Volume             *int           `json:"volume,omitempty" db:"volume"`
	IsBloodUnitCreated bool           `json:"is_blood_unit_created" db:"is_blood_unit_created"`
	BloodUnitID        *uuid.UUID     `json:"blood_unit_id,omitempty" db:"blood_unit_id"`
	Note               *string        `json:"note,omitempty" db:"note"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`
}

type CampaignDonationLog struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	CampaignDonationID uuid.UUID       `json:"campaign_donation_id" db:"campaign_donation_id"`
	StaffID            *uuid.UUID      `json:"staff_id,omitempty" db:"staff_id"`
	PreviousStatus     *DonationStatus `json:"previous_status,omitempty" db:"previous_status"`
	Status             DonationStatus  `json:"status" db:"status"`
	Note               *string         `json:"note,omitempty" db:"note"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
}

type EnrollDonationInput struct {
	AppointmentDate *time.Time `json:"appointment_date,omitempty"`
	Note            *string    `json:"note,omitempty" validate:"omitempty,max=500"`
}

type UpdateDonationStatusInput struct {
	Status DonationStatus `json:"status" validate:"required"`
	Note   *string        `json:"note,omitempty" validate:"omitempty,max=500"`
	// Volume is the collected volume in ml, required when completing.
	Volume *int `json:"volume,omitempty" validate:"omitempty,min=1"`
}
