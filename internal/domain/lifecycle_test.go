package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

var allUnitStatuses = []BloodUnitStatus{
	UnitAvailable, UnitReserved, UnitUsed, UnitExpired, UnitTransferred, UnitDamaged,
}

func TestBloodUnitMachine_TerminalStatesNeverMove(t *testing.T) {
	for _, from := range []BloodUnitStatus{UnitUsed, UnitExpired, UnitDamaged} {
		assert.True(t, BloodUnitMachine.IsTerminal(from))
		for _, to := range allUnitStatuses {
			err := BloodUnitMachine.Check(from, to)
			assert.Truef(t, errors.Is(err, ErrInvalidTransition), "%s -> %s should be rejected", from, to)
		}
		assert.Empty(t, BloodUnitMachine.Next(from))
	}
}

func TestBloodUnitMachine_AllowedTransitions(t *testing.T) {
	allowed := [][2]BloodUnitStatus{
		{UnitAvailable, UnitReserved},
		{UnitReserved, UnitUsed},
		{UnitAvailable, UnitUsed},
		{UnitAvailable, UnitTransferred},
		{UnitAvailable, UnitExpired},
		{UnitReserved, UnitExpired},
		{UnitTransferred, UnitExpired},
		{UnitAvailable, UnitDamaged},
		{UnitReserved, UnitDamaged},
		{UnitTransferred, UnitDamaged},
	}
	for _, pair := range allowed {
		assert.NoErrorf(t, BloodUnitMachine.Check(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}

	assert.ErrorIs(t, BloodUnitMachine.Check(UnitReserved, UnitAvailable), ErrInvalidTransition)
	assert.ErrorIs(t, BloodUnitMachine.Check(UnitTransferred, UnitAvailable), ErrInvalidTransition)
	assert.ErrorIs(t, BloodUnitMachine.Check(UnitReserved, UnitTransferred), ErrInvalidTransition)
}

func TestMachine_UnknownStatus(t *testing.T) {
	err := BloodUnitMachine.Check(UnitAvailable, BloodUnitStatus("LOST"))
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrInvalidTransition)
}

func TestDonationMachine(t *testing.T) {
	assert.Equal(t, DonationPending, DonationMachine.Initial())

	assert.NoError(t, DonationMachine.Check(DonationPending, DonationCustomerCheckedIn))
	assert.NoError(t, DonationMachine.Check(DonationCustomerCheckedIn, DonationCompleted))
	assert.NoError(t, DonationMachine.Check(DonationCompleted, DonationResultReturned))

	assert.ErrorIs(t, DonationMachine.Check(DonationCompleted, DonationCompleted), ErrInvalidTransition)
	assert.ErrorIs(t, DonationMachine.Check(DonationPending, DonationCompleted), ErrInvalidTransition)
	assert.ErrorIs(t, DonationMachine.Check(DonationCustomerCancelled, DonationPending), ErrInvalidTransition)

	for _, s := range []DonationStatus{
		DonationResultReturned, DonationNotQualified, DonationAppointmentCancelled,
		DonationAppointmentAbsent, DonationCustomerCancelled, DonationNoShowAfterCheckIn,
	} {
		assert.True(t, DonationMachine.IsTerminal(s), s)
	}
}

func TestEmergencyMachine(t *testing.T) {
	assert.NoError(t, EmergencyMachine.Check(EmergencyPending, EmergencyContactsProvided))
	assert.NoError(t, EmergencyMachine.Check(EmergencyWaitForDonor, EmergencyApproved))
	assert.NoError(t, EmergencyMachine.Check(EmergencyContactsProvided, EmergencyExpired))

	for _, terminal := range []EmergencyStatus{EmergencyApproved, EmergencyRejected, EmergencyExpired} {
		assert.ErrorIs(t, EmergencyMachine.Check(terminal, EmergencyPending), ErrInvalidTransition)
		assert.ErrorIs(t, EmergencyMachine.Check(terminal, EmergencyRejected), ErrInvalidTransition)
	}
	assert.ErrorIs(t, EmergencyMachine.Check(EmergencyContactsProvided, EmergencyPending), ErrInvalidTransition)
}

func TestParseBloodType(t *testing.T) {
	bt, err := ParseBloodType("ab-")
	assert.NoError(t, err)
	assert.Equal(t, BloodType{Group: GroupAB, Rh: RhNegative}, bt)
	assert.Equal(t, "AB-", bt.String())

	bt, err = ParseBloodType(" O+ ")
	assert.NoError(t, err)
	assert.Equal(t, BloodType{Group: GroupO, Rh: RhPositive}, bt)

	for _, bad := range []string{"", "A", "C+", "AB*"} {
		_, err := ParseBloodType(bad)
		assert.ErrorIs(t, err, ErrValidation, bad)
	}
}

func TestNotFoundErrorsWrapKind(t *testing.T) {
	assert.ErrorIs(t, ErrBloodUnitNotFound, ErrNotFound)
	assert.Equal(t, "blood unit not found", ErrBloodUnitNotFound.Error())
}
