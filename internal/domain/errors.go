package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the services. Callers wrap them with context using
// fmt.Errorf("%w: ...") and the HTTP layer maps them with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrValidation         = errors.New("validation failed")
	ErrInsufficientVolume = errors.New("insufficient volume")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
)

var (
	ErrAccountNotFound          = fmt.Errorf("account %w", ErrNotFound)
	ErrBloodUnitNotFound        = fmt.Errorf("blood unit %w", ErrNotFound)
	ErrCampaignNotFound         = fmt.Errorf("campaign %w", ErrNotFound)
	ErrDonationNotFound         = fmt.Errorf("campaign donation %w", ErrNotFound)
	ErrEmergencyRequestNotFound = fmt.Errorf("emergency request %w", ErrNotFound)
	ErrBlogNotFound             = fmt.Errorf("blog %w", ErrNotFound)
)

// Validationf builds an ErrValidation carrying a field-level message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
