package service

import (
	"errors"
	"fmt"
)

// ── shared business errors ──

var (
	// ErrValidation malformed input or an unrecognised enumerated value.
	// Nothing is persisted.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidTransition illegal status change; the stored request is unchanged.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrRequestConflict another writer changed the request first.
	ErrRequestConflict = errors.New("service request was modified concurrently")
	ErrForbidden       = errors.New("operation requires elevated privileges")
	// ErrPersistence the store is unavailable; callers may retry.
	ErrPersistence = errors.New("persistent store unavailable")

	ErrRequestNotFound       = errors.New("service request not found")
	ErrDuplicateTrigger      = errors.New("trigger already being processed")
	ErrCrewNotFound          = errors.New("crew member not found")
	ErrCrewConflict          = errors.New("crew member was modified concurrently")
	ErrCrewHasActiveRequests = errors.New("crew member has active service requests")
	ErrDeviceNotFound        = errors.New("device not found")
	ErrLocationNotFound      = errors.New("location not found")
	ErrGuestNotFound         = errors.New("guest not found")
	ErrLocationNameTaken     = errors.New("location name already in use")
	ErrButtonAlreadyMapped   = errors.New("smart button already mapped to another location")
	ErrShiftNotFound         = errors.New("shift not found")
	ErrAssignmentNotFound    = errors.New("assignment not found")
	ErrCrewUnavailable       = errors.New("crew member is on leave")
	ErrAlreadyAssigned       = errors.New("crew member already assigned on that date")
	ErrUserNotFound          = errors.New("user not found")
	ErrUsernameTaken         = errors.New("username already in use")
	ErrInvalidCredentials    = errors.New("invalid username or password")
)

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func persistenceErr(err error) error {
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
