package model

import (
	"errors"
	"fmt"
)

// ErrUnknownValue is wrapped by every Parse* function when the input is
// outside the closed vocabulary.
var ErrUnknownValue = errors.New("unknown value")

// ── Crew duty status ──

// DutyStatus whether a crew member can currently receive notifications.
type DutyStatus string

const (
	DutyOnDuty  DutyStatus = "on-duty"
	DutyOffDuty DutyStatus = "off-duty"
	DutyOnLeave DutyStatus = "on-leave"
)

// ParseDutyStatus accepts only the hyphenated canonical form.
// "on_duty" and friends are rejected; callers normalise before calling.
func ParseDutyStatus(s string) (DutyStatus, error) {
	switch DutyStatus(s) {
	case DutyOnDuty, DutyOffDuty, DutyOnLeave:
		return DutyStatus(s), nil
	}
	return "", fmt.Errorf("%w: duty status %q", ErrUnknownValue, s)
}

// ── Device type ──

// DeviceType physical device category.
type DeviceType string

const (
	DeviceSmartButton DeviceType = "smart_button"
	DeviceWatch       DeviceType = "watch"
	DeviceRepeater    DeviceType = "repeater"
	DeviceMobileApp   DeviceType = "mobile_app"
)

// legacy spellings that older firmware and data still carry
var deviceTypeAliases = map[string]DeviceType{
	"wearable": DeviceWatch,
	"button":   DeviceSmartButton,
}

// NormalizeDeviceType maps a device type string onto the canonical set.
// Known legacy aliases are translated; anything else is rejected.
// The function is idempotent on its own output.
func NormalizeDeviceType(s string) (DeviceType, error) {
	switch DeviceType(s) {
	case DeviceSmartButton, DeviceWatch, DeviceRepeater, DeviceMobileApp:
		return DeviceType(s), nil
	}
	if t, ok := deviceTypeAliases[s]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: device type %q", ErrUnknownValue, s)
}

// CanReceiveNotifications reports whether the device type has a display or
// haptics a crew member carries.
func (t DeviceType) CanReceiveNotifications() bool {
	return t == DeviceWatch || t == DeviceMobileApp
}

// DeviceStatus connectivity as last reported
type DeviceStatus string

const (
	DeviceOnline  DeviceStatus = "online"
	DeviceOffline DeviceStatus = "offline"
	DeviceUnknown DeviceStatus = "unknown"
)

// ── Service request vocabulary ──

// RequestType what the guest asked for.
type RequestType string

const (
	RequestService     RequestType = "service"
	RequestEmergency   RequestType = "emergency"
	RequestVoice       RequestType = "voice"
	RequestDND         RequestType = "dnd"
	RequestLights      RequestType = "lights"
	RequestPrepareFood RequestType = "prepare_food"
	RequestBringDrinks RequestType = "bring_drinks"
)

// ParseRequestType normalises a request type. Empty input and the retired
// "call" spelling both map to RequestService.
func ParseRequestType(s string) (RequestType, error) {
	switch RequestType(s) {
	case RequestService, RequestEmergency, RequestVoice, RequestDND,
		RequestLights, RequestPrepareFood, RequestBringDrinks:
		return RequestType(s), nil
	}
	if s == "" || s == "call" {
		return RequestService, nil
	}
	return "", fmt.Errorf("%w: request type %q", ErrUnknownValue, s)
}

// Priority request urgency.
type Priority string

const (
	PriorityLow       Priority = "low"
	PriorityNormal    Priority = "normal"
	PriorityUrgent    Priority = "urgent"
	PriorityEmergency Priority = "emergency"
)

// ParsePriority defaults empty input to PriorityNormal.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityNormal, PriorityUrgent, PriorityEmergency:
		return Priority(s), nil
	case "":
		return PriorityNormal, nil
	}
	return "", fmt.Errorf("%w: priority %q", ErrUnknownValue, s)
}

// Rank orders priorities; higher is more pressing.
func (p Priority) Rank() int {
	switch p {
	case PriorityEmergency:
		return 3
	case PriorityUrgent:
		return 2
	case PriorityNormal:
		return 1
	default:
		return 0
	}
}

// RequestStatus lifecycle state.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusAccepted  RequestStatus = "accepted"
	StatusCompleted RequestStatus = "completed"
	StatusCancelled RequestStatus = "cancelled"
)

// ParseRequestStatus strict, no defaults.
func ParseRequestStatus(s string) (RequestStatus, error) {
	switch RequestStatus(s) {
	case StatusPending, StatusAccepted, StatusCompleted, StatusCancelled:
		return RequestStatus(s), nil
	}
	return "", fmt.Errorf("%w: request status %q", ErrUnknownValue, s)
}

// forward-only transition table
var requestTransitions = map[RequestStatus][]RequestStatus{
	StatusPending:  {StatusAccepted, StatusCompleted, StatusCancelled},
	StatusAccepted: {StatusCompleted, StatusCancelled},
}

// CanTransitionTo reports whether s may move to next.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsActive pending or accepted
func (s RequestStatus) IsActive() bool {
	return s == StatusPending || s == StatusAccepted
}

// ActiveStatuses the statuses listed on the live board.
func ActiveStatuses() []RequestStatus {
	return []RequestStatus{StatusPending, StatusAccepted}
}

// ── Guest status ──

// GuestStatus where a guest is relative to the yacht.
type GuestStatus string

const (
	GuestExpected GuestStatus = "expected"
	GuestOnboard  GuestStatus = "onboard"
	GuestAshore   GuestStatus = "ashore"
	GuestDeparted GuestStatus = "departed"
)

// ParseGuestStatus defaults empty input to GuestExpected.
func ParseGuestStatus(s string) (GuestStatus, error) {
	switch GuestStatus(s) {
	case GuestExpected, GuestOnboard, GuestAshore, GuestDeparted:
		return GuestStatus(s), nil
	case "":
		return GuestExpected, nil
	}
	return "", fmt.Errorf("%w: guest status %q", ErrUnknownValue, s)
}

// guest moves and the action each one is logged as
var guestTransitions = map[GuestStatus]map[GuestStatus]string{
	GuestExpected: {GuestOnboard: "check-in", GuestDeparted: "cancel"},
	GuestOnboard:  {GuestAshore: "go-ashore", GuestDeparted: "check-out"},
	GuestAshore:   {GuestOnboard: "return-onboard"},
}

// GuestAction names the move from s to next; ok is false when the move is
// not allowed. Departed is final.
func (s GuestStatus) GuestAction(next GuestStatus) (string, bool) {
	action, ok := guestTransitions[s][next]
	return action, ok
}

// ── Roster ──

// AssignmentType primary crew answers first, backup covers.
type AssignmentType string

const (
	AssignmentPrimary AssignmentType = "primary"
	AssignmentBackup  AssignmentType = "backup"
)

// ParseAssignmentType strict.
func ParseAssignmentType(s string) (AssignmentType, error) {
	switch AssignmentType(s) {
	case AssignmentPrimary, AssignmentBackup:
		return AssignmentType(s), nil
	}
	return "", fmt.Errorf("%w: assignment type %q", ErrUnknownValue, s)
}

// ── Accounts ──

// Role account privilege level. RoleAdmin is the elevated role.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleChief Role = "chief"
	RoleCrew  Role = "crew"
)

// ParseRole strict.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleChief, RoleCrew:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: role %q", ErrUnknownValue, s)
}
