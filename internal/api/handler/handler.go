package handler

import "github.com/debranko/obedio-yacht-crew-management-sub004/internal/service"

// Handler aggregates every handler.
type Handler struct {
	Auth       *AuthHandler
	User       *UserHandler
	Crew       *CrewHandler
	Device     *DeviceHandler
	Location   *LocationHandler
	Guest      *GuestHandler
	Activity   *ActivityHandler
	Shift      *ShiftHandler
	Assignment *AssignmentHandler
	Request    *RequestHandler
	Export     *ExportHandler
}

// NewHandler creates the aggregate.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		User:       NewUserHandler(svc.User),
		Crew:       NewCrewHandler(svc.Crew),
		Device:     NewDeviceHandler(svc.Device),
		Location:   NewLocationHandler(svc.Location),
		Guest:      NewGuestHandler(svc.Guest),
		Activity:   NewActivityHandler(svc.Activity),
		Shift:      NewShiftHandler(svc.Shift),
		Assignment: NewAssignmentHandler(svc.Assignment),
		Request:    NewRequestHandler(svc.Request),
		Export:     NewExportHandler(svc.Export),
	}
}
