package service

import (
	"go.uber.org/zap"

	"github.com/debranko/obedio-yacht-crew-management-sub004/config"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/repository"
	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/jwt"
)

// Service aggregates every service.
type Service struct {
	Auth       AuthService
	User       UserService
	Crew       CrewService
	Device     DeviceService
	Location   LocationService
	Guest      GuestService
	Activity   ActivityService
	Shift      ShiftService
	Assignment AssignmentService
	Dispatch   DispatchService
	Request    RequestService
	Export     ExportService
}

// NewService wires the services. coalescer, publisher and blacklist may be
// nil when Redis or MQTT are not configured.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	coalescer Coalescer,
	notifier Notifier,
	publisher StatusPublisher,
	blacklist TokenBlacklist,
	jwtMgr *jwt.Manager,
	logger *zap.Logger,
) *Service {
	dispatch := NewDispatchService(cfg.Dispatch, repo, notifier, logger.Named("dispatch"))
	return &Service{
		Auth:       NewAuthService(repo, jwtMgr, blacklist, logger),
		User:       NewUserService(repo, logger),
		Crew:       NewCrewService(repo, logger),
		Device:     NewDeviceService(repo, logger),
		Location:   NewLocationService(repo, logger),
		Guest:      NewGuestService(repo, logger),
		Activity:   NewActivityService(repo, logger),
		Shift:      NewShiftService(repo, logger),
		Assignment: NewAssignmentService(repo, logger),
		Dispatch:   dispatch,
		Request:    NewRequestService(cfg.Dispatch, repo, coalescer, dispatch, publisher, logger.Named("requests")),
		Export:     NewExportService(repo, logger),
	}
}

// Wait blocks until background dispatch and broadcast work has finished.
func (s *Service) Wait() {
	s.Request.Wait()
}
