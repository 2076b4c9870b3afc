package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/debranko/obedio-yacht-crew-management-sub004/config"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/repository"
)

// alert modes understood by watch firmware
const (
	AlertSustained = "sustained"
	AlertPassive   = "passive"
)

// AlertModeFor urgent and emergency requests buzz until acknowledged.
func AlertModeFor(p model.Priority) string {
	if p == model.PriorityUrgent || p == model.PriorityEmergency {
		return AlertSustained
	}
	return AlertPassive
}

// NotificationPayload what a watch receives for a new request.
type NotificationPayload struct {
	RequestID    string `json:"requestId"`
	RequestType  string `json:"requestType"`
	Priority     string `json:"priority"`
	Message      string `json:"message"`
	LocationName string `json:"locationName"`
	AlertMode    string `json:"alertMode"`
	Timestamp    int64  `json:"timestamp"` // unix millis
}

// Recipient an on-duty crew member and the devices that can reach them.
type Recipient struct {
	CrewMemberID string
	Name         string
	DeviceKeys   []string
}

// Delivery outcome for one device.
type Delivery struct {
	CrewMemberID string `json:"crew_member_id"`
	DeviceKey    string `json:"device_key"`
	Error        string `json:"error,omitempty"`
}

// UnreachableRecipient an on-duty crew member with no usable device.
// Reported, never fatal.
type UnreachableRecipient struct {
	CrewMemberID string `json:"crew_member_id"`
	Name         string `json:"name"`
	Reason       string `json:"reason"`
}

// DispatchReport per-recipient result of one dispatch.
type DispatchReport struct {
	RequestID   string                 `json:"request_id"`
	Delivered   []Delivery             `json:"delivered"`
	Failed      []Delivery             `json:"failed"`
	Unreachable []UnreachableRecipient `json:"unreachable"`
}

// Notifier delivers a payload to one device.
type Notifier interface {
	Notify(ctx context.Context, deviceKey string, payload NotificationPayload) error
}

// DispatchService resolves recipients and fans notifications out to them.
type DispatchService interface {
	ResolveRecipients(ctx context.Context, locationID string) ([]Recipient, error)
	Dispatch(ctx context.Context, req *model.ServiceRequest, recipients []Recipient) *DispatchReport
	// DispatchRequest resolves recipients for req and dispatches to them.
	DispatchRequest(ctx context.Context, req *model.ServiceRequest) (*DispatchReport, error)
}

type dispatchService struct {
	cfg      config.DispatchConfig
	repo     *repository.Repository
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewDispatchService creates a DispatchService.
func NewDispatchService(cfg config.DispatchConfig, repo *repository.Repository, notifier Notifier, logger *zap.Logger) DispatchService {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 8
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = 3 * time.Second
	}
	return &dispatchService{
		cfg:      cfg,
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// ────────────────────── ResolveRecipients ──────────────────────

// ResolveRecipients on-duty crew for a location. A location with its own
// department narrows the yacht-wide filter to that department; when nobody
// from it is on duty the yacht-wide filter applies so the call still rings.
func (s *dispatchService) ResolveRecipients(ctx context.Context, locationID string) ([]Recipient, error) {
	department, err := s.departmentFor(ctx, locationID)
	if err != nil {
		return nil, err
	}

	crew, err := s.repo.CrewMember.ListOnDuty(ctx, department)
	if err != nil {
		s.logger.Error("list on-duty crew failed", zap.Error(err))
		return nil, persistenceErr(err)
	}
	if len(crew) == 0 && department != s.cfg.DepartmentFilter {
		s.logger.Warn("nobody on duty in location department, widening",
			zap.String("location_id", locationID),
			zap.String("department", department),
		)
		crew, err = s.repo.CrewMember.ListOnDuty(ctx, s.cfg.DepartmentFilter)
		if err != nil {
			s.logger.Error("list on-duty crew failed", zap.Error(err))
			return nil, persistenceErr(err)
		}
	}

	if s.cfg.RosterFilter {
		crew, err = s.filterByRoster(ctx, crew)
		if err != nil {
			return nil, err
		}
	}

	recipients := make([]Recipient, 0, len(crew))
	for _, c := range crew {
		r := Recipient{CrewMemberID: c.CrewMemberID, Name: c.Name}
		for _, d := range c.Devices {
			if d.Type.CanReceiveNotifications() && d.Status != model.DeviceOffline {
				r.DeviceKeys = append(r.DeviceKeys, d.DeviceKey)
			}
		}
		recipients = append(recipients, r)
	}

	s.logger.Debug("recipients resolved",
		zap.String("location_id", locationID),
		zap.Int("count", len(recipients)),
	)
	return recipients, nil
}

// departmentFor the location's department, else the configured filter.
// Unknown locations fall back silently.
func (s *dispatchService) departmentFor(ctx context.Context, locationID string) (string, error) {
	if locationID == "" {
		return s.cfg.DepartmentFilter, nil
	}
	loc, err := s.repo.Location.GetByID(ctx, locationID)
	if err != nil {
		if isNotFound(err) {
			return s.cfg.DepartmentFilter, nil
		}
		s.logger.Error("load location for dispatch failed", zap.String("location_id", locationID), zap.Error(err))
		return "", persistenceErr(err)
	}
	if loc.Department == "" {
		return s.cfg.DepartmentFilter, nil
	}
	return loc.Department, nil
}

// filterByRoster keeps crew rostered today, primaries first. Without any
// assignments for today the on-duty list is returned as is.
func (s *dispatchService) filterByRoster(ctx context.Context, crew []model.CrewMember) ([]model.CrewMember, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	assignments, err := s.repo.Assignment.List(ctx, repository.AssignmentFilter{From: today, To: today})
	if err != nil {
		s.logger.Error("load today's roster failed", zap.Error(err))
		return nil, persistenceErr(err)
	}
	if len(assignments) == 0 {
		return crew, nil
	}

	rank := make(map[string]int, len(assignments))
	for _, a := range assignments {
		r := 2
		if a.Type == model.AssignmentPrimary {
			r = 1
		}
		if cur, ok := rank[a.CrewMemberID]; !ok || r < cur {
			rank[a.CrewMemberID] = r
		}
	}

	var primary, backup []model.CrewMember
	for _, c := range crew {
		switch rank[c.CrewMemberID] {
		case 1:
			primary = append(primary, c)
		case 2:
			backup = append(backup, c)
		}
	}
	return append(primary, backup...), nil
}

// ────────────────────── Dispatch ──────────────────────

func (s *dispatchService) Dispatch(ctx context.Context, req *model.ServiceRequest, recipients []Recipient) *DispatchReport {
	report := &DispatchReport{RequestID: req.RequestID}
	payload := s.buildPayload(req)

	if len(recipients) == 0 {
		s.logger.Warn("no on-duty recipients for service request",
			zap.String("request_id", req.RequestID),
			zap.String("priority", string(req.Priority)),
		)
		return report
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.cfg.MaxConcurrency)

	for _, r := range recipients {
		if len(r.DeviceKeys) == 0 {
			report.Unreachable = append(report.Unreachable, UnreachableRecipient{
				CrewMemberID: r.CrewMemberID,
				Name:         r.Name,
				Reason:       "no bound notification device",
			})
			s.logger.Warn("recipient unreachable",
				zap.String("request_id", req.RequestID),
				zap.String("crew_member_id", r.CrewMemberID),
				zap.String("name", r.Name),
			)
			continue
		}

		for _, key := range r.DeviceKeys {
			crewID, deviceKey := r.CrewMemberID, key
			g.Go(func() error {
				dctx, cancel := context.WithTimeout(ctx, s.cfg.DeliveryTimeout)
				defer cancel()

				err := s.notifier.Notify(dctx, deviceKey, payload)
				d := Delivery{CrewMemberID: crewID, DeviceKey: deviceKey}

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					d.Error = err.Error()
					report.Failed = append(report.Failed, d)
					s.logger.Warn("notification delivery failed",
						zap.String("request_id", req.RequestID),
						zap.String("device_key", deviceKey),
						zap.Error(err),
					)
					return nil // one failed device never cancels the others
				}
				report.Delivered = append(report.Delivered, d)
				return nil
			})
		}
	}
	_ = g.Wait()

	s.logger.Info("service request dispatched",
		zap.String("request_id", req.RequestID),
		zap.Int("delivered", len(report.Delivered)),
		zap.Int("failed", len(report.Failed)),
		zap.Int("unreachable", len(report.Unreachable)),
	)
	return report
}

func (s *dispatchService) DispatchRequest(ctx context.Context, req *model.ServiceRequest) (*DispatchReport, error) {
	locationID := ""
	if req.LocationID != nil {
		locationID = *req.LocationID
	}
	recipients, err := s.ResolveRecipients(ctx, locationID)
	if err != nil {
		return nil, err
	}
	return s.Dispatch(ctx, req, recipients), nil
}

func (s *dispatchService) buildPayload(req *model.ServiceRequest) NotificationPayload {
	locationName := req.GuestCabin
	if req.Location != nil {
		locationName = req.Location.Name
	}
	return NotificationPayload{
		RequestID:    req.RequestID,
		RequestType:  string(req.RequestType),
		Priority:     string(req.Priority),
		Message:      req.Message,
		LocationName: locationName,
		AlertMode:    AlertModeFor(req.Priority),
		Timestamp:    s.now().UnixMilli(),
	}
}

// isNotFound shared gorm not-found check
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
