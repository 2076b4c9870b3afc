package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/dto"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/repository"
)

// DeviceService device registry
type DeviceService interface {
	// Register creates or refreshes a device by its key. The bool reports creation.
	Register(ctx context.Context, req *dto.RegisterDeviceRequest) (*dto.DeviceResponse, bool, error)
	GetByID(ctx context.Context, id string) (*dto.DeviceResponse, error)
	List(ctx context.Context, req *dto.DeviceListRequest) ([]dto.DeviceResponse, error)
	// Bind assigns a device to a crew member; an empty crewMemberID unbinds.
	// Concurrent binds of one device resolve last-write-wins.
	Bind(ctx context.Context, deviceID, crewMemberID string) (*dto.DeviceResponse, error)
	BindLocation(ctx context.Context, deviceID, locationID string) (*dto.DeviceResponse, error)
	Heartbeat(ctx context.Context, req *dto.HeartbeatRequest) error
	RecordTelemetry(ctx context.Context, deviceKey string, req *dto.TelemetryRequest) error
	// LogEvent journals an event for the device with the given key.
	LogEvent(ctx context.Context, deviceKey, eventType string, data any) error
	Logs(ctx context.Context, deviceID string, limit int) ([]dto.DeviceLogResponse, error)
	Delete(ctx context.Context, id string) error
	// FindCrewByDeviceKey the crew member a device is bound to.
	FindCrewByDeviceKey(ctx context.Context, deviceKey string) (string, error)
}

type deviceService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewDeviceService creates a DeviceService.
func NewDeviceService(repo *repository.Repository, logger *zap.Logger) DeviceService {
	return &deviceService{repo: repo, logger: logger, now: time.Now}
}

// NormalizeType maps a raw device type onto the canonical vocabulary.
func NormalizeType(raw string) (model.DeviceType, error) {
	t, err := model.NormalizeDeviceType(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return t, nil
}

// ────────────────────── Register ──────────────────────

func (s *deviceService) Register(ctx context.Context, req *dto.RegisterDeviceRequest) (*dto.DeviceResponse, bool, error) {
	if req.DeviceKey == "" {
		return nil, false, validationErr("device_key is required")
	}
	deviceType, err := NormalizeType(req.Type)
	if err != nil {
		return nil, false, err
	}
	if len(req.Config) > 0 && !json.Valid(req.Config) {
		return nil, false, validationErr("config must be valid JSON")
	}

	now := s.now().UTC()
	device, err := s.repo.Device.GetByKey(ctx, req.DeviceKey)
	if err != nil && !isNotFound(err) {
		s.logger.Error("load device failed", zap.String("device_key", req.DeviceKey), zap.Error(err))
		return nil, false, persistenceErr(err)
	}

	created := device == nil
	if created {
		device = &model.Device{DeviceKey: req.DeviceKey}
	}
	device.Type = deviceType
	device.Status = model.DeviceOnline
	device.LastSeenAt = &now
	if req.Name != "" {
		device.Name = req.Name
	} else if device.Name == "" {
		device.Name = req.DeviceKey
	}
	if req.SubType != "" {
		device.SubType = req.SubType
	}
	if req.MACAddress != "" {
		device.MACAddress = req.MACAddress
	}
	if req.FirmwareVersion != "" {
		device.FirmwareVersion = req.FirmwareVersion
	}
	if req.HardwareVersion != "" {
		device.HardwareVersion = req.HardwareVersion
	}
	if len(req.Config) > 0 {
		device.Config = datatypes.JSON(req.Config)
	}

	if created {
		err = s.repo.Device.Create(ctx, device)
	} else {
		// bindings are left out so a re-register never undoes a concurrent bind
		err = s.repo.Device.UpdateFields(ctx, device.DeviceID, map[string]interface{}{
			"name":             device.Name,
			"type":             device.Type,
			"sub_type":         device.SubType,
			"mac_address":      device.MACAddress,
			"status":           device.Status,
			"firmware_version": device.FirmwareVersion,
			"hardware_version": device.HardwareVersion,
			"config":           device.Config,
			"last_seen_at":     now,
		})
	}
	if err != nil {
		if created && errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a race with a concurrent register of the same key
			return s.Register(ctx, req)
		}
		s.logger.Error("save device failed", zap.String("device_key", req.DeviceKey), zap.Error(err))
		return nil, false, persistenceErr(err)
	}

	if created {
		s.writeLog(ctx, device.DeviceID, model.EventDeviceAdded, map[string]any{
			"type":     device.Type,
			"firmware": device.FirmwareVersion,
		})
		s.logger.Info("device registered",
			zap.String("device_key", device.DeviceKey),
			zap.String("type", string(device.Type)),
		)
	}
	return toDeviceResponse(device), created, nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *deviceService) GetByID(ctx context.Context, id string) (*dto.DeviceResponse, error) {
	device, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDeviceResponse(device), nil
}

func (s *deviceService) List(ctx context.Context, req *dto.DeviceListRequest) ([]dto.DeviceResponse, error) {
	filter := repository.DeviceFilter{
		CrewMemberID: req.CrewMemberID,
		LocationID:   req.LocationID,
	}
	if req.Type != "" {
		t, err := NormalizeType(req.Type)
		if err != nil {
			return nil, err
		}
		filter.Type = t
	}
	if req.Status != "" {
		switch st := model.DeviceStatus(req.Status); st {
		case model.DeviceOnline, model.DeviceOffline, model.DeviceUnknown:
			filter.Status = st
		default:
			return nil, validationErr("unknown device status %q", req.Status)
		}
	}

	list, err := s.repo.Device.List(ctx, filter)
	if err != nil {
		s.logger.Error("list devices failed", zap.Error(err))
		return nil, persistenceErr(err)
	}

	result := make([]dto.DeviceResponse, 0, len(list))
	for i := range list {
		result = append(result, *toDeviceResponse(&list[i]))
	}
	return result, nil
}

// ────────────────────── Bind ──────────────────────

func (s *deviceService) Bind(ctx context.Context, deviceID, crewMemberID string) (*dto.DeviceResponse, error) {
	if _, err := s.load(ctx, deviceID); err != nil {
		return nil, err
	}

	var target *string
	if crewMemberID != "" {
		if _, err := s.repo.CrewMember.GetByID(ctx, crewMemberID); err != nil {
			if isNotFound(err) {
				return nil, ErrCrewNotFound
			}
			s.logger.Error("load crew member failed", zap.String("crew_id", crewMemberID), zap.Error(err))
			return nil, persistenceErr(err)
		}
		target = &crewMemberID
	}

	if err := s.repo.Device.SetCrewMember(ctx, deviceID, target); err != nil {
		if isNotFound(err) {
			return nil, ErrDeviceNotFound
		}
		s.logger.Error("bind device failed", zap.String("device_id", deviceID), zap.Error(err))
		return nil, persistenceErr(err)
	}

	s.logger.Info("device binding changed",
		zap.String("device_id", deviceID),
		zap.String("crew_id", crewMemberID),
	)
	return s.GetByID(ctx, deviceID)
}

func (s *deviceService) BindLocation(ctx context.Context, deviceID, locationID string) (*dto.DeviceResponse, error) {
	if _, err := s.load(ctx, deviceID); err != nil {
		return nil, err
	}

	var target *string
	if locationID != "" {
		if _, err := s.repo.Location.GetByID(ctx, locationID); err != nil {
			if isNotFound(err) {
				return nil, ErrLocationNotFound
			}
			s.logger.Error("load location failed", zap.String("location_id", locationID), zap.Error(err))
			return nil, persistenceErr(err)
		}
		target = &locationID
	}

	if err := s.repo.Device.SetLocation(ctx, deviceID, target); err != nil {
		if isNotFound(err) {
			return nil, ErrDeviceNotFound
		}
		s.logger.Error("bind device location failed", zap.String("device_id", deviceID), zap.Error(err))
		return nil, persistenceErr(err)
	}
	return s.GetByID(ctx, deviceID)
}

// ────────────────────── Heartbeat / Telemetry ──────────────────────

func (s *deviceService) Heartbeat(ctx context.Context, req *dto.HeartbeatRequest) error {
	device, err := s.loadByKey(ctx, req.DeviceKey)
	if err != nil {
		return err
	}

	fields := s.livenessFields(req.BatteryLevel, req.SignalStrength)
	if err := s.repo.Device.UpdateFields(ctx, device.DeviceID, fields); err != nil {
		s.logger.Error("heartbeat update failed", zap.String("device_key", req.DeviceKey), zap.Error(err))
		return persistenceErr(err)
	}
	return nil
}

func (s *deviceService) RecordTelemetry(ctx context.Context, deviceKey string, req *dto.TelemetryRequest) error {
	device, err := s.loadByKey(ctx, deviceKey)
	if err != nil {
		return err
	}

	fields := s.livenessFields(req.BatteryLevel, req.SignalStrength)
	if err := s.repo.Device.UpdateFields(ctx, device.DeviceID, fields); err != nil {
		s.logger.Error("telemetry update failed", zap.String("device_key", deviceKey), zap.Error(err))
		return persistenceErr(err)
	}

	s.writeLog(ctx, device.DeviceID, model.EventTelemetry, req)
	return nil
}

func (s *deviceService) livenessFields(battery, signal *int) map[string]interface{} {
	fields := map[string]interface{}{
		"status":       model.DeviceOnline,
		"last_seen_at": s.now().UTC(),
	}
	if battery != nil {
		fields["battery_level"] = *battery
	}
	if signal != nil {
		fields["signal_strength"] = *signal
	}
	return fields
}

// ────────────────────── Logs ──────────────────────

func (s *deviceService) LogEvent(ctx context.Context, deviceKey, eventType string, data any) error {
	device, err := s.loadByKey(ctx, deviceKey)
	if err != nil {
		return err
	}
	s.writeLog(ctx, device.DeviceID, eventType, data)
	return nil
}

// writeLog journal writes are best effort
func (s *deviceService) writeLog(ctx context.Context, deviceID, eventType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		s.logger.Warn("encode device event failed", zap.String("event", eventType), zap.Error(err))
		raw = nil
	}
	entry := &model.DeviceLog{
		DeviceID:  deviceID,
		EventType: eventType,
		EventData: datatypes.JSON(raw),
		Severity:  "info",
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Device.CreateLog(ctx, entry); err != nil {
		s.logger.Warn("write device log failed",
			zap.String("device_id", deviceID),
			zap.String("event", eventType),
			zap.Error(err),
		)
	}
}

func (s *deviceService) Logs(ctx context.Context, deviceID string, limit int) ([]dto.DeviceLogResponse, error) {
	if _, err := s.load(ctx, deviceID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	logs, err := s.repo.Device.ListLogs(ctx, deviceID, limit)
	if err != nil {
		s.logger.Error("list device logs failed", zap.String("device_id", deviceID), zap.Error(err))
		return nil, persistenceErr(err)
	}

	result := make([]dto.DeviceLogResponse, 0, len(logs))
	for _, l := range logs {
		result = append(result, dto.DeviceLogResponse{
			ID:        l.LogID,
			EventType: l.EventType,
			EventData: json.RawMessage(l.EventData),
			Severity:  l.Severity,
			CreatedAt: dto.FormatTime(&l.CreatedAt),
		})
	}
	return result, nil
}

// ────────────────────── Delete ──────────────────────

func (s *deviceService) Delete(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Device.Delete(ctx, id); err != nil {
		s.logger.Error("delete device failed", zap.String("device_id", id), zap.Error(err))
		return persistenceErr(err)
	}
	return nil
}

func (s *deviceService) FindCrewByDeviceKey(ctx context.Context, deviceKey string) (string, error) {
	device, err := s.loadByKey(ctx, deviceKey)
	if err != nil {
		return "", err
	}
	if device.CrewMemberID == nil {
		return "", nil
	}
	return *device.CrewMemberID, nil
}

// ── helpers ──

func (s *deviceService) load(ctx context.Context, id string) (*model.Device, error) {
	device, err := s.repo.Device.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrDeviceNotFound
		}
		s.logger.Error("load device failed", zap.String("device_id", id), zap.Error(err))
		return nil, persistenceErr(err)
	}
	return device, nil
}

func (s *deviceService) loadByKey(ctx context.Context, key string) (*model.Device, error) {
	if key == "" {
		return nil, validationErr("device key is required")
	}
	device, err := s.repo.Device.GetByKey(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrDeviceNotFound
		}
		s.logger.Error("load device failed", zap.String("device_key", key), zap.Error(err))
		return nil, persistenceErr(err)
	}
	return device, nil
}

func toDeviceResponse(d *model.Device) *dto.DeviceResponse {
	resp := &dto.DeviceResponse{
		ID:              d.DeviceID,
		DeviceKey:       d.DeviceKey,
		Name:            d.Name,
		Type:            string(d.Type),
		SubType:         d.SubType,
		MACAddress:      d.MACAddress,
		Status:          string(d.Status),
		BatteryLevel:    d.BatteryLevel,
		SignalStrength:  d.SignalStrength,
		FirmwareVersion: d.FirmwareVersion,
		HardwareVersion: d.HardwareVersion,
		LastSeenAt:      dto.FormatTime(d.LastSeenAt),
		CreatedAt:       dto.FormatTime(&d.CreatedAt),
		UpdatedAt:       dto.FormatTime(&d.UpdatedAt),
	}
	if len(d.Config) > 0 {
		resp.Config = json.RawMessage(d.Config)
	}
	if d.CrewMember != nil {
		resp.CrewMember = &dto.CrewBrief{ID: d.CrewMember.CrewMemberID, Name: d.CrewMember.Name, Position: d.CrewMember.Position}
	} else if d.CrewMemberID != nil {
		resp.CrewMember = &dto.CrewBrief{ID: *d.CrewMemberID}
	}
	if d.Location != nil {
		resp.Location = &dto.LocationBrief{ID: d.Location.LocationID, Name: d.Location.Name}
	} else if d.LocationID != nil {
		resp.Location = &dto.LocationBrief{ID: *d.LocationID}
	}
	return resp
}
