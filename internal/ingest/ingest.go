// Package ingest turns MQTT traffic from buttons and watches into service calls.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/dto"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/service"
	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/mqtt"
)

const defaultHandleTimeout = 10 * time.Second

// Broker the subset of *mqtt.Client the subscriber needs.
type Broker interface {
	Subscribe(topic string, handler mqtt.Handler) error
	Unsubscribe(topics ...string) error
	PublishJSON(ctx context.Context, topic string, v any) error
}

// ButtonPress body of obedio/button/<key>/press
type ButtonPress struct {
	DeviceID        string `json:"deviceId"`
	LocationID      string `json:"locationId"`
	Button          string `json:"button"`
	PressType       string `json:"pressType"`
	Battery         *int   `json:"battery"`
	RSSI            *int   `json:"rssi"`
	FirmwareVersion string `json:"firmwareVersion"`
	Timestamp       int64  `json:"timestamp"`
}

// DeviceRegistration body of obedio/device/register
type DeviceRegistration struct {
	DeviceID        string          `json:"deviceId"`
	Type            string          `json:"type"`
	Name            string          `json:"name"`
	FirmwareVersion string          `json:"firmwareVersion"`
	HardwareVersion string          `json:"hardwareVersion"`
	MACAddress      string          `json:"macAddress"`
	RSSI            *int            `json:"rssi"`
	Config          json.RawMessage `json:"config"`
}

// Heartbeat body of obedio/device/heartbeat
type Heartbeat struct {
	DeviceID string `json:"deviceId"`
	Type     string `json:"type"`
	Battery  *int   `json:"battery"`
	RSSI     *int   `json:"rssi"`
	Uptime   int64  `json:"uptime"`
}

// Telemetry body of obedio/device/<key>/telemetry
type Telemetry struct {
	Battery *int `json:"battery"`
	RSSI    *int `json:"rssi"`
}

// Acknowledge body of obedio/watch/<key>/acknowledge
type Acknowledge struct {
	RequestID string `json:"requestId"`
	Action    string `json:"action"`
	Timestamp int64  `json:"timestamp"`
}

// Command body published on obedio/device/<key>/command
type Command struct {
	Command   string `json:"command"`
	RequestID string `json:"requestId,omitempty"`
	Status    string `json:"status"`
}

// Subscriber routes inbound device messages to the services.
type Subscriber struct {
	broker   Broker
	requests service.RequestService
	devices  service.DeviceService
	logger   *zap.Logger
	timeout  time.Duration

	ctx    context.Context
	topics []string

	mu       sync.Mutex
	stopped  bool
	inflight sync.WaitGroup
}

// NewSubscriber creates a Subscriber.
func NewSubscriber(broker Broker, requests service.RequestService, devices service.DeviceService, logger *zap.Logger) *Subscriber {
	return &Subscriber{
		broker:   broker,
		requests: requests,
		devices:  devices,
		logger:   logger,
		timeout:  defaultHandleTimeout,
		ctx:      context.Background(),
	}
}

// Start subscribes to every device topic. Handlers derive their context
// from ctx, so cancelling it aborts in-flight work.
func (s *Subscriber) Start(ctx context.Context) error {
	s.ctx = ctx
	routes := map[string]mqtt.Handler{
		mqtt.TopicButtonPress:     s.wrap(s.handleButtonPress),
		mqtt.TopicDeviceRegister:  s.wrap(s.handleRegister),
		mqtt.TopicDeviceHeartbeat: s.wrap(s.handleHeartbeat),
		mqtt.TopicDeviceTelemetry: s.wrap(s.handleTelemetry),
		mqtt.TopicWatchAck:        s.wrap(s.handleAcknowledge),
	}
	for topic, h := range routes {
		if err := s.broker.Subscribe(topic, h); err != nil {
			return err
		}
		s.topics = append(s.topics, topic)
	}
	return nil
}

// Stop unsubscribes and waits for handlers already running. Messages that
// arrive afterwards are dropped, so nothing new reaches the services.
func (s *Subscriber) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	if len(s.topics) > 0 {
		if err := s.broker.Unsubscribe(s.topics...); err != nil {
			s.logger.Warn("mqtt unsubscribe failed", zap.Error(err))
		}
	}
	s.inflight.Wait()
}

func (s *Subscriber) enter() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.inflight.Add(1)
	return true
}

func (s *Subscriber) wrap(fn func(ctx context.Context, topic string, payload []byte) error) mqtt.Handler {
	return func(topic string, payload []byte) {
		if !s.enter() {
			s.logger.Debug("mqtt message after stop dropped", zap.String("topic", topic))
			return
		}
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		defer cancel()
		if err := fn(ctx, topic, payload); err != nil {
			s.logger.Warn("mqtt message dropped", zap.String("topic", topic), zap.Error(err))
		}
	}
}

// ────────────────────── button press ──────────────────────

func (s *Subscriber) handleButtonPress(ctx context.Context, topic string, payload []byte) error {
	var msg ButtonPress
	if err := json.Unmarshal(payload, &msg); err != nil {
		return err
	}
	key := mqtt.Segment(topic, 2)
	if key == "" {
		key = msg.DeviceID
	}
	if key == "" {
		return errors.New("button press without device key")
	}

	if err := s.touchButton(ctx, key, &msg); err != nil {
		return err
	}

	reqType, priority := DeriveRequest(msg.Button, msg.PressType)
	resp, err := s.requests.Create(ctx, &dto.TriggerRequest{
		ButtonID:    key,
		LocationID:  msg.LocationID,
		RequestType: string(reqType),
		Priority:    string(priority),
		Message:     pressNote(&msg, key),
	})
	if errors.Is(err, service.ErrDuplicateTrigger) {
		s.logger.Debug("duplicate button press ignored", zap.String("device_key", key))
		return nil
	}
	if err != nil {
		return err
	}

	_ = s.devices.LogEvent(ctx, key, model.EventButtonPress, map[string]any{
		"button":    msg.Button,
		"pressType": msg.PressType,
		"requestId": resp.ID,
		"coalesced": resp.Coalesced,
	})

	s.publish(ctx, mqtt.DeviceCommandTopic(key), Command{
		Command:   "ack",
		RequestID: resp.ID,
		Status:    "received",
	})
	return nil
}

// touchButton refreshes liveness, registering unknown buttons on first press.
func (s *Subscriber) touchButton(ctx context.Context, key string, msg *ButtonPress) error {
	err := s.devices.Heartbeat(ctx, &dto.HeartbeatRequest{
		DeviceKey:      key,
		BatteryLevel:   msg.Battery,
		SignalStrength: msg.RSSI,
	})
	if !errors.Is(err, service.ErrDeviceNotFound) {
		return err
	}

	_, _, err = s.devices.Register(ctx, &dto.RegisterDeviceRequest{
		DeviceKey:       key,
		Type:            string(model.DeviceSmartButton),
		FirmwareVersion: msg.FirmwareVersion,
	})
	return err
}

// ────────────────────── device lifecycle ──────────────────────

func (s *Subscriber) handleRegister(ctx context.Context, _ string, payload []byte) error {
	var msg DeviceRegistration
	if err := json.Unmarshal(payload, &msg); err != nil {
		return err
	}
	if msg.DeviceID == "" || msg.Type == "" {
		return errors.New("registration without deviceId or type")
	}

	device, _, err := s.devices.Register(ctx, &dto.RegisterDeviceRequest{
		DeviceKey:       msg.DeviceID,
		Name:            msg.Name,
		Type:            msg.Type,
		MACAddress:      msg.MACAddress,
		FirmwareVersion: msg.FirmwareVersion,
		HardwareVersion: msg.HardwareVersion,
		Config:          msg.Config,
	})
	if err != nil {
		return err
	}

	s.publish(ctx, mqtt.DeviceRegisteredTopic(msg.DeviceID), map[string]any{
		"success":  true,
		"deviceId": device.ID,
	})
	return nil
}

func (s *Subscriber) handleHeartbeat(ctx context.Context, _ string, payload []byte) error {
	var msg Heartbeat
	if err := json.Unmarshal(payload, &msg); err != nil {
		return err
	}
	if msg.DeviceID == "" {
		return errors.New("heartbeat without deviceId")
	}

	err := s.devices.Heartbeat(ctx, &dto.HeartbeatRequest{
		DeviceKey:      msg.DeviceID,
		BatteryLevel:   msg.Battery,
		SignalStrength: msg.RSSI,
	})
	if !errors.Is(err, service.ErrDeviceNotFound) {
		return err
	}

	deviceType := msg.Type
	if deviceType == "" {
		deviceType = string(model.DeviceSmartButton)
	}
	s.logger.Info("heartbeat from unknown device, registering", zap.String("device_key", msg.DeviceID))
	_, _, err = s.devices.Register(ctx, &dto.RegisterDeviceRequest{
		DeviceKey: msg.DeviceID,
		Type:      deviceType,
	})
	return err
}

func (s *Subscriber) handleTelemetry(ctx context.Context, topic string, payload []byte) error {
	var msg Telemetry
	if err := json.Unmarshal(payload, &msg); err != nil {
		return err
	}
	return s.devices.RecordTelemetry(ctx, mqtt.Segment(topic, 2), &dto.TelemetryRequest{
		BatteryLevel:   msg.Battery,
		SignalStrength: msg.RSSI,
		Data:           payload,
	})
}

// ────────────────────── watch acknowledge ──────────────────────

func (s *Subscriber) handleAcknowledge(ctx context.Context, topic string, payload []byte) error {
	var msg Acknowledge
	if err := json.Unmarshal(payload, &msg); err != nil {
		return err
	}
	if msg.RequestID == "" {
		return errors.New("acknowledge without requestId")
	}
	key := mqtt.Segment(topic, 2)

	crewID, err := s.devices.FindCrewByDeviceKey(ctx, key)
	if err != nil {
		return err
	}
	if crewID == "" {
		return errors.New("watch " + key + " is not bound to a crew member")
	}

	resp, err := s.requests.Transition(ctx, msg.RequestID, string(model.StatusAccepted), crewID)
	if errors.Is(err, service.ErrInvalidTransition) {
		// someone else got there first
		s.logger.Info("acknowledge for request no longer pending",
			zap.String("request_id", msg.RequestID),
			zap.String("device_key", key),
		)
		return nil
	}
	if err != nil {
		return err
	}

	_ = s.devices.LogEvent(ctx, key, model.EventAcknowledge, map[string]any{
		"requestId":    resp.ID,
		"action":       msg.Action,
		"crewMemberId": crewID,
		"timestamp":    msg.Timestamp,
	})
	return nil
}

func (s *Subscriber) publish(ctx context.Context, topic string, v any) {
	if err := s.broker.PublishJSON(ctx, topic, v); err != nil {
		s.logger.Warn("mqtt publish failed", zap.String("topic", topic), zap.Error(err))
	}
}
