package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/mqtt"
)

// StatusPublisher broadcasts request status changes to every listening screen.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, update StatusUpdate) error
}

// StatusUpdate body published on the service update topic.
type StatusUpdate struct {
	RequestID      string `json:"requestId"`
	Status         string `json:"status"`
	AssignedCrewID string `json:"assignedCrewId,omitempty"`
	Timestamp      int64  `json:"timestamp"`
}

// jsonPublisher the subset of the MQTT client used here
type jsonPublisher interface {
	PublishJSON(ctx context.Context, topic string, v any) error
}

// MQTTNotifier delivers notifications and status updates over MQTT.
type MQTTNotifier struct {
	client jsonPublisher
}

// NewMQTTNotifier wraps an MQTT client.
func NewMQTTNotifier(client jsonPublisher) *MQTTNotifier {
	return &MQTTNotifier{client: client}
}

// Notify publishes to the device's notification topic.
func (n *MQTTNotifier) Notify(ctx context.Context, deviceKey string, payload NotificationPayload) error {
	return n.client.PublishJSON(ctx, mqtt.WatchNotificationTopic(deviceKey), payload)
}

// PublishStatus publishes to the shared status topic.
func (n *MQTTNotifier) PublishStatus(ctx context.Context, update StatusUpdate) error {
	return n.client.PublishJSON(ctx, mqtt.TopicServiceUpdate, update)
}

// LogNotifier stands in when MQTT is disabled: every delivery is logged and
// reported as successful.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, deviceKey string, payload NotificationPayload) error {
	n.logger.Info("notification (mqtt disabled)",
		zap.String("device_key", deviceKey),
		zap.String("request_id", payload.RequestID),
		zap.String("alert_mode", payload.AlertMode),
	)
	return nil
}

func (n *LogNotifier) PublishStatus(_ context.Context, update StatusUpdate) error {
	n.logger.Info("status update (mqtt disabled)",
		zap.String("request_id", update.RequestID),
		zap.String("status", update.Status),
	)
	return nil
}

func newStatusUpdate(req *model.ServiceRequest, at time.Time) StatusUpdate {
	u := StatusUpdate{
		RequestID: req.RequestID,
		Status:    string(req.Status),
		Timestamp: at.UnixMilli(),
	}
	if req.AssignedCrewID != nil {
		u.AssignedCrewID = *req.AssignedCrewID
	}
	return u
}
