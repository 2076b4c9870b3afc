package mqtt

import "strings"

// Topic layout shared with button and watch firmware.
const (
	TopicButtonPress     = "obedio/button/+/press"
	TopicDeviceRegister  = "obedio/device/register"
	TopicDeviceHeartbeat = "obedio/device/heartbeat"
	TopicDeviceTelemetry = "obedio/device/+/telemetry"
	TopicWatchAck        = "obedio/watch/+/acknowledge"
	TopicServiceUpdate   = "obedio/service/update"
)

// WatchNotificationTopic where a watch listens for new service requests.
func WatchNotificationTopic(deviceKey string) string {
	return "obedio/watch/" + deviceKey + "/notification"
}

// DeviceCommandTopic where a device listens for acks and commands.
func DeviceCommandTopic(deviceKey string) string {
	return "obedio/device/" + deviceKey + "/command"
}

// DeviceRegisteredTopic register confirmation for one device.
func DeviceRegisteredTopic(deviceKey string) string {
	return "obedio/device/" + deviceKey + "/registered"
}

// Segment returns the i-th slash separated segment of topic, or "".
// For "obedio/button/BTN-1/press", Segment(topic, 2) is "BTN-1".
func Segment(topic string, i int) string {
	parts := strings.Split(topic, "/")
	if i < 0 || i >= len(parts) {
		return ""
	}
	return parts[i]
}
