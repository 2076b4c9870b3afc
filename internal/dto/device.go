package dto

import "encoding/json"

// ── devices ──

// RegisterDeviceRequest create-or-update by device key. Also the payload of
// the device register MQTT topic.
type RegisterDeviceRequest struct {
	DeviceKey       string          `json:"device_key"       binding:"required,max=64"`
	Name            string          `json:"name"             binding:"omitempty,max=100"`
	Type            string          `json:"type"             binding:"required"`
	SubType         string          `json:"sub_type"         binding:"omitempty,max=30"`
	MACAddress      string          `json:"mac_address"      binding:"omitempty,max=32"`
	FirmwareVersion string          `json:"firmware_version" binding:"omitempty,max=30"`
	HardwareVersion string          `json:"hardware_version" binding:"omitempty,max=30"`
	Config          json.RawMessage `json:"config"`
}

// BindDeviceRequest crew binding; empty crew_member_id unbinds
type BindDeviceRequest struct {
	CrewMemberID string `json:"crew_member_id" binding:"omitempty,uuid"`
}

// BindLocationRequest location binding; empty location_id unbinds
type BindLocationRequest struct {
	LocationID string `json:"location_id" binding:"omitempty,uuid"`
}

// HeartbeatRequest periodic liveness report
type HeartbeatRequest struct {
	DeviceKey      string `json:"device_key"`
	BatteryLevel   *int   `json:"battery_level"`
	SignalStrength *int   `json:"signal_strength"`
}

// TelemetryRequest free-form sensor report
type TelemetryRequest struct {
	BatteryLevel   *int            `json:"battery_level"`
	SignalStrength *int            `json:"signal_strength"`
	Data           json.RawMessage `json:"data"`
}

// DeviceListRequest list filter
type DeviceListRequest struct {
	Type         string `form:"type"`
	Status       string `form:"status"`
	CrewMemberID string `form:"crew_member_id"`
	LocationID   string `form:"location_id"`
}

// DeviceResponse device detail
type DeviceResponse struct {
	ID              string          `json:"id"`
	DeviceKey       string          `json:"device_key"`
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	SubType         string          `json:"sub_type,omitempty"`
	MACAddress      string          `json:"mac_address,omitempty"`
	Status          string          `json:"status"`
	BatteryLevel    *int            `json:"battery_level,omitempty"`
	SignalStrength  *int            `json:"signal_strength,omitempty"`
	FirmwareVersion string          `json:"firmware_version,omitempty"`
	HardwareVersion string          `json:"hardware_version,omitempty"`
	LastSeenAt      string          `json:"last_seen_at,omitempty"`
	Config          json.RawMessage `json:"config,omitempty"`
	CrewMember      *CrewBrief      `json:"crew_member,omitempty"`
	Location        *LocationBrief  `json:"location,omitempty"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

// DeviceLogResponse journal entry
type DeviceLogResponse struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	EventData json.RawMessage `json:"event_data,omitempty"`
	Severity  string          `json:"severity"`
	CreatedAt string          `json:"created_at"`
}
