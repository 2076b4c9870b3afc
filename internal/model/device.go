package model

import (
	"time"

	"gorm.io/datatypes"
)

// Device smart button, watch, repeater or phone app (devices)
type Device struct {
	DeviceID        string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"device_id"`
	DeviceKey       string         `gorm:"type:varchar(64);not null;uniqueIndex"          json:"device_key"` // stable hardware id, e.g. BTN-001
	Name            string         `gorm:"type:varchar(100);not null;default:''"          json:"name"`
	MACAddress      string         `gorm:"column:mac_address;type:varchar(32);not null;default:''" json:"mac_address,omitempty"`
	Type            DeviceType     `gorm:"type:varchar(30);not null"                      json:"type"`
	SubType         string         `gorm:"type:varchar(30);not null;default:''"           json:"sub_type,omitempty"`
	Status          DeviceStatus   `gorm:"type:varchar(20);not null;default:'unknown'"    json:"status"`
	BatteryLevel    *int           `json:"battery_level,omitempty"`
	SignalStrength  *int           `json:"signal_strength,omitempty"`
	FirmwareVersion string         `gorm:"type:varchar(30);not null;default:''"           json:"firmware_version,omitempty"`
	HardwareVersion string         `gorm:"type:varchar(30);not null;default:''"           json:"hardware_version,omitempty"`
	LastSeenAt      *time.Time     `json:"last_seen_at,omitempty"`
	Config          datatypes.JSON `gorm:"type:jsonb"                                     json:"config,omitempty"`
	CrewMemberID    *string        `gorm:"type:uuid;index"                                json:"crew_member_id,omitempty"`
	LocationID      *string        `gorm:"type:uuid;index"                                json:"location_id,omitempty"`
	BaseModel

	// associations
	CrewMember *CrewMember `gorm:"foreignKey:CrewMemberID;references:CrewMemberID" json:"crew_member,omitempty"`
	Location   *Location   `gorm:"foreignKey:LocationID;references:LocationID"     json:"location,omitempty"`
}

// TableName table name
func (Device) TableName() string { return "devices" }

// DeviceLog device event journal (device_logs)
type DeviceLog struct {
	LogID     string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"log_id"`
	DeviceID  string         `gorm:"type:uuid;not null;index"                       json:"device_id"`
	EventType string         `gorm:"type:varchar(30);not null"                      json:"event_type"` // button_press | device_added | acknowledge | telemetry
	EventData datatypes.JSON `gorm:"type:jsonb"                                     json:"event_data,omitempty"`
	Severity  string         `gorm:"type:varchar(10);not null;default:'info'"       json:"severity"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName table name
func (DeviceLog) TableName() string { return "device_logs" }

// device log event types
const (
	EventButtonPress = "button_press"
	EventDeviceAdded = "device_added"
	EventAcknowledge = "acknowledge"
	EventTelemetry   = "telemetry"
)
