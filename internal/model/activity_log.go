package model

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// ActivityType what an activity log row is about.
type ActivityType string

const (
	ActivityServiceRequest ActivityType = "service_request"
	ActivityDND            ActivityType = "dnd"
	ActivityGuest          ActivityType = "guest"
	ActivityCrew           ActivityType = "crew"
)

// ParseActivityType closed vocabulary of journal types.
func ParseActivityType(s string) (ActivityType, error) {
	switch ActivityType(s) {
	case ActivityServiceRequest, ActivityDND, ActivityGuest, ActivityCrew:
		return ActivityType(s), nil
	}
	return "", fmt.Errorf("%w: activity type %q", ErrUnknownValue, s)
}

// ActivityLog operator-facing journal of what happened aboard (activity_logs)
type ActivityLog struct {
	ActivityID string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"activity_id"`
	Type       ActivityType   `gorm:"type:varchar(30);not null;index"                json:"type"`
	Action     string         `gorm:"type:varchar(100);not null"                     json:"action"`
	Details    string         `gorm:"type:text;not null;default:''"                  json:"details,omitempty"`
	UserID     *string        `gorm:"type:uuid"                                      json:"user_id,omitempty"`
	LocationID *string        `gorm:"type:uuid"                                      json:"location_id,omitempty"`
	GuestID    *string        `gorm:"type:uuid"                                      json:"guest_id,omitempty"`
	RequestID  *string        `gorm:"type:uuid"                                      json:"request_id,omitempty"`
	Metadata   datatypes.JSON `gorm:"type:jsonb"                                     json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP;index"       json:"created_at"`
}

// TableName table name
func (ActivityLog) TableName() string { return "activity_logs" }
