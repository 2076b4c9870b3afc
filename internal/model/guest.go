package model

import (
	"strings"
	"time"
)

// Guest a person staying aboard and the cabin they occupy (guests)
type Guest struct {
	GuestID      string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"guest_id"`
	FirstName    string      `gorm:"type:varchar(50);not null"                      json:"first_name"`
	LastName     string      `gorm:"type:varchar(50);not null;default:''"           json:"last_name"`
	Status       GuestStatus `gorm:"type:varchar(20);not null;default:'expected'"   json:"status"`
	LocationID   *string     `gorm:"type:uuid;index"                                json:"location_id,omitempty"`
	DoNotDisturb bool        `gorm:"not null;default:false"                         json:"do_not_disturb"`
	Notes        string      `gorm:"type:text;not null;default:''"                  json:"notes,omitempty"`
	CheckInAt    *time.Time  `json:"check_in_at,omitempty"`
	CheckOutAt   *time.Time  `json:"check_out_at,omitempty"`
	SoftDeleteModel

	// associations
	Location *Location `gorm:"foreignKey:LocationID;references:LocationID" json:"location,omitempty"`
}

// TableName table name
func (Guest) TableName() string { return "guests" }

// FullName first and last name joined.
func (g *Guest) FullName() string {
	return strings.TrimSpace(g.FirstName + " " + g.LastName)
}
