package model

import "time"

// Shift a named duty window (shifts)
type Shift struct {
	ShiftID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_id"`
	Name         string `gorm:"type:varchar(50);not null"                      json:"name"`
	StartTime    string `gorm:"type:varchar(5);not null"                       json:"start_time"` // HH:MM
	EndTime      string `gorm:"type:varchar(5);not null"                       json:"end_time"`   // HH:MM, may wrap past midnight
	Color        string `gorm:"type:varchar(7);not null"                       json:"color"`
	Description  string `gorm:"type:text;not null;default:''"                  json:"description,omitempty"`
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	SortOrder    int    `gorm:"not null;default:0"                             json:"sort_order"`
	PrimaryCount int    `gorm:"not null;default:2"                             json:"primary_count"`
	BackupCount  int    `gorm:"not null;default:1"                             json:"backup_count"`
	BaseModel
}

// TableName table name
func (Shift) TableName() string { return "shifts" }

// Assignment a crew member rostered onto a shift for one day (assignments)
type Assignment struct {
	AssignmentID string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	Date         time.Time      `gorm:"type:date;not null"                             json:"date"`
	ShiftID      string         `gorm:"type:uuid;not null"                             json:"shift_id"`
	CrewMemberID string         `gorm:"type:uuid;not null"                             json:"crew_member_id"`
	Type         AssignmentType `gorm:"type:varchar(10);not null;default:'primary'"    json:"type"`
	Notes        string         `gorm:"type:text;not null;default:''"                  json:"notes,omitempty"`
	BaseModel

	// associations
	Shift      *Shift      `gorm:"foreignKey:ShiftID;references:ShiftID"           json:"shift,omitempty"`
	CrewMember *CrewMember `gorm:"foreignKey:CrewMemberID;references:CrewMemberID" json:"crew_member,omitempty"`
}

// TableName table name
func (Assignment) TableName() string { return "assignments" }
