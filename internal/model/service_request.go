package model

import "time"

// ServiceRequest a guest call and its lifecycle (service_requests)
type ServiceRequest struct {
	RequestID      string        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"request_id"`
	ButtonKey      string        `gorm:"type:varchar(64);not null;default:''"           json:"button_key"`
	LocationID     *string       `gorm:"type:uuid"                                      json:"location_id,omitempty"`
	GuestID        *string       `gorm:"type:uuid"                                      json:"guest_id,omitempty"`
	GuestName      string        `gorm:"type:varchar(100);not null;default:''"          json:"guest_name,omitempty"`
	GuestCabin     string        `gorm:"type:varchar(100);not null;default:''"          json:"guest_cabin,omitempty"` // location name snapshot
	RequestType    RequestType   `gorm:"type:varchar(30);not null;default:'service'"    json:"request_type"`
	Priority       Priority      `gorm:"type:varchar(20);not null;default:'normal'"     json:"priority"`
	Status         RequestStatus `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	Message        string        `gorm:"type:text;not null;default:''"                  json:"message,omitempty"`
	AssignedCrewID *string       `gorm:"type:uuid"                                      json:"assigned_crew_id,omitempty"`
	AcceptedAt     *time.Time    `json:"accepted_at,omitempty"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
	Version        int           `gorm:"not null;default:1"                             json:"version"`
	CreatedAt      time.Time     `gorm:"not null;autoCreateTime:false"                  json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null;autoUpdateTime:false"                  json:"updated_at"`

	// associations
	Location     *Location   `gorm:"foreignKey:LocationID;references:LocationID"       json:"location,omitempty"`
	AssignedCrew *CrewMember `gorm:"foreignKey:AssignedCrewID;references:CrewMemberID" json:"assigned_crew,omitempty"`
}

// TableName table name
func (ServiceRequest) TableName() string { return "service_requests" }

// ServiceRequestHistory one row per terminal transition (service_request_histories)
type ServiceRequestHistory struct {
	HistoryID         string        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"history_id"`
	RequestID         string        `gorm:"type:uuid;not null;index"                       json:"request_id"`
	Action            string        `gorm:"type:varchar(20);not null"                      json:"action"` // completed | cancelled
	PreviousStatus    RequestStatus `gorm:"type:varchar(20);not null"                      json:"previous_status"`
	NewStatus         RequestStatus `gorm:"type:varchar(20);not null"                      json:"new_status"`
	ActedByID         *string       `gorm:"type:uuid"                                      json:"acted_by_id,omitempty"`
	ActedByName       string        `gorm:"type:varchar(100);not null;default:''"          json:"acted_by_name,omitempty"`
	RequestType       RequestType   `gorm:"type:varchar(30);not null;default:''"           json:"request_type"`
	Priority          Priority      `gorm:"type:varchar(20);not null;default:''"           json:"priority"`
	LocationName      string        `gorm:"type:varchar(100);not null;default:''"          json:"location_name,omitempty"`
	ResponseTimeSec   *int          `json:"response_time_sec,omitempty"`   // created -> accepted
	CompletionTimeSec *int          `json:"completion_time_sec,omitempty"` // accepted -> completed
	CreatedAt         time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName table name
func (ServiceRequestHistory) TableName() string { return "service_request_histories" }
