package model

// CrewMember a person on board who can be rostered and notified (crew_members)
type CrewMember struct {
	CrewMemberID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"crew_member_id"`
	Name         string     `gorm:"type:varchar(100);not null"                     json:"name"`
	Department   string     `gorm:"type:varchar(50);not null;default:''"           json:"department"`
	Position     string     `gorm:"type:varchar(50);not null;default:''"           json:"position"`
	Status       DutyStatus `gorm:"type:varchar(20);not null;default:'off-duty'"   json:"status"`
	Email        string     `gorm:"type:varchar(100);not null;default:''"          json:"email,omitempty"`
	Phone        string     `gorm:"type:varchar(30);not null;default:''"           json:"phone,omitempty"`
	UserID       *string    `gorm:"type:uuid;uniqueIndex"                          json:"user_id,omitempty"`
	VersionedModel

	// associations
	Devices []Device `gorm:"foreignKey:CrewMemberID;references:CrewMemberID" json:"devices,omitempty"`
}

// TableName table name
func (CrewMember) TableName() string { return "crew_members" }
