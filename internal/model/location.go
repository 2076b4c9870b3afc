package model

// Location a cabin or public area guests call from (locations)
type Location struct {
	LocationID     string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"location_id"`
	Name           string  `gorm:"type:varchar(100);not null;uniqueIndex"         json:"name"`
	Type           string  `gorm:"type:varchar(30);not null;default:'cabin'"      json:"type"` // cabin | common | deck | service
	Floor          string  `gorm:"type:varchar(30);not null;default:''"           json:"floor,omitempty"`
	Description    string  `gorm:"type:text;not null;default:''"                  json:"description,omitempty"`
	Department     string  `gorm:"type:varchar(50);not null;default:''"           json:"department,omitempty"` // crew department that answers calls from here
	SmartButtonKey *string `gorm:"type:varchar(64);uniqueIndex"                   json:"smart_button_key,omitempty"` // at most one primary button per location
	DoNotDisturb   bool    `gorm:"not null;default:false"                         json:"do_not_disturb"`
	BaseModel
}

// TableName table name
func (Location) TableName() string { return "locations" }
