package model

// User login account (users)
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Username     string `gorm:"type:varchar(50);not null;uniqueIndex"          json:"username"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'crew'"       json:"role"`
	SoftDeleteModel

	// associations
	CrewMember *CrewMember `gorm:"foreignKey:UserID;references:UserID" json:"crew_member,omitempty"`
}

// TableName table name
func (User) TableName() string { return "users" }
