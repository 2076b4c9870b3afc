package dto

// ── crew ──

// CreateCrewMemberRequest create body
type CreateCrewMemberRequest struct {
	Name       string `json:"name"       binding:"required,min=1,max=100"`
	Department string `json:"department" binding:"omitempty,max=50"`
	Position   string `json:"position"   binding:"omitempty,max=50"`
	Status     string `json:"status"`
	Email      string `json:"email"      binding:"omitempty,email,max=100"`
	Phone      string `json:"phone"      binding:"omitempty,max=30"`
}

// UpdateCrewMemberRequest partial update; nil fields are left alone
type UpdateCrewMemberRequest struct {
	Name       *string `json:"name"       binding:"omitempty,min=1,max=100"`
	Department *string `json:"department" binding:"omitempty,max=50"`
	Position   *string `json:"position"   binding:"omitempty,max=50"`
	Email      *string `json:"email"      binding:"omitempty,max=100"`
	Phone      *string `json:"phone"      binding:"omitempty,max=30"`
}

// SetDutyStatusRequest duty status change
type SetDutyStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CrewListRequest list filter
type CrewListRequest struct {
	Department string `form:"department"`
	Status     string `form:"status"`
}

// CrewMemberResponse crew member with bound devices
type CrewMemberResponse struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Department string        `json:"department"`
	Position   string        `json:"position"`
	Status     string        `json:"status"`
	Email      string        `json:"email,omitempty"`
	Phone      string        `json:"phone,omitempty"`
	Devices    []DeviceBrief `json:"devices"`
	Version    int           `json:"version"`
	CreatedAt  string        `json:"created_at"`
	UpdatedAt  string        `json:"updated_at"`
}

// DeviceBrief device summary embedded in crew responses
type DeviceBrief struct {
	ID        string `json:"id"`
	DeviceKey string `json:"device_key"`
	Type      string `json:"type"`
	Status    string `json:"status"`
}

// CrewBrief crew summary embedded in other responses
type CrewBrief struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position,omitempty"`
}
