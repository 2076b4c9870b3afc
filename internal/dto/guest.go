package dto

// ── guests ──

// CreateGuestRequest create body. Status defaults to expected.
type CreateGuestRequest struct {
	FirstName  string `json:"first_name"  binding:"required,min=1,max=50"`
	LastName   string `json:"last_name"   binding:"omitempty,max=50"`
	Status     string `json:"status"      binding:"omitempty,max=20"`
	LocationID string `json:"location_id" binding:"omitempty,uuid"`
	Notes      string `json:"notes"       binding:"omitempty,max=1000"`
}

// UpdateGuestRequest partial update. An empty location_id moves the guest
// out of any cabin.
type UpdateGuestRequest struct {
	FirstName    *string `json:"first_name"  binding:"omitempty,min=1,max=50"`
	LastName     *string `json:"last_name"   binding:"omitempty,max=50"`
	LocationID   *string `json:"location_id" binding:"omitempty,max=36"`
	Notes        *string `json:"notes"       binding:"omitempty,max=1000"`
	DoNotDisturb *bool   `json:"do_not_disturb"`
}

// GuestStatusRequest check-in / go-ashore / check-out
type GuestStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// GuestListRequest list filter
type GuestListRequest struct {
	PaginationRequest
	Status     string `form:"status"`
	LocationID string `form:"location_id"`
	Search     string `form:"search"`
}

// GuestResponse guest detail
type GuestResponse struct {
	ID           string         `json:"id"`
	FirstName    string         `json:"first_name"`
	LastName     string         `json:"last_name"`
	Status       string         `json:"status"`
	Location     *LocationBrief `json:"location,omitempty"`
	DoNotDisturb bool           `json:"do_not_disturb"`
	Notes        string         `json:"notes,omitempty"`
	CheckInAt    string         `json:"check_in_at,omitempty"`
	CheckOutAt   string         `json:"check_out_at,omitempty"`
	CreatedAt    string         `json:"created_at"`
	UpdatedAt    string         `json:"updated_at"`
}
