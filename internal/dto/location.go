package dto

// ── locations ──

// CreateLocationRequest create body
type CreateLocationRequest struct {
	Name           string `json:"name"             binding:"required,min=1,max=100"`
	Type           string `json:"type"             binding:"omitempty,oneof=cabin common deck service"`
	Floor          string `json:"floor"            binding:"omitempty,max=30"`
	Description    string `json:"description"      binding:"omitempty,max=500"`
	Department     string `json:"department"       binding:"omitempty,max=50"`
	SmartButtonKey string `json:"smart_button_key" binding:"omitempty,max=64"`
}

// UpdateLocationRequest partial update. An empty smart_button_key clears the
// mapping; an empty department falls back to the yacht-wide dispatch filter.
type UpdateLocationRequest struct {
	Name           *string `json:"name"             binding:"omitempty,min=1,max=100"`
	Type           *string `json:"type"             binding:"omitempty,oneof=cabin common deck service"`
	Floor          *string `json:"floor"            binding:"omitempty,max=30"`
	Description    *string `json:"description"      binding:"omitempty,max=500"`
	Department     *string `json:"department"       binding:"omitempty,max=50"`
	SmartButtonKey *string `json:"smart_button_key" binding:"omitempty,max=64"`
	DoNotDisturb   *bool   `json:"do_not_disturb"`
}

// SetDoNotDisturbRequest DND toggle
type SetDoNotDisturbRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// LocationListRequest list filter
type LocationListRequest struct {
	Type string `form:"type"`
}

// LocationResponse location detail
type LocationResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	Floor          string `json:"floor,omitempty"`
	Description    string `json:"description,omitempty"`
	Department     string `json:"department,omitempty"`
	SmartButtonKey string `json:"smart_button_key,omitempty"`
	DoNotDisturb   bool   `json:"do_not_disturb"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// LocationBrief location summary embedded in other responses
type LocationBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
