package dto

import "encoding/json"

// ── activity journal ──

// ActivityListRequest journal filter
type ActivityListRequest struct {
	PaginationRequest
	Type       string `form:"type"`
	UserID     string `form:"user_id"`
	LocationID string `form:"location_id"`
	RequestID  string `form:"request_id"`
}

// ActivityResponse one journal row
type ActivityResponse struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Action     string          `json:"action"`
	Details    string          `json:"details,omitempty"`
	UserID     string          `json:"user_id,omitempty"`
	LocationID string          `json:"location_id,omitempty"`
	GuestID    string          `json:"guest_id,omitempty"`
	RequestID  string          `json:"request_id,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  string          `json:"created_at"`
}
