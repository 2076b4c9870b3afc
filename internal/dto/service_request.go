package dto

// ── service requests ──

// TriggerRequest inbound trigger from a button gateway or the crew app.
// Field names follow the gateway wire format.
type TriggerRequest struct {
	ButtonID    string `json:"buttonId"    binding:"omitempty,max=64"`
	LocationID  string `json:"locationId"  binding:"omitempty,max=100"`
	RequestType string `json:"requestType" binding:"omitempty,max=30"`
	Priority    string `json:"priority"    binding:"omitempty,max=20"`
	Message     string `json:"message"     binding:"omitempty,max=1000"`
	GuestName   string `json:"guestName"   binding:"omitempty,max=100"`
}

// TransitionRequest status change
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// DelegateRequest hand an accepted request to another crew member
type DelegateRequest struct {
	CrewMemberID string `json:"crew_member_id" binding:"required,uuid"`
}

// ServiceRequestListRequest list filter
type ServiceRequestListRequest struct {
	PaginationRequest
	Status     string `form:"status"`
	Priority   string `form:"priority"`
	LocationID string `form:"location_id"`
	CrewID     string `form:"crew_id"`
}

// HistoryListRequest history filter. Dates are YYYY-MM-DD, both inclusive.
type HistoryListRequest struct {
	PaginationRequest
	From      string `form:"from"`
	To        string `form:"to"`
	ActedByID string `form:"acted_by_id"`
}

// ServiceRequestResponse request detail
type ServiceRequestResponse struct {
	ID           string         `json:"id"`
	ButtonKey    string         `json:"button_key,omitempty"`
	Location     *LocationBrief `json:"location,omitempty"`
	GuestID      string         `json:"guest_id,omitempty"`
	GuestName    string         `json:"guest_name,omitempty"`
	GuestCabin   string         `json:"guest_cabin,omitempty"`
	RequestType  string         `json:"request_type"`
	Priority     string         `json:"priority"`
	Status       string         `json:"status"`
	Message      string         `json:"message,omitempty"`
	AssignedCrew *CrewBrief     `json:"assigned_crew,omitempty"`
	AcceptedAt   string         `json:"accepted_at,omitempty"`
	CompletedAt  string         `json:"completed_at,omitempty"`
	CreatedAt    string         `json:"created_at"`
	UpdatedAt    string         `json:"updated_at"`
	Version      int            `json:"version"`
	Coalesced    bool           `json:"coalesced,omitempty"` // true when the trigger folded into an existing pending request
}

// InFlightTriggerResponse a trigger folded into a request that is still
// being created; the id is not known yet.
type InFlightTriggerResponse struct {
	ButtonKey string `json:"button_key"`
	Coalesced bool   `json:"coalesced"`
	InFlight  bool   `json:"in_flight"`
}

// PurgeResponse result of removing every active request
type PurgeResponse struct {
	Deleted int64 `json:"deleted"`
}

// HistoryResponse one history row
type HistoryResponse struct {
	ID                string `json:"id"`
	RequestID         string `json:"request_id"`
	Action            string `json:"action"`
	PreviousStatus    string `json:"previous_status"`
	NewStatus         string `json:"new_status"`
	ActedByID         string `json:"acted_by_id,omitempty"`
	ActedByName       string `json:"acted_by_name,omitempty"`
	RequestType       string `json:"request_type"`
	Priority          string `json:"priority"`
	LocationName      string `json:"location_name,omitempty"`
	ResponseTimeSec   *int   `json:"response_time_sec,omitempty"`
	CompletionTimeSec *int   `json:"completion_time_sec,omitempty"`
	CreatedAt         string `json:"created_at"`
}
