package dto

// ── shifts ──

// CreateShiftRequest create body. Colour is assigned by the server.
type CreateShiftRequest struct {
	Name         string `json:"name"          binding:"required,min=1,max=50"`
	StartTime    string `json:"start_time"    binding:"required"`
	EndTime      string `json:"end_time"      binding:"required"`
	Description  string `json:"description"   binding:"omitempty,max=500"`
	PrimaryCount *int   `json:"primary_count" binding:"omitempty,min=0,max=50"`
	BackupCount  *int   `json:"backup_count"  binding:"omitempty,min=0,max=50"`
}

// UpdateShiftRequest partial update
type UpdateShiftRequest struct {
	Name         *string `json:"name"          binding:"omitempty,min=1,max=50"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	Description  *string `json:"description"   binding:"omitempty,max=500"`
	PrimaryCount *int    `json:"primary_count" binding:"omitempty,min=0,max=50"`
	BackupCount  *int    `json:"backup_count"  binding:"omitempty,min=0,max=50"`
}

// ReorderShiftsRequest shift ids in the desired order
type ReorderShiftsRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,uuid"`
}

// ShiftListRequest list filter
type ShiftListRequest struct {
	ActiveOnly bool `form:"active_only"`
}

// ShiftResponse shift detail
type ShiftResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Color        string `json:"color"`
	Description  string `json:"description,omitempty"`
	IsActive     bool   `json:"is_active"`
	SortOrder    int    `json:"sort_order"`
	PrimaryCount int    `json:"primary_count"`
	BackupCount  int    `json:"backup_count"`
}

// ── assignments ──

// CreateAssignmentRequest roster entry
type CreateAssignmentRequest struct {
	Date         string `json:"date"           binding:"required"`
	ShiftID      string `json:"shift_id"       binding:"required,uuid"`
	CrewMemberID string `json:"crew_member_id" binding:"required,uuid"`
	Type         string `json:"type"           binding:"omitempty"`
	Notes        string `json:"notes"          binding:"omitempty,max=500"`
}

// AssignmentListRequest date range, YYYY-MM-DD, inclusive
type AssignmentListRequest struct {
	From         string `form:"from"`
	To           string `form:"to"`
	CrewMemberID string `form:"crew_member_id"`
}

// AssignmentResponse roster entry detail
type AssignmentResponse struct {
	ID    string      `json:"id"`
	Date  string      `json:"date"`
	Type  string      `json:"type"`
	Notes string      `json:"notes,omitempty"`
	Shift *ShiftBrief `json:"shift,omitempty"`
	Crew  *CrewBrief  `json:"crew,omitempty"`
}

// ShiftBrief shift summary embedded in assignments
type ShiftBrief struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Color     string `json:"color"`
}

// WorkloadResponse assignment counts for one crew member
type WorkloadResponse struct {
	CrewMemberID string `json:"crew_member_id"`
	From         string `json:"from"`
	To           string `json:"to"`
	Primary      int    `json:"primary"`
	Backup       int    `json:"backup"`
	Total        int    `json:"total"`
}
