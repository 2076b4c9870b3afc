package dto

// CreateUserRequest account creation (admin only)
type CreateUserRequest struct {
	Username     string `json:"username"       binding:"required,min=3,max=50"`
	Password     string `json:"password"       binding:"required,min=8,max=72"`
	Role         string `json:"role"           binding:"required"`
	CrewMemberID string `json:"crew_member_id" binding:"omitempty,uuid"`
}

// UserListRequest paging only
type UserListRequest struct {
	PaginationRequest
}

// ChangePasswordRequest self-service password change
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// UserResponse account without secrets
type UserResponse struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	CrewMemberID string `json:"crew_member_id,omitempty"`
	CrewName     string `json:"crew_name,omitempty"`
	CreatedAt    string `json:"created_at"`
}
