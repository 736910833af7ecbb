package transport

import "github.com/google/uuid"

// RegisterUserRequest is the public registration payload.
type RegisterUserRequest struct {
	FirstName string  `json:"firstName" validate:"required,min=1,max=100"`
	LastName  string  `json:"lastName" validate:"required,min=1,max=100"`
	Email     string  `json:"email" validate:"required,email,max=254"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Company   *string `json:"company,omitempty" validate:"omitempty,max=200"`
	Password  string  `json:"password" validate:"required,min=8,max=128"`
}

// ListUsersRequest contains query filters for the admin user list.
type ListUsersRequest struct {
	Search     string `form:"search"`
	SyncStatus string `form:"syncStatus"`
	Page       int    `form:"page"`
	PageSize   int    `form:"pageSize"`
}

// BulkDeleteRequest names the users to remove.
type BulkDeleteRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1,max=500"`
}

// SyncStateResponse is the embedded sync sub-record in API responses.
type SyncStateResponse struct {
	Status     string  `json:"status"`
	ExternalID *string `json:"externalId,omitempty"`
	LastError  *string `json:"lastError,omitempty"`
	SyncedAt   *string `json:"syncedAt,omitempty"`
}

// UserResponse represents a registered user in API responses.
// The password hash never leaves the repository layer.
type UserResponse struct {
	ID        uuid.UUID         `json:"id"`
	FirstName string            `json:"firstName"`
	LastName  string            `json:"lastName"`
	Email     string            `json:"email"`
	Phone     *string           `json:"phone,omitempty"`
	Company   *string           `json:"company,omitempty"`
	Sync      SyncStateResponse `json:"sync"`
	CreatedAt string            `json:"createdAt"`
	UpdatedAt string            `json:"updatedAt"`
}

// UserListResponse wraps a paginated list of users.
type UserListResponse struct {
	Items      []UserResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

// ResyncSummaryResponse is the aggregate result of a bulk resync.
type ResyncSummaryResponse struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

// BulkDeleteResponse reports how many users were removed.
type BulkDeleteResponse struct {
	Deleted int `json:"deleted"`
}
