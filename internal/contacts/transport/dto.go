package transport

import "github.com/google/uuid"

// SubmitContactRequest is the public contact form payload.
type SubmitContactRequest struct {
	FirstName string  `json:"firstName" validate:"required,min=1,max=100"`
	LastName  string  `json:"lastName" validate:"required,min=1,max=100"`
	Email     string  `json:"email" validate:"required,email,max=254"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Company   *string `json:"company,omitempty" validate:"omitempty,max=200"`
	Message   string  `json:"message" validate:"required,min=1,max=5000"`
}

// UpdateWorkflowStatusRequest changes the operator-facing status of a submission.
type UpdateWorkflowStatusRequest struct {
	WorkflowStatus string `json:"workflowStatus" validate:"required,oneof=new in_progress closed"`
}

// ListSubmissionsRequest contains query filters for the admin list.
type ListSubmissionsRequest struct {
	Search         string `form:"search"`
	WorkflowStatus string `form:"workflowStatus"`
	SyncStatus     string `form:"syncStatus"`
	Page           int    `form:"page"`
	PageSize       int    `form:"pageSize"`
}

// BulkDeleteRequest names the submissions to remove.
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

// SubmissionResponse represents a contact submission in API responses.
type SubmissionResponse struct {
	ID             uuid.UUID         `json:"id"`
	FirstName      string            `json:"firstName"`
	LastName       string            `json:"lastName"`
	Email          string            `json:"email"`
	Phone          *string           `json:"phone,omitempty"`
	Company        *string           `json:"company,omitempty"`
	Message        string            `json:"message"`
	WorkflowStatus string            `json:"workflowStatus"`
	Sync           SyncStateResponse `json:"sync"`
	CreatedAt      string            `json:"createdAt"`
	UpdatedAt      string            `json:"updatedAt"`
}

// SubmissionListResponse wraps a paginated list of submissions.
type SubmissionListResponse struct {
	Items      []SubmissionResponse `json:"items"`
	Total      int                  `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"pageSize"`
	TotalPages int                  `json:"totalPages"`
}

// ResyncSummaryResponse is the aggregate result of a bulk resync.
type ResyncSummaryResponse struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

// BulkDeleteResponse reports how many submissions were removed.
type BulkDeleteResponse struct {
	Deleted int `json:"deleted"`
}
