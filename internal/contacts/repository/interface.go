package repository

import (
	"context"
	"time"

	"consultancy_site_backend/internal/sync"

	"github.com/google/uuid"
)

// WorkflowStatus is the operator-facing lifecycle of a submission. It is
// deliberately separate from the CRM sync status: an operator closing a
// conversation says nothing about whether the CRM knows the contact.
type WorkflowStatus string

const (
	WorkflowNew        WorkflowStatus = "new"
	WorkflowInProgress WorkflowStatus = "in_progress"
	WorkflowClosed     WorkflowStatus = "closed"
)

// ValidWorkflowStatus reports whether s is a known workflow status.
func ValidWorkflowStatus(s WorkflowStatus) bool {
	switch s {
	case WorkflowNew, WorkflowInProgress, WorkflowClosed:
		return true
	}
	return false
}

// Submission is a contact form submission with its embedded sync sub-record.
type Submission struct {
	ID             uuid.UUID
	FirstName      string
	LastName       string
	Email          string
	Phone          *string
	Company        *string
	Message        string
	WorkflowStatus WorkflowStatus
	Sync           sync.Record
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateParams contains parameters for persisting a new submission.
type CreateParams struct {
	FirstName string
	LastName  string
	Email     string
	Phone     *string
	Company   *string
	Message   string
}

// ListParams contains filters for listing submissions.
type ListParams struct {
	Search         string
	WorkflowStatus *WorkflowStatus
	SyncStatus     *sync.Status
	Offset         int
	Limit          int
}

// SubmissionReader provides read operations for contact submissions.
type SubmissionReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Submission, error)
	List(ctx context.Context, params ListParams) ([]Submission, int, error)
	// ListSyncable returns every submission whose sync state warrants a
	// sweep: unsynced, failed, or stuck in pending longer than staleAfter.
	ListSyncable(ctx context.Context, staleAfter time.Duration) ([]Submission, error)
	// ListAll returns all submissions, used by the admin bulk resync.
	ListAll(ctx context.Context) ([]Submission, error)
}

// SubmissionWriter provides write operations for contact submissions.
type SubmissionWriter interface {
	Create(ctx context.Context, params CreateParams) (Submission, error)
	UpdateWorkflowStatus(ctx context.Context, id uuid.UUID, status WorkflowStatus) (Submission, error)
	// ClaimSync marks the row pending unless another process holds it;
	// pending claims older than staleAfter are taken over.
	ClaimSync(ctx context.Context, id uuid.UUID, staleAfter time.Duration) (bool, error)
	SaveSync(ctx context.Context, id uuid.UUID, rec sync.Record) error
	BulkDelete(ctx context.Context, ids []uuid.UUID) (int, error)
}

// Repository combines all contact submission repository operations.
type Repository interface {
	SubmissionReader
	SubmissionWriter
}
