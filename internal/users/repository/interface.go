package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"consultancy_site_backend/internal/sync"
)

// User is a registered site user with its CRM sync sub-record.
type User struct {
	ID           uuid.UUID
	FirstName    string
	LastName     string
	Email        string
	Phone        *string
	Company      *string
	PasswordHash string
	Sync         sync.Record
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateParams carries the fields needed to register a user.
type CreateParams struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        *string
	Company      *string
	PasswordHash string
}

// ListParams contains filters and pagination for the admin user list.
type ListParams struct {
	Search     string
	SyncStatus *sync.Status
	Offset     int
	Limit      int
}

// Reader provides read access to users.
type Reader interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, params ListParams) ([]User, int, error)
	ListSyncable(ctx context.Context, staleAfter time.Duration) ([]User, error)
	ListAll(ctx context.Context) ([]User, error)
}

// Writer provides write access to users.
type Writer interface {
	Create(ctx context.Context, params CreateParams) (User, error)
	// ClaimSync marks the row pending unless another process holds it;
	// pending claims older than staleAfter are taken over.
	ClaimSync(ctx context.Context, id uuid.UUID, staleAfter time.Duration) (bool, error)
	SaveSync(ctx context.Context, id uuid.UUID, rec sync.Record) error
	BulkDelete(ctx context.Context, ids []uuid.UUID) (int, error)
}

// Repository combines read and write access.
type Repository interface {
	Reader
	Writer
}
