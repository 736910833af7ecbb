package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"consultancy_site_backend/internal/sync"
	"consultancy_site_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const submissionNotFoundMessage = "contact submission not found"

const submissionColumns = `id, first_name, last_name, email, phone, company, message,
	workflow_status, sync_status, crm_contact_id, sync_error, synced_at, created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new contact submissions repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Create persists a new submission. The sync sub-record starts as unsynced.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Submission, error) {
	query := `
		INSERT INTO contact_submissions (first_name, last_name, email, phone, company, message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + submissionColumns

	row := r.pool.QueryRow(ctx, query,
		params.FirstName, params.LastName, params.Email, params.Phone, params.Company, params.Message)

	sub, err := scanSubmission(row)
	if err != nil {
		return Submission{}, fmt.Errorf("create contact submission: %w", err)
	}
	return sub, nil
}

// GetByID retrieves a submission by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM contact_submissions WHERE id = $1`

	sub, err := scanSubmission(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Submission{}, apperr.NotFound(submissionNotFoundMessage)
		}
		return Submission{}, fmt.Errorf("get contact submission: %w", err)
	}
	return sub, nil
}

// List retrieves submissions with filters and pagination, newest first.
func (r *Repo) List(ctx context.Context, params ListParams) ([]Submission, int, error) {
	where := []string{"TRUE"}
	args := []any{}

	if params.Search != "" {
		args = append(args, "%"+strings.ToLower(params.Search)+"%")
		idx := len(args)
		where = append(where, fmt.Sprintf(
			"(LOWER(first_name || ' ' || last_name) LIKE $%d OR LOWER(email) LIKE $%d)", idx, idx))
	}
	if params.WorkflowStatus != nil {
		args = append(args, string(*params.WorkflowStatus))
		where = append(where, fmt.Sprintf("workflow_status = $%d", len(args)))
	}
	if params.SyncStatus != nil {
		args = append(args, string(*params.SyncStatus))
		where = append(where, fmt.Sprintf("sync_status = $%d", len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM contact_submissions WHERE " + whereClause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contact submissions: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`SELECT %s FROM contact_submissions WHERE %s
		ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		submissionColumns, whereClause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list contact submissions: %w", err)
	}
	defer rows.Close()

	items, err := scanSubmissions(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListSyncable returns submissions eligible for the background sweep.
func (r *Repo) ListSyncable(ctx context.Context, staleAfter time.Duration) ([]Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM contact_submissions
		WHERE sync_status IN ('unsynced', 'failed')
		   OR (sync_status = 'pending' AND updated_at < $1)
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, time.Now().UTC().Add(-staleAfter))
	if err != nil {
		return nil, fmt.Errorf("list syncable contact submissions: %w", err)
	}
	defer rows.Close()

	return scanSubmissions(rows)
}

// ListAll returns every submission, oldest first.
func (r *Repo) ListAll(ctx context.Context) ([]Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM contact_submissions ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all contact submissions: %w", err)
	}
	defer rows.Close()

	return scanSubmissions(rows)
}

// UpdateWorkflowStatus sets the operator-facing workflow status.
func (r *Repo) UpdateWorkflowStatus(ctx context.Context, id uuid.UUID, status WorkflowStatus) (Submission, error) {
	query := `UPDATE contact_submissions
		SET workflow_status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + submissionColumns

	sub, err := scanSubmission(r.pool.QueryRow(ctx, query, id, string(status)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Submission{}, apperr.NotFound(submissionNotFoundMessage)
		}
		return Submission{}, fmt.Errorf("update workflow status: %w", err)
	}
	return sub, nil
}

// ClaimSync marks the row pending unless another process already holds it.
// A pending claim older than staleAfter counts as abandoned and is taken over.
func (r *Repo) ClaimSync(ctx context.Context, id uuid.UUID, staleAfter time.Duration) (bool, error) {
	query := `UPDATE contact_submissions
		SET sync_status = 'pending', updated_at = NOW()
		WHERE id = $1 AND (sync_status <> 'pending' OR updated_at < $2)`

	tag, err := r.pool.Exec(ctx, query, id, time.Now().UTC().Add(-staleAfter))
	if err != nil {
		return false, fmt.Errorf("claim contact sync: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SaveSync persists the sync sub-record. Only the sync engine calls this.
func (r *Repo) SaveSync(ctx context.Context, id uuid.UUID, rec sync.Record) error {
	query := `UPDATE contact_submissions
		SET sync_status = $2, crm_contact_id = $3, sync_error = $4, synced_at = $5, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, string(rec.Status), rec.ExternalID, rec.LastError, rec.SyncedAt)
	if err != nil {
		return fmt.Errorf("save contact sync state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(submissionNotFoundMessage)
	}
	return nil
}

// BulkDelete removes submissions and their sync sub-records. The remote CRM
// twin is left alone: the CRM may be the system of record elsewhere.
func (r *Repo) BulkDelete(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM contact_submissions WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("bulk delete contact submissions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanSubmission(row pgx.Row) (Submission, error) {
	var sub Submission
	var workflowStatus, syncStatus string

	err := row.Scan(
		&sub.ID, &sub.FirstName, &sub.LastName, &sub.Email, &sub.Phone, &sub.Company, &sub.Message,
		&workflowStatus, &syncStatus, &sub.Sync.ExternalID, &sub.Sync.LastError, &sub.Sync.SyncedAt,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return Submission{}, err
	}

	sub.WorkflowStatus = WorkflowStatus(workflowStatus)
	sub.Sync.Status = sync.Status(syncStatus)
	return sub, nil
}

func scanSubmissions(rows pgx.Rows) ([]Submission, error) {
	var items []Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact submission: %w", err)
		}
		items = append(items, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contact submissions: %w", err)
	}
	return items, nil
}
