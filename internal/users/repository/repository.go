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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	userNotFoundMessage   = "user not found"
	emailTakenMessage     = "email already registered"
	pgUniqueViolationCode = "23505"
)

const userColumns = `id, first_name, last_name, email, phone, company, password_hash,
	sync_status, crm_contact_id, sync_error, synced_at, created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new users repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Create registers a new user. The sync sub-record starts as unsynced.
// A duplicate email maps to a conflict error.
func (r *Repo) Create(ctx context.Context, params CreateParams) (User, error) {
	query := `
		INSERT INTO users (first_name, last_name, email, phone, company, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns

	row := r.pool.QueryRow(ctx, query,
		params.FirstName, params.LastName, params.Email, params.Phone, params.Company, params.PasswordHash)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			return User{}, apperr.Conflict(emailTakenMessage)
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound(userNotFoundMessage)
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email.
func (r *Repo) GetByEmail(ctx context.Context, email string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound(userNotFoundMessage)
		}
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// List retrieves users with filters and pagination, newest first.
func (r *Repo) List(ctx context.Context, params ListParams) ([]User, int, error) {
	where := []string{"TRUE"}
	args := []any{}

	if params.Search != "" {
		args = append(args, "%"+strings.ToLower(params.Search)+"%")
		idx := len(args)
		where = append(where, fmt.Sprintf(
			"(LOWER(first_name || ' ' || last_name) LIKE $%d OR LOWER(email) LIKE $%d)", idx, idx))
	}
	if params.SyncStatus != nil {
		args = append(args, string(*params.SyncStatus))
		where = append(where, fmt.Sprintf("sync_status = $%d", len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM users WHERE " + whereClause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s
		ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	items, err := scanUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListSyncable returns users eligible for the background sweep.
func (r *Repo) ListSyncable(ctx context.Context, staleAfter time.Duration) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE sync_status IN ('unsynced', 'failed')
		   OR (sync_status = 'pending' AND updated_at < $1)
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, time.Now().UTC().Add(-staleAfter))
	if err != nil {
		return nil, fmt.Errorf("list syncable users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// ListAll returns every user, oldest first.
func (r *Repo) ListAll(ctx context.Context) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// ClaimSync marks the row pending unless another process already holds it.
// A pending claim older than staleAfter counts as abandoned and is taken over.
func (r *Repo) ClaimSync(ctx context.Context, id uuid.UUID, staleAfter time.Duration) (bool, error) {
	query := `UPDATE users
		SET sync_status = 'pending', updated_at = NOW()
		WHERE id = $1 AND (sync_status <> 'pending' OR updated_at < $2)`

	tag, err := r.pool.Exec(ctx, query, id, time.Now().UTC().Add(-staleAfter))
	if err != nil {
		return false, fmt.Errorf("claim user sync: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SaveSync persists the sync sub-record. Only the sync engine calls this.
func (r *Repo) SaveSync(ctx context.Context, id uuid.UUID, rec sync.Record) error {
	query := `UPDATE users
		SET sync_status = $2, crm_contact_id = $3, sync_error = $4, synced_at = $5, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, string(rec.Status), rec.ExternalID, rec.LastError, rec.SyncedAt)
	if err != nil {
		return fmt.Errorf("save user sync state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(userNotFoundMessage)
	}
	return nil
}

// BulkDelete removes users locally. The remote CRM twin is left alone.
func (r *Repo) BulkDelete(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("bulk delete users: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	var syncStatus string

	err := row.Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.Phone, &user.Company,
		&user.PasswordHash, &syncStatus, &user.Sync.ExternalID, &user.Sync.LastError, &user.Sync.SyncedAt,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}

	user.Sync.Status = sync.Status(syncStatus)
	return user, nil
}

func scanUsers(rows pgx.Rows) ([]User, error) {
	var items []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		items = append(items, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return items, nil
}
