package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"consultancy_site_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pillarNotFoundMessage   = "pillar not found"
	offeringNotFoundMessage = "service not found"
	slugTakenMessage        = "slug already in use"
	pgUniqueViolationCode   = "23505"
	pgForeignKeyCode        = "23503"
)

const pillarColumns = `id, name, slug, description, display_order, created_at, updated_at`

const offeringColumns = `s.id, s.pillar_id, p.name, s.title, s.slug, s.description,
	s.price_cents, s.is_active, s.display_order, s.created_at, s.updated_at`

const offeringFrom = ` FROM services s JOIN pillars p ON p.id = s.pillar_id `

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// --- Pillars ---

func (r *Repo) CreatePillar(ctx context.Context, params CreatePillarParams) (Pillar, error) {
	query := `INSERT INTO pillars (name, slug, description, display_order)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + pillarColumns

	pillar, err := scanPillar(r.pool.QueryRow(ctx, query,
		params.Name, params.Slug, params.Description, params.DisplayOrder))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			return Pillar{}, apperr.Conflict(slugTakenMessage)
		}
		return Pillar{}, fmt.Errorf("create pillar: %w", err)
	}
	return pillar, nil
}

func (r *Repo) GetPillar(ctx context.Context, id uuid.UUID) (Pillar, error) {
	query := `SELECT ` + pillarColumns + ` FROM pillars WHERE id = $1`

	pillar, err := scanPillar(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Pillar{}, apperr.NotFound(pillarNotFoundMessage)
		}
		return Pillar{}, fmt.Errorf("get pillar: %w", err)
	}
	return pillar, nil
}

func (r *Repo) ListPillars(ctx context.Context) ([]Pillar, error) {
	query := `SELECT ` + pillarColumns + ` FROM pillars ORDER BY display_order ASC, name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list pillars: %w", err)
	}
	defer rows.Close()

	var items []Pillar
	for rows.Next() {
		pillar, err := scanPillar(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pillar: %w", err)
		}
		items = append(items, pillar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pillars: %w", err)
	}
	return items, nil
}

func (r *Repo) UpdatePillar(ctx context.Context, params UpdatePillarParams) (Pillar, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{params.ID}

	if params.Name != nil {
		args = append(args, *params.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if params.Description != nil {
		args = append(args, *params.Description)
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	if params.DisplayOrder != nil {
		args = append(args, *params.DisplayOrder)
		sets = append(sets, fmt.Sprintf("display_order = $%d", len(args)))
	}

	query := fmt.Sprintf(`UPDATE pillars SET %s WHERE id = $1 RETURNING %s`,
		strings.Join(sets, ", "), pillarColumns)

	pillar, err := scanPillar(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Pillar{}, apperr.NotFound(pillarNotFoundMessage)
		}
		return Pillar{}, fmt.Errorf("update pillar: %w", err)
	}
	return pillar, nil
}

func (r *Repo) DeletePillar(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM pillars WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyCode {
			return apperr.Conflict("pillar still has services")
		}
		return fmt.Errorf("delete pillar: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(pillarNotFoundMessage)
	}
	return nil
}

// --- Offerings ---

func (r *Repo) CreateOffering(ctx context.Context, params CreateOfferingParams) (Offering, error) {
	query := `WITH inserted AS (
			INSERT INTO services (pillar_id, title, slug, description, price_cents, display_order)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING *
		)
		SELECT ` + strings.ReplaceAll(offeringColumns, "s.", "inserted.") + `
		FROM inserted JOIN pillars p ON p.id = inserted.pillar_id`

	offering, err := scanOffering(r.pool.QueryRow(ctx, query,
		params.PillarID, params.Title, params.Slug, params.Description, params.PriceCents, params.DisplayOrder))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolationCode:
				return Offering{}, apperr.Conflict(slugTakenMessage)
			case pgForeignKeyCode:
				return Offering{}, apperr.Validation(pillarNotFoundMessage)
			}
		}
		return Offering{}, fmt.Errorf("create service: %w", err)
	}
	return offering, nil
}

func (r *Repo) GetOffering(ctx context.Context, id uuid.UUID) (Offering, error) {
	query := `SELECT ` + offeringColumns + offeringFrom + `WHERE s.id = $1`

	offering, err := scanOffering(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Offering{}, apperr.NotFound(offeringNotFoundMessage)
		}
		return Offering{}, fmt.Errorf("get service: %w", err)
	}
	return offering, nil
}

func (r *Repo) GetOfferingsByIDs(ctx context.Context, ids []uuid.UUID) ([]Offering, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + offeringColumns + offeringFrom + `WHERE s.id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get services by ids: %w", err)
	}
	defer rows.Close()

	return scanOfferings(rows)
}

func (r *Repo) ListOfferings(ctx context.Context) ([]Offering, error) {
	query := `SELECT ` + offeringColumns + offeringFrom + `
		ORDER BY p.display_order ASC, s.display_order ASC, s.title ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	return scanOfferings(rows)
}

func (r *Repo) ListActiveOfferings(ctx context.Context) ([]Offering, error) {
	query := `SELECT ` + offeringColumns + offeringFrom + `WHERE s.is_active
		ORDER BY p.display_order ASC, s.display_order ASC, s.title ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active services: %w", err)
	}
	defer rows.Close()

	return scanOfferings(rows)
}

func (r *Repo) UpdateOffering(ctx context.Context, params UpdateOfferingParams) (Offering, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{params.ID}

	if params.PillarID != nil {
		args = append(args, *params.PillarID)
		sets = append(sets, fmt.Sprintf("pillar_id = $%d", len(args)))
	}
	if params.Title != nil {
		args = append(args, *params.Title)
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}
	if params.Description != nil {
		args = append(args, *params.Description)
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	if params.PriceCents != nil {
		args = append(args, *params.PriceCents)
		sets = append(sets, fmt.Sprintf("price_cents = $%d", len(args)))
	}
	if params.IsActive != nil {
		args = append(args, *params.IsActive)
		sets = append(sets, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if params.DisplayOrder != nil {
		args = append(args, *params.DisplayOrder)
		sets = append(sets, fmt.Sprintf("display_order = $%d", len(args)))
	}

	query := fmt.Sprintf(`WITH updated AS (
			UPDATE services SET %s WHERE id = $1 RETURNING *
		)
		SELECT %s FROM updated JOIN pillars p ON p.id = updated.pillar_id`,
		strings.Join(sets, ", "), strings.ReplaceAll(offeringColumns, "s.", "updated."))

	offering, err := scanOffering(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Offering{}, apperr.NotFound(offeringNotFoundMessage)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyCode {
			return Offering{}, apperr.Validation(pillarNotFoundMessage)
		}
		return Offering{}, fmt.Errorf("update service: %w", err)
	}
	return offering, nil
}

func (r *Repo) DeleteOffering(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(offeringNotFoundMessage)
	}
	return nil
}

func scanPillar(row pgx.Row) (Pillar, error) {
	var p Pillar
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.DisplayOrder, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Pillar{}, err
	}
	return p, nil
}

func scanOffering(row pgx.Row) (Offering, error) {
	var o Offering
	err := row.Scan(&o.ID, &o.PillarID, &o.PillarName, &o.Title, &o.Slug, &o.Description,
		&o.PriceCents, &o.IsActive, &o.DisplayOrder, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Offering{}, err
	}
	return o, nil
}

func scanOfferings(rows pgx.Rows) ([]Offering, error) {
	var items []Offering
	for rows.Next() {
		offering, err := scanOffering(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		items = append(items, offering)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services: %w", err)
	}
	return items, nil
}
