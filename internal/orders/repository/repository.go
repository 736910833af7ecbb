package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"consultancy_site_backend/internal/sync"
	"consultancy_site_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	orderNotFoundMessage  = "order not found"
	pgUniqueViolationCode = "23505"
)

// ErrDuplicateOrderNumber signals an order-number collision; the caller
// regenerates and retries.
var ErrDuplicateOrderNumber = errors.New("duplicate order number")

const orderColumns = `id, order_number, first_name, last_name, email, phone, company, notes,
	total_cents, fulfillment_mode, payment_url, crm_invoice_id,
	sync_status, crm_contact_id, sync_error, synced_at, created_at, updated_at`

const itemColumns = `id, order_id, service_id, title, pillar_name, quantity, unit_price_cents`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new orders repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Create persists an order and its line items in one transaction. The
// fulfillment mode starts as deferred_invoice until the orchestrator decides.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	orderQuery := `
		INSERT INTO orders (order_number, first_name, last_name, email, phone, company, notes, total_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + orderColumns

	order, err := scanOrder(tx.QueryRow(ctx, orderQuery,
		params.OrderNumber, params.FirstName, params.LastName, params.Email,
		params.Phone, params.Company, params.Notes, params.TotalCents))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			return Order{}, ErrDuplicateOrderNumber
		}
		return Order{}, fmt.Errorf("create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, service_id, title, pillar_name, quantity, unit_price_cents)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + itemColumns

	for _, item := range params.Items {
		var saved OrderItem
		err := tx.QueryRow(ctx, itemQuery,
			order.ID, item.ServiceID, item.Title, item.PillarName, item.Quantity, item.UnitPriceCents,
		).Scan(&saved.ID, &saved.OrderID, &saved.ServiceID, &saved.Title, &saved.PillarName,
			&saved.Quantity, &saved.UnitPriceCents)
		if err != nil {
			return Order{}, fmt.Errorf("create order item: %w", err)
		}
		order.Items = append(order.Items, saved)
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, fmt.Errorf("commit order: %w", err)
	}
	return order, nil
}

// GetByID retrieves an order with its items.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// GetByNumber retrieves an order by its public order number. The checkout
// confirmation page re-reads the stored fulfillment mode through this.
func (r *Repo) GetByNumber(ctx context.Context, orderNumber string) (Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber)
}

func (r *Repo) getOne(ctx context.Context, query string, arg any) (Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, apperr.NotFound(orderNotFoundMessage)
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return Order{}, err
	}
	order.Items = items
	return order, nil
}

// List retrieves orders with filters and pagination, newest first. Line
// items are not loaded for the list view.
func (r *Repo) List(ctx context.Context, params ListParams) ([]Order, int, error) {
	where := []string{"TRUE"}
	args := []any{}

	if params.Search != "" {
		args = append(args, "%"+strings.ToLower(params.Search)+"%")
		idx := len(args)
		where = append(where, fmt.Sprintf(
			"(LOWER(order_number) LIKE $%d OR LOWER(email) LIKE $%d OR LOWER(first_name || ' ' || last_name) LIKE $%d)",
			idx, idx, idx))
	}
	if params.Mode != nil {
		args = append(args, string(*params.Mode))
		where = append(where, fmt.Sprintf("fulfillment_mode = $%d", len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM orders WHERE " + whereClause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE %s
		ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, whereClause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var items []Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		items = append(items, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate orders: %w", err)
	}
	return items, total, nil
}

// SaveFulfillment persists the orchestrator's terminal decision.
func (r *Repo) SaveFulfillment(ctx context.Context, id uuid.UUID, result FulfillmentResult) error {
	query := `UPDATE orders
		SET fulfillment_mode = $2, payment_url = $3, crm_invoice_id = $4, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, string(result.Mode), result.PaymentURL, result.CRMInvoiceID)
	if err != nil {
		return fmt.Errorf("save order fulfillment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(orderNotFoundMessage)
	}
	return nil
}

// SaveSync persists the customer-contact sync sub-record.
func (r *Repo) SaveSync(ctx context.Context, id uuid.UUID, rec sync.Record) error {
	query := `UPDATE orders
		SET sync_status = $2, crm_contact_id = $3, sync_error = $4, synced_at = $5, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, string(rec.Status), rec.ExternalID, rec.LastError, rec.SyncedAt)
	if err != nil {
		return fmt.Errorf("save order sync state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(orderNotFoundMessage)
	}
	return nil
}

func (r *Repo) loadItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	query := `SELECT ` + itemColumns + ` FROM order_items WHERE order_id = $1 ORDER BY title ASC`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var item OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ServiceID, &item.Title, &item.PillarName,
			&item.Quantity, &item.UnitPriceCents)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var order Order
	var mode, syncStatus string

	err := row.Scan(
		&order.ID, &order.OrderNumber, &order.FirstName, &order.LastName, &order.Email,
		&order.Phone, &order.Company, &order.Notes, &order.TotalCents,
		&mode, &order.PaymentURL, &order.CRMInvoiceID,
		&syncStatus, &order.Sync.ExternalID, &order.Sync.LastError, &order.Sync.SyncedAt,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return Order{}, err
	}

	order.FulfillmentMode = FulfillmentMode(mode)
	order.Sync.Status = sync.Status(syncStatus)
	return order, nil
}
