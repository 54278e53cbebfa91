package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/utafrali/StorefrontGo/internal/domain"
	"github.com/utafrali/StorefrontGo/internal/repository"
	"github.com/utafrali/StorefrontGo/pkg/database"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts a new pending order with its snapshot.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	snapshotJSON, err := o.Snapshot.Marshal()
	if err != nil {
		return fmt.Errorf("marshal items snapshot: %w", err)
	}

	query := `
		INSERT INTO orders (id, user_id, session_id, payment_intent, status, total_amount, items_snapshot, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8, $9)`

	_, err = r.pool.Exec(ctx, query,
		o.ID,
		o.UserID,
		o.SessionID,
		o.PaymentIntent,
		o.Status,
		o.TotalAmount,
		snapshotJSON,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

const orderColumns = `o.id, o.user_id, COALESCE(o.session_id, ''), COALESCE(o.payment_intent, ''), o.status, o.total_amount, o.items_snapshot, o.created_at, o.updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o            domain.Order
		snapshotJSON []byte
	)
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.SessionID,
		&o.PaymentIntent,
		&o.Status,
		&o.TotalAmount,
		&snapshotJSON,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	snapshot, err := domain.ParseSnapshot(snapshotJSON)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", o.ID, err)
	}
	o.Snapshot = snapshot

	return &o, nil
}

// GetByID retrieves an order by its ID, including any materialized items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders o WHERE o.id = $1`, orderColumns)

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	if o.Items == nil {
		o.Items = []domain.OrderItem{}
	}

	return o, nil
}

// GetBySessionID retrieves an order by its checkout session identifier.
func (r *OrderRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders o WHERE o.session_id = $1`, orderColumns)

	o, err := scanOrder(r.pool.QueryRow(ctx, query, sessionID))
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	if o.Items == nil {
		o.Items = []domain.OrderItem{}
	}

	return o, nil
}

// SetSessionID stores the provider checkout session id on an order.
func (r *OrderRepository) SetSessionID(ctx context.Context, orderID, sessionID string) error {
	query := `UPDATE orders SET session_id = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, orderID, sessionID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set order session id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// ConfirmPaid atomically marks a pending order paid and materializes its
// snapshot into order items. The conditional update is the sole
// linearization point: when two confirmation paths race, exactly one sees
// RowsAffected == 1 and materializes; the other returns false untouched.
func (r *OrderRepository) ConfirmPaid(ctx context.Context, o *domain.Order, paymentIntent string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	updateQuery := `
		UPDATE orders
		SET status = $2, payment_intent = $3, updated_at = $4
		WHERE id = $1 AND status = $5`

	tag, err := tx.Exec(ctx, updateQuery,
		o.ID, domain.OrderStatusPaid, paymentIntent, now, domain.OrderStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Lost the race or the order was never pending.
		return false, nil
	}

	// Position preserves the snapshot line order so listings present items
	// in purchase order.
	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, name, price, quantity, subtotal, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	items := make([]domain.OrderItem, 0, len(o.Snapshot.Items))
	for pos, line := range o.Snapshot.Items {
		item := domain.OrderItem{
			ID:       uuid.New().String(),
			OrderID:  o.ID,
			Name:     line.Name,
			Price:    line.Price,
			Quantity: line.Quantity,
			Subtotal: line.Subtotal,
		}
		if line.ProductID != "" {
			productID := line.ProductID
			item.ProductID = &productID
		}

		if _, err := tx.Exec(ctx, itemQuery,
			item.ID, item.OrderID, item.ProductID, item.Name, item.Price, item.Quantity, item.Subtotal, pos,
		); err != nil {
			return false, fmt.Errorf("insert order item: %w", err)
		}
		items = append(items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}

	o.Status = domain.OrderStatusPaid
	o.PaymentIntent = paymentIntent
	o.UpdatedAt = now
	o.Items = items

	return true, nil
}

// List returns orders matching the given filter along with the total count.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIndex))
		args = append(args, *filter.UserID)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// count(*) OVER() returns the total in the same query.
	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM orders o
		%s
		ORDER BY o.created_at DESC
		LIMIT $%d OFFSET $%d`,
		orderColumns, whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var totalCount int
	orders := make([]domain.Order, 0)

	for rows.Next() {
		var (
			o            domain.Order
			snapshotJSON []byte
		)
		if err := rows.Scan(
			&o.ID,
			&o.UserID,
			&o.SessionID,
			&o.PaymentIntent,
			&o.Status,
			&o.TotalAmount,
			&snapshotJSON,
			&o.CreatedAt,
			&o.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}

		snapshot, err := domain.ParseSnapshot(snapshotJSON)
		if err != nil {
			return nil, 0, fmt.Errorf("order %s: %w", o.ID, err)
		}
		o.Snapshot = snapshot

		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	// Batch-load items for all orders in a single query to avoid N+1.
	if len(orders) > 0 {
		orderIDs := make([]string, len(orders))
		for i := range orders {
			orderIDs[i] = orders[i].ID
		}

		itemsByOrderID, err := r.loadItems(ctx, orderIDs)
		if err != nil {
			return nil, 0, err
		}

		for i := range orders {
			if items, ok := itemsByOrderID[orders[i].ID]; ok {
				orders[i].Items = items
			} else {
				orders[i].Items = []domain.OrderItem{}
			}
		}
	}

	return orders, totalCount, nil
}

// loadItems fetches the materialized items for the given orders, grouped by
// order id.
func (r *OrderRepository) loadItems(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, name, price, quantity, subtotal
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY position`

	rows, err := r.pool.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	itemsByOrderID := make(map[string][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&item.Price,
			&item.Quantity,
			&item.Subtotal,
		); err != nil {
			return nil, fmt.Errorf("scan order item row: %w", err)
		}
		itemsByOrderID[item.OrderID] = append(itemsByOrderID[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order item rows: %w", err)
	}

	return itemsByOrderID, nil
}
