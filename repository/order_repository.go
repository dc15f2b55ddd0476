package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"optovik-store/logger"
	"optovik-store/models"
)

const orderColumns = `id, number, status, order_type, customer_name, customer_phone,
	COALESCE(customer_email, ''), delivery_method, COALESCE(delivery_address, ''), payment_method,
	COALESCE(payment_id, ''), retail_total, total, economy, discount_percent, COALESCE(notes, ''),
	created_at, updated_at`

// OrderRepository handles database operations for orders
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Ensure OrderRepository implements OrderRepositoryInterface
var _ OrderRepositoryInterface = (*OrderRepository)(nil)

// Create inserts the order and its lines in one transaction
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	logger.Log.Infof("📦 CreateOrder: number=%s, type=%s, lines=%d", order.Number, order.OrderType, len(order.Lines))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Log.Errorf("❌ CreateOrder: Error starting transaction: %v", err)
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (number, status, order_type, customer_name, customer_phone, customer_email,
			delivery_method, delivery_address, payment_method, retail_total, total, economy,
			discount_percent, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	err = tx.QueryRowContext(ctx, query,
		order.Number,
		order.Status,
		string(order.OrderType),
		order.CustomerName,
		order.CustomerPhone,
		nullString(order.CustomerEmail),
		order.DeliveryMethod,
		nullString(order.DeliveryAddress),
		order.PaymentMethod,
		order.RetailTotal,
		order.Total,
		order.Economy,
		order.DiscountPercent,
		nullString(order.Notes),
	).Scan(&order.ID, &createdAt, &updatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("order number %s already exists: %w", order.Number, ErrConflict)
		}
		logger.Log.Errorf("❌ CreateOrder: Error inserting order: %v", err)
		return fmt.Errorf("failed to insert order: %w", err)
	}
	order.CreatedAt = formatTime(createdAt)
	order.UpdatedAt = formatTime(updatedAt)

	lineQuery := `
		INSERT INTO order_lines (order_id, product_id, product_name, selected_color, selected_size,
			qty, unit_retail_price, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = order.ID
		err = tx.QueryRowContext(ctx, lineQuery,
			order.ID,
			line.ProductID,
			nullString(line.ProductName),
			nullString(line.SelectedColor),
			nullString(line.SelectedSize),
			line.Quantity,
			line.UnitRetailPrice,
			line.UnitPrice,
			line.LineTotal,
		).Scan(&line.ID)
		if err != nil {
			logger.Log.Errorf("❌ CreateOrder: Error inserting line %d: %v", i, err)
			return fmt.Errorf("failed to insert order line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		logger.Log.Errorf("❌ CreateOrder: Error committing transaction: %v", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Log.Infof("✅ CreateOrder: Successfully created order id=%d number=%s", order.ID, order.Number)
	return nil
}

// GetByID returns an order with its lines
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return r.loadOrder(ctx, row)
}

// GetByNumber returns an order with its lines by public number
func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE number = $1`, number)
	return r.loadOrder(ctx, row)
}

func (r *OrderRepository) loadOrder(ctx context.Context, row rowScanner) (*models.Order, error) {
	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	lines, err := r.getLines(ctx, []int64{order.ID})
	if err != nil {
		return nil, err
	}
	order.Lines = lines[order.ID]
	if order.Lines == nil {
		order.Lines = []models.OrderLine{}
	}
	return order, nil
}

// List returns orders newest first, optionally filtered by status
func (r *OrderRepository) List(ctx context.Context, status string, limit, offset int) ([]models.OrderListItem, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT o.id, o.number, o.status, o.order_type, o.customer_name, o.customer_phone, o.total,
		       (SELECT COUNT(*) FROM order_lines ol WHERE ol.order_id = o.id) AS line_count,
		       o.created_at
		FROM orders o
	`
	args := []interface{}{}
	if status != "" {
		query += " WHERE o.status = $1"
		args = append(args, status)
	}
	query += fmt.Sprintf(" ORDER BY o.created_at DESC, o.id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Log.Errorf("❌ ListOrders: Error querying orders: %v", err)
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	items := []models.OrderListItem{}
	for rows.Next() {
		var item models.OrderListItem
		var orderType string
		var createdAt time.Time
		if err := rows.Scan(&item.ID, &item.Number, &item.Status, &orderType, &item.CustomerName,
			&item.CustomerPhone, &item.Total, &item.LineCount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		item.OrderType = models.OrderType(orderType)
		item.CreatedAt = formatTime(createdAt)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return items, nil
}

// ListWithLines returns orders created in [from, to) with their lines, oldest first
func (r *OrderRepository) ListWithLines(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at, id`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	var ids []int64
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	if len(ids) == 0 {
		return orders, nil
	}

	lines, err := r.getLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Lines = lines[orders[i].ID]
		if orders[i].Lines == nil {
			orders[i].Lines = []models.OrderLine{}
		}
	}
	return orders, nil
}

// getLines loads lines for the given orders keyed by order id
func (r *OrderRepository) getLines(ctx context.Context, orderIDs []int64) (map[int64][]models.OrderLine, error) {
	query := `
		SELECT id, order_id, product_id, COALESCE(product_name, ''), COALESCE(selected_color, ''),
		       COALESCE(selected_size, ''), qty, unit_retail_price, unit_price, line_total
		FROM order_lines
		WHERE order_id = ANY($1)
		ORDER BY order_id, id
	`
	rows, err := r.db.QueryContext(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]models.OrderLine)
	for rows.Next() {
		var l models.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &l.SelectedColor,
			&l.SelectedSize, &l.Quantity, &l.UnitRetailPrice, &l.UnitPrice, &l.LineTotal); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		out[l.OrderID] = append(out[l.OrderID], l)
	}
	return out, rows.Err()
}

// UpdateStatus sets the order status. Transition rules live in the service layer.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		logger.Log.Errorf("❌ UpdateStatus: Error updating order %d: %v", id, err)
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	logger.Log.Infof("✅ UpdateStatus: order id=%d status=%s", id, status)
	return nil
}

// SetPaymentID stores the gateway payment reference
func (r *OrderRepository) SetPaymentID(ctx context.Context, id int64, paymentID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET payment_id = $2, updated_at = NOW() WHERE id = $1`, id, paymentID)
	if err != nil {
		return fmt.Errorf("failed to set payment id: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats aggregates orders created in [from, to). Canceled orders are counted but excluded from money figures.
func (r *OrderRepository) Stats(ctx context.Context, from, to time.Time) (*models.OrderStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status <> 'canceled'),
			COUNT(*) FILTER (WHERE status <> 'canceled' AND order_type = 'retail'),
			COUNT(*) FILTER (WHERE status <> 'canceled' AND order_type = 'wholesale'),
			COUNT(*) FILTER (WHERE status = 'canceled'),
			COALESCE(SUM(total) FILTER (WHERE status <> 'canceled'), 0),
			COALESCE(SUM(economy) FILTER (WHERE status <> 'canceled'), 0)
		FROM orders
		WHERE created_at >= $1 AND created_at < $2
	`
	stats := &models.OrderStats{From: formatTime(from), To: formatTime(to)}
	err := r.db.QueryRowContext(ctx, query, from, to).Scan(
		&stats.OrdersCount,
		&stats.RetailCount,
		&stats.WholesaleCount,
		&stats.CanceledCount,
		&stats.Revenue,
		&stats.EconomyProvided,
	)
	if err != nil {
		logger.Log.Errorf("❌ Stats: Error aggregating orders: %v", err)
		return nil, fmt.Errorf("failed to aggregate orders: %w", err)
	}
	models.FinishStats(stats)
	return stats, nil
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	var orderType string
	var createdAt, updatedAt time.Time
	err := row.Scan(&o.ID, &o.Number, &o.Status, &orderType, &o.CustomerName, &o.CustomerPhone,
		&o.CustomerEmail, &o.DeliveryMethod, &o.DeliveryAddress, &o.PaymentMethod, &o.PaymentID,
		&o.RetailTotal, &o.Total, &o.Economy, &o.DiscountPercent, &o.Notes, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	o.OrderType = models.OrderType(orderType)
	o.CreatedAt = formatTime(createdAt)
	o.UpdatedAt = formatTime(updatedAt)
	return &o, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
