package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coralcart/storefront/internal/domain"
	"github.com/coralcart/storefront/pkg/errors"
)

type orderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB, logger *zap.Logger) *orderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

// CreateWithItems inserts the order, its items, and decrements stock for each
// item inside one transaction. The decrement is a guarded conditional update:
// it fails, and the whole transaction rolls back, if another checkout depleted
// the stock after this one validated it.
func (r *orderRepository) CreateWithItems(ctx context.Context, order *domain.Order, items []*domain.OrderItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	orderQuery := `
		INSERT INTO orders (
			id, order_number, email, customer_name, customer_phone,
			shipping_street, shipping_city, shipping_state, shipping_postal, shipping_country,
			subtotal, shipping_cost, tax_amount, total_amount,
			payment_method, payment_status, payment_ref, status, notes,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	_, err = tx.ExecContext(ctx, orderQuery,
		order.ID,
		order.OrderNumber,
		order.Email,
		order.CustomerName,
		order.CustomerPhone,
		order.ShippingStreet,
		order.ShippingCity,
		order.ShippingState,
		order.ShippingPostal,
		order.ShippingCountry,
		order.Subtotal,
		order.ShippingCost,
		order.TaxAmount,
		order.TotalAmount,
		order.PaymentMethod,
		order.PaymentStatus,
		order.PaymentRef,
		order.Status,
		order.Notes,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert order", zap.Error(err))
		return err
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, product_name, product_sku, quantity, price, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	decrementQuery := `
		UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = $3
		WHERE id = $1 AND stock_quantity >= $2
	`

	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID
		item.CreatedAt = now

		_, err = tx.ExecContext(ctx, itemQuery,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.ProductName,
			item.ProductSKU,
			item.Quantity,
			item.Price,
			item.Total,
			item.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to insert order item", zap.Error(err))
			return err
		}

		result, err := tx.ExecContext(ctx, decrementQuery, item.ProductID, item.Quantity, now)
		if err != nil {
			r.logger.Error("Failed to decrement stock", zap.Error(err))
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return &errors.ErrInsufficientStock{
				ProductID: item.ProductID.String(),
				Requested: item.Quantity,
			}
		}
	}

	return tx.Commit()
}

const orderColumns = `id, order_number, email, customer_name, customer_phone,
	shipping_street, shipping_city, shipping_state, shipping_postal, shipping_country,
	subtotal, shipping_cost, tax_amount, total_amount,
	payment_method, payment_status, payment_ref, status, notes,
	tracking_carrier, tracking_number, tracking_url,
	created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (*domain.Order, error) {
	var order domain.Order
	var carrier, trackingNumber, trackingURL sql.NullString

	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.Email,
		&order.CustomerName,
		&order.CustomerPhone,
		&order.ShippingStreet,
		&order.ShippingCity,
		&order.ShippingState,
		&order.ShippingPostal,
		&order.ShippingCountry,
		&order.Subtotal,
		&order.ShippingCost,
		&order.TaxAmount,
		&order.TotalAmount,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&order.PaymentRef,
		&order.Status,
		&order.Notes,
		&carrier,
		&trackingNumber,
		&trackingURL,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if carrier.Valid {
		order.TrackingCarrier = &carrier.String
	}
	if trackingNumber.Valid {
		order.TrackingNumber = &trackingNumber.String
	}
	if trackingURL.Valid {
		order.TrackingURL = &trackingURL.String
	}

	return &order, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get order by ID", zap.Error(err))
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, orderNumber))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: orderNumber}
	}
	if err != nil {
		r.logger.Error("Failed to get order by number", zap.Error(err))
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) NumberExists(ctx context.Context, orderNumber string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM orders WHERE order_number = $1)`,
		orderNumber,
	).Scan(&exists)
	if err != nil {
		r.logger.Error("Failed to check order number", zap.Error(err))
		return false, err
	}
	return exists, nil
}

func (r *orderRepository) List(ctx context.Context, limit, offset int) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

func (r *orderRepository) GetItems(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, product_name, product_sku, quantity, price, total, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		r.logger.Error("Failed to get order items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []*domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.ProductSKU,
			&item.Quantity,
			&item.Price,
			&item.Total,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, &item)
	}

	return items, rows.Err()
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	query := `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		r.logger.Error("Failed to update order status", zap.Error(err))
		return err
	}
	return nil
}

func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error {
	query := `UPDATE orders SET payment_status = $2, updated_at = $3 WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		r.logger.Error("Failed to update payment status", zap.Error(err))
		return err
	}
	return nil
}

func (r *orderRepository) UpdateTracking(ctx context.Context, id uuid.UUID, carrier, trackingNumber *string, trackingURL *string) error {
	query := `
		UPDATE orders
		SET status = $2, tracking_carrier = $3, tracking_number = $4, tracking_url = $5, updated_at = $6
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, domain.OrderStatusShipped, carrier, trackingNumber, trackingURL, time.Now())
	if err != nil {
		r.logger.Error("Failed to update tracking", zap.Error(err))
		return err
	}
	return nil
}

// CancelWithRestock sets the order cancelled and restores each item's stock.
// The compensating action for CreateWithItems, in its own transaction.
func (r *orderRepository) CancelWithRestock(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	now := time.Now()

	result, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`,
		id, domain.OrderStatusCancelled, now,
	)
	if err != nil {
		r.logger.Error("Failed to cancel order", zap.Error(err))
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}

	restockQuery := `
		UPDATE products
		SET stock_quantity = stock_quantity + oi.quantity, updated_at = $2
		FROM order_items oi
		WHERE oi.order_id = $1 AND products.id = oi.product_id
	`
	if _, err := tx.ExecContext(ctx, restockQuery, id, now); err != nil {
		r.logger.Error("Failed to restore stock", zap.Error(err))
		return err
	}

	return tx.Commit()
}
