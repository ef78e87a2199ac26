package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/caterline/caterline/internal/domain"
	"github.com/google/uuid"
)

const orderColumns = `order_id, customer_id, order_type, items, total_amount, address, number_of_plates,
	processing_date, delivery_status, payment_status, order_status, payment_id, created_at, updated_at`

const insertOrderQuery = `INSERT INTO orders (order_id, customer_id, order_type, items, total_amount, address,
	number_of_plates, processing_date, delivery_status, payment_status, order_status, payment_id, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())`

func (r *Repository) CreateOrderFromCart(ctx context.Context, order *domain.Order, cartID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin materialize tx: %w", err)
	}
	defer tx.Rollback()

	if e2 := insertOrder(ctx, tx, order); e2 != nil {
		return e2
	}
	if e3 := stageOrderEvent(ctx, tx, order); e3 != nil {
		return e3
	}

	// The cart must be retired in the same transaction: losing this delete
	// after the insert would leave the cart open against a placed order,
	// and a cart already taken by a concurrent materialize rolls everything
	// back here.
	res, err := tx.ExecContext(ctx, `DELETE FROM cart WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("delete materialized cart: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCartNotFound
	}

	if e4 := tx.Commit(); e4 != nil {
		return fmt.Errorf("commit materialize tx: %w", e4)
	}
	return nil
}

func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}
	defer tx.Rollback()

	if e2 := insertOrder(ctx, tx, order); e2 != nil {
		return e2
	}
	if e3 := stageOrderEvent(ctx, tx, order); e3 != nil {
		return e3
	}

	if e4 := tx.Commit(); e4 != nil {
		return fmt.Errorf("commit order tx: %w", e4)
	}
	return nil
}

func insertOrder(ctx context.Context, q querier, order *domain.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("marshal order items: %w", err)
	}

	var paymentID any
	if order.PaymentID != nil {
		paymentID = *order.PaymentID
	}

	_, err = q.ExecContext(ctx, insertOrderQuery,
		order.ID,
		order.CustomerID,
		order.OrderType,
		itemsJSON,
		order.TotalAmount,
		nullableJSON(order.Address),
		order.NumberOfPlates,
		order.ProcessingDate,
		order.DeliveryStatus,
		order.PaymentStatus,
		order.OrderStatus,
		paymentID,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func stageOrderEvent(ctx context.Context, q querier, order *domain.Order) error {
	payload := map[string]any{
		"order_id":        order.ID,
		"customer_id":     order.CustomerID,
		"order_type":      order.OrderType,
		"items":           order.Items,
		"total_amount":    order.TotalAmount,
		"processing_date": order.ProcessingDate,
		"placed_at":       time.Now().UTC(),
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal order event payload: %w", err)
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO order_events (aggregate_id, event_type, payload, created_at) VALUES ($1, $2, $3, NOW())`,
		order.ID.String(), "order.created", payloadJSON)
	if err != nil {
		return fmt.Errorf("stage order event: %w", err)
	}
	return nil
}

func (r *Repository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *Repository) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("query orders by customer: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, e2 := scanOrder(rows)
		if e2 != nil {
			return nil, e2
		}
		orders = append(orders, order)
	}
	if e3 := rows.Err(); e3 != nil {
		return nil, fmt.Errorf("order iteration: %w", e3)
	}
	return orders, nil
}

func (r *Repository) UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status domain.DeliveryStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET delivery_status = $2, updated_at = NOW() WHERE order_id = $1`,
		id, status)
	if err != nil {
		return fmt.Errorf("update delivery status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// SetPayment writes the payment outcome exactly once: the guard on UNPAID
// makes a second reconciliation a no-op detected below.
func (r *Repository) SetPayment(ctx context.Context, orderID, paymentID uuid.UUID, status domain.PaymentStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET payment_status = $2, payment_id = $3, updated_at = NOW()
		 WHERE order_id = $1 AND payment_status = $4`,
		orderID, status, paymentID, domain.PaymentStatusUnpaid)
	if err != nil {
		return fmt.Errorf("set order payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var exists bool
	if e2 := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE order_id = $1)`, orderID).Scan(&exists); e2 != nil {
		return fmt.Errorf("check order existence: %w", e2)
	}
	if exists {
		return ErrOrderReconciled
	}
	return ErrOrderNotFound
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var itemsJSON []byte
	var address sql.NullString
	var processingDate sql.NullTime
	var paymentID uuid.NullUUID

	err := row.Scan(
		&order.ID,
		&order.CustomerID,
		&order.OrderType,
		&itemsJSON,
		&order.TotalAmount,
		&address,
		&order.NumberOfPlates,
		&processingDate,
		&order.DeliveryStatus,
		&order.PaymentStatus,
		&order.OrderStatus,
		&paymentID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if e2 := json.Unmarshal(itemsJSON, &order.Items); e2 != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", e2)
	}
	if address.Valid {
		order.Address = []byte(address.String)
	}
	if processingDate.Valid {
		order.ProcessingDate = processingDate.Time
	}
	if paymentID.Valid {
		id := paymentID.UUID
		order.PaymentID = &id
	}
	return &order, nil
}
