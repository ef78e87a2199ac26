package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/caterline/caterline/internal/domain"
	"github.com/google/uuid"
)

// txCartStore is a CartStore bound to an open transaction. Its InTx runs the
// callback in place, so nested use does not open a second transaction.
type txCartStore struct {
	tx *sql.Tx
}

func (r *Repository) UpsertCart(ctx context.Context, cart *domain.Cart) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.InTx(ctx, func(s CartStore) error {
		var e error
		id, e = s.UpsertCart(ctx, cart)
		return e
	})
	return id, err
}

func (r *Repository) GetCartByID(ctx context.Context, cartID uuid.UUID) (*domain.Cart, error) {
	return getCartByID(ctx, r.db, cartID)
}

func (r *Repository) GetCartByCustomer(ctx context.Context, customerID int64, orderType domain.OrderType) (*domain.Cart, error) {
	return getCartByCustomer(ctx, r.db, customerID, orderType)
}

func (r *Repository) LinePricing(ctx context.Context, lineID uuid.UUID, date time.Time) (*LinePricing, error) {
	// Outside a transaction the lock is pointless, so plain read.
	return linePricing(ctx, r.db, lineID, date, false)
}

func (r *Repository) SetLineQuantity(ctx context.Context, lineID uuid.UUID, date time.Time, quantity int, newTotal float64) error {
	return setLineQuantity(ctx, r.db, lineID, date, quantity, newTotal)
}

func (r *Repository) RemoveLine(ctx context.Context, lineID uuid.UUID, date time.Time, newTotal float64) error {
	return removeLine(ctx, r.db, lineID, date, newTotal)
}

func (r *Repository) InTx(ctx context.Context, fn func(CartStore) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin cart tx: %w", err)
	}

	if e2 := fn(&txCartStore{tx: tx}); e2 != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("rollback cart tx after %v: %w", e2, rbErr)
		}
		return e2
	}

	if e3 := tx.Commit(); e3 != nil {
		return fmt.Errorf("commit cart tx: %w", e3)
	}
	return nil
}

func (s *txCartStore) UpsertCart(ctx context.Context, cart *domain.Cart) (uuid.UUID, error) {
	return s.upsertCart(ctx, cart)
}

func (s *txCartStore) GetCartByID(ctx context.Context, cartID uuid.UUID) (*domain.Cart, error) {
	return getCartByID(ctx, s.tx, cartID)
}

func (s *txCartStore) GetCartByCustomer(ctx context.Context, customerID int64, orderType domain.OrderType) (*domain.Cart, error) {
	return getCartByCustomer(ctx, s.tx, customerID, orderType)
}

func (s *txCartStore) LinePricing(ctx context.Context, lineID uuid.UUID, date time.Time) (*LinePricing, error) {
	return linePricing(ctx, s.tx, lineID, date, true)
}

func (s *txCartStore) SetLineQuantity(ctx context.Context, lineID uuid.UUID, date time.Time, quantity int, newTotal float64) error {
	return setLineQuantity(ctx, s.tx, lineID, date, quantity, newTotal)
}

func (s *txCartStore) RemoveLine(ctx context.Context, lineID uuid.UUID, date time.Time, newTotal float64) error {
	return removeLine(ctx, s.tx, lineID, date, newTotal)
}

func (s *txCartStore) InTx(_ context.Context, fn func(CartStore) error) error {
	return fn(s)
}

func (s *txCartStore) upsertCart(ctx context.Context, cart *domain.Cart) (uuid.UUID, error) {
	var cartID uuid.UUID

	// One open cart per (customer, order type): a second add replaces the
	// existing row instead of inserting a new one.
	query := `SELECT cart_id FROM cart WHERE customer_id = $1 AND order_type = $2 FOR UPDATE`
	err := s.tx.QueryRowContext(ctx, query, cart.CustomerID, cart.OrderType).Scan(&cartID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		cartID = uuid.New()
		insert := `INSERT INTO cart (cart_id, customer_id, order_type, total_amount, address, number_of_plates, processing_date, created_at, updated_at)
		           VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`
		if _, e2 := s.tx.ExecContext(ctx, insert,
			cartID, cart.CustomerID, cart.OrderType, cart.TotalAmount,
			nullableJSON(cart.Address), cart.NumberOfPlates, cart.ProcessingDate); e2 != nil {
			return uuid.Nil, fmt.Errorf("insert cart: %w", e2)
		}
	case err != nil:
		return uuid.Nil, fmt.Errorf("select cart for upsert: %w", err)
	default:
		update := `UPDATE cart SET total_amount = $2, address = $3, number_of_plates = $4, processing_date = $5, updated_at = NOW()
		           WHERE cart_id = $1`
		if _, e2 := s.tx.ExecContext(ctx, update,
			cartID, cart.TotalAmount, nullableJSON(cart.Address),
			cart.NumberOfPlates, cart.ProcessingDate); e2 != nil {
			return uuid.Nil, fmt.Errorf("update cart: %w", e2)
		}
		if _, e3 := s.tx.ExecContext(ctx, `DELETE FROM cart_line WHERE cart_id = $1`, cartID); e3 != nil {
			return uuid.Nil, fmt.Errorf("clear cart lines: %w", e3)
		}
	}

	insertLine := `INSERT INTO cart_line (line_id, cart_id, product_id, product_name, unit_price, quantity, unit_kind, processing_date)
	               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, l := range cart.Lines {
		lineID := l.ID
		if lineID == uuid.Nil {
			lineID = uuid.New()
		}
		if _, e4 := s.tx.ExecContext(ctx, insertLine,
			lineID, cartID, l.ProductID, l.ProductName,
			l.UnitPrice, l.Quantity, l.UnitKind, l.ProcessingDate); e4 != nil {
			return uuid.Nil, fmt.Errorf("insert cart line: %w", e4)
		}
	}

	return cartID, nil
}

func getCartByID(ctx context.Context, q querier, cartID uuid.UUID) (*domain.Cart, error) {
	query := `SELECT cart_id, customer_id, order_type, total_amount, address, number_of_plates, processing_date, created_at, updated_at
	          FROM cart WHERE cart_id = $1`
	return scanCart(ctx, q, q.QueryRowContext(ctx, query, cartID))
}

func getCartByCustomer(ctx context.Context, q querier, customerID int64, orderType domain.OrderType) (*domain.Cart, error) {
	query := `SELECT cart_id, customer_id, order_type, total_amount, address, number_of_plates, processing_date, created_at, updated_at
	          FROM cart WHERE customer_id = $1 AND order_type = $2`
	return scanCart(ctx, q, q.QueryRowContext(ctx, query, customerID, orderType))
}

func scanCart(ctx context.Context, q querier, row *sql.Row) (*domain.Cart, error) {
	var cart domain.Cart
	var address sql.NullString
	var processingDate sql.NullTime

	err := row.Scan(
		&cart.ID,
		&cart.CustomerID,
		&cart.OrderType,
		&cart.TotalAmount,
		&address,
		&cart.NumberOfPlates,
		&processingDate,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan cart: %w", err)
	}
	if address.Valid {
		cart.Address = []byte(address.String)
	}
	if processingDate.Valid {
		cart.ProcessingDate = processingDate.Time
	}

	lines, err := cartLines(ctx, q, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Lines = lines
	return &cart, nil
}

func cartLines(ctx context.Context, q querier, cartID uuid.UUID) ([]domain.CartLine, error) {
	query := `SELECT line_id, cart_id, product_id, product_name, unit_price, quantity, unit_kind, processing_date
	          FROM cart_line WHERE cart_id = $1 ORDER BY processing_date, line_id`

	rows, err := q.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var l domain.CartLine
		if e2 := rows.Scan(&l.ID, &l.CartID, &l.ProductID, &l.ProductName,
			&l.UnitPrice, &l.Quantity, &l.UnitKind, &l.ProcessingDate); e2 != nil {
			return nil, fmt.Errorf("scan cart line: %w", e2)
		}
		lines = append(lines, l)
	}
	if e3 := rows.Err(); e3 != nil {
		return nil, fmt.Errorf("cart line iteration: %w", e3)
	}
	return lines, nil
}

func linePricing(ctx context.Context, q querier, lineID uuid.UUID, date time.Time, lock bool) (*LinePricing, error) {
	query := `SELECT l.unit_price, l.quantity, c.total_amount, c.customer_id, c.order_type
	          FROM cart_line l JOIN cart c ON c.cart_id = l.cart_id
	          WHERE l.line_id = $1 AND l.processing_date = $2`
	if lock {
		query += ` FOR UPDATE OF l, c`
	}

	var p LinePricing
	err := q.QueryRowContext(ctx, query, lineID, date).Scan(&p.UnitPrice, &p.Quantity, &p.CartTotal, &p.CustomerID, &p.OrderType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query line pricing: %w", err)
	}
	return &p, nil
}

func setLineQuantity(ctx context.Context, q querier, lineID uuid.UUID, date time.Time, quantity int, newTotal float64) error {
	res, err := q.ExecContext(ctx,
		`UPDATE cart_line SET quantity = $3 WHERE line_id = $1 AND processing_date = $2`,
		lineID, date, quantity)
	if err != nil {
		return fmt.Errorf("update line quantity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLineNotFound
	}

	_, err = q.ExecContext(ctx,
		`UPDATE cart SET total_amount = $2, updated_at = NOW()
		 WHERE cart_id = (SELECT cart_id FROM cart_line WHERE line_id = $1)`,
		lineID, newTotal)
	if err != nil {
		return fmt.Errorf("update cart total: %w", err)
	}
	return nil
}

func removeLine(ctx context.Context, q querier, lineID uuid.UUID, date time.Time, newTotal float64) error {
	// Total adjustment first: the subselect needs the line row to still exist.
	res, err := q.ExecContext(ctx,
		`UPDATE cart SET total_amount = $2, updated_at = NOW()
		 WHERE cart_id = (SELECT cart_id FROM cart_line WHERE line_id = $1)`,
		lineID, newTotal)
	if err != nil {
		return fmt.Errorf("update cart total: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLineNotFound
	}

	res, err = q.ExecContext(ctx,
		`DELETE FROM cart_line WHERE line_id = $1 AND processing_date = $2`,
		lineID, date)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLineNotFound
	}
	return nil
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
