package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "PENDING"
	DeliveryStatusShipped   DeliveryStatus = "SHIPPED"
	DeliveryStatusDelivered DeliveryStatus = "DELIVERED"
)

// CanTransitionTo allows only forward single-step moves.
func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	switch s {
	case DeliveryStatusPending:
		return next == DeliveryStatusShipped
	case DeliveryStatusShipped:
		return next == DeliveryStatusDelivered
	default:
		return false
	}
}

func (s DeliveryStatus) String() string {
	return string(s)
}

type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "UNPAID"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// CanTransitionTo permits exactly one reconciliation per order.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return s == PaymentStatusUnpaid &&
		(next == PaymentStatusSuccess || next == PaymentStatusFailed)
}

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed
}

type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "NEW"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// OrderItem is a priced snapshot of a cart line at materialization time.
type OrderItem struct {
	ProductID      int64     `json:"product_id"`
	ProductName    string    `json:"product_name"`
	Quantity       int       `json:"quantity"`
	UnitPrice      float64   `json:"unit_price"`
	UnitKind       UnitKind  `json:"unit_kind"`
	Subtotal       float64   `json:"subtotal"`
	ProcessingDate time.Time `json:"processing_date"`
}

// Order is an immutable snapshot of a finalized cart. Only the payment
// fields change after creation, exactly once, by payment reconciliation.
type Order struct {
	ID             uuid.UUID
	CustomerID     int64
	OrderType      OrderType
	Items          []OrderItem
	TotalAmount    float64
	Address        json.RawMessage
	NumberOfPlates int
	ProcessingDate time.Time
	DeliveryStatus DeliveryStatus
	PaymentStatus  PaymentStatus
	OrderStatus    OrderStatus
	PaymentID      *uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SnapshotOf builds a new order from an open cart. The returned order is
// not yet persisted and carries the initial status triple.
func SnapshotOf(cart *Cart) *Order {
	items := make([]OrderItem, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		items = append(items, OrderItem{
			ProductID:      l.ProductID,
			ProductName:    l.ProductName,
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
			UnitKind:       l.UnitKind,
			Subtotal:       l.Subtotal(),
			ProcessingDate: l.ProcessingDate,
		})
	}
	return &Order{
		ID:             uuid.New(),
		CustomerID:     cart.CustomerID,
		OrderType:      cart.OrderType,
		Items:          items,
		TotalAmount:    cart.TotalAmount,
		Address:        cart.Address,
		NumberOfPlates: cart.NumberOfPlates,
		ProcessingDate: cart.ProcessingDate,
		DeliveryStatus: DeliveryStatusPending,
		PaymentStatus:  PaymentStatusUnpaid,
		OrderStatus:    OrderStatusNew,
	}
}
