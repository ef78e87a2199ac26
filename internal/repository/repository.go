package repository

import (
	"context"
	"errors"
	"time"

	"github.com/caterline/caterline/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrLineNotFound     = errors.New("cart line not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrAddressNotFound  = errors.New("address not found")
	ErrDuplicatePayment = errors.New("payment with this merchant reference already exists")
	ErrOrderReconciled  = errors.New("order payment already reconciled")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// LinePricing is the Price Lookup result used to recompute a cart total
// before any single-line mutation. CartTotal is the owning cart's stored
// total at read time; CustomerID and OrderType identify the owning cart so
// callers can check ownership and invalidate the cart cache.
type LinePricing struct {
	UnitPrice  float64
	Quantity   int
	CartTotal  float64
	CustomerID int64
	OrderType  domain.OrderType
}

// CartStore is the narrow persistence surface of the cart ledger. Mutations
// that pair a pricing read with a write must run through InTx so both see
// the same locked row.
type CartStore interface {
	UpsertCart(ctx context.Context, cart *domain.Cart) (uuid.UUID, error)
	GetCartByID(ctx context.Context, cartID uuid.UUID) (*domain.Cart, error)
	GetCartByCustomer(ctx context.Context, customerID int64, orderType domain.OrderType) (*domain.Cart, error)
	LinePricing(ctx context.Context, lineID uuid.UUID, date time.Time) (*LinePricing, error)
	SetLineQuantity(ctx context.Context, lineID uuid.UUID, date time.Time, quantity int, newTotal float64) error
	RemoveLine(ctx context.Context, lineID uuid.UUID, date time.Time, newTotal float64) error
	InTx(ctx context.Context, fn func(CartStore) error) error
}

// OrderRepository persists materialized orders. CreateOrderFromCart inserts
// the order, stages its outbox event and deletes the source cart in one
// transaction; if any step fails the cart is left intact.
type OrderRepository interface {
	CreateOrderFromCart(ctx context.Context, order *domain.Order, cartID uuid.UUID) error
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID int64) ([]*domain.Order, error)
	UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status domain.DeliveryStatus) error
	SetPayment(ctx context.Context, orderID, paymentID uuid.UUID, status domain.PaymentStatus) error
}

type CustomerRepository interface {
	FindByGeneratedID(ctx context.Context, generatedID string) (*domain.Customer, error)
	FindByEmail(ctx context.Context, email string) (*domain.Customer, error)
}

type AddressRepository interface {
	CreateAddress(ctx context.Context, addr *domain.Address) (*domain.Address, error)
	GetAddressByID(ctx context.Context, id int64) (*domain.Address, error)
	ListAddressesByCustomer(ctx context.Context, customerID int64) ([]*domain.Address, error)
	UpdateAddress(ctx context.Context, addr *domain.Address) (*domain.Address, error)
}

type PaymentRepository interface {
	CreatePayment(ctx context.Context, p *domain.Payment) (uuid.UUID, error)
}

// OutboxEvent is a staged domain event awaiting publication.
type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

type OutboxRepository interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}
