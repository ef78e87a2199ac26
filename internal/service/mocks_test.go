package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/caterline/caterline/internal/auth"
	"github.com/caterline/caterline/internal/cache"
	"github.com/caterline/caterline/internal/domain"
	"github.com/caterline/caterline/internal/repository"
	"github.com/google/uuid"
)

// MockCartStore is an in-memory repository.CartStore that keeps the same
// invariants as the postgres implementation.
type MockCartStore struct {
	Carts map[uuid.UUID]*domain.Cart
	Calls int // total persistence touches, for no-side-effect assertions
}

func NewMockCartStore() *MockCartStore {
	return &MockCartStore{Carts: make(map[uuid.UUID]*domain.Cart)}
}

func (m *MockCartStore) UpsertCart(_ context.Context, cart *domain.Cart) (uuid.UUID, error) {
	m.Calls++

	var id uuid.UUID
	for existingID, existing := range m.Carts {
		if existing.CustomerID == cart.CustomerID && existing.OrderType == cart.OrderType {
			id = existingID
			break
		}
	}
	if id == uuid.Nil {
		id = uuid.New()
	}

	stored := *cart
	stored.ID = id
	stored.Lines = make([]domain.CartLine, len(cart.Lines))
	copy(stored.Lines, cart.Lines)
	for i := range stored.Lines {
		if stored.Lines[i].ID == uuid.Nil {
			stored.Lines[i].ID = uuid.New()
		}
		stored.Lines[i].CartID = id
	}
	m.Carts[id] = &stored
	return id, nil
}

func (m *MockCartStore) GetCartByID(_ context.Context, cartID uuid.UUID) (*domain.Cart, error) {
	m.Calls++
	cart, ok := m.Carts[cartID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return cart, nil
}

func (m *MockCartStore) GetCartByCustomer(_ context.Context, customerID int64, orderType domain.OrderType) (*domain.Cart, error) {
	m.Calls++
	for _, cart := range m.Carts {
		if cart.CustomerID == customerID && cart.OrderType == orderType {
			return cart, nil
		}
	}
	return nil, repository.ErrCartNotFound
}

func (m *MockCartStore) LinePricing(_ context.Context, lineID uuid.UUID, date time.Time) (*repository.LinePricing, error) {
	m.Calls++
	cart, line := m.findLine(lineID, date)
	if line == nil {
		return nil, repository.ErrLineNotFound
	}
	return &repository.LinePricing{
		UnitPrice:  line.UnitPrice,
		Quantity:   line.Quantity,
		CartTotal:  cart.TotalAmount,
		CustomerID: cart.CustomerID,
		OrderType:  cart.OrderType,
	}, nil
}

func (m *MockCartStore) SetLineQuantity(_ context.Context, lineID uuid.UUID, date time.Time, quantity int, newTotal float64) error {
	m.Calls++
	cart, line := m.findLine(lineID, date)
	if line == nil {
		return repository.ErrLineNotFound
	}
	line.Quantity = quantity
	cart.TotalAmount = newTotal
	return nil
}

func (m *MockCartStore) RemoveLine(_ context.Context, lineID uuid.UUID, date time.Time, newTotal float64) error {
	m.Calls++
	cart, line := m.findLine(lineID, date)
	if line == nil {
		return repository.ErrLineNotFound
	}
	cart.TotalAmount = newTotal
	kept := cart.Lines[:0]
	for _, l := range cart.Lines {
		if l.ID != lineID {
			kept = append(kept, l)
		}
	}
	cart.Lines = kept
	return nil
}

func (m *MockCartStore) InTx(_ context.Context, fn func(repository.CartStore) error) error {
	return fn(m)
}

func (m *MockCartStore) findLine(lineID uuid.UUID, date time.Time) (*domain.Cart, *domain.CartLine) {
	for _, cart := range m.Carts {
		for i := range cart.Lines {
			l := &cart.Lines[i]
			if l.ID == lineID && l.ProcessingDate.Equal(date) {
				return cart, l
			}
		}
	}
	return nil, nil
}

// MockCustomerRepository resolves generated IDs from a fixed set.
type MockCustomerRepository struct {
	Customers map[string]*domain.Customer
	Calls     int
}

func (m *MockCustomerRepository) FindByGeneratedID(_ context.Context, generatedID string) (*domain.Customer, error) {
	m.Calls++
	c, ok := m.Customers[generatedID]
	if !ok {
		return nil, repository.ErrCustomerNotFound
	}
	return c, nil
}

func (m *MockCustomerRepository) FindByEmail(_ context.Context, email string) (*domain.Customer, error) {
	m.Calls++
	for _, c := range m.Customers {
		if c.Email == email {
			return c, nil
		}
	}
	return nil, repository.ErrCustomerNotFound
}

// MockResolver treats the token string itself as the generated ID.
type MockResolver struct{}

func (MockResolver) Resolve(token string) (*auth.Claims, error) {
	if token == "" {
		return nil, auth.ErrMissingToken
	}
	if token == "expired" {
		return nil, auth.ErrTokenExpired
	}
	return &auth.Claims{GeneratedID: token}, nil
}

// MockOrderRepository keeps orders in memory and retires carts through the
// linked cart store, mirroring the single-transaction postgres behavior.
type MockOrderRepository struct {
	Orders    map[uuid.UUID]*domain.Order
	CartStore *MockCartStore
	CreateErr error
	SetErr    error
	Calls     int
}

func NewMockOrderRepository(carts *MockCartStore) *MockOrderRepository {
	return &MockOrderRepository{
		Orders:    make(map[uuid.UUID]*domain.Order),
		CartStore: carts,
	}
}

func (m *MockOrderRepository) CreateOrderFromCart(_ context.Context, order *domain.Order, cartID uuid.UUID) error {
	m.Calls++
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if _, ok := m.CartStore.Carts[cartID]; !ok {
		return repository.ErrCartNotFound
	}
	m.Orders[order.ID] = order
	delete(m.CartStore.Carts, cartID)
	return nil
}

func (m *MockOrderRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	m.Calls++
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Orders[order.ID] = order
	return nil
}

func (m *MockOrderRepository) GetOrderByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.Calls++
	order, ok := m.Orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (m *MockOrderRepository) ListOrdersByCustomer(_ context.Context, customerID int64) ([]*domain.Order, error) {
	m.Calls++
	var orders []*domain.Order
	for _, o := range m.Orders {
		if o.CustomerID == customerID {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (m *MockOrderRepository) UpdateDeliveryStatus(_ context.Context, id uuid.UUID, status domain.DeliveryStatus) error {
	m.Calls++
	order, ok := m.Orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.DeliveryStatus = status
	return nil
}

func (m *MockOrderRepository) SetPayment(_ context.Context, orderID, paymentID uuid.UUID, status domain.PaymentStatus) error {
	m.Calls++
	if m.SetErr != nil {
		return m.SetErr
	}
	order, ok := m.Orders[orderID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if order.PaymentStatus != domain.PaymentStatusUnpaid {
		return repository.ErrOrderReconciled
	}
	order.PaymentStatus = status
	order.PaymentID = &paymentID
	return nil
}

// MockAddressRepository keeps addresses in insertion order.
type MockAddressRepository struct {
	Addresses []*domain.Address
	nextID    int64
}

func (m *MockAddressRepository) CreateAddress(_ context.Context, addr *domain.Address) (*domain.Address, error) {
	m.nextID++
	stored := *addr
	stored.ID = m.nextID
	m.Addresses = append(m.Addresses, &stored)
	return &stored, nil
}

func (m *MockAddressRepository) GetAddressByID(_ context.Context, id int64) (*domain.Address, error) {
	for _, a := range m.Addresses {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, repository.ErrAddressNotFound
}

func (m *MockAddressRepository) ListAddressesByCustomer(_ context.Context, customerID int64) ([]*domain.Address, error) {
	var out []*domain.Address
	for _, a := range m.Addresses {
		if a.CustomerID == customerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MockAddressRepository) UpdateAddress(_ context.Context, addr *domain.Address) (*domain.Address, error) {
	for i, a := range m.Addresses {
		if a.ID == addr.ID {
			stored := *addr
			m.Addresses[i] = &stored
			return &stored, nil
		}
	}
	return nil, repository.ErrAddressNotFound
}

// MockPaymentRepository records payments and can reject duplicates.
type MockPaymentRepository struct {
	Payments  []*domain.Payment
	CreateErr error
}

func (m *MockPaymentRepository) CreatePayment(_ context.Context, p *domain.Payment) (uuid.UUID, error) {
	if m.CreateErr != nil {
		return uuid.Nil, m.CreateErr
	}
	id := uuid.New()
	stored := *p
	stored.ID = id
	m.Payments = append(m.Payments, &stored)
	return id, nil
}

// MockCartCache is an in-memory cache.CartCache. Set stores a copy so a
// later store-side mutation cannot silently refresh the cached entry. The
// mutex matters because GetCart populates the cache from a goroutine.
type MockCartCache struct {
	mu      sync.Mutex
	entries map[string]*domain.Cart
}

func NewMockCartCache() *MockCartCache {
	return &MockCartCache{entries: make(map[string]*domain.Cart)}
}

func cacheKey(customerID int64, orderType domain.OrderType) string {
	return fmt.Sprintf("%d:%s", customerID, orderType)
}

func (m *MockCartCache) Get(_ context.Context, customerID int64, orderType domain.OrderType) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.entries[cacheKey(customerID, orderType)]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return cart, nil
}

func (m *MockCartCache) Set(_ context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *cart
	m.entries[cacheKey(cart.CustomerID, cart.OrderType)] = &stored
	return nil
}

func (m *MockCartCache) Delete(_ context.Context, customerID int64, orderType domain.OrderType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, cacheKey(customerID, orderType))
	return nil
}
