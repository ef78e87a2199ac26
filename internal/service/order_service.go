package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/caterline/caterline/internal/auth"
	"github.com/caterline/caterline/internal/cache"
	"github.com/caterline/caterline/internal/domain"
	"github.com/caterline/caterline/internal/repository"
	"github.com/google/uuid"
)

type OrderService struct {
	orders    repository.OrderRepository
	carts     repository.CartStore
	customers repository.CustomerRepository
	tokens    auth.Resolver
	cache     cache.CartCache
}

func NewOrderService(
	orders repository.OrderRepository,
	carts repository.CartStore,
	customers repository.CustomerRepository,
	tokens auth.Resolver,
	cartCache cache.CartCache,
) *OrderService {
	return &OrderService{
		orders:    orders,
		carts:     carts,
		customers: customers,
		tokens:    tokens,
		cache:     cartCache,
	}
}

// Materialize snapshots the cart into an immutable order and retires the
// cart. The order insert, the outbox event and the cart delete commit
// together; when any of them fails the cart stays untouched. A cart already
// materialized surfaces as not found.
func (s *OrderService) Materialize(ctx context.Context, token string, cartID uuid.UUID) (*domain.Order, error) {
	identity, err := resolveCustomer(ctx, s.tokens, s.customers, token)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.GetCartByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.CustomerID != identity.CustomerID {
		// Someone else's cart is indistinguishable from a missing one.
		return nil, repository.ErrCartNotFound
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	order := domain.SnapshotOf(cart)
	if e2 := s.orders.CreateOrderFromCart(ctx, order, cartID); e2 != nil {
		return nil, fmt.Errorf("materialize cart %s: %w", cartID, e2)
	}

	s.invalidateCache(cart.CustomerID, cart.OrderType)

	log.Printf("cart %s materialized into order %s for customer %d", cartID, order.ID, cart.CustomerID)
	return order, nil
}

// Reorder places a fresh order from a previous order's snapshot without an
// owning cart row. The caller's identity comes from the credential, and the
// source order must belong to that identity.
func (s *OrderService) Reorder(ctx context.Context, token string, orderID uuid.UUID) (*domain.Order, error) {
	identity, err := resolveCustomer(ctx, s.tokens, s.customers, token)
	if err != nil {
		return nil, err
	}

	prev, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if prev.CustomerID != identity.CustomerID {
		return nil, repository.ErrOrderNotFound
	}
	if len(prev.Items) == 0 {
		return nil, ErrEmptyCart
	}

	order := &domain.Order{
		ID:             uuid.New(),
		CustomerID:     identity.CustomerID,
		OrderType:      prev.OrderType,
		Items:          prev.Items,
		TotalAmount:    prev.TotalAmount,
		Address:        prev.Address,
		NumberOfPlates: prev.NumberOfPlates,
		ProcessingDate: prev.ProcessingDate,
		DeliveryStatus: domain.DeliveryStatusPending,
		PaymentStatus:  domain.PaymentStatusUnpaid,
		OrderStatus:    domain.OrderStatusNew,
	}

	if e2 := s.orders.CreateOrder(ctx, order); e2 != nil {
		return nil, fmt.Errorf("reorder from order %s: %w", orderID, e2)
	}

	log.Printf("order %s re-placed as %s for customer %d", orderID, order.ID, identity.CustomerID)
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, token string, orderID uuid.UUID) (*domain.Order, error) {
	identity, err := resolveCustomer(ctx, s.tokens, s.customers, token)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != identity.CustomerID {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, token string) ([]*domain.Order, error) {
	identity, err := resolveCustomer(ctx, s.tokens, s.customers, token)
	if err != nil {
		return nil, err
	}
	return s.orders.ListOrdersByCustomer(ctx, identity.CustomerID)
}

// UpdateDeliveryStatus moves an order one step along
// Pending -> Shipped -> Delivered. Skips and reversals are rejected.
func (s *OrderService) UpdateDeliveryStatus(ctx context.Context, orderID uuid.UUID, next domain.DeliveryStatus) error {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.DeliveryStatus.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, order.DeliveryStatus, next)
	}
	return s.orders.UpdateDeliveryStatus(ctx, orderID, next)
}

func (s *OrderService) invalidateCache(customerID int64, orderType domain.OrderType) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(context.Background(), customerID, orderType); err != nil &&
		!errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("cart cache invalidate error: %v", err)
	}
}
