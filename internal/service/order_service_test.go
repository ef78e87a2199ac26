package service

import (
	"context"
	"errors"
	"testing"

	"github.com/caterline/caterline/internal/auth"
	"github.com/caterline/caterline/internal/domain"
	"github.com/caterline/caterline/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrderFixture(t *testing.T) (*OrderService, *MockCartStore, *MockOrderRepository) {
	t.Helper()
	store := NewMockCartStore()
	orders := NewMockOrderRepository(store)
	customers := &MockCustomerRepository{
		Customers: map[string]*domain.Customer{
			"gid-1": {CustomerID: 1, GeneratedID: "gid-1", Email: "one@example.com"},
			"gid-2": {CustomerID: 2, GeneratedID: "gid-2", Email: "two@example.com"},
		},
	}
	svc := NewOrderService(orders, store, customers, MockResolver{}, nil)
	return svc, store, orders
}

func seedOpenCart(t *testing.T, store *MockCartStore, customerID int64) *domain.Cart {
	t.Helper()
	cartID, err := store.UpsertCart(context.Background(), &domain.Cart{
		CustomerID: customerID,
		OrderType:  domain.OrderTypeCorporate,
		Lines: []domain.CartLine{
			{ProductID: 10, ProductName: "veg thali", UnitPrice: 100, Quantity: 2, UnitKind: domain.UnitPerPlate, ProcessingDate: testDate},
			{ProductID: 11, ProductName: "paneer tikka", UnitPrice: 30, Quantity: 1, UnitKind: domain.UnitPerPlate, ProcessingDate: testDate},
		},
		TotalAmount:    230,
		ProcessingDate: testDate,
	})
	require.NoError(t, err)
	store.Calls = 0
	return store.Carts[cartID]
}

func TestMaterialize_SnapshotsAndRetiresCart(t *testing.T) {
	svc, store, orders := newOrderFixture(t)
	cart := seedOpenCart(t, store, 1)

	order, err := svc.Materialize(context.Background(), "gid-1", cart.ID)

	require.NoError(t, err)
	assert.Equal(t, int64(1), order.CustomerID)
	assert.Equal(t, 230.0, order.TotalAmount)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, 200.0, order.Items[0].Subtotal)
	assert.Equal(t, domain.DeliveryStatusPending, order.DeliveryStatus)
	assert.Equal(t, domain.PaymentStatusUnpaid, order.PaymentStatus)
	assert.Equal(t, domain.OrderStatusNew, order.OrderStatus)

	assert.Empty(t, store.Carts, "materialized cart must be gone")
	assert.Contains(t, orders.Orders, order.ID)
}

func TestMaterialize_Twice_SecondNotFound(t *testing.T) {
	svc, store, orders := newOrderFixture(t)
	cart := seedOpenCart(t, store, 1)

	_, err := svc.Materialize(context.Background(), "gid-1", cart.ID)
	require.NoError(t, err)

	_, err = svc.Materialize(context.Background(), "gid-1", cart.ID)
	assert.ErrorIs(t, err, repository.ErrCartNotFound)
	assert.Len(t, orders.Orders, 1, "no second order from a retired cart")
}

func TestMaterialize_EmptyCart(t *testing.T) {
	svc, store, orders := newOrderFixture(t)
	cartID := uuid.New()
	store.Carts[cartID] = &domain.Cart{
		ID:         cartID,
		CustomerID: 1,
		OrderType:  domain.OrderTypeCorporate,
	}

	_, err := svc.Materialize(context.Background(), "gid-1", cartID)

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, orders.Orders)
	assert.Contains(t, store.Carts, cartID, "empty cart stays in place")
}

func TestMaterialize_InsertFailure_KeepsCart(t *testing.T) {
	svc, store, orders := newOrderFixture(t)
	cart := seedOpenCart(t, store, 1)
	orders.CreateErr = errors.New("connection reset")

	_, err := svc.Materialize(context.Background(), "gid-1", cart.ID)

	require.Error(t, err)
	assert.Contains(t, store.Carts, cart.ID, "failed materialization must not consume the cart")
	assert.Empty(t, orders.Orders)
}

func TestMaterialize_ForeignCart_NotFound(t *testing.T) {
	svc, store, _ := newOrderFixture(t)
	cart := seedOpenCart(t, store, 1)

	_, err := svc.Materialize(context.Background(), "gid-2", cart.ID)

	assert.ErrorIs(t, err, repository.ErrCartNotFound)
	assert.Contains(t, store.Carts, cart.ID)
}

func TestMaterialize_MissingToken_NoPersistence(t *testing.T) {
	svc, store, orders := newOrderFixture(t)
	cart := seedOpenCart(t, store, 1)

	_, err := svc.Materialize(context.Background(), "", cart.ID)

	assert.ErrorIs(t, err, auth.ErrMissingToken)
	assert.Equal(t, 0, store.Calls)
	assert.Equal(t, 0, orders.Calls)
}

func TestReorder_PlacesFreshOrderFromSnapshot(t *testing.T) {
	svc, store, orders := newOrderFixture(t)
	cart := seedOpenCart(t, store, 1)
	prev, err := svc.Materialize(context.Background(), "gid-1", cart.ID)
	require.NoError(t, err)

	prev.PaymentStatus = domain.PaymentStatusSuccess
	prev.DeliveryStatus = domain.DeliveryStatusDelivered

	next, err := svc.Reorder(context.Background(), "gid-1", prev.ID)

	require.NoError(t, err)
	assert.NotEqual(t, prev.ID, next.ID)
	assert.Equal(t, prev.Items, next.Items)
	assert.Equal(t, prev.TotalAmount, next.TotalAmount)
	assert.Equal(t, domain.DeliveryStatusPending, next.DeliveryStatus)
	assert.Equal(t, domain.PaymentStatusUnpaid, next.PaymentStatus)
	assert.Nil(t, next.PaymentID)
	assert.Len(t, orders.Orders, 2)
}

func TestReorder_ForeignOrder_NotFound(t *testing.T) {
	svc, store, orders := newOrderFixture(t)
	cart := seedOpenCart(t, store, 1)
	prev, err := svc.Materialize(context.Background(), "gid-1", cart.ID)
	require.NoError(t, err)

	_, err = svc.Reorder(context.Background(), "gid-2", prev.ID)

	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
	assert.Len(t, orders.Orders, 1)
}

func TestGetOrder_ForeignOrder_NotFound(t *testing.T) {
	svc, store, _ := newOrderFixture(t)
	cart := seedOpenCart(t, store, 1)
	order, err := svc.Materialize(context.Background(), "gid-1", cart.ID)
	require.NoError(t, err)

	got, err := svc.GetOrder(context.Background(), "gid-1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = svc.GetOrder(context.Background(), "gid-2", order.ID)
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestListOrders_OnlyOwn(t *testing.T) {
	svc, store, _ := newOrderFixture(t)
	mine := seedOpenCart(t, store, 1)
	_, err := svc.Materialize(context.Background(), "gid-1", mine.ID)
	require.NoError(t, err)

	theirs := seedOpenCart(t, store, 2)
	_, err = svc.Materialize(context.Background(), "gid-2", theirs.ID)
	require.NoError(t, err)

	listed, err := svc.ListOrders(context.Background(), "gid-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, int64(1), listed[0].CustomerID)
}

func TestUpdateDeliveryStatus_Transitions(t *testing.T) {
	svc, store, _ := newOrderFixture(t)
	cart := seedOpenCart(t, store, 1)
	order, err := svc.Materialize(context.Background(), "gid-1", cart.ID)
	require.NoError(t, err)

	err = svc.UpdateDeliveryStatus(context.Background(), order.ID, domain.DeliveryStatusDelivered)
	assert.ErrorIs(t, err, ErrIllegalTransition, "skipping SHIPPED must fail")

	require.NoError(t, svc.UpdateDeliveryStatus(context.Background(), order.ID, domain.DeliveryStatusShipped))
	require.NoError(t, svc.UpdateDeliveryStatus(context.Background(), order.ID, domain.DeliveryStatusDelivered))

	err = svc.UpdateDeliveryStatus(context.Background(), order.ID, domain.DeliveryStatusShipped)
	assert.ErrorIs(t, err, ErrIllegalTransition, "delivered is terminal")
}
