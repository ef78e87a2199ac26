package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/caterline/caterline/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type OrdersAPI interface {
	Materialize(ctx context.Context, token string, cartID uuid.UUID) (*domain.Order, error)
	Reorder(ctx context.Context, token string, orderID uuid.UUID) (*domain.Order, error)
	GetOrder(ctx context.Context, token string, orderID uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, token string) ([]*domain.Order, error)
	UpdateDeliveryStatus(ctx context.Context, orderID uuid.UUID, next domain.DeliveryStatus) error
}

type OrdersHandler struct {
	orders  OrdersAPI
	timeout time.Duration
}

func NewOrdersHandler(orders OrdersAPI, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{orders: orders, timeout: timeout}
}

type OrderItemDTO struct {
	ProductID      int64   `json:"product_id"`
	ProductName    string  `json:"product_name"`
	Quantity       int     `json:"quantity"`
	UnitPrice      float64 `json:"unit_price"`
	UnitKind       string  `json:"unit_kind"`
	Subtotal       float64 `json:"subtotal"`
	ProcessingDate string  `json:"processing_date"`
}

type OrderResponseDTO struct {
	ID             string          `json:"id"`
	OrderType      string          `json:"order_type"`
	TotalAmount    float64         `json:"total_amount"`
	Items          []OrderItemDTO  `json:"items"`
	Address        json.RawMessage `json:"address,omitempty"`
	NumberOfPlates int             `json:"number_of_plates"`
	ProcessingDate string          `json:"processing_date"`
	DeliveryStatus string          `json:"delivery_status"`
	PaymentStatus  string          `json:"payment_status"`
	OrderStatus    string          `json:"order_status"`
	PaymentID      string          `json:"payment_id,omitempty"`
	CreatedAt      string          `json:"created_at"`
}

type materializeRequestDTO struct {
	CartID string `json:"cart_id"`
}

type deliveryStatusRequestDTO struct {
	Status string `json:"status"`
}

// POST /api/v1/orders
func (h *OrdersHandler) Materialize(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req materializeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	cartID, err := uuid.Parse(req.CartID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_cart_id", "cart_id must be a valid UUID")
		return
	}

	order, err := h.orders.Materialize(ctx, bearerToken(r), cartID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, convertOrder(order))
}

// POST /api/v1/orders/{order_id}/reorder
func (h *OrdersHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a valid UUID")
		return
	}

	order, err := h.orders.Reorder(ctx, bearerToken(r), orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, convertOrder(order))
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a valid UUID")
		return
	}

	order, err := h.orders.GetOrder(ctx, bearerToken(r), orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListOrders(ctx, bearerToken(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, convertOrder(o))
	}
	respondJSON(w, http.StatusOK, dtos)
}

// PUT /api/v1/orders/{order_id}/delivery-status
func (h *OrdersHandler) UpdateDeliveryStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a valid UUID")
		return
	}

	var req deliveryStatusRequestDTO
	if e2 := json.NewDecoder(r.Body).Decode(&req); e2 != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	next := domain.DeliveryStatus(req.Status)
	if next != domain.DeliveryStatusShipped && next != domain.DeliveryStatusDelivered {
		respondError(w, http.StatusBadRequest, "invalid_status", "status must be SHIPPED or DELIVERED")
		return
	}

	if e3 := h.orders.UpdateDeliveryStatus(ctx, orderID, next); e3 != nil {
		handleServiceError(w, e3)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func convertOrder(o *domain.Order) OrderResponseDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemDTO{
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			UnitKind:       string(item.UnitKind),
			Subtotal:       item.Subtotal,
			ProcessingDate: item.ProcessingDate.Format("2006-01-02"),
		})
	}

	dto := OrderResponseDTO{
		ID:             o.ID.String(),
		OrderType:      string(o.OrderType),
		TotalAmount:    o.TotalAmount,
		Items:          items,
		Address:        o.Address,
		NumberOfPlates: o.NumberOfPlates,
		ProcessingDate: o.ProcessingDate.Format("2006-01-02"),
		DeliveryStatus: string(o.DeliveryStatus),
		PaymentStatus:  string(o.PaymentStatus),
		OrderStatus:    string(o.OrderStatus),
		CreatedAt:      o.CreatedAt.Format(time.RFC3339),
	}
	if o.PaymentID != nil {
		dto.PaymentID = o.PaymentID.String()
	}
	return dto
}
