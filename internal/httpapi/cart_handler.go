package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/caterline/caterline/internal/domain"
	"github.com/caterline/caterline/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// CartAPI is the slice of the cart ledger this handler needs.
type CartAPI interface {
	UpsertCart(ctx context.Context, token string, req *service.UpsertCartRequest) (uuid.UUID, error)
	GetCart(ctx context.Context, token string, orderType domain.OrderType) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, token string, lineID uuid.UUID, date time.Time, quantity int) (float64, error)
	DeleteLine(ctx context.Context, token string, lineID uuid.UUID, date time.Time) (float64, error)
}

type CartHandler struct {
	carts   CartAPI
	timeout time.Duration
}

func NewCartHandler(carts CartAPI, timeout time.Duration) *CartHandler {
	return &CartHandler{carts: carts, timeout: timeout}
}

type upsertCartResponseDTO struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	CartID  string `json:"cart_id"`
}

type quantityRequestDTO struct {
	Date     string `json:"date"`
	Quantity int    `json:"quantity"`
}

type dateRequestDTO struct {
	Date string `json:"date"`
}

type cartTotalResponseDTO struct {
	Success     bool    `json:"success"`
	TotalAmount float64 `json:"total_amount"`
}

// PUT /api/v1/carts
func (h *CartHandler) UpsertCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.UpsertCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	cartID, err := h.carts.UpsertCart(ctx, bearerToken(r), &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, upsertCartResponseDTO{
		Success: true,
		Message: "cart updated successfully",
		CartID:  cartID.String(),
	})
}

// GET /api/v1/carts/{order_type}
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderType, ok := parseOrderType(chi.URLParam(r, "order_type"))
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_order_type", "order type must be corporate or event")
		return
	}

	cart, err := h.carts.GetCart(ctx, bearerToken(r), orderType)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

// PUT /api/v1/carts/lines/{line_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lineID, err := uuid.Parse(chi.URLParam(r, "line_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_line_id", "line_id must be a valid UUID")
		return
	}

	var req quantityRequestDTO
	if e2 := json.NewDecoder(r.Body).Decode(&req); e2 != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	newTotal, err := h.carts.UpdateQuantity(ctx, bearerToken(r), lineID, date, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cartTotalResponseDTO{Success: true, TotalAmount: newTotal})
}

// DELETE /api/v1/carts/lines/{line_id}
func (h *CartHandler) DeleteLine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lineID, err := uuid.Parse(chi.URLParam(r, "line_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_line_id", "line_id must be a valid UUID")
		return
	}

	var req dateRequestDTO
	if e2 := json.NewDecoder(r.Body).Decode(&req); e2 != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	newTotal, err := h.carts.DeleteLine(ctx, bearerToken(r), lineID, date)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cartTotalResponseDTO{Success: true, TotalAmount: newTotal})
}

func parseOrderType(raw string) (domain.OrderType, bool) {
	switch raw {
	case "corporate", "CORPORATE":
		return domain.OrderTypeCorporate, true
	case "event", "EVENT":
		return domain.OrderTypeEvent, true
	default:
		return "", false
	}
}

func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}
