package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/caterline/caterline/internal/service"
	"github.com/google/uuid"
)

type PaymentAPI interface {
	RecordPayment(ctx context.Context, req *service.RecordPaymentRequest) (uuid.UUID, error)
}

type PaymentHandler struct {
	payments PaymentAPI
	timeout  time.Duration
}

func NewPaymentHandler(payments PaymentAPI, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{payments: payments, timeout: timeout}
}

type paymentResponseDTO struct {
	PaymentID string `json:"payment_id"`
}

// POST /api/v1/payments
func (h *PaymentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	paymentID, err := h.payments.RecordPayment(ctx, &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, paymentResponseDTO{PaymentID: paymentID.String()})
}
