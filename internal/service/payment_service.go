package service

import (
	"context"
	"fmt"
	"log"

	"github.com/caterline/caterline/internal/domain"
	"github.com/caterline/caterline/internal/repository"
	"github.com/google/uuid"
)

type PaymentService struct {
	payments repository.PaymentRepository
	orders   repository.OrderRepository
}

func NewPaymentService(payments repository.PaymentRepository, orders repository.OrderRepository) *PaymentService {
	return &PaymentService{payments: payments, orders: orders}
}

type RecordPaymentRequest struct {
	OrderID             uuid.UUID            `json:"order_id"`
	Outcome             domain.PaymentStatus `json:"outcome"`
	PaymentType         string               `json:"payment_type"`
	MerchantReferenceID string               `json:"merchant_reference_id"`
	ProviderReferenceID string               `json:"provider_reference_id"`
	Instrument          string               `json:"instrument"`
	BankReferenceNo     string               `json:"bank_reference_no"`
	Amount              float64              `json:"amount"`
	CustomerGeneratedID string               `json:"customer_generated_id"`
}

// RecordPayment stores the provider transaction and then reconciles the
// order's payment fields. The reconciliation is best effort: its failure is
// logged but does not fail the recording, since the payment row is the
// source of truth and reconciliation can be replayed.
func (s *PaymentService) RecordPayment(ctx context.Context, req *RecordPaymentRequest) (uuid.UUID, error) {
	if err := validatePayment(req); err != nil {
		return uuid.Nil, err
	}

	payment := &domain.Payment{
		OrderID:             req.OrderID,
		PaymentType:         req.PaymentType,
		MerchantReferenceID: req.MerchantReferenceID,
		ProviderReferenceID: req.ProviderReferenceID,
		Instrument:          req.Instrument,
		BankReferenceNo:     req.BankReferenceNo,
		Amount:              req.Amount,
		CustomerGeneratedID: req.CustomerGeneratedID,
	}

	paymentID, err := s.payments.CreatePayment(ctx, payment)
	if err != nil {
		return uuid.Nil, fmt.Errorf("record payment: %w", err)
	}

	if e2 := s.orders.SetPayment(ctx, req.OrderID, paymentID, req.Outcome); e2 != nil {
		log.Printf("payment %s recorded but order %s not reconciled: %v", paymentID, req.OrderID, e2)
	}

	return paymentID, nil
}

func validatePayment(req *RecordPaymentRequest) error {
	if req.OrderID == uuid.Nil {
		return &ValidationError{Field: "order_id", Reason: "is required"}
	}
	if req.MerchantReferenceID == "" {
		return &ValidationError{Field: "merchant_reference_id", Reason: "is required"}
	}
	if req.Amount <= 0 {
		return &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if req.Outcome != domain.PaymentStatusSuccess && req.Outcome != domain.PaymentStatusFailed {
		return &ValidationError{Field: "outcome", Reason: "must be SUCCESS or FAILED"}
	}
	return nil
}
