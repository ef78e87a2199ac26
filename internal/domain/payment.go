package domain

import (
	"time"

	"github.com/google/uuid"
)

// Payment is one provider-side transaction recorded against an order.
type Payment struct {
	ID                  uuid.UUID
	OrderID             uuid.UUID
	PaymentType         string
	MerchantReferenceID string
	ProviderReferenceID string
	Instrument          string
	BankReferenceNo     string
	Amount              float64
	CustomerGeneratedID string
	PaidAt              time.Time
}
