package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/caterline/caterline/internal/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

func (r *Repository) CreatePayment(ctx context.Context, p *domain.Payment) (uuid.UUID, error) {
	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	query := `INSERT INTO payment (payment_id, order_id, payment_type, merchant_reference_id, provider_reference_id,
	          instrument, bank_reference_no, amount, customer_generated_id, paid_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())`

	_, err := r.db.ExecContext(ctx, query,
		id,
		p.OrderID,
		p.PaymentType,
		p.MerchantReferenceID,
		p.ProviderReferenceID,
		p.Instrument,
		p.BankReferenceNo,
		p.Amount,
		p.CustomerGeneratedID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return uuid.Nil, ErrDuplicatePayment
		}
		return uuid.Nil, fmt.Errorf("insert payment: %w", err)
	}
	return id, nil
}
