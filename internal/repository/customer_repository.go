package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/caterline/caterline/internal/domain"
)

func (r *Repository) FindByGeneratedID(ctx context.Context, generatedID string) (*domain.Customer, error) {
	query := `SELECT customer_id, customer_generated_id, customer_name, customer_email, customer_phonenumber
	          FROM customer WHERE customer_generated_id = $1`
	return scanCustomer(r.db.QueryRowContext(ctx, query, generatedID))
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	query := `SELECT customer_id, customer_generated_id, customer_name, customer_email, customer_phonenumber
	          FROM customer WHERE customer_email = $1`
	return scanCustomer(r.db.QueryRowContext(ctx, query, email))
}

func scanCustomer(row *sql.Row) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(&c.CustomerID, &c.GeneratedID, &c.Name, &c.Email, &c.PhoneNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	return &c, nil
}
