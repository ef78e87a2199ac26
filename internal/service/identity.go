package service

import (
	"context"

	"github.com/caterline/caterline/internal/auth"
	"github.com/caterline/caterline/internal/domain"
	"github.com/caterline/caterline/internal/repository"
)

// resolveCustomer turns a raw bearer credential into a full identity.
// Credential failures surface before the customer lookup, so an absent or
// broken token never reaches persistence.
func resolveCustomer(
	ctx context.Context,
	tokens auth.Resolver,
	customers repository.CustomerRepository,
	token string,
) (*domain.Identity, error) {
	claims, err := tokens.Resolve(token)
	if err != nil {
		return nil, err
	}

	customer, err := customers.FindByGeneratedID(ctx, claims.GeneratedID)
	if err != nil {
		return nil, err
	}

	return &domain.Identity{
		CustomerID:  customer.CustomerID,
		GeneratedID: customer.GeneratedID,
		Email:       customer.Email,
	}, nil
}
