package service

import (
	"context"

	"github.com/caterline/caterline/internal/auth"
	"github.com/caterline/caterline/internal/domain"
	"github.com/caterline/caterline/internal/repository"
)

type AddressService struct {
	addresses repository.AddressRepository
	customers repository.CustomerRepository
	tokens    auth.Resolver
}

func NewAddressService(
	addresses repository.AddressRepository,
	customers repository.CustomerRepository,
	tokens auth.Resolver,
) *AddressService {
	return &AddressService{addresses: addresses, customers: customers, tokens: tokens}
}

type AddressInput struct {
	Tag         string `json:"tag"`
	Pincode     string `json:"pincode"`
	Line1       string `json:"line1"`
	Line2       string `json:"line2"`
	Location    string `json:"location"`
	ShipToName  string `json:"ship_to_name"`
	ShipToPhone string `json:"ship_to_phone_number"`
}

func (s *AddressService) CreateAddress(ctx context.Context, token string, in *AddressInput) (*domain.Address, error) {
	if err := validateAddress(in); err != nil {
		return nil, err
	}

	identity, err := resolveCustomer(ctx, s.tokens, s.customers, token)
	if err != nil {
		return nil, err
	}

	return s.addresses.CreateAddress(ctx, &domain.Address{
		CustomerID:  identity.CustomerID,
		Tag:         in.Tag,
		Pincode:     in.Pincode,
		Line1:       in.Line1,
		Line2:       in.Line2,
		Location:    in.Location,
		ShipToName:  in.ShipToName,
		ShipToPhone: in.ShipToPhone,
	})
}

func (s *AddressService) ListAddresses(ctx context.Context, token string) ([]*domain.Address, error) {
	identity, err := resolveCustomer(ctx, s.tokens, s.customers, token)
	if err != nil {
		return nil, err
	}
	return s.addresses.ListAddressesByCustomer(ctx, identity.CustomerID)
}

func (s *AddressService) GetAddress(ctx context.Context, token string, addressID int64) (*domain.Address, error) {
	identity, err := resolveCustomer(ctx, s.tokens, s.customers, token)
	if err != nil {
		return nil, err
	}

	addr, err := s.addresses.GetAddressByID(ctx, addressID)
	if err != nil {
		return nil, err
	}
	if addr.CustomerID != identity.CustomerID {
		return nil, repository.ErrAddressNotFound
	}
	return addr, nil
}

func (s *AddressService) UpdateAddress(ctx context.Context, token string, addressID int64, in *AddressInput) (*domain.Address, error) {
	if err := validateAddress(in); err != nil {
		return nil, err
	}

	addr, err := s.GetAddress(ctx, token, addressID)
	if err != nil {
		return nil, err
	}

	addr.Tag = in.Tag
	addr.Pincode = in.Pincode
	addr.Line1 = in.Line1
	addr.Line2 = in.Line2
	return s.addresses.UpdateAddress(ctx, addr)
}

func validateAddress(in *AddressInput) error {
	required := []struct{ field, value string }{
		{"tag", in.Tag},
		{"pincode", in.Pincode},
		{"line1", in.Line1},
		{"line2", in.Line2},
		{"location", in.Location},
	}
	for _, r := range required {
		if r.value == "" {
			return &ValidationError{Field: r.field, Reason: "is required"}
		}
	}
	return nil
}
