package cache

import (
	"context"
	"errors"

	"github.com/caterline/caterline/internal/domain"
)

type CartCache interface {
	Get(ctx context.Context, customerID int64, orderType domain.OrderType) (*domain.Cart, error)
	Set(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, customerID int64, orderType domain.OrderType) error
}

var ErrCacheMiss = errors.New("cache miss")
