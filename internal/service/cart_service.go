package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/caterline/caterline/internal/auth"
	"github.com/caterline/caterline/internal/cache"
	"github.com/caterline/caterline/internal/domain"
	"github.com/caterline/caterline/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// totalTolerance absorbs float rounding when comparing a client-declared
// total against the recomputed sum of lines.
const totalTolerance = 0.005

type CartService struct {
	store     repository.CartStore
	customers repository.CustomerRepository
	tokens    auth.Resolver
	cache     cache.CartCache
	sfg       singleflight.Group // prevents cache stampede on cart reads
}

func NewCartService(
	store repository.CartStore,
	customers repository.CustomerRepository,
	tokens auth.Resolver,
	cartCache cache.CartCache,
) *CartService {
	return &CartService{
		store:     store,
		customers: customers,
		tokens:    tokens,
		cache:     cartCache,
	}
}

type CartLineInput struct {
	ProductID      int64           `json:"product_id"`
	ProductName    string          `json:"product_name"`
	UnitPrice      float64         `json:"unit_price"`
	Quantity       int             `json:"quantity"`
	UnitKind       domain.UnitKind `json:"unit_kind"`
	ProcessingDate time.Time       `json:"processing_date"`
}

type UpsertCartRequest struct {
	OrderType      domain.OrderType `json:"order_type"`
	Lines          []CartLineInput  `json:"lines"`
	TotalAmount    float64          `json:"total_amount"`
	Address        json.RawMessage  `json:"address"`
	NumberOfPlates int              `json:"number_of_plates"`
	ProcessingDate time.Time        `json:"processing_date"`
}

// UpsertCart creates or replaces the caller's open cart for the given order
// type. Repeated identical calls land on the same cart row.
func (s *CartService) UpsertCart(ctx context.Context, token string, req *UpsertCartRequest) (uuid.UUID, error) {
	if err := validateUpsert(req); err != nil {
		return uuid.Nil, err
	}

	identity, err := resolveCustomer(ctx, s.tokens, s.customers, token)
	if err != nil {
		return uuid.Nil, err
	}

	cart := &domain.Cart{
		CustomerID:     identity.CustomerID,
		OrderType:      req.OrderType,
		TotalAmount:    req.TotalAmount,
		Address:        req.Address,
		NumberOfPlates: req.NumberOfPlates,
		ProcessingDate: req.ProcessingDate,
	}
	for _, in := range req.Lines {
		cart.Lines = append(cart.Lines, domain.CartLine{
			ProductID:      in.ProductID,
			ProductName:    in.ProductName,
			UnitPrice:      in.UnitPrice,
			Quantity:       in.Quantity,
			UnitKind:       in.UnitKind,
			ProcessingDate: in.ProcessingDate,
		})
	}

	cartID, err := s.store.UpsertCart(ctx, cart)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert cart: %w", err)
	}

	s.invalidateCache(identity.CustomerID, req.OrderType)
	return cartID, nil
}

// GetCart returns the caller's open cart, or an empty one when none exists.
func (s *CartService) GetCart(ctx context.Context, token string, orderType domain.OrderType) (*domain.Cart, error) {
	identity, err := resolveCustomer(ctx, s.tokens, s.customers, token)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%d:%s", identity.CustomerID, orderType)
	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		if s.cache != nil {
			cached, cacheErr := s.cache.Get(ctx, identity.CustomerID, orderType)
			if cacheErr == nil {
				return cached, nil
			}
			if cacheErr != cache.ErrCacheMiss {
				log.Printf("cart cache get error: %v", cacheErr)
			}
		}

		cart, getErr := s.store.GetCartByCustomer(ctx, identity.CustomerID, orderType)
		if getErr == repository.ErrCartNotFound {
			return &domain.Cart{
				CustomerID: identity.CustomerID,
				OrderType:  orderType,
			}, nil
		}
		if getErr != nil {
			return nil, getErr
		}

		if s.cache != nil {
			go func() {
				if setErr := s.cache.Set(context.Background(), cart); setErr != nil {
					log.Printf("cart cache set error: %v", setErr)
				}
			}()
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// UpdateQuantity changes one line's quantity and recomputes the cart total
// from current stored prices, never from client input. The pricing read and
// both writes share one transaction so concurrent edits of the same cart
// serialize instead of clobbering the total.
func (s *CartService) UpdateQuantity(ctx context.Context, token string, lineID uuid.UUID, date time.Time, quantity int) (float64, error) {
	if quantity < 0 {
		return 0, &ValidationError{Field: "quantity", Reason: "must not be negative"}
	}

	identity, err := resolveCustomer(ctx, s.tokens, s.customers, token)
	if err != nil {
		return 0, err
	}

	var newTotal float64
	var orderType domain.OrderType
	err = s.store.InTx(ctx, func(tx repository.CartStore) error {
		pricing, e2 := tx.LinePricing(ctx, lineID, date)
		if e2 != nil {
			return e2
		}
		if pricing.CustomerID != identity.CustomerID {
			// Someone else's line is indistinguishable from a missing one.
			return repository.ErrLineNotFound
		}
		orderType = pricing.OrderType

		// The cart total minus this line's current contribution, then the
		// line re-added at its new quantity.
		balance := pricing.CartTotal - pricing.UnitPrice*float64(pricing.Quantity)
		newTotal = pricing.UnitPrice*float64(quantity) + balance

		return tx.SetLineQuantity(ctx, lineID, date, quantity, newTotal)
	})
	if err != nil {
		return 0, err
	}

	s.invalidateCache(identity.CustomerID, orderType)
	return newTotal, nil
}

// DeleteLine removes one line and deducts its contribution from the cart
// total in the same transaction.
func (s *CartService) DeleteLine(ctx context.Context, token string, lineID uuid.UUID, date time.Time) (float64, error) {
	identity, err := resolveCustomer(ctx, s.tokens, s.customers, token)
	if err != nil {
		return 0, err
	}

	var newTotal float64
	var orderType domain.OrderType
	err = s.store.InTx(ctx, func(tx repository.CartStore) error {
		pricing, e2 := tx.LinePricing(ctx, lineID, date)
		if e2 != nil {
			return e2
		}
		if pricing.CustomerID != identity.CustomerID {
			return repository.ErrLineNotFound
		}
		orderType = pricing.OrderType

		amount := pricing.UnitPrice * float64(pricing.Quantity)
		newTotal = pricing.CartTotal - amount

		return tx.RemoveLine(ctx, lineID, date, newTotal)
	})
	if err != nil {
		return 0, err
	}

	s.invalidateCache(identity.CustomerID, orderType)
	return newTotal, nil
}

func (s *CartService) invalidateCache(customerID int64, orderType domain.OrderType) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, customerID, orderType); err != nil {
		log.Printf("cart cache invalidate error: %v", err)
	}
}

func validateUpsert(req *UpsertCartRequest) error {
	if req.OrderType != domain.OrderTypeCorporate && req.OrderType != domain.OrderTypeEvent {
		return &ValidationError{Field: "order_type", Reason: "must be CORPORATE or EVENT"}
	}
	if len(req.Lines) == 0 {
		return &ValidationError{Field: "lines", Reason: "at least one line is required"}
	}

	var sum float64
	for i, l := range req.Lines {
		if l.Quantity <= 0 {
			return &ValidationError{Field: fmt.Sprintf("lines[%d].quantity", i), Reason: "must be positive"}
		}
		if l.UnitPrice < 0 {
			return &ValidationError{Field: fmt.Sprintf("lines[%d].unit_price", i), Reason: "must not be negative"}
		}
		if l.UnitKind != domain.UnitPerPlate && l.UnitKind != domain.UnitPerKg {
			return &ValidationError{Field: fmt.Sprintf("lines[%d].unit_kind", i), Reason: "must be PER_PLATE or PER_KG"}
		}
		sum += l.UnitPrice * float64(l.Quantity)
	}

	if math.Abs(sum-req.TotalAmount) > totalTolerance {
		return &ValidationError{Field: "total_amount", Reason: "does not match the sum of line subtotals"}
	}
	return nil
}
