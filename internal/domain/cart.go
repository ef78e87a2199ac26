package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OrderType string

const (
	OrderTypeCorporate OrderType = "CORPORATE"
	OrderTypeEvent     OrderType = "EVENT"
)

type UnitKind string

const (
	UnitPerPlate UnitKind = "PER_PLATE"
	UnitPerKg    UnitKind = "PER_KG"
)

// CartLine is one priced entry in an open cart. Lines are addressed by
// (line id, processing date) because a corporate cart carries one line per
// delivery date.
type CartLine struct {
	ID             uuid.UUID `json:"id"`
	CartID         uuid.UUID `json:"cart_id"`
	ProductID      int64     `json:"product_id"`
	ProductName    string    `json:"product_name"`
	UnitPrice      float64   `json:"unit_price"`
	Quantity       int       `json:"quantity"`
	UnitKind       UnitKind  `json:"unit_kind"`
	ProcessingDate time.Time `json:"processing_date"`
}

func (l CartLine) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// Cart is the mutable pre-order state for one customer and order type.
// TotalAmount must equal the sum of line subtotals after every mutation.
type Cart struct {
	ID             uuid.UUID       `json:"id"`
	CustomerID     int64           `json:"customer_id"`
	OrderType      OrderType       `json:"order_type"`
	Lines          []CartLine      `json:"lines"`
	TotalAmount    float64         `json:"total_amount"`
	Address        json.RawMessage `json:"address,omitempty"`
	NumberOfPlates int             `json:"number_of_plates"`
	ProcessingDate time.Time       `json:"processing_date"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// LinesTotal recomputes the total from the lines, ignoring the stored total.
func (c *Cart) LinesTotal() float64 {
	var total float64
	for _, l := range c.Lines {
		total += l.Subtotal()
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}
