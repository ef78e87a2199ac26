package domain

import "time"

// Address is a saved delivery address in a customer's address book.
type Address struct {
	ID          int64     `json:"address_id"`
	CustomerID  int64     `json:"customer_id"`
	Tag         string    `json:"tag"`
	Pincode     string    `json:"pincode"`
	Line1       string    `json:"line1"`
	Line2       string    `json:"line2"`
	Location    string    `json:"location"`
	ShipToName  string    `json:"ship_to_name,omitempty"`
	ShipToPhone string    `json:"ship_to_phone_number,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
