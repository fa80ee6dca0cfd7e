// Package models defines the core data structures for users, catalog
// records, cart items and orders exchanged with the remote data service.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// ID identifies a record of the remote data service. The service may emit
// identifiers as JSON strings or numbers; both decode into ID.
type ID string

// UnmarshalJSON accepts a quoted string, a bare number or null. Integral
// numbers are normalised so 1, 1.0 and 1e0 decode to the same ID.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(numberID(n))
	return nil
}

// maxExactFloat is the largest magnitude below which every integer is
// representable as a float64.
const maxExactFloat = 1 << 53

func numberID(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < maxExactFloat {
		return strconv.FormatInt(int64(f), 10)
	}
	return n.String()
}

// User represents an account of the remote user directory.
type User struct {
	// ID is assigned by the remote service on creation.
	ID ID `json:"id,omitempty"`
	// Name is the display name.
	Name string `json:"name"`
	// Email is the identity key, unique within the directory.
	Email string `json:"email"`
	// Password is stored and compared in plaintext by the directory.
	Password string `json:"password"`
	// Joined is the human readable registration date.
	Joined string `json:"joined,omitempty"`
}

// JoinedLayout formats User.Joined, e.g. "15 October 2026".
const JoinedLayout = "2 January 2006"

// Product is a catalog record. Only ID, Name and Price matter to the cart.
type Product struct {
	ID          ID      `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Image       string  `json:"image,omitempty"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Category is a read-only catalog grouping.
type Category struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// CartItem is a product pending checkout together with its quantity.
type CartItem struct {
	Product
	// Quantity is always >= 1 while the item is in a cart.
	Quantity int `json:"quantity"`
}

// Subtotal returns price times quantity.
func (c CartItem) Subtotal() float64 {
	return c.Price * float64(c.Quantity)
}

// CartTotal sums the subtotals of items rounded to cents.
func CartTotal(items []CartItem) Amount {
	var total float64
	for _, it := range items {
		total += it.Subtotal()
	}
	return NewAmount(total)
}

// Amount is a money value kept at cent precision.
type Amount float64

// NewAmount rounds v to cents.
func NewAmount(v float64) Amount {
	return Amount(math.Round(v*100) / 100)
}

// String formats the amount with two decimals.
func (a Amount) String() string {
	return strconv.FormatFloat(float64(a), 'f', 2, 64)
}

// MarshalJSON encodes the amount as a number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode amount: %w", err)
		}
		data = []byte(s)
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("decode amount: %w", err)
	}
	*a = NewAmount(v)
	return nil
}

// OrderStatus is the fulfilment state of an order, driven server-side.
type OrderStatus string

const (
	// StatusProcessing is assigned to every order at checkout.
	StatusProcessing OrderStatus = "Processing"
	// StatusShipping means the order left the warehouse.
	StatusShipping OrderStatus = "Shipping"
	// StatusDelivered means the customer received the order.
	StatusDelivered OrderStatus = "Delivered"
	// StatusCancelled means the order will not be fulfilled.
	StatusCancelled OrderStatus = "Cancelled"
)

// ShippingDetails is the delivery information entered at checkout.
type ShippingDetails struct {
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	Email    string `json:"email"`
}

// Order is a submitted checkout. It is immutable from the client side.
type Order struct {
	ID              ID              `json:"id,omitempty"`
	UserEmail       string          `json:"userEmail"`
	Date            string          `json:"date"`
	Items           []CartItem      `json:"items"`
	TotalAmount     Amount          `json:"totalAmount"`
	ShippingDetails ShippingDetails `json:"shippingDetails"`
	Status          OrderStatus     `json:"status"`
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// Time parses Date. It reports false when the date is missing or unparsable.
func (o Order) Time() (time.Time, bool) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, o.Date); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
