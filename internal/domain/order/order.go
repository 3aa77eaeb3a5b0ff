package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/food-ordering/internal/domain/payment"
)

// ErrNotFound is returned when an order does not exist or belongs to
// another customer.
var ErrNotFound = errors.New("order not found")

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
)

// Address is where an order is delivered.
type Address struct {
	Latitude   float64 `json:"latitude" validate:"latitude"`
	Longitude  float64 `json:"longitude" validate:"longitude"`
	Address    string  `json:"address" validate:"required,max=500"`
	City       string  `json:"city" validate:"max=100"`
	State      string  `json:"state" validate:"max=100"`
	Country    string  `json:"country" validate:"max=100"`
	PostalCode string  `json:"postalCode" validate:"max=20"`
}

// Item is a line of an order, copied from the cart at submission time.
type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Image    string          `json:"image,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Total is Price × Quantity.
func (i Item) Total() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a submitted order with its pricing frozen at checkout.
type Order struct {
	ID               string
	UserID           string
	UserEmail        string
	Items            []Item
	Subtotal         decimal.Decimal
	DeliveryFee      decimal.Decimal
	Tax              decimal.Decimal
	Total            decimal.Decimal
	DeliveryAddress  Address
	PaymentMethod    payment.Method
	PaymentReference string
	Status           Status
	CreatedAt        time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	// GetByID returns ErrNotFound if no order has the id.
	GetByID(ctx context.Context, id string) (*Order, error)
}
