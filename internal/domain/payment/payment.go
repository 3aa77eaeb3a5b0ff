// Package payment defines how checkout obtains payment for an order.
package payment

import (
	"context"
	"fmt"
	"slices"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Method identifies how the customer pays.
type Method string

const (
	// MethodUPI is a UPI transfer.
	MethodUPI Method = "upi"
	// MethodCard is a credit or debit card payment.
	MethodCard Method = "card"
	// MethodCashOnDelivery is paid in cash to the courier.
	MethodCashOnDelivery Method = "cod"
)

// Methods lists every known method in display order.
var Methods = []Method{MethodUPI, MethodCard, MethodCashOnDelivery}

// ErrUnknownMethod is returned when a method string is not recognised.
var ErrUnknownMethod = errors.New("unknown payment method")

// ParseMethod validates s as a Method.
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	if !slices.Contains(Methods, m) {
		return "", errors.Wrapf(ErrUnknownMethod, "%q", s)
	}
	return m, nil
}

// Label is the human-readable name of the method.
func (m Method) Label() string {
	switch m {
	case MethodUPI:
		return "UPI"
	case MethodCard:
		return "Credit/Debit Card"
	case MethodCashOnDelivery:
		return "Cash on Delivery"
	default:
		return string(m)
	}
}

// DeclinedError is returned when the gateway refuses a payment.
type DeclinedError struct {
	Method Method
	Reason string
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("payment via %s declined: %s", e.Method.Label(), e.Reason)
}

// Authorization is a successful payment hold that may still be voided.
type Authorization struct {
	Reference string
	Method    Method
	Amount    decimal.Decimal
}

// Gateway authorizes payments and releases them when an order cannot be
// recorded.
type Gateway interface {
	Authorize(ctx context.Context, method Method, amount decimal.Decimal) (*Authorization, error)
	Void(ctx context.Context, auth *Authorization) error
}

// Offline is a Gateway for deployments without an online payment provider.
// It accepts the enabled methods unconditionally; settlement happens outside
// the system (cash to the courier, manual UPI reconciliation).
type Offline struct {
	enabled []Method
}

var _ Gateway = (*Offline)(nil)

// NewOffline returns an Offline gateway accepting the given methods.
func NewOffline(enabled ...Method) *Offline {
	return &Offline{enabled: enabled}
}

// Authorize accepts enabled methods and declines all others.
func (g *Offline) Authorize(_ context.Context, method Method, amount decimal.Decimal) (*Authorization, error) {
	if !slices.Contains(g.enabled, method) {
		return nil, &DeclinedError{Method: method, Reason: "method is not available"}
	}
	if amount.IsNegative() {
		return nil, &DeclinedError{Method: method, Reason: "amount must not be negative"}
	}
	return &Authorization{
		Reference: "offline-" + uuid.NewString(),
		Method:    method,
		Amount:    amount,
	}, nil
}

// Void is a no-op: offline payments hold no funds.
func (g *Offline) Void(_ context.Context, _ *Authorization) error {
	return nil
}

// Enabled returns the methods this gateway accepts.
func (g *Offline) Enabled() []Method {
	return slices.Clone(g.enabled)
}
