// Package checkout derives the payable amount for a cart subtotal.
package checkout

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Default pricing observed in the ordering app: a flat delivery fee and 8% tax.
var (
	DefaultDeliveryFee = decimal.NewFromInt(49)
	DefaultTaxRate     = decimal.RequireFromString("0.08")
)

// Pricing holds the fixed fee and tax configuration applied at checkout.
type Pricing struct {
	DeliveryFee decimal.Decimal
	TaxRate     decimal.Decimal
}

// DefaultPricing returns the pricing with DefaultDeliveryFee and DefaultTaxRate.
func DefaultPricing() Pricing {
	return Pricing{DeliveryFee: DefaultDeliveryFee, TaxRate: DefaultTaxRate}
}

// ParsePricing builds Pricing from decimal strings, as found in configuration.
func ParsePricing(deliveryFee, taxRate string) (Pricing, error) {
	fee, err := decimal.NewFromString(deliveryFee)
	if err != nil {
		return Pricing{}, errors.Wrap(err, "parse delivery fee")
	}
	rate, err := decimal.NewFromString(taxRate)
	if err != nil {
		return Pricing{}, errors.Wrap(err, "parse tax rate")
	}
	p := Pricing{DeliveryFee: fee, TaxRate: rate}
	if err := p.Validate(); err != nil {
		return Pricing{}, err
	}
	return p, nil
}

// Validate rejects negative fees and tax rates outside [0, 1].
func (p Pricing) Validate() error {
	if p.DeliveryFee.IsNegative() {
		return errors.Errorf("delivery fee must not be negative: %s", p.DeliveryFee)
	}
	if p.TaxRate.IsNegative() || p.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return errors.Errorf("tax rate must be between 0 and 1: %s", p.TaxRate)
	}
	return nil
}

// Quote is the price breakdown shown at checkout.
type Quote struct {
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
}

// Quote computes subtotal + delivery fee + tax. Tax is rounded to 2 decimal
// places. The result is never cached: callers quote the current subtotal.
func (p Pricing) Quote(subtotal decimal.Decimal) Quote {
	tax := subtotal.Mul(p.TaxRate).Round(2)
	return Quote{
		Subtotal:    subtotal,
		DeliveryFee: p.DeliveryFee,
		Tax:         tax,
		Total:       subtotal.Add(p.DeliveryFee).Add(tax),
	}
}
