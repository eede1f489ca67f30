// Package pricing computes cart totals. Every function is pure: totals depend
// only on the line items passed in and the configured constants.
package pricing

import "github.com/shopspring/decimal"

// Line is the minimal priced view of a cart entry.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Config carries the storefront pricing constants.
type Config struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
}

// Quote bundles the four totals for a cart state.
type Quote struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	Shipping   decimal.Decimal `json:"shipping"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// Subtotal sums unit price times quantity, rounded half-up to the minor unit.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return sum.Round(2)
}

// Tax applies the configured flat rate to the subtotal. Shipping is never taxed.
func Tax(cfg Config, subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(cfg.TaxRate).Round(2)
}

// Shipping waives the flat fee once the subtotal reaches the free-shipping
// threshold (inclusive). An empty cart ships nothing, so it is never charged
// the flat fee even though its zero subtotal sits below the threshold.
func Shipping(cfg Config, subtotal decimal.Decimal, itemCount int) decimal.Decimal {
	if itemCount == 0 {
		return decimal.Zero
	}
	if subtotal.GreaterThanOrEqual(cfg.FreeShippingThreshold) {
		return decimal.Zero
	}
	return cfg.FlatShippingFee
}

// QuoteLines computes all four totals for the given lines.
func QuoteLines(cfg Config, lines []Line) Quote {
	subtotal := Subtotal(lines)
	tax := Tax(cfg, subtotal)
	shipping := Shipping(cfg, subtotal, len(lines))
	return Quote{
		Subtotal:   subtotal,
		Tax:        tax,
		Shipping:   shipping,
		GrandTotal: subtotal.Add(tax).Add(shipping),
	}
}
