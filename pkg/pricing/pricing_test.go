package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func testConfig() Config {
	return Config{
		TaxRate:               decimal.RequireFromString("0.08"),
		FreeShippingThreshold: decimal.NewFromInt(500),
		FlatShippingFee:       decimal.NewFromInt(50),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestQuoteLinesScenarios(t *testing.T) {
	cases := []struct {
		name       string
		lines      []Line
		subtotal   string
		tax        string
		shipping   string
		grandTotal string
	}{
		{
			name: "threshold reached exactly",
			lines: []Line{
				{UnitPrice: dec("100"), Quantity: 2},
				{UnitPrice: dec("300"), Quantity: 1},
			},
			subtotal: "500", tax: "40", shipping: "0", grandTotal: "540",
		},
		{
			name:     "single expensive item",
			lines:    []Line{{UnitPrice: dec("600"), Quantity: 1}},
			subtotal: "600", tax: "48", shipping: "0", grandTotal: "648",
		},
		{
			name:     "below threshold pays flat fee",
			lines:    []Line{{UnitPrice: dec("100"), Quantity: 1}},
			subtotal: "100", tax: "8", shipping: "50", grandTotal: "158",
		},
		{
			name:     "just below threshold",
			lines:    []Line{{UnitPrice: dec("499.99"), Quantity: 1}},
			subtotal: "499.99", tax: "40", shipping: "50", grandTotal: "589.99",
		},
		{
			name:     "empty cart is entirely zero",
			lines:    nil,
			subtotal: "0", tax: "0", shipping: "0", grandTotal: "0",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := QuoteLines(testConfig(), tc.lines)
			if !q.Subtotal.Equal(dec(tc.subtotal)) {
				t.Fatalf("subtotal: got %s want %s", q.Subtotal, tc.subtotal)
			}
			if !q.Tax.Equal(dec(tc.tax)) {
				t.Fatalf("tax: got %s want %s", q.Tax, tc.tax)
			}
			if !q.Shipping.Equal(dec(tc.shipping)) {
				t.Fatalf("shipping: got %s want %s", q.Shipping, tc.shipping)
			}
			if !q.GrandTotal.Equal(dec(tc.grandTotal)) {
				t.Fatalf("grand total: got %s want %s", q.GrandTotal, tc.grandTotal)
			}
		})
	}
}

func TestGrandTotalIsSumOfParts(t *testing.T) {
	lines := []Line{
		{UnitPrice: dec("49.99"), Quantity: 3},
		{UnitPrice: dec("120.50"), Quantity: 1},
		{UnitPrice: dec("5"), Quantity: 10},
	}
	q := QuoteLines(testConfig(), lines)
	sum := q.Subtotal.Add(q.Tax).Add(q.Shipping)
	if !q.GrandTotal.Equal(sum) {
		t.Fatalf("grand total %s != subtotal+tax+shipping %s", q.GrandTotal, sum)
	}
}

func TestSubtotalRoundsHalfUp(t *testing.T) {
	// 33.335 * 1 rounds up to 33.34 on the minor unit.
	got := Subtotal([]Line{{UnitPrice: dec("33.335"), Quantity: 1}})
	if !got.Equal(dec("33.34")) {
		t.Fatalf("expected half-up rounding, got %s", got)
	}
}

func TestTaxIgnoresShipping(t *testing.T) {
	cfg := testConfig()
	subtotal := dec("100")
	tax := Tax(cfg, subtotal)
	if !tax.Equal(dec("8")) {
		t.Fatalf("tax must be computed on subtotal only, got %s", tax)
	}
}

func TestShippingBoundary(t *testing.T) {
	cfg := testConfig()
	if got := Shipping(cfg, dec("499.99"), 1); !got.Equal(dec("50")) {
		t.Fatalf("expected flat fee at 499.99, got %s", got)
	}
	if got := Shipping(cfg, dec("500.00"), 1); !got.IsZero() {
		t.Fatalf("expected free shipping at 500.00, got %s", got)
	}
	if got := Shipping(cfg, decimal.Zero, 0); !got.IsZero() {
		t.Fatalf("empty cart must not be charged shipping, got %s", got)
	}
}
