package orders

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aryankapoor/zapkart-backend/internal/address"
	"github.com/aryankapoor/zapkart-backend/internal/cart"
	"github.com/aryankapoor/zapkart-backend/internal/products"
	"github.com/aryankapoor/zapkart-backend/pkg/db/models"
	"github.com/aryankapoor/zapkart-backend/pkg/docstore"
	"github.com/aryankapoor/zapkart-backend/pkg/enums"
	"github.com/aryankapoor/zapkart-backend/pkg/errors"
	"github.com/aryankapoor/zapkart-backend/pkg/logger"
	"github.com/aryankapoor/zapkart-backend/pkg/pagination"
	"github.com/aryankapoor/zapkart-backend/pkg/pricing"
)

type capturedEvents struct {
	events []OrderCreatedEvent
}

func (c *capturedEvents) PublishOrderCreated(_ context.Context, event OrderCreatedEvent) {
	c.events = append(c.events, event)
}

type fixture struct {
	service   *Service
	products  *products.Repository
	addresses *address.Service
	events    *capturedEvents
	addressID uuid.UUID
}

func testPricingConfig() pricing.Config {
	return pricing.Config{
		TaxRate:               decimal.RequireFromString("0.08"),
		FreeShippingThreshold: decimal.NewFromInt(500),
		FlatShippingFee:       decimal.NewFromInt(50),
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}, &models.Order{}, &models.OrderLineItem{}); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	addresses := address.NewService(docstore.NewMemory(), "addresses", nil, logg)
	saved, err := addresses.Add(t.Context(), "user-1", address.Address{
		Label:      enums.AddressLabelHome,
		FullName:   "Aisha Verma",
		Line1:      "14 Lake View Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560034",
		Phone:      "9876543210",
	})
	if err != nil {
		t.Fatalf("seeding address: %v", err)
	}

	productRepo := products.NewRepository(conn)
	events := &capturedEvents{}
	service := NewService(conn, NewRepository(conn), productRepo, addresses, testPricingConfig(), events, logg)

	return &fixture{
		service:   service,
		products:  productRepo,
		addresses: addresses,
		events:    events,
		addressID: saved.ID,
	}
}

func (f *fixture) seedProduct(t *testing.T, pricePaise, stock int) uuid.UUID {
	t.Helper()
	row := &models.Product{
		SKU:            uuid.NewString(),
		Title:          "Catalog Item",
		UnitPricePaise: pricePaise,
		Stock:          stock,
		IsActive:       true,
	}
	if err := f.products.Create(t.Context(), row); err != nil {
		t.Fatalf("seeding product: %v", err)
	}
	return row.ID
}

func cartWith(t *testing.T, productID uuid.UUID, price string, qty int) *cart.Store {
	t.Helper()
	store := cart.NewStore()
	err := store.AddItem(cart.LineItem{
		ProductID:      productID,
		Name:           "Catalog Item",
		UnitPrice:      decimal.RequireFromString(price),
		Quantity:       qty,
		AvailableStock: 100,
	})
	if err != nil {
		t.Fatalf("building cart: %v", err)
	}
	return store
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	productID := f.seedProduct(t, 10000, 10)
	cartStore := cartWith(t, productID, "100", 2)

	order, err := f.service.PlaceOrder(ctx, "user-1", cartStore, f.addressID)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if order.Status != enums.OrderStatusPlaced {
		t.Fatalf("unexpected status %s", order.Status)
	}
	if !order.Subtotal.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("subtotal = %s", order.Subtotal)
	}
	if !order.Tax.Equal(decimal.NewFromInt(16)) {
		t.Fatalf("tax = %s", order.Tax)
	}
	if !order.Shipping.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("shipping = %s", order.Shipping)
	}
	if !order.Total.Equal(decimal.NewFromInt(266)) {
		t.Fatalf("total = %s", order.Total)
	}

	// Cart clears after a successful checkout.
	if cartStore.Len() != 0 {
		t.Fatal("cart not cleared after order placement")
	}

	// Stock reserved.
	row, err := f.products.GetByID(ctx, productID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if row.Stock != 8 {
		t.Fatalf("expected stock 8, got %d", row.Stock)
	}

	// Event published.
	if len(f.events.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(f.events.events))
	}
	if f.events.events[0].OrderID != order.ID {
		t.Fatal("event carries wrong order id")
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.PlaceOrder(t.Context(), "user-1", cart.NewStore(), f.addressID)
	if typed := errors.As(err); typed == nil || typed.Code() != errors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPlaceOrderUnknownAddress(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(t, 10000, 10)
	cartStore := cartWith(t, productID, "100", 1)

	_, err := f.service.PlaceOrder(t.Context(), "user-1", cartStore, uuid.New())
	if typed := errors.As(err); typed == nil || typed.Code() != errors.CodeNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
	if cartStore.Len() != 1 {
		t.Fatal("cart must survive a failed checkout")
	}
}

func TestPlaceOrderInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	productID := f.seedProduct(t, 10000, 1)
	cartStore := cartWith(t, productID, "100", 5)

	_, err := f.service.PlaceOrder(ctx, "user-1", cartStore, f.addressID)
	if typed := errors.As(err); typed == nil || typed.Code() != errors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	// Nothing committed: stock intact, no orders, cart untouched.
	row, err := f.products.GetByID(ctx, productID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if row.Stock != 1 {
		t.Fatalf("stock changed after rollback: %d", row.Stock)
	}
	page, err := f.service.List(ctx, "user-1", pagination.Params{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Orders) != 0 {
		t.Fatal("order persisted despite rollback")
	}
	if cartStore.Len() != 1 {
		t.Fatal("cart cleared despite failed checkout")
	}
	if len(f.events.events) != 0 {
		t.Fatal("event published despite failed checkout")
	}
}

func TestOrderHistoryScopedToUser(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	productID := f.seedProduct(t, 10000, 10)

	order, err := f.service.PlaceOrder(ctx, "user-1", cartWith(t, productID, "100", 1), f.addressID)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if _, err := f.service.Get(ctx, "user-2", order.ID); err == nil {
		t.Fatal("another user could read the order")
	}

	page, err := f.service.List(ctx, "user-2", pagination.Params{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Orders) != 0 {
		t.Fatal("another user sees the order in history")
	}
}

func TestFreeShippingAboveThreshold(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(t, 60000, 10)
	order, err := f.service.PlaceOrder(t.Context(), "user-1", cartWith(t, productID, "600", 1), f.addressID)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if !order.Shipping.IsZero() {
		t.Fatalf("expected free shipping, got %s", order.Shipping)
	}
	if !order.Total.Equal(decimal.NewFromInt(648)) {
		t.Fatalf("total = %s", order.Total)
	}
}

