package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aryankapoor/zapkart-backend/pkg/errors"
	"github.com/aryankapoor/zapkart-backend/pkg/pricing"
)

func testItem(qty int, price string) LineItem {
	return LineItem{
		ProductID:      uuid.New(),
		Name:           "Steel Water Bottle",
		UnitPrice:      decimal.RequireFromString(price),
		Quantity:       qty,
		AvailableStock: 50,
	}
}

func testPricingConfig() pricing.Config {
	return pricing.Config{
		TaxRate:               decimal.RequireFromString("0.08"),
		FreeShippingThreshold: decimal.NewFromInt(500),
		FlatShippingFee:       decimal.NewFromInt(50),
	}
}

func TestAddItemMergesDuplicates(t *testing.T) {
	s := NewStore()
	item := testItem(2, "100")

	if err := s.AddItem(item); err != nil {
		t.Fatalf("first add: %v", err)
	}
	item.Quantity = 3
	if err := s.AddItem(item); err != nil {
		t.Fatalf("second add: %v", err)
	}

	if s.Len() != 1 {
		t.Fatalf("expected 1 line, got %d", s.Len())
	}
	got, ok := s.Item(item.ProductID)
	if !ok {
		t.Fatal("line missing after merge")
	}
	if got.Quantity != 5 {
		t.Fatalf("expected merged quantity 5, got %d", got.Quantity)
	}
}

func TestAddItemRejectsQuantityBelowOne(t *testing.T) {
	s := NewStore()
	for _, qty := range []int{0, -1} {
		err := s.AddItem(testItem(qty, "100"))
		if err == nil {
			t.Fatalf("expected rejection for quantity %d", qty)
		}
		if typed := errors.As(err); typed == nil || typed.Code() != errors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	}
	if s.Len() != 0 {
		t.Fatal("rejected add must not change state")
	}
}

func TestUpdateQuantityBelowOneRemovesLine(t *testing.T) {
	for _, qty := range []int{0, -1} {
		s := NewStore()
		item := testItem(2, "100")
		if err := s.AddItem(item); err != nil {
			t.Fatalf("add: %v", err)
		}

		s.UpdateQuantity(item.ProductID, qty)
		if s.Len() != 0 {
			t.Fatalf("expected line removed for quantity %d", qty)
		}
	}
}

func TestUpdateQuantityUnknownProductIsNoOp(t *testing.T) {
	s := NewStore()
	fired := 0
	s.OnMutate(func() { fired++ })

	s.UpdateQuantity(uuid.New(), 3)
	s.UpdateQuantity(uuid.New(), 0)

	if s.Len() != 0 {
		t.Fatal("no-op update must not add lines")
	}
	if fired != 0 {
		t.Fatal("no-op update must not fire the mutation hook")
	}
}

func TestRemoveItemIsNoOpWhenAbsent(t *testing.T) {
	s := NewStore()
	fired := 0
	s.OnMutate(func() { fired++ })

	s.RemoveItem(uuid.New())
	if fired != 0 {
		t.Fatal("no-op removal must not fire the mutation hook")
	}
}

func TestMutationHookFiresOnMutationsOnly(t *testing.T) {
	s := NewStore()
	fired := 0
	s.OnMutate(func() { fired++ })

	item := testItem(1, "100")
	if err := s.AddItem(item); err != nil {
		t.Fatalf("add: %v", err)
	}
	s.UpdateQuantity(item.ProductID, 4)
	s.RemoveItem(item.ProductID)
	s.Clear()

	if fired != 4 {
		t.Fatalf("expected 4 hook firings, got %d", fired)
	}

	// Restore and Reset replace local state without echoing a push.
	if err := s.Restore(nil); err != nil {
		t.Fatalf("restore: %v", err)
	}
	s.Reset()
	if fired != 4 {
		t.Fatalf("restore/reset fired the hook: %d", fired)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := NewStore()
	a := testItem(2, "100")
	b := testItem(1, "300")
	if err := s.AddItem(a); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if err := s.AddItem(b); err != nil {
		t.Fatalf("add b: %v", err)
	}

	data, err := s.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	restored := NewStore()
	if err := restored.Restore(data); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Len() != 2 {
		t.Fatalf("expected 2 lines after restore, got %d", restored.Len())
	}
	got, ok := restored.Item(a.ProductID)
	if !ok || got.Quantity != 2 || !got.UnitPrice.Equal(a.UnitPrice) {
		t.Fatalf("line a did not survive round trip: %+v", got)
	}
}

func TestRestoreNilEmptiesCart(t *testing.T) {
	s := NewStore()
	if err := s.AddItem(testItem(1, "100")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Restore(nil); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if s.Len() != 0 {
		t.Fatal("expected empty cart after nil restore")
	}
}

func TestQuoteDelegatesToPricing(t *testing.T) {
	s := NewStore()
	if err := s.AddItem(testItem(2, "100")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddItem(testItem(1, "300")); err != nil {
		t.Fatalf("add: %v", err)
	}

	q := s.Quote(testPricingConfig())
	if !q.Subtotal.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("subtotal = %s", q.Subtotal)
	}
	if !q.Shipping.IsZero() {
		t.Fatalf("expected free shipping at threshold, got %s", q.Shipping)
	}
	if !q.GrandTotal.Equal(decimal.NewFromInt(540)) {
		t.Fatalf("grand total = %s", q.GrandTotal)
	}
}

func TestSnapshotIsSafeDuringConcurrentMutations(t *testing.T) {
	s := NewStore()
	item := testItem(1, "100")
	if err := s.AddItem(item); err != nil {
		t.Fatalf("add: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			if err := s.AddItem(LineItem{ProductID: item.ProductID, Name: item.Name, UnitPrice: item.UnitPrice, Quantity: 1}); err != nil {
				t.Errorf("add: %v", err)
				return
			}
			s.UpdateQuantity(item.ProductID, i+1)
		}
	}()

	for i := 0; i < 500; i++ {
		if _, err := s.Snapshot(); err != nil {
			t.Fatalf("snapshot: %v", err)
		}
	}
	<-done
}

func TestSyncErrorLifecycle(t *testing.T) {
	s := NewStore()
	pushErr := errors.New(errors.CodeSync, "remote write failed")
	s.RecordSyncError(pushErr)
	if s.LastSyncError() == nil {
		t.Fatal("expected recorded sync error")
	}

	// A successful feed replacement clears the stale failure.
	if err := s.Restore([]byte(`{"items":[]}`)); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if s.LastSyncError() != nil {
		t.Fatal("expected sync error cleared after restore")
	}
}
