// Package cart holds the per-user shopping cart state. Mutations apply
// locally first and notify the sync layer through the mutation hook; the
// remote document write happens in the background.
package cart

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aryankapoor/zapkart-backend/pkg/errors"
	"github.com/aryankapoor/zapkart-backend/pkg/pricing"
)

// LineItem is one product entry in the cart.
type LineItem struct {
	ProductID      uuid.UUID       `json:"product_id"`
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Quantity       int             `json:"quantity"`
	AvailableStock int             `json:"available_stock"`
	ImageRef       string          `json:"image_ref,omitempty"`
}

// document is the wire shape persisted to the document store.
type document struct {
	Items     []LineItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Store is a mutex-guarded cart. The mutation hook fires after every local
// mutation so the sync adapter can push the new state; restoring state from
// the remote feed never fires it.
type Store struct {
	mu       sync.Mutex
	items    []LineItem
	onMutate func()
	syncErr  error
}

// NewStore returns an empty cart.
func NewStore() *Store {
	return &Store{}
}

// OnMutate registers the hook invoked after each local mutation.
func (s *Store) OnMutate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMutate = fn
}

// AddItem adds a product to the cart. Adding a product already present merges
// into the existing line by summing quantities. Quantities below one are
// rejected before any state changes.
func (s *Store) AddItem(item LineItem) error {
	if item.Quantity < 1 {
		return errors.New(errors.CodeValidation, "quantity must be at least 1")
	}
	if item.ProductID == uuid.Nil {
		return errors.New(errors.CodeValidation, "product id is required")
	}

	s.mu.Lock()
	merged := false
	for i := range s.items {
		if s.items[i].ProductID == item.ProductID {
			s.items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		s.items = append(s.items, item)
	}
	hook := s.onMutate
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

// UpdateQuantity sets the quantity of an existing line. Any quantity below
// one removes the line; updating a product that is not in the cart is a
// no-op, not an error.
func (s *Store) UpdateQuantity(productID uuid.UUID, quantity int) {
	if quantity < 1 {
		s.RemoveItem(productID)
		return
	}

	s.mu.Lock()
	idx := -1
	for i := range s.items {
		if s.items[i].ProductID == productID {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return
	}

	s.items[idx].Quantity = quantity
	hook := s.onMutate
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// RemoveItem deletes a line from the cart. Removing a product that is not in
// the cart is a no-op and does not fire the mutation hook.
func (s *Store) RemoveItem(productID uuid.UUID) {
	s.mu.Lock()
	idx := -1
	for i := range s.items {
		if s.items[i].ProductID == productID {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	hook := s.onMutate
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// Clear empties the cart and fires the mutation hook so the cleared state is
// pushed remotely. Used after successful order placement.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	hook := s.onMutate
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// Reset empties the cart locally without pushing. Used at sign-out so the
// persisted document survives for the next sign-in.
func (s *Store) Reset() {
	s.mu.Lock()
	s.items = nil
	s.syncErr = nil
	s.mu.Unlock()
}

// Items returns a copy of the cart lines in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Item returns the line for a product, or found=false.
func (s *Store) Item(productID uuid.UUID) (LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return LineItem{}, false
}

// Len returns the number of distinct lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// TotalQuantity returns the summed quantity across all lines.
func (s *Store) TotalQuantity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, it := range s.items {
		total += it.Quantity
	}
	return total
}

// Quote prices the current cart contents.
func (s *Store) Quote(cfg pricing.Config) pricing.Quote {
	items := s.Items()
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity})
	}
	return pricing.QuoteLines(cfg, lines)
}

// Snapshot serializes the cart for persistence. The lines are copied under
// the lock: marshaling happens outside it, and a concurrent mutation must not
// write into the slice being encoded.
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.Lock()
	items := make([]LineItem, len(s.items))
	copy(items, s.items)
	s.mu.Unlock()

	return json.Marshal(document{Items: items, UpdatedAt: time.Now().UTC()})
}

// Restore replaces the cart with remote state. Nil data means the remote
// document does not exist; the cart becomes empty. Restore never fires the
// mutation hook, so feed deliveries cannot echo back as pushes.
func (s *Store) Restore(data []byte) error {
	var doc document
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return errors.Wrap(errors.CodeSync, err, "decoding cart document")
		}
	}

	s.mu.Lock()
	s.items = doc.Items
	s.syncErr = nil
	s.mu.Unlock()
	return nil
}

// RecordSyncError captures the latest push or feed failure for surfacing.
func (s *Store) RecordSyncError(err error) {
	s.mu.Lock()
	s.syncErr = err
	s.mu.Unlock()
}

// LastSyncError returns the most recent sync failure, if any.
func (s *Store) LastSyncError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncErr
}
