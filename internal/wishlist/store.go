// Package wishlist holds the per-user wishlist: an ordered set of product
// ids with idempotent set operations. Mutations mirror the cart store's
// local-first model.
package wishlist

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aryankapoor/zapkart-backend/pkg/errors"
)

type document struct {
	ProductIDs []uuid.UUID `json:"product_ids"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Store is a mutex-guarded ordered set of product ids.
type Store struct {
	mu       sync.Mutex
	ids      []uuid.UUID
	onMutate func()
	syncErr  error
}

func NewStore() *Store {
	return &Store{}
}

// OnMutate registers the hook invoked after each local mutation.
func (s *Store) OnMutate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMutate = fn
}

// Add inserts a product id. Adding an id already present is a no-op and does
// not fire the mutation hook. Returns whether the set changed.
func (s *Store) Add(productID uuid.UUID) bool {
	if productID == uuid.Nil {
		return false
	}

	s.mu.Lock()
	if s.indexOf(productID) != -1 {
		s.mu.Unlock()
		return false
	}
	s.ids = append(s.ids, productID)
	hook := s.onMutate
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return true
}

// Remove deletes a product id. Removing an absent id is a no-op. Returns
// whether the set changed.
func (s *Store) Remove(productID uuid.UUID) bool {
	s.mu.Lock()
	idx := s.indexOf(productID)
	if idx == -1 {
		s.mu.Unlock()
		return false
	}
	s.ids = append(s.ids[:idx], s.ids[idx+1:]...)
	hook := s.onMutate
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return true
}

// Toggle flips membership and reports whether the product is now present.
func (s *Store) Toggle(productID uuid.UUID) bool {
	if s.Remove(productID) {
		return false
	}
	return s.Add(productID)
}

// Contains reports membership.
func (s *Store) Contains(productID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(productID) != -1
}

// Count returns the number of wishlisted products.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// ProductIDs returns a copy of the set in insertion order.
func (s *Store) ProductIDs() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uuid.UUID, len(s.ids))
	copy(out, s.ids)
	return out
}

// Clear empties the wishlist and fires the mutation hook.
func (s *Store) Clear() {
	s.mu.Lock()
	s.ids = nil
	hook := s.onMutate
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// Reset empties local state without pushing, for sign-out.
func (s *Store) Reset() {
	s.mu.Lock()
	s.ids = nil
	s.syncErr = nil
	s.mu.Unlock()
}

// Snapshot serializes the wishlist for persistence. The ids are copied under
// the lock so a concurrent mutation cannot write into the slice being encoded.
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.Lock()
	ids := make([]uuid.UUID, len(s.ids))
	copy(ids, s.ids)
	s.mu.Unlock()

	return json.Marshal(document{ProductIDs: ids, UpdatedAt: time.Now().UTC()})
}

// Restore replaces the wishlist with remote state without firing the
// mutation hook. Nil data empties the set.
func (s *Store) Restore(data []byte) error {
	var doc document
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return errors.Wrap(errors.CodeSync, err, "decoding wishlist document")
		}
	}

	s.mu.Lock()
	s.ids = doc.ProductIDs
	s.syncErr = nil
	s.mu.Unlock()
	return nil
}

// RecordSyncError captures the latest push or feed failure.
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

func (s *Store) indexOf(productID uuid.UUID) int {
	for i, id := range s.ids {
		if id == productID {
			return i
		}
	}
	return -1
}
