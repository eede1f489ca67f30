// Package docstore abstracts the managed document database that holds the
// per-user cart, wishlist and address documents. Documents are opaque JSON
// payloads; writes are full overwrites (last-write-wins) and every open
// subscription observes each committed write.
package docstore

import "context"

// CancelFunc tears down a change-feed subscription. Safe to call more than once.
type CancelFunc func()

// Store is the narrow surface the sync layer consumes. Implementations:
// Firestore for production, Memory for dev and tests.
type Store interface {
	// Get returns the document payload, or found=false when it does not exist.
	// A missing document is not an error.
	Get(ctx context.Context, collection, id string) (data []byte, found bool, err error)

	// Set overwrites the document with the given payload.
	Set(ctx context.Context, collection, id string, data []byte) error

	// Subscribe opens a change feed on one document. onChange receives the full
	// new payload on every remote write (nil when the document was deleted).
	// onError receives a terminal feed failure; the feed does not auto-retry,
	// a fresh Subscribe after recovery must succeed.
	Subscribe(ctx context.Context, collection, id string, onChange func([]byte), onError func(error)) (CancelFunc, error)
}
