package docsync

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aryankapoor/zapkart-backend/internal/cart"
	"github.com/aryankapoor/zapkart-backend/internal/wishlist"
	"github.com/aryankapoor/zapkart-backend/pkg/docstore"
	"github.com/aryankapoor/zapkart-backend/pkg/errors"
	"github.com/aryankapoor/zapkart-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func testAdapter(store docstore.Store, target Syncable, userID string) *Adapter {
	return New(Options{
		Store:      store,
		Target:     target,
		Collection: "carts",
		UserID:     userID,
		Logger:     testLogger(),
	})
}

func testCartLine() cart.LineItem {
	return cart.LineItem{
		ProductID:      uuid.New(),
		Name:           "Trail Backpack",
		UnitPrice:      decimal.NewFromInt(1200),
		Quantity:       1,
		AvailableStock: 10,
	}
}

func TestPushThenLoadRoundTrip(t *testing.T) {
	store := docstore.NewMemory()
	ctx := t.Context()

	source := cart.NewStore()
	line := testCartLine()
	if err := source.AddItem(line); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := testAdapter(store, source, "user-1").Push(ctx); err != nil {
		t.Fatalf("push: %v", err)
	}

	target := cart.NewStore()
	if err := testAdapter(store, target, "user-1").Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	got, ok := target.Item(line.ProductID)
	if !ok || got.Quantity != 1 || !got.UnitPrice.Equal(line.UnitPrice) {
		t.Fatalf("state did not round trip: %+v", got)
	}
}

func TestLoadMissingDocumentLeavesStoreEmpty(t *testing.T) {
	store := docstore.NewMemory()
	target := cart.NewStore()

	if err := testAdapter(store, target, "user-1").Load(t.Context()); err != nil {
		t.Fatalf("load of absent document must not fail: %v", err)
	}
	if target.Len() != 0 {
		t.Fatalf("expected empty cart, got %d lines", target.Len())
	}
}

func TestLastWriteWins(t *testing.T) {
	store := docstore.NewMemory()
	ctx := t.Context()

	first := cart.NewStore()
	if err := first.AddItem(testCartLine()); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := testAdapter(store, first, "user-1").Push(ctx); err != nil {
		t.Fatalf("first push: %v", err)
	}

	// A later push from another session fully overwrites the document.
	second := cart.NewStore()
	otherLine := testCartLine()
	if err := second.AddItem(otherLine); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := testAdapter(store, second, "user-1").Push(ctx); err != nil {
		t.Fatalf("second push: %v", err)
	}

	loaded := cart.NewStore()
	if err := testAdapter(store, loaded, "user-1").Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Len() != 1 {
		t.Fatalf("expected single line after overwrite, got %d", loaded.Len())
	}
	if _, ok := loaded.Item(otherLine.ProductID); !ok {
		t.Fatal("expected the later write to win")
	}
}

func TestSubscribeReplacesStateWithoutEcho(t *testing.T) {
	store := docstore.NewMemory()
	ctx := t.Context()

	local := wishlist.NewStore()
	pushes := 0
	local.OnMutate(func() { pushes++ })

	adapter := New(Options{
		Store:      store,
		Target:     local,
		Collection: "wishlists",
		UserID:     "user-1",
		Logger:     testLogger(),
	})
	if err := adapter.Subscribe(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer adapter.Unsubscribe()

	// Simulate another session writing the document.
	remote := wishlist.NewStore()
	remoteID := uuid.New()
	remote.Add(remoteID)
	data, err := remote.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if err := store.Set(ctx, "wishlists", "user-1", data); err != nil {
		t.Fatalf("set: %v", err)
	}

	if !local.Contains(remoteID) {
		t.Fatal("feed delivery did not replace local state")
	}
	if pushes != 0 {
		t.Fatalf("feed replacement fired %d mutation hooks", pushes)
	}
}

func TestResubscribeTearsDownPreviousFeed(t *testing.T) {
	store := docstore.NewMemory()
	adapter := testAdapter(store, cart.NewStore(), "user-1")

	if err := adapter.Subscribe(t.Context()); err != nil {
		t.Fatalf("first subscribe: %v", err)
	}
	if err := adapter.Subscribe(t.Context()); err != nil {
		t.Fatalf("second subscribe: %v", err)
	}
	defer adapter.Unsubscribe()

	if got := store.SubscriberCount("carts", "user-1"); got != 1 {
		t.Fatalf("expected 1 open feed after resubscribe, got %d", got)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	store := docstore.NewMemory()
	ctx := t.Context()
	local := cart.NewStore()
	adapter := testAdapter(store, local, "user-1")

	if err := adapter.Subscribe(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	adapter.Unsubscribe()
	if adapter.Subscribed() {
		t.Fatal("expected no open subscription")
	}

	remote := cart.NewStore()
	if err := remote.AddItem(testCartLine()); err != nil {
		t.Fatalf("add: %v", err)
	}
	data, err := remote.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if err := store.Set(ctx, "carts", "user-1", data); err != nil {
		t.Fatalf("set: %v", err)
	}

	if local.Len() != 0 {
		t.Fatal("canceled feed still delivered state")
	}
}

// ctxBoundStore mirrors backends whose snapshot listeners derive their
// lifetime from the subscribe context: a delivery is dropped once that
// context is canceled.
type ctxBoundStore struct {
	*docstore.Memory
}

func (s ctxBoundStore) Subscribe(ctx context.Context, collection, id string, onChange func([]byte), onError func(error)) (docstore.CancelFunc, error) {
	return s.Memory.Subscribe(ctx, collection, id, func(data []byte) {
		if ctx.Err() != nil {
			return
		}
		onChange(data)
	}, onError)
}

func TestFeedOutlivesSubscribeContext(t *testing.T) {
	store := ctxBoundStore{docstore.NewMemory()}
	local := cart.NewStore()
	adapter := testAdapter(store, local, "user-1")

	signInCtx, cancel := context.WithCancel(t.Context())
	if err := adapter.Subscribe(signInCtx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer adapter.Unsubscribe()

	// The sign-in request completes; the feed must stay alive.
	cancel()

	remote := cart.NewStore()
	line := testCartLine()
	if err := remote.AddItem(line); err != nil {
		t.Fatalf("add: %v", err)
	}
	data, err := remote.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if err := store.Set(t.Context(), "carts", "user-1", data); err != nil {
		t.Fatalf("set: %v", err)
	}

	if _, ok := local.Item(line.ProductID); !ok {
		t.Fatal("feed died with the subscribe context; remote update not delivered")
	}
	if !adapter.Subscribed() {
		t.Fatal("expected subscription still open")
	}
}

// feedHandleStore hands the test direct access to the feed's error callback.
type feedHandleStore struct {
	*docstore.Memory
	onError func(error)
}

func (s *feedHandleStore) Subscribe(ctx context.Context, collection, id string, onChange func([]byte), onError func(error)) (docstore.CancelFunc, error) {
	s.onError = onError
	return s.Memory.Subscribe(ctx, collection, id, onChange, onError)
}

func TestTerminalFeedErrorClearsSubscription(t *testing.T) {
	store := &feedHandleStore{Memory: docstore.NewMemory()}
	local := cart.NewStore()
	adapter := testAdapter(store, local, "user-1")

	if err := adapter.Subscribe(t.Context()); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if !adapter.Subscribed() {
		t.Fatal("expected open subscription")
	}

	store.onError(fmt.Errorf("stream broken"))

	if adapter.Subscribed() {
		t.Fatal("dead feed still reported as subscribed")
	}
	if typed := errors.As(local.LastSyncError()); typed == nil || typed.Code() != errors.CodeSync {
		t.Fatalf("expected sync error recorded, got %v", local.LastSyncError())
	}
}

type failingStore struct{}

func (failingStore) Get(context.Context, string, string) ([]byte, bool, error) {
	return nil, false, fmt.Errorf("backend offline")
}

func (failingStore) Set(context.Context, string, string, []byte) error {
	return fmt.Errorf("backend offline")
}

func (failingStore) Subscribe(context.Context, string, string, func([]byte), func(error)) (docstore.CancelFunc, error) {
	return nil, fmt.Errorf("backend offline")
}

func TestPushFailureKeepsLocalStateAndRecordsError(t *testing.T) {
	local := cart.NewStore()
	line := testCartLine()
	if err := local.AddItem(line); err != nil {
		t.Fatalf("add: %v", err)
	}

	adapter := testAdapter(failingStore{}, local, "user-1")
	err := adapter.Push(t.Context())
	if err == nil {
		t.Fatal("expected push failure")
	}
	if typed := errors.As(err); typed == nil || typed.Code() != errors.CodeSync {
		t.Fatalf("expected sync error, got %v", err)
	}

	// Optimistic mutation survives the failed push.
	if _, ok := local.Item(line.ProductID); !ok {
		t.Fatal("local state lost after push failure")
	}
	if local.LastSyncError() == nil {
		t.Fatal("expected sync error recorded on store")
	}
}

type memoryCache struct {
	snapshots map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{snapshots: map[string][]byte{}}
}

func (c *memoryCache) key(collection, userID string) string { return collection + ":" + userID }

func (c *memoryCache) StoreSnapshot(_ context.Context, collection, userID string, data []byte, _ time.Duration) error {
	c.snapshots[c.key(collection, userID)] = data
	return nil
}

func (c *memoryCache) GetSnapshot(_ context.Context, collection, userID string) ([]byte, bool, error) {
	data, ok := c.snapshots[c.key(collection, userID)]
	return data, ok, nil
}

func (c *memoryCache) DropSnapshot(_ context.Context, collection, userID string) error {
	delete(c.snapshots, c.key(collection, userID))
	return nil
}

func TestLoadWarmStartsFromCacheWhenRemoteAbsent(t *testing.T) {
	cache := newMemoryCache()
	cached := cart.NewStore()
	line := testCartLine()
	if err := cached.AddItem(line); err != nil {
		t.Fatalf("add: %v", err)
	}
	data, err := cached.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if err := cache.StoreSnapshot(t.Context(), "carts", "user-1", data, 0); err != nil {
		t.Fatalf("cache store: %v", err)
	}

	local := cart.NewStore()
	adapter := New(Options{
		Store:      docstore.NewMemory(),
		Cache:      cache,
		Target:     local,
		Collection: "carts",
		UserID:     "user-1",
		Logger:     testLogger(),
	})
	if err := adapter.Load(t.Context()); err != nil {
		t.Fatalf("load: %v", err)
	}

	if _, ok := local.Item(line.ProductID); !ok {
		t.Fatal("expected warm start from cached snapshot")
	}
}

func TestPushWritesThroughToCache(t *testing.T) {
	cache := newMemoryCache()
	local := cart.NewStore()
	if err := local.AddItem(testCartLine()); err != nil {
		t.Fatalf("add: %v", err)
	}

	adapter := New(Options{
		Store:      docstore.NewMemory(),
		Cache:      cache,
		Target:     local,
		Collection: "carts",
		UserID:     "user-1",
		Logger:     testLogger(),
	})
	if err := adapter.Push(t.Context()); err != nil {
		t.Fatalf("push: %v", err)
	}

	if _, found, _ := cache.GetSnapshot(t.Context(), "carts", "user-1"); !found {
		t.Fatal("expected snapshot cached after push")
	}
}
