package session

import (
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aryankapoor/zapkart-backend/internal/cart"
	"github.com/aryankapoor/zapkart-backend/pkg/docstore"
	"github.com/aryankapoor/zapkart-backend/pkg/logger"
)

func testManager(store docstore.Store) *Manager {
	return NewManager(Options{
		Store:       store,
		Collections: Collections{Cart: "carts", Wishlist: "wishlists"},
		Logger:      logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
}

func testCartLine() cart.LineItem {
	return cart.LineItem{
		ProductID:      uuid.New(),
		Name:           "Ceramic Mug",
		UnitPrice:      decimal.NewFromInt(250),
		Quantity:       2,
		AvailableStock: 30,
	}
}

func TestSignOutThenSignInRestoresState(t *testing.T) {
	store := docstore.NewMemory()
	m := testManager(store)
	ctx := t.Context()

	sess, err := m.SignIn(ctx, "user-1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	line := testCartLine()
	if err := sess.Cart.AddItem(line); err != nil {
		t.Fatalf("add: %v", err)
	}
	wishID := uuid.New()
	sess.Wishlist.Add(wishID)
	sess.CartSync().Drain()
	sess.WishlistSync().Drain()

	if err := m.SignOut(ctx, "user-1"); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if sess.Cart.Len() != 0 || sess.Wishlist.Count() != 0 {
		t.Fatal("local state must be empty after sign out")
	}

	restored, err := m.SignIn(ctx, "user-1")
	if err != nil {
		t.Fatalf("second sign in: %v", err)
	}
	got, ok := restored.Cart.Item(line.ProductID)
	if !ok || got.Quantity != 2 {
		t.Fatalf("cart did not survive the session boundary: %+v", got)
	}
	if !restored.Wishlist.Contains(wishID) {
		t.Fatal("wishlist did not survive the session boundary")
	}
}

func TestNoCrossUserLeakage(t *testing.T) {
	store := docstore.NewMemory()
	m := testManager(store)
	ctx := t.Context()

	first, err := m.SignIn(ctx, "user-1")
	if err != nil {
		t.Fatalf("sign in user-1: %v", err)
	}
	line := testCartLine()
	if err := first.Cart.AddItem(line); err != nil {
		t.Fatalf("add: %v", err)
	}
	first.CartSync().Drain()
	if err := m.SignOut(ctx, "user-1"); err != nil {
		t.Fatalf("sign out: %v", err)
	}

	second, err := m.SignIn(ctx, "user-2")
	if err != nil {
		t.Fatalf("sign in user-2: %v", err)
	}
	if second.Cart.Len() != 0 {
		t.Fatalf("user-2 sees user-1 items: %d lines", second.Cart.Len())
	}
	if second.Wishlist.Count() != 0 {
		t.Fatal("user-2 sees user-1 wishlist")
	}
}

func TestSignInIsIdempotentPerUser(t *testing.T) {
	m := testManager(docstore.NewMemory())
	ctx := t.Context()

	a, err := m.SignIn(ctx, "user-1")
	if err != nil {
		t.Fatalf("first sign in: %v", err)
	}
	b, err := m.SignIn(ctx, "user-1")
	if err != nil {
		t.Fatalf("second sign in: %v", err)
	}
	if a != b {
		t.Fatal("expected the same session for repeated sign in")
	}
	if m.ActiveSessions() != 1 {
		t.Fatalf("expected 1 active session, got %d", m.ActiveSessions())
	}
}

func TestSignOutWithoutSessionIsNoOp(t *testing.T) {
	m := testManager(docstore.NewMemory())
	if err := m.SignOut(t.Context(), "nobody"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSignOutClosesChangeFeeds(t *testing.T) {
	store := docstore.NewMemory()
	m := testManager(store)
	ctx := t.Context()

	if _, err := m.SignIn(ctx, "user-1"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if got := store.SubscriberCount("carts", "user-1"); got != 1 {
		t.Fatalf("expected 1 cart feed, got %d", got)
	}

	if err := m.SignOut(ctx, "user-1"); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if got := store.SubscriberCount("carts", "user-1"); got != 0 {
		t.Fatalf("cart feed still open after sign out: %d", got)
	}
	if got := store.SubscriberCount("wishlists", "user-1"); got != 0 {
		t.Fatalf("wishlist feed still open after sign out: %d", got)
	}
}

func TestMutationsPushInBackground(t *testing.T) {
	store := docstore.NewMemory()
	m := testManager(store)
	ctx := t.Context()

	sess, err := m.SignIn(ctx, "user-1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if err := sess.Cart.AddItem(testCartLine()); err != nil {
		t.Fatalf("add: %v", err)
	}
	sess.CartSync().Drain()

	if _, found, err := store.Get(ctx, "carts", "user-1"); err != nil || !found {
		t.Fatalf("expected cart document persisted, found=%v err=%v", found, err)
	}
}

func TestRemoteWriteReplacesOtherSessionState(t *testing.T) {
	store := docstore.NewMemory()
	m := testManager(store)
	ctx := t.Context()

	sess, err := m.SignIn(ctx, "user-1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	// Another device pushes a cart document for the same user.
	other := cart.NewStore()
	line := testCartLine()
	if err := other.AddItem(line); err != nil {
		t.Fatalf("add: %v", err)
	}
	data, err := other.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if err := store.Set(ctx, "carts", "user-1", data); err != nil {
		t.Fatalf("set: %v", err)
	}

	if _, ok := sess.Cart.Item(line.ProductID); !ok {
		t.Fatal("open session did not observe the remote write")
	}
}

func TestCloseSignsOutEverySession(t *testing.T) {
	m := testManager(docstore.NewMemory())
	ctx := t.Context()

	for _, id := range []string{"user-1", "user-2", "user-3"} {
		if _, err := m.SignIn(ctx, id); err != nil {
			t.Fatalf("sign in %s: %v", id, err)
		}
	}
	if err := m.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if m.ActiveSessions() != 0 {
		t.Fatalf("expected no active sessions, got %d", m.ActiveSessions())
	}
}
