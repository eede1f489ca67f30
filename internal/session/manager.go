// Package session binds the per-user stores to persistence. Sign-in loads
// the persisted cart and wishlist and opens their change feeds; sign-out
// tears the feeds down and empties local state without touching the remote
// documents, so the next sign-in restores what the shopper had.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/aryankapoor/zapkart-backend/internal/cart"
	"github.com/aryankapoor/zapkart-backend/internal/docsync"
	"github.com/aryankapoor/zapkart-backend/internal/wishlist"
	"github.com/aryankapoor/zapkart-backend/pkg/docstore"
	"github.com/aryankapoor/zapkart-backend/pkg/errors"
	"github.com/aryankapoor/zapkart-backend/pkg/logger"
	"github.com/aryankapoor/zapkart-backend/pkg/metrics"
)

// Session holds one signed-in shopper's live state.
type Session struct {
	UserID   string
	Cart     *cart.Store
	Wishlist *wishlist.Store

	cartSync *docsync.Adapter
	wishSync *docsync.Adapter
}

// CartSync exposes the cart's sync adapter for explicit pushes (checkout).
func (s *Session) CartSync() *docsync.Adapter {
	return s.cartSync
}

// WishlistSync exposes the wishlist's sync adapter.
func (s *Session) WishlistSync() *docsync.Adapter {
	return s.wishSync
}

// Collections names the documents a session binds to.
type Collections struct {
	Cart     string
	Wishlist string
}

// Options configures the manager.
type Options struct {
	Store       docstore.Store
	Cache       docsync.Cache
	Collections Collections
	CacheTTL    time.Duration
	Logger      *logger.Logger
	Metrics     *metrics.SyncMetrics
}

// Manager owns the active sessions, keyed by user id. Each user's state is
// fully isolated; nothing survives sign-out locally.
type Manager struct {
	store       docstore.Store
	cache       docsync.Cache
	collections Collections
	cacheTTL    time.Duration
	logg        *logger.Logger
	syncm       *metrics.SyncMetrics

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(opts Options) *Manager {
	return &Manager{
		store:       opts.Store,
		cache:       opts.Cache,
		collections: opts.Collections,
		cacheTTL:    opts.CacheTTL,
		logg:        opts.Logger,
		syncm:       opts.Metrics,
		sessions:    map[string]*Session{},
	}
}

// SignIn establishes a session: fresh empty stores are bound to the user's
// documents, hydrated from persistence, and subscribed to the change feeds.
// Signing in a user who already has a session returns the existing one.
func (m *Manager) SignIn(ctx context.Context, userID string) (*Session, error) {
	if userID == "" {
		return nil, errors.New(errors.CodeValidation, "user id is required")
	}

	m.mu.Lock()
	if existing, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.mu.Unlock()

	sess := m.buildSession(userID)

	ctx = m.logg.WithUserID(ctx, userID)
	if err := sess.cartSync.Load(ctx); err != nil {
		return nil, err
	}
	if err := sess.wishSync.Load(ctx); err != nil {
		return nil, err
	}
	if err := sess.cartSync.Subscribe(ctx); err != nil {
		return nil, err
	}
	if err := sess.wishSync.Subscribe(ctx); err != nil {
		sess.cartSync.Unsubscribe()
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[userID]; ok {
		// Lost the race to a concurrent sign-in; discard ours.
		sess.cartSync.Unsubscribe()
		sess.wishSync.Unsubscribe()
		return existing, nil
	}
	m.sessions[userID] = sess
	m.logg.Info(ctx, "session established")
	return sess, nil
}

// Resolve returns the user's session, signing in lazily when none exists.
func (m *Manager) Resolve(ctx context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	if sess, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		return sess, nil
	}
	m.mu.Unlock()
	return m.SignIn(ctx, userID)
}

// SignOut tears down the user's session: change feeds are canceled and local
// state is emptied. The remote documents are left untouched so a later
// sign-in restores them. Signing out a user without a session is a no-op.
func (m *Manager) SignOut(ctx context.Context, userID string) error {
	m.mu.Lock()
	sess, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if !ok {
		return nil
	}

	sess.cartSync.Unsubscribe()
	sess.wishSync.Unsubscribe()
	sess.cartSync.Drain()
	sess.wishSync.Drain()
	sess.Cart.Reset()
	sess.Wishlist.Reset()

	m.logg.Info(m.logg.WithUserID(ctx, userID), "session closed")
	return nil
}

// Close signs out every active session, aggregating failures.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	userIDs := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		userIDs = append(userIDs, id)
	}
	m.mu.Unlock()

	var errs error
	for _, id := range userIDs {
		errs = multierr.Append(errs, m.SignOut(ctx, id))
	}
	return errs
}

// ActiveSessions reports the number of signed-in users.
func (m *Manager) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) buildSession(userID string) *Session {
	cartStore := cart.NewStore()
	wishStore := wishlist.NewStore()

	cartSync := docsync.New(docsync.Options{
		Store:      m.store,
		Cache:      m.cache,
		Target:     cartStore,
		Collection: m.collections.Cart,
		UserID:     userID,
		CacheTTL:   m.cacheTTL,
		Logger:     m.logg,
		Metrics:    m.syncm,
	})
	wishSync := docsync.New(docsync.Options{
		Store:      m.store,
		Cache:      m.cache,
		Target:     wishStore,
		Collection: m.collections.Wishlist,
		UserID:     userID,
		CacheTTL:   m.cacheTTL,
		Logger:     m.logg,
		Metrics:    m.syncm,
	})

	// Local mutations push in the background; the UI never waits on the write.
	cartStore.OnMutate(func() { cartSync.PushAsync(context.Background()) })
	wishStore.OnMutate(func() { wishSync.PushAsync(context.Background()) })

	return &Session{
		UserID:   userID,
		Cart:     cartStore,
		Wishlist: wishStore,
		cartSync: cartSync,
		wishSync: wishSync,
	}
}
