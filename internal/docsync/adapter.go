// Package docsync binds an in-memory store (cart, wishlist, address book) to
// its remote document. One adapter owns one (collection, user) pair: it loads
// persisted state at sign-in, pushes full snapshots after local mutations,
// and replaces local state wholesale when the remote change feed delivers a
// new document version.
package docsync

import (
	"context"
	"sync"
	"time"

	"github.com/aryankapoor/zapkart-backend/pkg/docstore"
	"github.com/aryankapoor/zapkart-backend/pkg/errors"
	"github.com/aryankapoor/zapkart-backend/pkg/logger"
	"github.com/aryankapoor/zapkart-backend/pkg/metrics"
)

// Syncable is the surface a store exposes to the sync layer. Restore and
// Reset must never trigger a push, or feed deliveries would echo forever.
type Syncable interface {
	Snapshot() ([]byte, error)
	Restore(data []byte) error
	Reset()
	RecordSyncError(err error)
}

// Cache is the optional warm-start snapshot cache (Redis in production).
type Cache interface {
	StoreSnapshot(ctx context.Context, collection, userID string, data []byte, ttl time.Duration) error
	GetSnapshot(ctx context.Context, collection, userID string) ([]byte, bool, error)
	DropSnapshot(ctx context.Context, collection, userID string) error
}

// Adapter synchronizes one store with one remote document.
type Adapter struct {
	store      docstore.Store
	cache      Cache
	target     Syncable
	collection string
	userID     string
	ttl        time.Duration
	logg       *logger.Logger
	syncm      *metrics.SyncMetrics

	mu       sync.Mutex
	cancel   docstore.CancelFunc
	inFlight sync.WaitGroup
}

// Options configures an adapter.
type Options struct {
	Store      docstore.Store
	Cache      Cache
	Target     Syncable
	Collection string
	UserID     string
	CacheTTL   time.Duration
	Logger     *logger.Logger
	Metrics    *metrics.SyncMetrics
}

// New builds an adapter bound to a (collection, user) document.
func New(opts Options) *Adapter {
	return &Adapter{
		store:      opts.Store,
		cache:      opts.Cache,
		target:     opts.Target,
		collection: opts.Collection,
		userID:     opts.UserID,
		ttl:        opts.CacheTTL,
		logg:       opts.Logger,
		syncm:      opts.Metrics,
	}
}

// Load hydrates the store from persistence. The cached snapshot is applied
// first as a warm start; the remote document is authoritative and overrides
// it when present. A missing remote document leaves the warm state in place.
func (a *Adapter) Load(ctx context.Context) error {
	ctx = a.logg.WithDocument(ctx, a.collection, a.userID)

	if a.cache != nil {
		if cached, found, err := a.cache.GetSnapshot(ctx, a.collection, a.userID); err != nil {
			a.logg.Warn(ctx, "snapshot cache read failed: "+err.Error())
		} else if found {
			if err := a.target.Restore(cached); err != nil {
				a.logg.Warn(ctx, "cached snapshot rejected: "+err.Error())
			}
		}
	}

	data, found, err := a.store.Get(ctx, a.collection, a.userID)
	if err != nil {
		syncErr := errors.Wrap(errors.CodeSync, err, "loading remote document")
		a.target.RecordSyncError(syncErr)
		return syncErr
	}
	if !found {
		return nil
	}

	if err := a.target.Restore(data); err != nil {
		a.target.RecordSyncError(err)
		return err
	}
	a.writeCache(ctx, data)
	return nil
}

// Push overwrites the remote document with the store's current snapshot.
// Last write wins; there is no merge.
func (a *Adapter) Push(ctx context.Context) error {
	ctx = a.logg.WithDocument(ctx, a.collection, a.userID)
	a.syncm.IncPush(a.collection)

	data, err := a.target.Snapshot()
	if err != nil {
		a.syncm.IncPushFailure(a.collection)
		syncErr := errors.Wrap(errors.CodeSync, err, "serializing document")
		a.target.RecordSyncError(syncErr)
		return syncErr
	}

	if err := a.store.Set(ctx, a.collection, a.userID, data); err != nil {
		a.syncm.IncPushFailure(a.collection)
		syncErr := errors.Wrap(errors.CodeSync, err, "pushing document")
		a.target.RecordSyncError(syncErr)
		return syncErr
	}

	a.target.RecordSyncError(nil)
	a.writeCache(ctx, data)
	return nil
}

// PushAsync runs Push in the background. Failures are recorded on the store
// and logged; the local mutation that triggered the push is already applied.
func (a *Adapter) PushAsync(ctx context.Context) {
	a.inFlight.Add(1)
	go func() {
		defer a.inFlight.Done()
		if err := a.Push(ctx); err != nil {
			a.logg.Error(a.logg.WithDocument(ctx, a.collection, a.userID), "background push failed", err)
		}
	}()
}

// Drain blocks until all background pushes started so far have completed.
// Called before local state is torn down so an in-flight push cannot write a
// post-reset snapshot.
func (a *Adapter) Drain() {
	a.inFlight.Wait()
}

// Subscribe opens the remote change feed. Every delivery replaces local
// state in full; a replace never triggers a push back. An existing
// subscription is torn down first.
//
// The feed outlives the caller's context: it stays open until Unsubscribe.
// Backends like Firestore derive the listener's lifetime from the context
// they are given, and a feed bound to the sign-in request would die the
// moment that request completes.
func (a *Adapter) Subscribe(ctx context.Context) error {
	a.Unsubscribe()

	feedCtx := context.WithoutCancel(a.logg.WithDocument(ctx, a.collection, a.userID))

	cancel, err := a.store.Subscribe(feedCtx, a.collection, a.userID,
		func(data []byte) {
			a.syncm.IncFeedReplace(a.collection)
			if data == nil {
				a.target.Reset()
				a.dropCache(feedCtx)
				return
			}
			if err := a.target.Restore(data); err != nil {
				a.target.RecordSyncError(err)
				a.logg.Error(feedCtx, "feed payload rejected", err)
				return
			}
			a.writeCache(feedCtx, data)
		},
		func(err error) {
			a.syncm.IncFeedError(a.collection)
			syncErr := errors.Wrap(errors.CodeSync, err, "change feed failed")
			a.target.RecordSyncError(syncErr)
			a.logg.Error(feedCtx, "change feed terminated", err)
			// The feed is dead; Subscribed must stop reporting it as open.
			a.Unsubscribe()
		},
	)
	if err != nil {
		syncErr := errors.Wrap(errors.CodeSync, err, "opening change feed")
		a.target.RecordSyncError(syncErr)
		return syncErr
	}

	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()
	return nil
}

// Unsubscribe tears down the change feed if one is open. Safe to call when
// no subscription exists.
func (a *Adapter) Unsubscribe() {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Subscribed reports whether a change feed is currently open.
func (a *Adapter) Subscribed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancel != nil
}

func (a *Adapter) writeCache(ctx context.Context, data []byte) {
	if a.cache == nil {
		return
	}
	if err := a.cache.StoreSnapshot(ctx, a.collection, a.userID, data, a.ttl); err != nil {
		a.logg.Warn(ctx, "snapshot cache write failed: "+err.Error())
	}
}

func (a *Adapter) dropCache(ctx context.Context) {
	if a.cache == nil {
		return
	}
	if err := a.cache.DropSnapshot(ctx, a.collection, a.userID); err != nil {
		a.logg.Warn(ctx, "snapshot cache drop failed: "+err.Error())
	}
}
