package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aryankapoor/zapkart-backend/api/middleware"
	"github.com/aryankapoor/zapkart-backend/api/responses"
	"github.com/aryankapoor/zapkart-backend/internal/products"
	"github.com/aryankapoor/zapkart-backend/internal/session"
	pkgerrors "github.com/aryankapoor/zapkart-backend/pkg/errors"
	"github.com/aryankapoor/zapkart-backend/pkg/logger"
)

type wishlistEntry struct {
	ProductID uuid.UUID         `json:"product_id"`
	Product   *products.Product `json:"product,omitempty"`
}

type wishlistResponse struct {
	Entries []wishlistEntry `json:"entries"`
	Count   int             `json:"count"`
}

// WishlistGet returns the wishlist, hydrated with catalog listings where
// they still exist.
func WishlistGet(manager *session.Manager, catalog *products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := manager.Resolve(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ids := sess.Wishlist.ProductIDs()
		listings, err := catalog.GetMany(r.Context(), ids)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := wishlistResponse{Entries: make([]wishlistEntry, 0, len(ids)), Count: len(ids)}
		for _, id := range ids {
			entry := wishlistEntry{ProductID: id}
			if listing, ok := listings[id]; ok {
				entry.Product = &listing
			}
			resp.Entries = append(resp.Entries, entry)
		}
		responses.WriteSuccess(w, resp)
	}
}

func wishlistProductID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id")
	}
	return id, nil
}

// WishlistAdd inserts a product; adding one already present is a no-op.
func WishlistAdd(manager *session.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := wishlistProductID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess, err := manager.Resolve(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		added := sess.Wishlist.Add(productID)
		responses.WriteSuccess(w, map[string]any{"added": added, "count": sess.Wishlist.Count()})
	}
}

// WishlistRemove deletes a product; removing an absent one is a no-op.
func WishlistRemove(manager *session.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := wishlistProductID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess, err := manager.Resolve(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		removed := sess.Wishlist.Remove(productID)
		responses.WriteSuccess(w, map[string]any{"removed": removed, "count": sess.Wishlist.Count()})
	}
}

// WishlistToggle flips membership and reports the new state.
func WishlistToggle(manager *session.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := wishlistProductID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess, err := manager.Resolve(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		present := sess.Wishlist.Toggle(productID)
		responses.WriteSuccess(w, map[string]any{"in_wishlist": present, "count": sess.Wishlist.Count()})
	}
}
