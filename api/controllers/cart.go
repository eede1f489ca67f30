package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aryankapoor/zapkart-backend/api/middleware"
	"github.com/aryankapoor/zapkart-backend/api/responses"
	"github.com/aryankapoor/zapkart-backend/api/validators"
	"github.com/aryankapoor/zapkart-backend/internal/cart"
	"github.com/aryankapoor/zapkart-backend/internal/products"
	"github.com/aryankapoor/zapkart-backend/internal/session"
	pkgerrors "github.com/aryankapoor/zapkart-backend/pkg/errors"
	"github.com/aryankapoor/zapkart-backend/pkg/logger"
	"github.com/aryankapoor/zapkart-backend/pkg/pricing"
)

type addCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type cartResponse struct {
	Items     []cart.LineItem `json:"items"`
	Quote     pricing.Quote   `json:"quote"`
	SyncError string          `json:"sync_error,omitempty"`
}

func buildCartResponse(sess *session.Session, pricingCfg pricing.Config) cartResponse {
	resp := cartResponse{
		Items: sess.Cart.Items(),
		Quote: sess.Cart.Quote(pricingCfg),
	}
	if err := sess.Cart.LastSyncError(); err != nil {
		resp.SyncError = err.Error()
	}
	return resp
}

// CartGet returns the cart contents with a live pricing quote.
func CartGet(manager *session.Manager, pricingCfg pricing.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := manager.Resolve(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, buildCartResponse(sess, pricingCfg))
	}
}

// CartAddItem adds a catalog product to the cart. The listing supplies name,
// price and available stock; adding a product already in the cart merges
// quantities.
func CartAddItem(manager *session.Manager, catalog *products.Service, pricingCfg pricing.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addCartItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess, err := manager.Resolve(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := catalog.Get(r.Context(), req.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !listing.IsActive {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}

		item := cart.LineItem{
			ProductID:      listing.ID,
			Name:           listing.Title,
			UnitPrice:      listing.UnitPrice,
			Quantity:       req.Quantity,
			AvailableStock: listing.Stock,
			ImageRef:       listing.ImageRef,
		}
		if err := sess.Cart.AddItem(item); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, buildCartResponse(sess, pricingCfg))
	}
}

// CartUpdateItem sets the quantity of a cart line. Any quantity below one
// removes it; updating a product not in the cart succeeds without effect.
func CartUpdateItem(manager *session.Manager, pricingCfg pricing.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		var req updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess, err := manager.Resolve(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess.Cart.UpdateQuantity(productID, req.Quantity)
		responses.WriteSuccess(w, buildCartResponse(sess, pricingCfg))
	}
}

// CartRemoveItem deletes a cart line. Removing an absent product succeeds.
func CartRemoveItem(manager *session.Manager, pricingCfg pricing.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		sess, err := manager.Resolve(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess.Cart.RemoveItem(productID)
		responses.WriteSuccess(w, buildCartResponse(sess, pricingCfg))
	}
}

// CartClear empties the cart.
func CartClear(manager *session.Manager, pricingCfg pricing.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := manager.Resolve(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess.Cart.Clear()
		responses.WriteSuccess(w, buildCartResponse(sess, pricingCfg))
	}
}
