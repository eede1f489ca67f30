package controllers

import (
	"net/http"

	"github.com/aryankapoor/zapkart-backend/api/middleware"
	"github.com/aryankapoor/zapkart-backend/api/responses"
	"github.com/aryankapoor/zapkart-backend/internal/session"
	"github.com/aryankapoor/zapkart-backend/pkg/logger"
)

// SessionSignIn establishes the shopper's session: persisted cart and
// wishlist are loaded and their change feeds opened.
func SessionSignIn(manager *session.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())

		sess, err := manager.SignIn(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"user_id":        sess.UserID,
			"cart_items":     sess.Cart.Len(),
			"wishlist_items": sess.Wishlist.Count(),
		})
	}
}

// SessionSignOut tears down the session. Local state empties; the persisted
// documents stay put for the next sign-in.
func SessionSignOut(manager *session.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())

		if err := manager.SignOut(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "signed_out"})
	}
}
