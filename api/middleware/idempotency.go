package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/aryankapoor/zapkart-backend/api/responses"
	pkgerrors "github.com/aryankapoor/zapkart-backend/pkg/errors"
	"github.com/aryankapoor/zapkart-backend/pkg/logger"
	"github.com/aryankapoor/zapkart-backend/pkg/redis"
)

const idempotencyHeader = "Idempotency-Key"

// Idempotency guards non-retryable writes (checkout). The client sends an
// Idempotency-Key header; the first request claims the key, replays are
// rejected. Keys are scoped per user so two shoppers can reuse the same
// value.
func Idempotency(scope string, store redis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if key == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header is required"))
				return
			}

			userID := UserIDFromContext(r.Context())
			fullKey := store.IdempotencyKey(scope, userID+":"+key)

			claimed, err := store.SetNX(r.Context(), fullKey, time.Now().UTC().Format(time.RFC3339), ttl)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claiming idempotency key"))
				return
			}
			if !claimed {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request already processed"))
				return
			}

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			// Release the key when the request failed so the client can retry.
			if rec.status >= http.StatusInternalServerError {
				if err := store.Del(r.Context(), fullKey); err != nil && logg != nil {
					logg.Warn(r.Context(), "releasing idempotency key failed: "+err.Error())
				}
			}
		})
	}
}
