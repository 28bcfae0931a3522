package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/dejobratic/bookstore/internal/auth/app"
)

type contextKey string

const customerIDKey contextKey = "customer_id"

// CustomerIDFromContext returns the authenticated customer ID, if any.
func CustomerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(customerIDKey).(string)
	return id, ok
}

// RequireAuth rejects requests without a valid bearer token and stores the
// customer ID in the request context for downstream handlers.
func RequireAuth(service *app.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			customerID, err := service.VerifyToken(strings.TrimSpace(token))
			if err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), customerIDKey, customerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
