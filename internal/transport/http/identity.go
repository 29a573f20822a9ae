package http

import (
	"context"
	"crypto/subtle"
	"net/http"
)

// Identity is resolved upstream by the authentication service; this layer
// only reads the headers it forwards. X-Buyer-ID carries the buyer identity,
// X-Admin-Token the admin capability.
const (
	buyerHeader      = "X-Buyer-ID"
	adminTokenHeader = "X-Admin-Token"
)

type ctxKey int

const (
	buyerIDKey ctxKey = iota
	adminKey
)

// WithIdentity copies the forwarded buyer identity into the request context.
func WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if buyer := r.Header.Get(buyerHeader); buyer != "" {
			r = r.WithContext(context.WithValue(r.Context(), buyerIDKey, buyer))
		}
		next.ServeHTTP(w, r)
	})
}

// BuyerID returns the buyer identity from the context, if any.
func BuyerID(ctx context.Context) string {
	buyer, _ := ctx.Value(buyerIDKey).(string)
	return buyer
}

// RequireAdmin gates a handler on the admin token. An empty configured token
// disables the check, which main warns about at startup.
func RequireAdmin(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" {
			got := r.Header.Get(adminTokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeError(w, http.StatusForbidden, codeForbidden, "forbidden")
				return
			}
		}
		r = r.WithContext(context.WithValue(r.Context(), adminKey, true))
		next.ServeHTTP(w, r)
	})
}

// IsAdmin reports whether the request passed the admin gate.
func IsAdmin(ctx context.Context) bool {
	admin, _ := ctx.Value(adminKey).(bool)
	return admin
}
