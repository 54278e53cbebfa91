package middleware

import (
	"context"
	"net/http"
)

type contextKeyType string

const userIDKey contextKeyType = "user_id"

// Identity reads the caller identity from the X-User-ID header and stores it
// in the request context. The header is set by the edge proxy after
// authentication; an empty value means an anonymous guest.
func Identity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID := r.Header.Get("X-User-ID"); userID != "" {
				ctx := context.WithValue(r.Context(), userIDKey, userID)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext extracts the caller identity from the request context.
// Returns the empty string for anonymous guests.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}
