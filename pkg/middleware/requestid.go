package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/buildright/sitegate/pkg/contextkeys"
)

// RequestID assigns each request a UUID (or keeps the caller's X-Request-ID)
// and exposes it on the response and the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := contextkeys.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
