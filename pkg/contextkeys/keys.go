// Package contextkeys provides centralized context key definitions.
//
// All context keys used across the application are defined here. This
// prevents typos, documents dependencies, and makes key usage discoverable.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions.
type Key string

const (
	// IdentityKey contains *auth.Identity for the authenticated requester.
	// Set by: middleware.AccessMiddleware
	// Required by: role guards, admin handlers
	IdentityKey Key = "identity"

	// RequestIDKey contains the request ID string (UUID).
	// Set by: middleware.RequestID
	// Used by: logging
	RequestIDKey Key = "request_id"
)

// WithIdentity adds the resolved identity to the context. The identity is
// stored as an opaque value to keep this package dependency-free; callers
// use the typed accessors in pkg/middleware.
func WithIdentity(ctx context.Context, identity interface{}) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// WithRequestID adds the request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
