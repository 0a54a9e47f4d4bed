// Package httputil provides HTTP utilities for standardized request/response
// handling.
//
// # Response Helpers
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteUnauthorized(w, "authentication required")
//	httputil.WriteForbidden(w, "insufficient role")
//	httputil.WriteRateLimited(w, "RATE_LIMIT_EXCEEDED", "too many requests", result)
//
// # Request Parsing
//
//	var req LoginRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // error response already written
//	}
//
// # Related Packages
//
//   - pkg/middleware: access control and rate limiting middleware
package httputil
