// Package middleware provides the HTTP access-control layer: route
// classification, session resolution, rate limiting, and role guards.
//
// # Request flow
//
// Every inbound request passes through AccessMiddleware, which classifies
// the path, resolves the session identity, applies the global API limiter,
// and acts on the access engine's decision (allow, redirect, or 429).
// Protected resources additionally use RequireRoles / RequirePageRoles for
// their per-resource allowed-role sets.
//
//	handler := middleware.Chain(
//		middleware.RequestID,
//		accessMiddleware.Handler,
//	)(router)
//
// # Related Packages
//
//   - pkg/access: the pure decision engine
//   - pkg/routes: path classification rules
//   - pkg/ratelimit: per-scope limiters
package middleware
