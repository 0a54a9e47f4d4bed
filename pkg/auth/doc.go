// Package auth provides identity resolution and role-based authorization.
//
// Identities are derived per-request from a signed session cookie and carry a
// closed Role enumeration. Any role value outside the enumeration is rejected
// at the resolver boundary, which forces re-authentication instead of letting
// an unknown role leak into authorization decisions.
package auth
