// Package ratelimit implements sliding-window rate limiting.
//
// Each scope (global API traffic, login by email, login by IP, signup by IP)
// gets its own limiter instance with an independent capacity and window,
// constructed once at startup from configuration. The algorithm is a sliding
// window log: every call records a timestamped hit, the count is the number
// of hits inside [now - window, now], and a call succeeds while the count is
// within capacity. Denied calls still record their hit so repeated abuse
// keeps tightening the window instead of resetting it.
package ratelimit

import (
	"context"
	"time"
)

// Scope is a named rate-limit bucket category.
type Scope string

const (
	ScopeGlobalAPI  Scope = "global-api"
	ScopeLoginEmail Scope = "login-email"
	ScopeLoginIP    Scope = "login-ip"
	ScopeSignupIP   Scope = "signup-ip"
)

// Config defines one scope's capacity and window.
type Config struct {
	// Capacity is the max hits allowed inside the window.
	Capacity int
	// Window is the sliding window length.
	Window time.Duration
}

// Per-scope defaults.
func GlobalAPIConfig() Config {
	return Config{Capacity: 5, Window: time.Minute}
}

func LoginEmailConfig() Config {
	return Config{Capacity: 5, Window: 24 * time.Hour}
}

func LoginIPConfig() Config {
	return Config{Capacity: 10, Window: time.Hour}
}

func SignupIPConfig() Config {
	return Config{Capacity: 5, Window: 24 * time.Hour}
}

// Result is the verdict of one limiter call.
type Result struct {
	// Allowed reports whether the call was within capacity.
	Allowed bool
	// Limit is the scope's capacity.
	Limit int
	// Remaining is the number of calls left in the current window.
	Remaining int
	// ResetAt is when the oldest hit in the window expires, i.e. the
	// earliest moment a denied caller could succeed again.
	ResetAt time.Time
}

// RetryAfter returns the wait until ResetAt, floored at one second so a 429
// response never advertises an immediate retry.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetAt.Sub(now)
	if d < time.Second {
		return time.Second
	}
	return d
}

// Limiter checks and records one hit for an identifier. Implementations must
// make the record-and-count step atomic per identifier so two concurrent
// calls cannot both observe a count below capacity when only one should pass.
type Limiter interface {
	Limit(ctx context.Context, identifier string) (Result, error)
	Scope() Scope
}
