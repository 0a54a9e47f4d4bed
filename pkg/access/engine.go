// Package access implements the access decision engine: a pure function from
// (route classification, identity, rate verdict) to a single decision. All
// authentication, authorization, and rate-limit outcomes are resolved here;
// by the time a page handler runs, access is already guaranteed.
package access

import (
	"net/url"
	"time"

	"github.com/buildright/sitegate/pkg/auth"
	"github.com/buildright/sitegate/pkg/ratelimit"
	"github.com/buildright/sitegate/pkg/routes"
)

// Well-known redirect targets.
const (
	LoginPath        = "/admin/auth/login"
	UnauthorizedPath = "/admin/auth/unauthorized"
	DashboardPath    = "/admin/protected/dashboard"

	// CallbackParam carries the originally requested path through the login
	// redirect so the user lands back where they started.
	CallbackParam = "callbackUrl"
)

// Outcome is the engine's verdict for one request.
type Outcome string

const (
	OutcomeAllow                = Outcome("allow")
	OutcomeRedirectLogin        = Outcome("redirect-to-login")
	OutcomeRedirectUnauthorized = Outcome("redirect-to-unauthorized")
	OutcomeRedirectDashboard    = Outcome("redirect-to-dashboard")
	OutcomeRejectRateLimited    = Outcome("reject-429")
)

// RateHeaders carries the X-RateLimit-* values attached to API responses.
type RateHeaders struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Decision is the ephemeral result computed once per request.
type Decision struct {
	Outcome        Outcome
	RedirectTarget string
	// RateHeaders is set for API classifications when a verdict exists.
	RateHeaders *RateHeaders
	// SecurityHeaders reports whether the fixed security header set applies.
	SecurityHeaders bool
}

// Decide evaluates the transition table. It is a pure function of its
// inputs: no state persists across requests. Rows are evaluated in order and
// the first match wins. requestPath is only used to build the login callback.
func Decide(class routes.Classification, identity *auth.Identity, verdict *ratelimit.Result, requestPath string) Decision {
	switch {
	// 1. Static assets skip every further check.
	case class == routes.ClassStaticAsset:
		return Decision{Outcome: OutcomeAllow}

	// 2. Rate-limited API traffic is rejected with the rate headers attached.
	case class == routes.ClassAPI && verdict != nil && !verdict.Allowed:
		return Decision{
			Outcome:         OutcomeRejectRateLimited,
			RateHeaders:     headersFrom(verdict),
			SecurityHeaders: true,
		}

	// 3. Allowed API traffic carries rate and security headers. A nil
	// verdict means the route's own limiter applies elsewhere (or limiting
	// is explicitly disabled); the request still passes with the security
	// header set.
	case class == routes.ClassAPI:
		return Decision{
			Outcome:         OutcomeAllow,
			RateHeaders:     headersFrom(verdict),
			SecurityHeaders: true,
		}

	// 4. Public pages, including the public slice of the admin tree.
	case class == routes.ClassPublic || class == routes.ClassPublicAdmin:
		return Decision{Outcome: OutcomeAllow}

	// 5. Logged-in users do not revisit login/signup.
	case class == routes.ClassAuthPage && identity != nil:
		return Decision{Outcome: OutcomeRedirectDashboard, RedirectTarget: DashboardPath}

	// 6. Anonymous users may render the auth pages.
	case class == routes.ClassAuthPage:
		return Decision{Outcome: OutcomeAllow}

	// 7. Protected pages without identity redirect to login, preserving the
	// original path as the callback.
	case class == routes.ClassProtectedAdmin && identity == nil:
		return Decision{Outcome: OutcomeRedirectLogin, RedirectTarget: loginRedirect(requestPath)}

	// 8. Protected pages with identity go through the coarse role guard.
	case class == routes.ClassProtectedAdmin:
		if _, err := auth.Authorize(identity, auth.AdminRoles); err != nil {
			return Decision{Outcome: OutcomeRedirectUnauthorized, RedirectTarget: UnauthorizedPath}
		}
		return Decision{Outcome: OutcomeAllow}

	// 9. The bare admin root forwards to the dashboard or to login.
	case class == routes.ClassAdminRoot:
		if identity != nil {
			return Decision{Outcome: OutcomeRedirectDashboard, RedirectTarget: DashboardPath}
		}
		return Decision{Outcome: OutcomeRedirectLogin, RedirectTarget: loginRedirect(requestPath)}

	// 10. Unclassified routes are public. Protecting a route means adding it
	// to the rule set, never relying on this branch.
	default:
		return Decision{Outcome: OutcomeAllow}
	}
}

func headersFrom(verdict *ratelimit.Result) *RateHeaders {
	if verdict == nil {
		return nil
	}
	return &RateHeaders{
		Limit:     verdict.Limit,
		Remaining: verdict.Remaining,
		ResetAt:   verdict.ResetAt,
	}
}

func loginRedirect(requestPath string) string {
	return LoginPath + "?" + CallbackParam + "=" + url.QueryEscape(requestPath)
}
