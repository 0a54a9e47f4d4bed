package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/buildright/sitegate/pkg/auth"
	"github.com/buildright/sitegate/pkg/ratelimit"
	"github.com/buildright/sitegate/pkg/routes"
)

func adminIdentity(role auth.Role) *auth.Identity {
	return &auth.Identity{ID: "u-1", Email: "admin@example.com", Role: role}
}

func TestDecide_StaticAssetAlwaysAllowed(t *testing.T) {
	denied := &ratelimit.Result{Allowed: false, Limit: 5}

	// Regardless of identity and rate state.
	for _, identity := range []*auth.Identity{nil, adminIdentity(auth.RoleSuperAdmin), adminIdentity(auth.Role("root"))} {
		for _, verdict := range []*ratelimit.Result{nil, denied} {
			d := Decide(routes.ClassStaticAsset, identity, verdict, "/static/site.css")
			assert.Equal(t, OutcomeAllow, d.Outcome)
			assert.Nil(t, d.RateHeaders)
			assert.False(t, d.SecurityHeaders)
		}
	}
}

func TestDecide_APIRateLimited(t *testing.T) {
	resetAt := time.Now().Add(time.Minute)
	verdict := &ratelimit.Result{Allowed: false, Limit: 5, Remaining: 0, ResetAt: resetAt}

	d := Decide(routes.ClassAPI, nil, verdict, "/api/contact")
	assert.Equal(t, OutcomeRejectRateLimited, d.Outcome)
	assert.True(t, d.SecurityHeaders)
	if assert.NotNil(t, d.RateHeaders) {
		assert.Equal(t, 5, d.RateHeaders.Limit)
		assert.Equal(t, 0, d.RateHeaders.Remaining)
		assert.Equal(t, resetAt, d.RateHeaders.ResetAt)
	}
}

func TestDecide_APIAllowed(t *testing.T) {
	verdict := &ratelimit.Result{Allowed: true, Limit: 5, Remaining: 3, ResetAt: time.Now()}

	d := Decide(routes.ClassAPI, nil, verdict, "/api/contact")
	assert.Equal(t, OutcomeAllow, d.Outcome)
	assert.True(t, d.SecurityHeaders)
	if assert.NotNil(t, d.RateHeaders) {
		assert.Equal(t, 3, d.RateHeaders.Remaining)
	}
}

func TestDecide_APIWithoutVerdict(t *testing.T) {
	// The route's own limiter applies elsewhere; security headers still do.
	d := Decide(routes.ClassAPI, nil, nil, "/api/auth/login")
	assert.Equal(t, OutcomeAllow, d.Outcome)
	assert.True(t, d.SecurityHeaders)
	assert.Nil(t, d.RateHeaders)
}

func TestDecide_PublicPages(t *testing.T) {
	assert.Equal(t, OutcomeAllow, Decide(routes.ClassPublic, nil, nil, "/services").Outcome)
	assert.Equal(t, OutcomeAllow, Decide(routes.ClassPublicAdmin, nil, nil, "/admin/auth/unauthorized").Outcome)
	// Identity does not change the outcome for public routes.
	assert.Equal(t, OutcomeAllow, Decide(routes.ClassPublic, adminIdentity(auth.RoleAdmin), nil, "/services").Outcome)
}

func TestDecide_AuthPage(t *testing.T) {
	// Logged-in users are bounced to the dashboard.
	d := Decide(routes.ClassAuthPage, adminIdentity(auth.RoleSupport), nil, "/admin/auth/login")
	assert.Equal(t, OutcomeRedirectDashboard, d.Outcome)
	assert.Equal(t, DashboardPath, d.RedirectTarget)

	// Anonymous users render the page.
	d = Decide(routes.ClassAuthPage, nil, nil, "/admin/auth/login")
	assert.Equal(t, OutcomeAllow, d.Outcome)
}

func TestDecide_ProtectedAdmin_NoIdentity(t *testing.T) {
	d := Decide(routes.ClassProtectedAdmin, nil, nil, "/admin/protected/users")
	assert.Equal(t, OutcomeRedirectLogin, d.Outcome)
	assert.Equal(t, "/admin/auth/login?callbackUrl=%2Fadmin%2Fprotected%2Fusers", d.RedirectTarget)
}

func TestDecide_ProtectedAdmin_WithIdentity(t *testing.T) {
	for _, role := range []auth.Role{auth.RoleSuperAdmin, auth.RoleAdmin, auth.RoleSupport} {
		d := Decide(routes.ClassProtectedAdmin, adminIdentity(role), nil, "/admin/protected/dashboard")
		assert.Equal(t, OutcomeAllow, d.Outcome, "role %s", role)
	}
}

func TestDecide_ProtectedAdmin_InvalidRole(t *testing.T) {
	d := Decide(routes.ClassProtectedAdmin, adminIdentity(auth.Role("root")), nil, "/admin/protected/dashboard")
	assert.Equal(t, OutcomeRedirectUnauthorized, d.Outcome)
	assert.Equal(t, UnauthorizedPath, d.RedirectTarget)
}

func TestDecide_AdminRoot(t *testing.T) {
	d := Decide(routes.ClassAdminRoot, adminIdentity(auth.RoleSuperAdmin), nil, "/admin")
	assert.Equal(t, OutcomeRedirectDashboard, d.Outcome)
	assert.Equal(t, DashboardPath, d.RedirectTarget)

	d = Decide(routes.ClassAdminRoot, nil, nil, "/admin")
	assert.Equal(t, OutcomeRedirectLogin, d.Outcome)
	assert.Equal(t, "/admin/auth/login?callbackUrl=%2Fadmin", d.RedirectTarget)
}

func TestDecide_UnclassifiedDefaultsToAllow(t *testing.T) {
	d := Decide(routes.ClassOther, nil, nil, "/whatever")
	assert.Equal(t, OutcomeAllow, d.Outcome)
}

func TestDecide_IsPure(t *testing.T) {
	verdict := &ratelimit.Result{Allowed: true, Limit: 5, Remaining: 2}
	identity := adminIdentity(auth.RoleAdmin)

	first := Decide(routes.ClassAPI, identity, verdict, "/api/x")
	second := Decide(routes.ClassAPI, identity, verdict, "/api/x")
	assert.Equal(t, first, second)
}
