package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/buildright/sitegate/pkg/auth"
	"github.com/buildright/sitegate/pkg/contextkeys"
)

func requestWithIdentity(path string, identity *auth.Identity) *http.Request {
	req := httptest.NewRequest("GET", path, nil)
	if identity != nil {
		req = req.WithContext(contextkeys.WithIdentity(req.Context(), identity))
	}
	return req
}

func TestRequireRoles(t *testing.T) {
	next, called := okHandler()
	handler := RequireRoles(auth.UserManagementRoles)(next)

	tests := []struct {
		name       string
		identity   *auth.Identity
		wantStatus int
		wantCalled bool
	}{
		{"anonymous", nil, http.StatusUnauthorized, false},
		{"allowed admin", &auth.Identity{ID: "1", Role: auth.RoleAdmin}, http.StatusOK, true},
		{"allowed superAdmin", &auth.Identity{ID: "2", Role: auth.RoleSuperAdmin}, http.StatusOK, true},
		{"excluded support", &auth.Identity{ID: "3", Role: auth.RoleSupport}, http.StatusForbidden, false},
		{"invalid role", &auth.Identity{ID: "4", Role: "root"}, http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			*called = false
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, requestWithIdentity("/api/admin/users", tt.identity))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, *called)
		})
	}
}

func TestRequirePageRolesRedirects(t *testing.T) {
	next, called := okHandler()
	handler := RequirePageRoles(auth.UserManagementRoles)(next)

	// Anonymous: login with callback.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithIdentity("/admin/protected/users", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/auth/login?callbackUrl=%2Fadmin%2Fprotected%2Fusers",
		rec.Header().Get("Location"))
	assert.False(t, *called)

	// Wrong role: unauthorized page.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithIdentity("/admin/protected/users",
		&auth.Identity{ID: "1", Role: auth.RoleSupport}))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/auth/unauthorized", rec.Header().Get("Location"))

	// Allowed role passes through.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithIdentity("/admin/protected/users",
		&auth.Identity{ID: "2", Role: auth.RoleAdmin}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *called)
}
