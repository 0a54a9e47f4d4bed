package middleware

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/buildright/sitegate/pkg/access"
	"github.com/buildright/sitegate/pkg/auth"
	"github.com/buildright/sitegate/pkg/httputil"
)

// RequireRoles guards an API resource with a per-resource allowed-role set.
// It runs after AccessMiddleware has stored the identity in the request
// context. The allowed set must be a subset of the coarse admin set the
// middleware already enforced; the guard only ever narrows access.
func RequireRoles(allowed auth.RoleSet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := auth.Authorize(IdentityFrom(r), allowed); err != nil {
				if errors.Is(err, auth.ErrUnauthenticated) {
					httputil.WriteUnauthorized(w, "authentication required")
				} else {
					httputil.WriteForbidden(w, "insufficient role")
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePageRoles is the page-route flavor of RequireRoles: failures
// redirect instead of returning JSON. Unauthenticated users go to login with
// the original path preserved; authenticated users with the wrong role go to
// the unauthorized page.
func RequirePageRoles(allowed auth.RoleSet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := auth.Authorize(IdentityFrom(r), allowed); err != nil {
				if errors.Is(err, auth.ErrUnauthenticated) {
					target := access.LoginPath + "?" + access.CallbackParam + "=" + url.QueryEscape(r.URL.Path)
					http.Redirect(w, r, target, http.StatusFound)
				} else {
					http.Redirect(w, r, access.UnauthorizedPath, http.StatusFound)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
