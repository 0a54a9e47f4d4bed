package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/buildright/sitegate/pkg/auth"
	"github.com/buildright/sitegate/pkg/ratelimit"
	"github.com/buildright/sitegate/pkg/routes"
	"github.com/buildright/sitegate/pkg/store"
)

const testSessionSecret = "test-secret-0123456789abcdefghijklmn"

type testServer struct {
	server  *Server
	handler http.Handler
	store   *store.MemoryStore
}

type testOption func(*Options)

func withAPILimiter(capacity int, window time.Duration) testOption {
	return func(o *Options) {
		limiter, err := ratelimit.NewMemoryLimiter(ratelimit.ScopeGlobalAPI,
			ratelimit.Config{Capacity: capacity, Window: window})
		if err != nil {
			panic(err)
		}
		o.APILimiter = limiter
	}
}

func withAuthLimiters() testOption {
	return func(o *Options) {
		mustLimiter := func(scope ratelimit.Scope, cfg ratelimit.Config) ratelimit.Limiter {
			limiter, err := ratelimit.NewMemoryLimiter(scope, cfg)
			if err != nil {
				panic(err)
			}
			return limiter
		}
		o.LoginEmailLimiter = mustLimiter(ratelimit.ScopeLoginEmail, ratelimit.LoginEmailConfig())
		o.LoginIPLimiter = mustLimiter(ratelimit.ScopeLoginIP, ratelimit.LoginIPConfig())
		o.SignupIPLimiter = mustLimiter(ratelimit.ScopeSignupIP, ratelimit.SignupIPConfig())
	}
}

func newTestServer(t *testing.T, opts ...testOption) *testServer {
	t.Helper()

	memStore := store.NewMemoryStore()
	sessions, err := auth.NewSessionManager([]byte(testSessionSecret), time.Hour, false)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	options := Options{
		Store:    memStore,
		Sessions: sessions,
		Rules:    routes.DefaultRules(),
		Logger:   logger,
		FailOpen: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	server, err := NewServer(options)
	require.NoError(t, err)

	return &testServer{
		server:  server,
		handler: server.Handler(),
		store:   memStore,
	}
}

// seedUser creates a user directly in the store and returns a session cookie
// for it.
func (ts *testServer) seedUser(t *testing.T, email string, role auth.Role) (*store.User, *http.Cookie) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse-battery"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &store.User{Email: email, Name: "Test User", PasswordHash: string(hash), Role: role}
	require.NoError(t, ts.store.CreateUser(context.Background(), user))

	token, err := ts.server.sessions.Issue(auth.Identity{ID: user.ID, Email: user.Email, Role: user.Role})
	require.NoError(t, err)

	return user, &http.Cookie{Name: auth.SessionCookieName, Value: token}
}

func (ts *testServer) do(method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		encoded, _ := json.Marshal(body)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func TestPublicPagesServeAnonymously(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/", "/services", "/about", "/contact"} {
		rec := ts.do("GET", path, nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html", path)
	}
}

func TestAdminRootRedirects(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do("GET", "/admin", nil, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/auth/login?callbackUrl=%2Fadmin", rec.Header().Get("Location"))

	_, cookie := ts.seedUser(t, "admin@buildright.example", auth.RoleAdmin)
	rec = ts.do("GET", "/admin", nil, cookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/protected/dashboard", rec.Header().Get("Location"))
}

func TestProtectedPageAnonymousRedirectsWithCallback(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do("GET", "/admin/protected/users", nil, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/auth/login?callbackUrl=%2Fadmin%2Fprotected%2Fusers",
		rec.Header().Get("Location"))
}

func TestProtectedPageRoleNarrowing(t *testing.T) {
	ts := newTestServer(t)
	_, supportCookie := ts.seedUser(t, "support@buildright.example", auth.RoleSupport)

	// Support passes the coarse admin gate but not the users resource set.
	rec := ts.do("GET", "/admin/protected/users", nil, supportCookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/auth/unauthorized", rec.Header().Get("Location"))

	// Contacts admits support.
	rec = ts.do("GET", "/admin/protected/contacts", nil, supportCookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do("GET", "/admin/protected/dashboard", nil, supportCookie)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthPageBouncesLoggedInUsers(t *testing.T) {
	ts := newTestServer(t)
	_, cookie := ts.seedUser(t, "admin@buildright.example", auth.RoleAdmin)

	rec := ts.do("GET", "/admin/auth/login", nil, cookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/protected/dashboard", rec.Header().Get("Location"))

	// Anonymous users see the login page.
	rec = ts.do("GET", "/admin/auth/login", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnauthorizedPageIsPublic(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do("GET", "/admin/auth/unauthorized", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGlobalAPIRateLimit(t *testing.T) {
	ts := newTestServer(t, withAPILimiter(5, time.Minute))

	// Five requests pass with decreasing remaining.
	for i := 0; i < 5; i++ {
		rec := ts.do("POST", "/api/auth/logout", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, fmt.Sprintf("%d", 4-i), rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	}

	// The sixth is rejected with the standard body.
	rec := ts.do("POST", "/api/auth/logout", nil, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body["error"])
	assert.NotZero(t, body["retryAfter"])
}

func TestAPISecurityHeaders(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do("POST", "/api/auth/logout", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, "default-src 'self'", rec.Header().Get("Content-Security-Policy"))
}

func TestRequestIDAssigned(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do("GET", "/", nil, nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestStaticAssetsBypassPipeline(t *testing.T) {
	ts := newTestServer(t, withAPILimiter(1, time.Minute))

	// Static paths are never rate limited and never redirected; they fall
	// through to the router, which has no static handler in tests.
	for i := 0; i < 3; i++ {
		rec := ts.do("GET", "/static/site.css", nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}
}
