package api

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/buildright/sitegate/pkg/auth"
	"github.com/buildright/sitegate/pkg/httputil"
	"github.com/buildright/sitegate/pkg/middleware"
	"github.com/buildright/sitegate/pkg/ratelimit"
	"github.com/buildright/sitegate/pkg/store"
)

// Rate-limit error codes per auth scope. The global API scope uses the
// unprefixed code in the access middleware.
const (
	loginEmailLimitCode = "LOGIN_EMAIL_RATE_LIMIT_EXCEEDED"
	loginIPLimitCode    = "LOGIN_IP_RATE_LIMIT_EXCEEDED"
	signupLimitCode     = "SIGNUP_RATE_LIMIT_EXCEEDED"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type sessionResponse struct {
	User *auth.Identity `json:"user"`
}

// checkLimiter evaluates one auth limiter. It returns false when the request
// must stop, having already written the 429 or 503. A nil limiter passes.
func (s *Server) checkLimiter(w http.ResponseWriter, r *http.Request, limiter ratelimit.Limiter, identifier, code string) bool {
	if limiter == nil {
		return true
	}

	res, err := limiter.Limit(r.Context(), identifier)
	if err != nil {
		s.logger.WithError(err).WithField("scope", limiter.Scope()).
			Warn("rate limit store unavailable")
		if !s.failOpen {
			httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "service temporarily unavailable")
			return false
		}
		return true
	}
	if !res.Allowed {
		httputil.SetSecurityHeaders(w)
		httputil.WriteRateLimited(w, code, "too many attempts, try again later", res)
		return false
	}
	return true
}

// login authenticates an admin user and sets the session cookie.
//
// Both login limiters are consulted before credentials are checked, email
// first, and a denied attempt still records its hit in both scopes. Invalid
// email and invalid password return the same message.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}

	if !s.checkLimiter(w, r, s.loginEmailLimiter, "email:"+req.Email, loginEmailLimitCode) {
		return
	}
	if !s.checkLimiter(w, r, s.loginIPLimiter, "ip:"+httputil.ClientIP(r), loginIPLimitCode) {
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteErrorCode(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
			return
		}
		s.logger.WithError(err).Error("user lookup failed")
		httputil.WriteInternalError(w)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		httputil.WriteErrorCode(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
		return
	}

	identity := auth.Identity{ID: user.ID, Email: user.Email, Role: user.Role}
	token, err := s.sessions.Issue(identity)
	if err != nil {
		s.logger.WithError(err).Error("session issue failed")
		httputil.WriteInternalError(w)
		return
	}

	s.sessions.SetCookie(w, token)
	httputil.WriteSuccess(w, "logged in", sessionResponse{User: &identity})
}

// signup registers a new back-office account and signs it in.
func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}
	if len(req.Password) < 8 {
		httputil.WriteBadRequest(w, "password must be at least 8 characters")
		return
	}

	// Signup never grants elevated roles from the request body.
	role := auth.RoleSupport
	if req.Role != "" {
		parsed, err := auth.ParseRole(req.Role)
		if err != nil || parsed != auth.RoleSupport {
			httputil.WriteBadRequest(w, "only the support role can be self-assigned")
			return
		}
	}

	if !s.checkLimiter(w, r, s.signupIPLimiter, "ip:"+httputil.ClientIP(r), signupLimitCode) {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.WithError(err).Error("password hash failed")
		httputil.WriteInternalError(w)
		return
	}

	user := &store.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			httputil.WriteErrorCode(w, http.StatusConflict, "EMAIL_TAKEN", "email already registered")
			return
		}
		s.logger.WithError(err).Error("user create failed")
		httputil.WriteInternalError(w)
		return
	}

	identity := auth.Identity{ID: user.ID, Email: user.Email, Role: user.Role}
	token, err := s.sessions.Issue(identity)
	if err != nil {
		s.logger.WithError(err).Error("session issue failed")
		httputil.WriteInternalError(w)
		return
	}

	s.sessions.SetCookie(w, token)
	httputil.WriteCreated(w, "account created", sessionResponse{User: &identity})
}

// logout clears the session cookie. It succeeds for anonymous callers too.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.sessions.ClearCookie(w)
	httputil.WriteSuccess(w, "logged out", nil)
}

// currentSession reports the resolved identity, or 401 for anonymous callers.
func (s *Server) currentSession(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r)
	if identity == nil {
		httputil.WriteUnauthorized(w, "no active session")
		return
	}
	httputil.WriteSuccess(w, "", sessionResponse{User: identity})
}
