package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionCookieName is the cookie carrying the signed session token.
	SessionCookieName = "sitegate_session"

	// DefaultSessionTTL is the session lifetime used when none is configured.
	DefaultSessionTTL = 12 * time.Hour
)

// sessionClaims is the JWT claim set for a session token.
type sessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// SessionManager issues and resolves signed session tokens. Resolution is a
// pure read: it never mutates state and never returns an error to the caller,
// only a nil identity.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

// NewSessionManager creates a session manager signing with the given secret.
func NewSessionManager(secret []byte, ttl time.Duration, secureCookies bool) (*SessionManager, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("session secret must be at least 32 bytes, got %d", len(secret))
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{secret: secret, ttl: ttl, secure: secureCookies}, nil
}

// Issue creates a signed session token for the identity.
func (sm *SessionManager) Issue(identity Identity) (string, error) {
	if !identity.Role.Valid() {
		return "", fmt.Errorf("cannot issue session for invalid role %q", identity.Role)
	}
	now := time.Now()
	claims := sessionClaims{
		Email: identity.Email,
		Role:  string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sm.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(sm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Resolve derives the authenticated identity from the request's session
// cookie. It returns nil for a missing cookie, a bad signature, an expired
// token, or a role outside the enumeration. All failure modes are
// indistinguishable to the caller so that nothing about why a token is
// invalid leaks into responses.
func (sm *SessionManager) Resolve(r *http.Request) *Identity {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	return sm.ResolveToken(cookie.Value)
}

// ResolveToken validates a raw session token and projects it into an Identity.
func (sm *SessionManager) ResolveToken(raw string) *Identity {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return sm.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil
	}

	role, err := ParseRole(claims.Role)
	if err != nil {
		return nil
	}
	if claims.Subject == "" {
		return nil
	}

	return &Identity{
		ID:    claims.Subject,
		Email: claims.Email,
		Role:  role,
	}
}

// SetCookie writes the session cookie for a freshly issued token.
func (sm *SessionManager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sm.ttl.Seconds()),
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (sm *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
