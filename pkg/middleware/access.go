package middleware

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/buildright/sitegate/pkg/access"
	"github.com/buildright/sitegate/pkg/auth"
	"github.com/buildright/sitegate/pkg/contextkeys"
	"github.com/buildright/sitegate/pkg/httputil"
	"github.com/buildright/sitegate/pkg/observability"
	"github.com/buildright/sitegate/pkg/ratelimit"
	"github.com/buildright/sitegate/pkg/routes"
)

// AccessMiddleware runs the full access-control pipeline for every request:
// classification, session resolution, global API rate limiting, and the
// decision engine. Handlers behind it can assume access is already decided.
type AccessMiddleware struct {
	classifier *routes.Classifier
	sessions   *auth.SessionManager
	// apiLimiter is the global-api limiter. Nil only when rate limiting has
	// been explicitly disabled in configuration.
	apiLimiter ratelimit.Limiter
	// failOpen is the documented policy for a failing limiter store: allow
	// the request through (true) or reject with 503 (false).
	failOpen bool
	logger   logrus.FieldLogger
	metrics  *observability.Metrics
}

// NewAccessMiddleware wires the access pipeline. metrics may be nil.
func NewAccessMiddleware(
	classifier *routes.Classifier,
	sessions *auth.SessionManager,
	apiLimiter ratelimit.Limiter,
	failOpen bool,
	logger logrus.FieldLogger,
	metrics *observability.Metrics,
) *AccessMiddleware {
	return &AccessMiddleware{
		classifier: classifier,
		sessions:   sessions,
		apiLimiter: apiLimiter,
		failOpen:   failOpen,
		logger:     logger,
		metrics:    metrics,
	}
}

// Handler wraps next with the access pipeline.
func (m *AccessMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		class := m.classifier.Classify(r.URL.Path)

		// Static assets bypass session resolution and rate limiting.
		if class == routes.ClassStaticAsset {
			next.ServeHTTP(w, r)
			return
		}

		identity := m.sessions.Resolve(r)

		var verdict *ratelimit.Result
		if class == routes.ClassAPI && m.apiLimiter != nil {
			res, err := m.apiLimiter.Limit(r.Context(), "ip:"+httputil.ClientIP(r))
			if err != nil {
				m.logger.WithError(err).WithField("scope", m.apiLimiter.Scope()).
					Warn("rate limit store unavailable")
				if !m.failOpen {
					httputil.SetSecurityHeaders(w)
					httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "service temporarily unavailable")
					return
				}
				// Fail open: continue without a verdict.
			} else {
				verdict = &res
			}
		}

		decision := access.Decide(class, identity, verdict, r.URL.Path)
		if m.metrics != nil {
			m.metrics.RecordDecision(string(class), string(decision.Outcome))
		}

		switch decision.Outcome {
		case access.OutcomeRejectRateLimited:
			if m.metrics != nil {
				m.metrics.RecordRateLimitRejection(string(m.apiLimiter.Scope()))
			}
			httputil.SetSecurityHeaders(w)
			httputil.WriteRateLimited(w, "RATE_LIMIT_EXCEEDED", "too many requests", *verdict)
			return

		case access.OutcomeRedirectLogin, access.OutcomeRedirectUnauthorized, access.OutcomeRedirectDashboard:
			http.Redirect(w, r, decision.RedirectTarget, http.StatusFound)
			return

		case access.OutcomeAllow:
			if decision.SecurityHeaders {
				httputil.SetSecurityHeaders(w)
			}
			if decision.RateHeaders != nil {
				httputil.SetRateLimitHeaders(w, decision.RateHeaders.Limit,
					decision.RateHeaders.Remaining, decision.RateHeaders.ResetAt)
			}
			if identity != nil {
				r = r.WithContext(contextkeys.WithIdentity(r.Context(), identity))
			}
			next.ServeHTTP(w, r)

		default:
			// The engine never emits other outcomes; an unknown one is a bug,
			// not an implicit allow.
			m.logger.WithField("outcome", decision.Outcome).Error("unhandled access outcome")
			httputil.WriteInternalError(w)
		}
	})
}

// IdentityFrom extracts the resolved identity from the request context, or
// nil when the request is anonymous.
func IdentityFrom(r *http.Request) *auth.Identity {
	v := r.Context().Value(contextkeys.IdentityKey)
	if v == nil {
		return nil
	}
	identity, ok := v.(*auth.Identity)
	if !ok {
		return nil
	}
	return identity
}

// Chain composes middleware left to right: the first middleware is the
// outermost.
func Chain(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
