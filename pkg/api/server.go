package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/buildright/sitegate/pkg/auth"
	"github.com/buildright/sitegate/pkg/middleware"
	"github.com/buildright/sitegate/pkg/observability"
	"github.com/buildright/sitegate/pkg/ratelimit"
	"github.com/buildright/sitegate/pkg/routes"
	"github.com/buildright/sitegate/pkg/store"
)

// Server is the HTTP server for the site and its back office.
type Server struct {
	router   *mux.Router
	store    store.Store
	sessions *auth.SessionManager
	rules    routes.Rules
	logger   logrus.FieldLogger

	loginEmailLimiter ratelimit.Limiter
	loginIPLimiter    ratelimit.Limiter
	signupIPLimiter   ratelimit.Limiter
	failOpen          bool

	accessMW *middleware.AccessMiddleware

	// Per-resource guards derived from the configured resource role sets.
	userGuards    guardPair
	contactGuards guardPair
	projectGuards guardPair
}

// guardPair holds the API (JSON) and page (redirect) guard for one resource.
type guardPair struct {
	api  func(http.Handler) http.Handler
	page func(http.Handler) http.Handler
}

// Options collects everything the server needs. The three auth limiters may
// be nil when rate limiting is disabled; the access middleware carries the
// global API limiter itself.
type Options struct {
	Store    store.Store
	Sessions *auth.SessionManager
	Rules    routes.Rules
	Logger   logrus.FieldLogger
	Metrics  *observability.Metrics

	APILimiter        ratelimit.Limiter
	LoginEmailLimiter ratelimit.Limiter
	LoginIPLimiter    ratelimit.Limiter
	SignupIPLimiter   ratelimit.Limiter

	// FailOpen is the limiter store failure policy.
	FailOpen bool
}

// NewServer builds the router and wires all routes behind the access
// middleware. It validates that every configured per-resource role set is a
// subset of the coarse admin set.
func NewServer(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if opts.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if err := opts.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid route rules: %w", err)
	}

	s := &Server{
		router:            mux.NewRouter(),
		store:             opts.Store,
		sessions:          opts.Sessions,
		rules:             opts.Rules,
		logger:            opts.Logger,
		loginEmailLimiter: opts.LoginEmailLimiter,
		loginIPLimiter:    opts.LoginIPLimiter,
		signupIPLimiter:   opts.SignupIPLimiter,
		failOpen:          opts.FailOpen,
	}

	classifier := routes.NewClassifier(opts.Rules)
	s.accessMW = middleware.NewAccessMiddleware(
		classifier, opts.Sessions, opts.APILimiter, opts.FailOpen, opts.Logger, opts.Metrics)

	var err error
	if s.userGuards, err = s.guardsFor("/admin/protected/users"); err != nil {
		return nil, err
	}
	if s.contactGuards, err = s.guardsFor("/admin/protected/contacts"); err != nil {
		return nil, err
	}
	if s.projectGuards, err = s.guardsFor("/admin/protected/projects"); err != nil {
		return nil, err
	}

	s.setupRoutes()
	return s, nil
}

// guardsFor builds the guard pair for a protected resource prefix from the
// configured role names. Missing configuration falls back to the coarse
// admin set rather than an open route.
func (s *Server) guardsFor(prefix string) (guardPair, error) {
	names := s.rules.RolesFor(prefix)

	allowed := auth.AdminRoles
	if names != nil {
		set, err := auth.RoleSetFromNames(names)
		if err != nil {
			return guardPair{}, fmt.Errorf("resource roles for %s: %w", prefix, err)
		}
		if !set.SubsetOf(auth.AdminRoles) {
			return guardPair{}, fmt.Errorf("resource roles for %s exceed the admin set", prefix)
		}
		allowed = set
	}

	return guardPair{
		api:  middleware.RequireRoles(allowed),
		page: middleware.RequirePageRoles(allowed),
	}, nil
}

func (s *Server) setupRoutes() {
	// Public marketing pages.
	s.router.HandleFunc("/", s.homePage).Methods("GET")
	s.router.HandleFunc("/services", s.servicesPage).Methods("GET")
	s.router.HandleFunc("/contact", s.contactPage).Methods("GET")
	s.router.HandleFunc("/about", s.aboutPage).Methods("GET")

	// Public API.
	s.router.HandleFunc("/api/contact", s.createContact).Methods("POST")

	// Session API.
	s.router.HandleFunc("/api/auth/login", s.login).Methods("POST")
	s.router.HandleFunc("/api/auth/signup", s.signup).Methods("POST")
	s.router.HandleFunc("/api/auth/logout", s.logout).Methods("POST")
	s.router.HandleFunc("/api/auth/session", s.currentSession).Methods("GET")

	// Admin auth pages. The access middleware already bounces logged-in
	// users away from these.
	s.router.HandleFunc("/admin/auth/login", s.loginPage).Methods("GET")
	s.router.HandleFunc("/admin/auth/signup", s.signupPage).Methods("GET")
	s.router.HandleFunc("/admin/auth/unauthorized", s.unauthorizedPage).Methods("GET")

	// Protected admin pages. The middleware enforces the coarse admin set;
	// the page guards narrow to the per-resource sets.
	s.router.HandleFunc("/admin/protected/dashboard", s.dashboardPage).Methods("GET")
	s.router.Handle("/admin/protected/users", s.userGuards.page(http.HandlerFunc(s.usersPage))).Methods("GET")
	s.router.Handle("/admin/protected/contacts", s.contactGuards.page(http.HandlerFunc(s.contactsPage))).Methods("GET")
	s.router.Handle("/admin/protected/projects", s.projectGuards.page(http.HandlerFunc(s.projectsPage))).Methods("GET")

	// Admin API, guarded per resource.
	admin := s.router.PathPrefix("/api/admin").Subrouter()
	admin.Handle("/users", s.userGuards.api(http.HandlerFunc(s.listUsers))).Methods("GET")
	admin.Handle("/users", s.userGuards.api(http.HandlerFunc(s.createUser))).Methods("POST")
	admin.Handle("/users/{id}", s.userGuards.api(http.HandlerFunc(s.getUser))).Methods("GET")
	admin.Handle("/users/{id}", s.userGuards.api(http.HandlerFunc(s.updateUser))).Methods("PUT")
	admin.Handle("/users/{id}", s.userGuards.api(http.HandlerFunc(s.deleteUser))).Methods("DELETE")

	admin.Handle("/contacts", s.contactGuards.api(http.HandlerFunc(s.listContacts))).Methods("GET")
	admin.Handle("/contacts/{id}", s.contactGuards.api(http.HandlerFunc(s.getContact))).Methods("GET")
	admin.Handle("/contacts/{id}", s.contactGuards.api(http.HandlerFunc(s.deleteContact))).Methods("DELETE")

	admin.Handle("/projects", s.projectGuards.api(http.HandlerFunc(s.listProjects))).Methods("GET")
	admin.Handle("/projects", s.projectGuards.api(http.HandlerFunc(s.createProject))).Methods("POST")
	admin.Handle("/projects/{id}", s.projectGuards.api(http.HandlerFunc(s.getProject))).Methods("GET")
	admin.Handle("/projects/{id}", s.projectGuards.api(http.HandlerFunc(s.updateProject))).Methods("PUT")
	admin.Handle("/projects/{id}", s.projectGuards.api(http.HandlerFunc(s.deleteProject))).Methods("DELETE")
}

// Handler returns the complete handler: request ID assignment, then the
// access pipeline, then the router.
func (s *Server) Handler() http.Handler {
	return middleware.Chain(
		middleware.RequestID,
		s.accessMW.Handler,
	)(s.router)
}

// Router exposes the bare router for tests that bypass the middleware.
func (s *Server) Router() *mux.Router {
	return s.router
}
