package routes

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules enumerates the route prefixes for one deployment. The zero value is
// not usable; start from DefaultRules or LoadRules.
type Rules struct {
	// StaticPrefixes are reserved prefixes served as static assets.
	StaticPrefixes []string `yaml:"static_prefixes"`
	// API prefixes carry their own rate limiting and JSON error surface.
	API []string `yaml:"api"`
	// Public marketing pages, open to everyone.
	Public []string `yaml:"public"`
	// PublicAdmin pages under the admin tree that need no session.
	PublicAdmin []string `yaml:"public_admin"`
	// AuthPages are login/signup pages; logged-in users get bounced away.
	AuthPages []string `yaml:"auth_pages"`
	// AdminRoot is the bare admin path, matched exactly.
	AdminRoot string `yaml:"admin_root"`
	// ProtectedAdmin is the authenticated, role-gated admin subtree.
	ProtectedAdmin []string `yaml:"protected_admin"`

	// ResourceRoles maps a protected path prefix to the role names allowed on
	// it. Per-resource sets are data, not code, and must be subsets of the
	// coarse admin set.
	ResourceRoles map[string][]string `yaml:"resource_roles"`
}

// DefaultRules returns the compiled-in route rules for the site.
func DefaultRules() Rules {
	return Rules{
		StaticPrefixes: []string{"/static", "/assets", "/images"},
		API:            []string{"/api"},
		Public:         []string{"/", "/services", "/contact", "/about"},
		PublicAdmin:    []string{"/admin/auth/unauthorized"},
		AuthPages:      []string{"/admin/auth/login", "/admin/auth/signup"},
		AdminRoot:      "/admin",
		ProtectedAdmin: []string{"/admin/protected"},
		ResourceRoles: map[string][]string{
			"/admin/protected/users":    {"superAdmin", "admin"},
			"/admin/protected/contacts": {"superAdmin", "admin", "support"},
			"/admin/protected/projects": {"superAdmin", "admin", "support"},
		},
	}
}

// LoadRules reads route rules from a YAML file. Fields omitted in the file
// fall back to the defaults, so a deployment only overrides what differs.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read routes file: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("failed to parse routes file: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

// Validate checks structural invariants of the rule set.
func (r Rules) Validate() error {
	if r.AdminRoot == "" {
		return fmt.Errorf("admin_root is required")
	}
	if len(r.ProtectedAdmin) == 0 {
		return fmt.Errorf("at least one protected_admin prefix is required")
	}
	for _, group := range [][]string{r.StaticPrefixes, r.API, r.Public, r.PublicAdmin, r.AuthPages, r.ProtectedAdmin} {
		for _, prefix := range group {
			if prefix != "/" && (prefix == "" || prefix[0] != '/') {
				return fmt.Errorf("route prefix %q must start with /", prefix)
			}
		}
	}
	for prefix, roles := range r.ResourceRoles {
		if len(roles) == 0 {
			return fmt.Errorf("resource_roles for %q must not be empty", prefix)
		}
	}
	return nil
}

// RolesFor returns the configured role names for the most specific resource
// prefix matching the path, or nil when the path has no per-resource set.
func (r Rules) RolesFor(p string) []string {
	cleaned := cleanPath(p)
	var bestPrefix string
	var best []string
	for prefix, roles := range r.ResourceRoles {
		if matchesRoute(cleaned, prefix) && len(prefix) > len(bestPrefix) {
			bestPrefix = prefix
			best = roles
		}
	}
	return best
}
