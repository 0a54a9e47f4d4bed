package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier(DefaultRules())

	tests := []struct {
		path string
		want Classification
	}{
		// Static assets win over everything else.
		{"/static/css/site.css", ClassStaticAsset},
		{"/assets/logo.png", ClassStaticAsset},
		{"/favicon.ico", ClassStaticAsset},
		{"/robots.txt", ClassStaticAsset},
		{"/admin/protected/chart.js", ClassStaticAsset},

		// API prefixes.
		{"/api", ClassAPI},
		{"/api/contact", ClassAPI},
		{"/api/admin/users", ClassAPI},

		// Public pages.
		{"/", ClassPublic},
		{"/services", ClassPublic},
		{"/services/structural-review", ClassPublic},
		{"/contact", ClassPublic},

		// Public admin pages.
		{"/admin/auth/unauthorized", ClassPublicAdmin},

		// Auth pages.
		{"/admin/auth/login", ClassAuthPage},
		{"/admin/auth/signup", ClassAuthPage},

		// Admin root is its own classification, distinct from the subtree.
		{"/admin", ClassAdminRoot},
		{"/admin/", ClassAdminRoot},

		// Protected admin subtree.
		{"/admin/protected", ClassProtectedAdmin},
		{"/admin/protected/dashboard", ClassProtectedAdmin},
		{"/admin/protected/users", ClassProtectedAdmin},

		// Everything else.
		{"/admin/unknown", ClassOther},
		{"/internal/debug", ClassOther},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.path))
		})
	}
}

func TestMatchesRoute(t *testing.T) {
	tests := []struct {
		path   string
		prefix string
		want   bool
	}{
		{"/services", "/services", true},
		{"/services/foo", "/services", true},
		{"/servicesfoo", "/services", false},
		{"/", "/", true},
		{"/anything", "/", false},
		{"/admin", "/admin/protected", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, matchesRoute(tt.path, tt.prefix),
			"matchesRoute(%q, %q)", tt.path, tt.prefix)
	}
}

func TestClassifier_PrefixNotSubstring(t *testing.T) {
	c := NewClassifier(DefaultRules())

	// "/contacting" must not match the "/contact" prefix.
	assert.Equal(t, ClassOther, c.Classify("/contacting"))
	// "/administrators" must not match "/admin".
	assert.Equal(t, ClassOther, c.Classify("/administrators"))
}
