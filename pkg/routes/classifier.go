// Package routes classifies inbound request paths for the access layer.
//
// Route rules are static deployment data: they are loaded once at startup
// (from YAML or the compiled-in defaults) and never mutated afterwards.
package routes

import (
	"path"
	"strings"
)

// Classification is the category assigned to a request path.
type Classification string

const (
	ClassStaticAsset    Classification = "static-asset"
	ClassAPI            Classification = "api"
	ClassPublic         Classification = "public"
	ClassAuthPage       Classification = "auth-page"
	ClassPublicAdmin    Classification = "public-admin"
	ClassProtectedAdmin Classification = "protected-admin"
	ClassAdminRoot      Classification = "admin-root"
	ClassOther          Classification = "other"
)

// staticExtensions are file extensions served as static assets.
var staticExtensions = map[string]struct{}{
	".css": {}, ".js": {}, ".map": {}, ".ico": {},
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".svg": {}, ".webp": {},
	".woff": {}, ".woff2": {}, ".ttf": {}, ".eot": {},
	".txt": {}, ".xml": {}, ".webmanifest": {},
}

// Classifier assigns exactly one classification to each request path.
type Classifier struct {
	rules Rules
}

// NewClassifier creates a classifier from the given rule set.
func NewClassifier(rules Rules) *Classifier {
	return &Classifier{rules: rules}
}

// Rules returns the rule set the classifier was built from.
func (c *Classifier) Rules() Rules {
	return c.rules
}

// Classify returns the classification for a request path. Evaluation order is
// significant and fixed: static assets first (cheapest, highest volume), then
// API, then the page classifications in priority order. The admin root path
// by itself is its own classification, distinct from the protected subtree.
func (c *Classifier) Classify(requestPath string) Classification {
	p := cleanPath(requestPath)

	if c.isStaticAsset(p) {
		return ClassStaticAsset
	}
	if matchesAny(p, c.rules.API) {
		return ClassAPI
	}
	if matchesAny(p, c.rules.Public) {
		return ClassPublic
	}
	if matchesAny(p, c.rules.PublicAdmin) {
		return ClassPublicAdmin
	}
	if matchesAny(p, c.rules.AuthPages) {
		return ClassAuthPage
	}
	if p == c.rules.AdminRoot {
		return ClassAdminRoot
	}
	if matchesAny(p, c.rules.ProtectedAdmin) {
		return ClassProtectedAdmin
	}
	return ClassOther
}

func (c *Classifier) isStaticAsset(p string) bool {
	if matchesAny(p, c.rules.StaticPrefixes) {
		return true
	}
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return false
	}
	_, ok := staticExtensions[ext]
	return ok
}

// matchesRoute reports whether a path matches a configured route prefix:
// either equal to the prefix exactly or starting with prefix + "/".
func matchesRoute(p, prefix string) bool {
	if prefix == "" {
		return false
	}
	if p == prefix {
		return true
	}
	if prefix == "/" {
		return false
	}
	return strings.HasPrefix(p, prefix+"/")
}

func matchesAny(p string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if matchesRoute(p, prefix) {
			return true
		}
	}
	return false
}

// cleanPath normalizes a request path before matching. Trailing slashes are
// stripped so "/admin/" and "/admin" classify identically.
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}
