// Package config loads gateway configuration from SITEGATE_* environment
// variables and validates it before the server starts.
package config
