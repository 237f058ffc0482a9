// Package ctxkey defines shared context key types used across multiple packages.
// This package should have no dependencies on other internal packages to avoid import cycles.
package ctxkey

// LoggerKey is the context key type for the enriched logger.
// Handlers store a logger carrying the request_id field under this key.
type LoggerKey struct{}

// RequestIDKey is the context key type for the per-call request identifier.
type RequestIDKey struct{}
