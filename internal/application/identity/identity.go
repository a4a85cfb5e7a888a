// Package identity resolves the principal key under which all cart-related
// state is namespaced. Nothing else in the codebase derives this key.
package identity

import (
	"net"
	"strings"
)

// Context carries the caller identity inputs for one logical request.
// It is read-only input: either an authenticated account id, or a resolvable
// network address for an anonymous visitor. Filled once at the HTTP edge.
type Context struct {
	// UserID is the authenticated account identifier (empty when anonymous).
	UserID string

	// RemoteAddr is the caller network address, "host" or "host:port".
	RemoteAddr string
}

// Authenticated reports whether the context carries an account identifier.
func (c Context) Authenticated() bool {
	return strings.TrimSpace(c.UserID) != ""
}

// Principal is the resolved per-visitor or per-account key suffix.
type Principal string

func (p Principal) String() string { return string(p) }

// Resolve derives the principal key for a request context.
//
// Pure and deterministic: repeated calls within one logical request yield the
// same principal, so a read-then-write inside one operation never targets two
// different entries. Authenticated contexts resolve to the account id,
// anonymous ones to the normalized network address.
func Resolve(c Context) Principal {
	if uid := strings.TrimSpace(c.UserID); uid != "" {
		return Principal(uid)
	}
	return Principal(normalizeAddr(c.RemoteAddr))
}

// Anonymous resolves the network-address principal regardless of
// authentication state. Used by the login transfer, which needs the visitor's
// pre-login key after the account id is already known.
func Anonymous(c Context) Principal {
	return Principal(normalizeAddr(c.RemoteAddr))
}

// normalizeAddr strips a port and IPv6 brackets so that the same caller maps
// to the same principal whatever ephemeral port the connection used.
func normalizeAddr(addr string) string {
	a := strings.TrimSpace(addr)
	if a == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(a); err == nil && host != "" {
		a = host
	}
	a = strings.Trim(a, "[]")
	if ip := net.ParseIP(a); ip != nil {
		return ip.String()
	}
	return a
}
