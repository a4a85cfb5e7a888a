package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_Authenticated(t *testing.T) {
	c := Context{UserID: "user-42", RemoteAddr: "203.0.113.7:51312"}

	assert.True(t, c.Authenticated())
	assert.Equal(t, Principal("user-42"), Resolve(c))

	// Identical input resolves identically: one operation's read and write
	// always target the same entry.
	assert.Equal(t, Resolve(c), Resolve(c))
}

func TestResolve_Anonymous(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want Principal
	}{
		{"host with port", "203.0.113.7:51312", "203.0.113.7"},
		{"bare host", "203.0.113.7", "203.0.113.7"},
		{"ipv6 with port", "[2001:db8::1]:443", "2001:db8::1"},
		{"bare ipv6", "2001:db8::1", "2001:db8::1"},
		{"empty address", "", "unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(Context{RemoteAddr: tc.addr})
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolve_PortDoesNotSplitPrincipals(t *testing.T) {
	a := Resolve(Context{RemoteAddr: "203.0.113.7:1000"})
	b := Resolve(Context{RemoteAddr: "203.0.113.7:2000"})
	assert.Equal(t, a, b, "ephemeral ports must not fragment a visitor's cart")
}

func TestAnonymous_IgnoresUserID(t *testing.T) {
	c := Context{UserID: "user-42", RemoteAddr: "203.0.113.7:51312"}
	assert.Equal(t, Principal("203.0.113.7"), Anonymous(c),
		"login transfer needs the pre-login key even after authentication")
}
