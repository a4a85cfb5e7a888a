package middleware

import (
	"context"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"

	"mallcart/internal/application/identity"
)

// FirebaseAuthClient is an alias for the firebase auth client, so callers can
// take *middleware.FirebaseAuthClient without importing the firebase SDK.
type FirebaseAuthClient = fbauth.Client

// context keys use a private type to avoid collisions (SA1029).
type ctxKey struct{ name string }

var ctxKeyIdentity = ctxKey{name: "identity"}

// Identity resolves the caller's identity.Context and stores it in the
// request context:
//
//   - Authorization: Bearer <ID_TOKEN> present → verify with Firebase Auth,
//     yielding an authenticated user id. An invalid token is rejected with
//     401 rather than silently downgraded to anonymous.
//   - No Authorization header → anonymous; the principal derives from the
//     caller's network address.
//
// FirebaseAuth may be nil (no verifier configured); every caller is then
// anonymous and bearer tokens are rejected.
type Identity struct {
	FirebaseAuth *FirebaseAuthClient

	// TrustProxy honors the first X-Forwarded-For hop for the client address.
	TrustProxy bool
}

func (m *Identity) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idc := identity.Context{
			RemoteAddr: clientAddr(r, m.TrustProxy),
		}

		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			idToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if idToken == "" {
				http.Error(w, "unauthorized: empty bearer token", http.StatusUnauthorized)
				return
			}
			if m.FirebaseAuth == nil {
				http.Error(w, "identity middleware not initialized", http.StatusServiceUnavailable)
				return
			}

			token, err := m.FirebaseAuth.VerifyIDToken(r.Context(), idToken)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			uid := strings.TrimSpace(token.UID)
			if uid == "" {
				http.Error(w, "invalid uid in token", http.StatusUnauthorized)
				return
			}
			idc.UserID = uid
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), idc)))
	})
}

// WithIdentity stores the resolved identity context. Exposed for handler tests.
func WithIdentity(ctx context.Context, idc identity.Context) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, idc)
}

// IdentityFrom returns the identity context resolved for this request.
func IdentityFrom(ctx context.Context) (identity.Context, bool) {
	idc, ok := ctx.Value(ctxKeyIdentity).(identity.Context)
	return idc, ok
}

// clientAddr picks the caller's network address. Behind a trusted proxy the
// first X-Forwarded-For hop is the real client; otherwise RemoteAddr.
func clientAddr(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
			if first, _, found := strings.Cut(xff, ","); found || first != "" {
				return strings.TrimSpace(first)
			}
		}
	}
	return r.RemoteAddr
}
