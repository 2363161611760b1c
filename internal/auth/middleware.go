package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// SessionCookie is the name of the HttpOnly cookie carrying the session token.
const SessionCookie = "session"

// contextKey is an unexported type used for context keys in this package.
// Only this package can create a key of type contextKey, so only this
// package can read or write the identity stored in the context.
type contextKey string

const (
	accountIDKey contextKey = "accountID"
	claimsKey    contextKey = "claims"
)

// ErrNoToken means the request carried neither a session cookie nor a bearer token.
var ErrNoToken = errors.New("auth: no session token")

// ErrTokenRevoked is returned for a valid token that was logged out.
var ErrTokenRevoked = errors.New("auth: token revoked")

// WithAccountID returns a copy of ctx carrying the authenticated caller.
func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDKey, accountID)
}

// AccountIDFromContext retrieves the authenticated caller's account ID.
// Returns ("", false) for anonymous requests.
func AccountIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(accountIDKey).(string)
	return id, ok && id != ""
}

// ClaimsFromContext returns the claims of the token that authenticated the
// request. Logout uses it to know which token to revoke.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}

// Authenticator turns a raw token into claims, rejecting revoked tokens.
type Authenticator struct {
	tokens      *TokenService
	revocations Revocations
}

// NewAuthenticator builds an Authenticator. revocations may be nil, in which
// case logout has no server-side effect.
func NewAuthenticator(tokens *TokenService, revocations Revocations) *Authenticator {
	return &Authenticator{tokens: tokens, revocations: revocations}
}

// Authenticate validates token and checks the denylist.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	claims, err := a.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	if a.revocations != nil {
		revoked, err := a.revocations.IsRevoked(ctx, claims.TokenID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the token from the "session" HttpOnly cookie, falling back to an
// "Authorization: Bearer <token>" header for non-browser clients, and stores
// the account ID and claims in the request context. If the token is missing,
// invalid, expired or revoked it returns 401 and stops the chain.
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(a *Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := a.Authenticate(r.Context(), TokenFromRequest(r))
			if err != nil {
				if !errors.Is(err, ErrNoToken) && !errors.Is(err, ErrTokenExpired) &&
					!errors.Is(err, ErrTokenInvalid) && !errors.Is(err, ErrTokenRevoked) {
					slog.ErrorContext(r.Context(), "session check failed", "error", err)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}` + "\n"))
				return
			}

			ctx := WithAccountID(r.Context(), claims.AccountID)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromRequest returns the session token from the cookie or the
// Authorization header, or "" if neither is present.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
