// Package auth holds the session gateway primitives: password hashing,
// signed session tokens, token revocation and the middleware that turns a
// request's token into a caller identity.
//
// SESSION FLOW:
//  1. POST /auth/register or /auth/login verifies the credential and issues a
//     JWT, stored in the HttpOnly "session" cookie.
//  2. RequireAuth reads the cookie (or an Authorization: Bearer header),
//     validates the JWT, checks it has not been revoked, and places the
//     account ID in the request context.
//  3. POST /auth/logout revokes the token's ID (jti) until it would have
//     expired anyway.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"<account id>","jti":"<xid>","iss":"healthvault","exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const (
	// Issuer is stamped into and required on every token.
	Issuer = "healthvault"

	// DefaultTokenTTL is how long a session token stays valid.
	DefaultTokenTTL = 24 * time.Hour
)

var (
	// ErrTokenExpired is returned by Validate for a token past its expiry.
	ErrTokenExpired = errors.New("auth: token expired")

	// ErrTokenInvalid covers every other reason a token is rejected.
	ErrTokenInvalid = errors.New("auth: invalid token")
)

// TokenService handles JWT creation and validation.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService with DefaultTokenTTL.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	return NewTokenServiceWithTTL(secret, DefaultTokenTTL)
}

// NewTokenServiceWithTTL creates a TokenService whose tokens live for ttl.
// A non-positive ttl falls back to DefaultTokenTTL.
func NewTokenServiceWithTTL(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime of newly issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Claims is the validated content of a session token.
type Claims struct {
	AccountID string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Generate creates and signs a new session token for accountID.
func (s *TokenService) Generate(accountID string) (string, Claims, error) {
	return s.generate(accountID, s.ttl)
}

// GenerateWithDuration creates a token with a custom lifetime.
// Negative durations produce an already-expired token, which tests rely on.
func (s *TokenService) GenerateWithDuration(accountID string, d time.Duration) (string, Claims, error) {
	return s.generate(accountID, d)
}

func (s *TokenService) generate(accountID string, d time.Duration) (string, Claims, error) {
	if accountID == "" {
		return "", Claims{}, errors.New("auth: cannot issue a token without an account ID")
	}
	now := s.now()

	rc := jwt.RegisteredClaims{
		ID:        xid.New().String(),
		Subject:   accountID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		Issuer:    Issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, rc)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, claimsFrom(&rc), nil
}

// Validate parses and verifies a session token.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid and the algorithm is HS256 (no "none" downgrade)
//   - Token is not expired, and has an expiry at all
//   - Issuer is "healthvault"
//
// Revocation is not checked here; see Revocations.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	var rc jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&rc,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if rc.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrTokenInvalid)
	}
	if rc.ID == "" {
		return nil, fmt.Errorf("%w: token has no id", ErrTokenInvalid)
	}

	c := claimsFrom(&rc)
	return &c, nil
}

func claimsFrom(rc *jwt.RegisteredClaims) Claims {
	c := Claims{AccountID: rc.Subject, TokenID: rc.ID}
	if rc.IssuedAt != nil {
		c.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	return c
}
