// AuthService is the gateway between credentials and sessions:
//
//	AuthHandler (HTTP) → AuthService → AccountService (credentials)
//	                                 ↘ TokenService (JWT) + Revocations (logout)
//
// It never sets cookies or reads requests; that is the handler's job.

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/healthvault/internal/apperror"
	"github.com/sakif/healthvault/internal/auth"
	"github.com/sakif/healthvault/internal/model"
)

// AuthService issues and ends sessions.
type AuthService struct {
	accounts      *AccountService
	tokens        *auth.TokenService
	authenticator *auth.Authenticator
	revocations   auth.Revocations
	logger        *slog.Logger
}

// NewAuthService creates an AuthService. revocations may be nil, which makes
// Logout a client-side-only operation.
func NewAuthService(
	accounts *AccountService,
	tokens *auth.TokenService,
	revocations auth.Revocations,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		accounts:      accounts,
		tokens:        tokens,
		authenticator: auth.NewAuthenticator(tokens, revocations),
		revocations:   revocations,
		logger:        logger,
	}
}

// Authenticator exposes the token checker used by auth.RequireAuth.
func (s *AuthService) Authenticator() *auth.Authenticator {
	return s.authenticator
}

// AuthResult bundles the account and its new session token so the handler
// can set the cookie and respond in one step.
type AuthResult struct {
	Account   *model.Account
	Token     string
	ExpiresAt time.Time
}

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, email, password, firstName, lastName string) (*AuthResult, error) {
	account, err := s.accounts.CreateAccount(ctx, email, password, firstName, lastName)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, account)
}

// Login verifies credentials and starts a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	account, err := s.accounts.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "account signed in", slog.String("account_id", account.ID))
	return s.issue(ctx, account)
}

func (s *AuthService) issue(ctx context.Context, account *model.Account) (*AuthResult, error) {
	token, claims, err := s.tokens.Generate(account.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for account %s: %w", account.ID, err)
	}
	return &AuthResult{Account: account, Token: token, ExpiresAt: claims.ExpiresAt}, nil
}

// Logout revokes the session described by claims until it would have expired.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return apperror.Unauthorized("authentication required")
	}
	if s.revocations == nil {
		return nil
	}
	if err := s.revocations.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("service/auth: revoking session: %w", err)
	}
	s.logger.InfoContext(ctx, "account signed out", slog.String("account_id", claims.AccountID))
	return nil
}

// Authenticate validates a raw session token, including revocation, and
// returns its claims. Every token failure is reported as unauthorized.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.authenticator.Authenticate(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrNoToken) || errors.Is(err, auth.ErrTokenExpired) ||
			errors.Is(err, auth.ErrTokenInvalid) || errors.Is(err, auth.ErrTokenRevoked) {
			return nil, apperror.Unauthorized("valid authentication required")
		}
		return nil, fmt.Errorf("service/auth: authenticating: %w", err)
	}
	return claims, nil
}
