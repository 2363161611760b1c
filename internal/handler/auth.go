package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/healthvault/internal/apperror"
	"github.com/sakif/healthvault/internal/auth"
	"github.com/sakif/healthvault/internal/model"
	"github.com/sakif/healthvault/internal/service"
)

// AuthHandler serves registration, login and logout.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → create an account and start a session
//   - HandleLogin    → check credentials and start a session
//   - HandleLogout   → revoke the current session and clear the cookie
//
// Sessions are carried in the HttpOnly "session" cookie. The token is also
// returned in the body for clients that prefer an Authorization header.
type AuthHandler struct {
	auth         *service.AuthService
	secureCookie bool
	logger       *slog.Logger
}

// NewAuthHandler creates an AuthHandler. secureCookie should be true whenever
// the API is served over HTTPS.
func NewAuthHandler(authService *service.AuthService, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, secureCookie: secureCookie, logger: logger}
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	Account   *model.Account `json:"account"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

// HandleRegister creates an account.
//
// HTTP: POST /auth/register
// REQUEST BODY: {"email":"a@x.com","password":"...","firstName":"Ada","lastName":"Lovelace"}
// RESPONSES: 201 + session cookie, 400 validation_error, 409 duplicate_email
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.auth.Register(r.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.setSessionCookie(w, res.Token, res.ExpiresAt)
	writeJSON(w, http.StatusCreated, SessionResponse{Account: res.Account, Token: res.Token, ExpiresAt: res.ExpiresAt})
}

// HandleLogin starts a session.
//
// HTTP: POST /auth/login
// REQUEST BODY: {"email":"a@x.com","password":"..."}
// RESPONSES: 200 + session cookie, 401 invalid_credentials
//
// A malformed body is answered like a wrong password so this endpoint never
// tells a caller which part of a login attempt was wrong.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, apperror.InvalidCredentials())
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.setSessionCookie(w, res.Token, res.ExpiresAt)
	writeJSON(w, http.StatusOK, SessionResponse{Account: res.Account, Token: res.Token, ExpiresAt: res.ExpiresAt})
}

// HandleLogout ends the current session.
//
// HTTP: POST /auth/logout (behind RequireAuth)
// RESPONSES: 204, cookie cleared
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	if err := h.auth.Logout(r.Context(), claims); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// setSessionCookie stores the token in an HttpOnly cookie that expires with it.
//
//   - HttpOnly: JavaScript can't read it, so XSS can't steal the session
//   - SameSite=Lax: not sent on cross-site POSTs
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
