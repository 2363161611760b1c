package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/healthvault/internal/auth"
	"github.com/sakif/healthvault/internal/service"
)

// AccountHandler serves profile reads and edits.
//
// /api/me is a shortcut for /api/accounts/{own id}. The service decides
// whether the caller may touch {accountID}; this handler only routes.
type AccountHandler struct {
	accounts *service.AccountService
	logger   *slog.Logger
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(accounts *service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

// HandleGetMe returns the caller's profile.
//
// HTTP: GET /api/me
func (h *AccountHandler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, callerID(r))
}

// HandleUpdateMe edits the caller's profile.
//
// HTTP: PATCH /api/me
// REQUEST BODY: any of {"firstName","lastName","phone","dateOfBirth"}; "" clears phone/dateOfBirth
func (h *AccountHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, callerID(r))
}

// HandleGet returns an account's profile.
//
// HTTP: GET /api/accounts/{accountID}
func (h *AccountHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, chi.URLParam(r, "accountID"))
}

// HandleUpdate edits an account's profile.
//
// HTTP: PATCH /api/accounts/{accountID}
func (h *AccountHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, chi.URLParam(r, "accountID"))
}

func (h *AccountHandler) get(w http.ResponseWriter, r *http.Request, accountID string) {
	account, err := h.accounts.GetAccount(r.Context(), accountID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) update(w http.ResponseWriter, r *http.Request, accountID string) {
	var changes service.ProfileChanges
	if err := decodeJSON(w, r, &changes); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	account, err := h.accounts.UpdateAccountProfile(r.Context(), accountID, changes)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// callerID is the authenticated account, or "" which the service rejects.
func callerID(r *http.Request) string {
	id, _ := auth.AccountIDFromContext(r.Context())
	return id
}
