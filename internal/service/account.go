// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, authorizes, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take repository interfaces, never *sqlstore.DB, so tests can
// pass either a hand-written fake or a real in-memory SQLite store.
//
// OWNERSHIP:
// Every operation on an account's data compares the authenticated caller
// (auth.AccountIDFromContext) with the account being touched, here and not
// in the handlers, so no caller of this package can skip the check.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/healthvault/internal/apperror"
	"github.com/sakif/healthvault/internal/auth"
	"github.com/sakif/healthvault/internal/model"
	"github.com/sakif/healthvault/internal/repository"
)

// AccountService handles registration, credential checks and profile edits.
type AccountService struct {
	accounts  repository.AccountRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
	now       func() time.Time
}

// NewAccountService creates a new AccountService.
func NewAccountService(accounts repository.AccountRepository, passwords *auth.PasswordService, logger *slog.Logger) *AccountService {
	return &AccountService{
		accounts:  accounts,
		passwords: passwords,
		logger:    logger,
		now:       time.Now,
	}
}

type registrationInput struct {
	Email     string `json:"email"     validate:"required,max=254,email"`
	Password  string `json:"password"  validate:"required"`
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName"  validate:"required,max=50"`
}

// CreateAccount registers a new account.
//
// The email is trimmed and lower-cased before it is stored. Uniqueness is
// decided by the store's insert, so this returns apperror.ErrDuplicateEmail
// even when two registrations for the same email race each other.
func (s *AccountService) CreateAccount(ctx context.Context, email, password, firstName, lastName string) (*model.Account, error) {
	in := registrationInput{
		Email:     normalizeEmail(email),
		Password:  password,
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password",
				fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
		}
		return nil, fmt.Errorf("creating account: %w", err)
	}

	account := &model.Account{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, apperror.ErrDuplicateEmail) {
			s.logger.InfoContext(ctx, "registration rejected: email already registered")
			return nil, err
		}
		s.logger.ErrorContext(ctx, "failed to create account", slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating account: %w", err)
	}

	s.logger.InfoContext(ctx, "account created", slog.String("account_id", account.ID))
	return account, nil
}

// VerifyCredentials returns the account for a matching email and password.
//
// Every failure (unknown email, wrong password, malformed input) is the same
// apperror.ErrInvalidCredentials, and unknown emails still pay for a bcrypt
// comparison so timing does not reveal which emails are registered.
func (s *AccountService) VerifyCredentials(ctx context.Context, email, password string) (*model.Account, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" || len(password) > auth.MaxPasswordBytes {
		_ = s.passwords.VerifyMissing(password)
		return nil, apperror.InvalidCredentials()
	}

	account, err := s.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			_ = s.passwords.VerifyMissing(password)
			s.logger.InfoContext(ctx, "login failed")
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("verifying credentials: %w", err)
	}

	if err := s.passwords.Verify(account.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.ErrorContext(ctx, "stored password hash is unusable",
				slog.String("account_id", account.ID),
				slog.String("error", err.Error()),
			)
		}
		s.logger.InfoContext(ctx, "login failed")
		return nil, apperror.InvalidCredentials()
	}

	return account, nil
}

// GetAccount returns the caller's own account.
func (s *AccountService) GetAccount(ctx context.Context, accountID string) (*model.Account, error) {
	if err := authorize(ctx, accountID); err != nil {
		return nil, err
	}
	account, err := s.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("getting account: %w", err)
	}
	return account, nil
}

// ProfileChanges is a partial profile update. A nil field is left unchanged.
// First and last name cannot be blanked; an empty Phone or DateOfBirth
// clears the stored value. DateOfBirth is YYYY-MM-DD.
type ProfileChanges struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	Phone       *string `json:"phone"`
	DateOfBirth *string `json:"dateOfBirth"`
}

type profileInput struct {
	FirstName   string `json:"firstName"   validate:"omitempty,max=50"`
	LastName    string `json:"lastName"    validate:"omitempty,max=50"`
	Phone       string `json:"phone"       validate:"omitempty,phone"`
	DateOfBirth string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateAccountProfile changes the caller's name, phone or date of birth.
// Email and password are not editable through this path.
func (s *AccountService) UpdateAccountProfile(ctx context.Context, accountID string, changes ProfileChanges) (*model.Account, error) {
	if err := authorize(ctx, accountID); err != nil {
		return nil, err
	}

	update, err := s.buildProfileUpdate(changes)
	if err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		return s.GetAccount(ctx, accountID)
	}

	account, err := s.accounts.UpdateAccountProfile(ctx, accountID, update)
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	s.logger.InfoContext(ctx, "profile updated", slog.String("account_id", accountID))
	return account, nil
}

func (s *AccountService) buildProfileUpdate(changes ProfileChanges) (model.ProfileUpdate, error) {
	var (
		in     profileInput
		update model.ProfileUpdate
	)

	if changes.FirstName != nil {
		in.FirstName = strings.TrimSpace(*changes.FirstName)
		if in.FirstName == "" {
			return update, apperror.ValidationFailed("firstName", "firstName cannot be blank")
		}
		update.FirstName = &in.FirstName
	}
	if changes.LastName != nil {
		in.LastName = strings.TrimSpace(*changes.LastName)
		if in.LastName == "" {
			return update, apperror.ValidationFailed("lastName", "lastName cannot be blank")
		}
		update.LastName = &in.LastName
	}
	if changes.Phone != nil {
		in.Phone = normalizePhone(*changes.Phone)
		if in.Phone == "" {
			update.ClearPhone = true
		} else {
			update.Phone = &in.Phone
		}
	}
	if changes.DateOfBirth != nil {
		in.DateOfBirth = strings.TrimSpace(*changes.DateOfBirth)
		if in.DateOfBirth == "" {
			update.ClearDateOfBirth = true
		}
	}

	if err := validateInput(in); err != nil {
		return update, err
	}

	if in.DateOfBirth != "" {
		dob, err := parseDate("dateOfBirth", in.DateOfBirth)
		if err != nil {
			return update, err
		}
		if dob.After(today(s.now())) {
			return update, apperror.ValidationFailed("dateOfBirth", "dateOfBirth cannot be in the future")
		}
		update.DateOfBirth = &dob
	}

	return update, nil
}

// today is midnight UTC of t's date.
func today(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
