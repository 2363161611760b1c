package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/healthvault/internal/apperror"
	"github.com/sakif/healthvault/internal/model"
	"github.com/sakif/healthvault/internal/repository"
)

// compile-time check that *DB implements repository.AccountRepository
var _ repository.AccountRepository = (*DB)(nil)

const selectAccount = `
	SELECT id, email, password_hash, first_name, last_name, phone, date_of_birth, created_at, updated_at
	FROM accounts`

// CreateAccount inserts a new account and fills in ID and timestamps.
//
// There is no "does this email exist?" query first. Two concurrent
// registrations for the same email both reach the INSERT; the UNIQUE index on
// accounts.email lets exactly one of them through and the other gets
// apperror.ErrDuplicateEmail.
func (db *DB) CreateAccount(ctx context.Context, account *model.Account) error {
	ts := now()
	account.ID = xid.New().String()
	account.CreatedAt = ts
	account.UpdatedAt = ts

	_, err := db.conn.NamedExecContext(ctx,
		`INSERT INTO accounts (id, email, password_hash, first_name, last_name, phone, date_of_birth, created_at, updated_at)
		 VALUES (:id, :email, :password_hash, :first_name, :last_name, :phone, :date_of_birth, :created_at, :updated_at)`,
		account,
	)
	if err != nil {
		account.ID = ""
		if isUniqueViolation(err) {
			return apperror.DuplicateEmail()
		}
		return fmt.Errorf("sqlstore: inserting account: %w", err)
	}
	return nil
}

// GetAccountByID returns apperror.ErrNotFound if no account has that ID.
func (db *DB) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	var a model.Account
	err := db.conn.GetContext(ctx, &a, db.conn.Rebind(selectAccount+` WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("account", id)
		}
		return nil, fmt.Errorf("sqlstore: getting account %s: %w", id, err)
	}
	return &a, nil
}

// GetAccountByEmail looks up an already-normalized email.
func (db *DB) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	var a model.Account
	err := db.conn.GetContext(ctx, &a, db.conn.Rebind(selectAccount+` WHERE email = ?`), email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("account", "for email")
		}
		return nil, fmt.Errorf("sqlstore: getting account by email: %w", err)
	}
	return &a, nil
}

// UpdateAccountProfile applies the allowed profile subset and returns the
// updated row. Email, password hash and created_at are never touched here.
//
// The UPDATE and the read-back share a transaction so the caller sees exactly
// the row it wrote.
func (db *DB) UpdateAccountProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.Account, error) {
	sets := []string{"updated_at = ?"}
	args := []any{now()}

	if update.FirstName != nil {
		sets = append(sets, "first_name = ?")
		args = append(args, *update.FirstName)
	}
	if update.LastName != nil {
		sets = append(sets, "last_name = ?")
		args = append(args, *update.LastName)
	}
	switch {
	case update.ClearPhone:
		sets = append(sets, "phone = NULL")
	case update.Phone != nil:
		sets = append(sets, "phone = ?")
		args = append(args, *update.Phone)
	}
	switch {
	case update.ClearDateOfBirth:
		sets = append(sets, "date_of_birth = NULL")
	case update.DateOfBirth != nil:
		sets = append(sets, "date_of_birth = ?")
		args = append(args, *update.DateOfBirth)
	}
	args = append(args, id)

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: beginning profile update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	result, err := tx.ExecContext(ctx,
		tx.Rebind(`UPDATE accounts SET `+strings.Join(sets, ", ")+` WHERE id = ?`),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: updating account %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.NotFound("account", id)
	}

	var a model.Account
	if err := tx.GetContext(ctx, &a, tx.Rebind(selectAccount+` WHERE id = ?`), id); err != nil {
		return nil, fmt.Errorf("sqlstore: reloading account %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlstore: committing profile update: %w", err)
	}
	return &a, nil
}
