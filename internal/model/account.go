// Package model defines the data structures used throughout the application.
// The `json` tags shape API responses; the `db` tags are read by sqlx when
// scanning rows into these structs.
package model

import "time"

// Account is a registered patient identity.
//
// Email is stored trimmed and lower-cased and is UNIQUE in the database, so
// "A@x.com" and "a@x.com" are the same account. PasswordHash is a bcrypt
// hash; it is never serialized.
type Account struct {
	ID           string     `json:"id"                    db:"id"`
	Email        string     `json:"email"                 db:"email"`
	PasswordHash string     `json:"-"                     db:"password_hash"`
	FirstName    string     `json:"firstName"             db:"first_name"`
	LastName     string     `json:"lastName"              db:"last_name"`
	Phone        *string    `json:"phone,omitempty"       db:"phone"`
	DateOfBirth  *time.Time `json:"dateOfBirth,omitempty" db:"date_of_birth"`
	CreatedAt    time.Time  `json:"createdAt"             db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt"             db:"updated_at"`
}

// ProfileUpdate is the only part of an Account that can change after
// registration. A nil field is left untouched. For the optional columns,
// ClearPhone / ClearDateOfBirth set the column back to NULL.
type ProfileUpdate struct {
	FirstName        *string
	LastName         *string
	Phone            *string
	ClearPhone       bool
	DateOfBirth      *time.Time
	ClearDateOfBirth bool
}

// IsEmpty reports whether the update would change nothing.
func (u ProfileUpdate) IsEmpty() bool {
	return u.FirstName == nil && u.LastName == nil &&
		u.Phone == nil && !u.ClearPhone &&
		u.DateOfBirth == nil && !u.ClearDateOfBirth
}
