// Package repository declares the storage contracts the services depend on.
// The only implementation lives in repository/sqlstore; services and tests
// see these interfaces, never the concrete type.
package repository

import (
	"context"
	"time"

	"github.com/sakif/healthvault/internal/model"
)

// ListOptions pages an owner-scoped list. Limit <= 0 returns every row.
type ListOptions struct {
	Limit  int
	Offset int
}

// RecordFilter narrows a record listing. Zero fields match everything; the
// owner predicate always applies on top.
type RecordFilter struct {
	RecordType string
	From       *time.Time // inclusive
	To         *time.Time // inclusive
}

// VitalFilter narrows a vital listing to one vitalType when set.
type VitalFilter struct {
	VitalType string
}

// AccountRepository persists accounts.
//
// CreateAccount must fail with apperror.ErrDuplicateEmail when the email is
// taken, and that decision must be made by the storage layer in the same
// statement as the insert.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	UpdateAccountProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.Account, error)
}

// HealthRecordRepository persists health records, newest record date first.
type HealthRecordRepository interface {
	CreateHealthRecord(ctx context.Context, record *model.HealthRecord) error
	ListHealthRecords(ctx context.Context, accountID string, filter RecordFilter, opts ListOptions) ([]model.HealthRecord, error)
}

// VitalRepository persists vital readings, newest reading first.
type VitalRepository interface {
	CreateVital(ctx context.Context, vital *model.Vital) error
	ListVitals(ctx context.Context, accountID string, filter VitalFilter, opts ListOptions) ([]model.Vital, error)
}

// HealthGoalRepository persists goals, newest first.
type HealthGoalRepository interface {
	CreateHealthGoal(ctx context.Context, goal *model.HealthGoal) error
	ListHealthGoals(ctx context.Context, accountID string, opts ListOptions) ([]model.HealthGoal, error)
	CountGoalsByStatus(ctx context.Context, accountID string, status model.GoalStatus) (int, error)
}

// Store bundles every repository; *sqlstore.DB satisfies it.
type Store interface {
	AccountRepository
	HealthRecordRepository
	VitalRepository
	HealthGoalRepository
}
