package service

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/healthvault/internal/auth"
	"github.com/sakif/healthvault/internal/model"
	"github.com/sakif/healthvault/internal/repository"
	"github.com/sakif/healthvault/internal/repository/sqlstore"
)

// =========================================================================
// HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestStore returns a migrated in-memory SQLite store.
func newTestStore(t *testing.T) *sqlstore.DB {
	t.Helper()
	db, err := sqlstore.New(context.Background(), sqlstore.Config{Driver: sqlstore.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// testServices bundles every service over one store, as the server wires them.
type testServices struct {
	store    repository.Store
	accounts *AccountService
	health   *HealthService
	auth     *AuthService
	revoked  *auth.MemoryRevocations
}

func newTestServices(t *testing.T, store repository.Store) *testServices {
	t.Helper()
	logger := testLogger()
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)

	revoked := auth.NewMemoryRevocations()
	accounts := NewAccountService(store, passwords, logger)
	return &testServices{
		store:    store,
		accounts: accounts,
		health:   NewHealthService(store, logger),
		auth:     NewAuthService(accounts, tokens, revoked, logger),
		revoked:  revoked,
	}
}

// asCaller returns a context authenticated as accountID.
func asCaller(accountID string) context.Context {
	return auth.WithAccountID(context.Background(), accountID)
}

// mustRegister creates an account and returns it.
func mustRegister(t *testing.T, svc *testServices, email string) *model.Account {
	t.Helper()
	a, err := svc.accounts.CreateAccount(context.Background(), email, "pw1", "Test", "User")
	require.NoError(t, err)
	return a
}

// faultyStore wraps a real store and lets tests inject failures or capture
// the filter and paging options the service passed down.
type faultyStore struct {
	repository.Store

	createAccountErr error
	listErr          error
	lastOpts         repository.ListOptions
	lastFilter       repository.RecordFilter
	calls            int
}

func (f *faultyStore) CreateAccount(ctx context.Context, a *model.Account) error {
	f.calls++
	if f.createAccountErr != nil {
		return f.createAccountErr
	}
	return f.Store.CreateAccount(ctx, a)
}

func (f *faultyStore) ListHealthRecords(ctx context.Context, accountID string, filter repository.RecordFilter, opts repository.ListOptions) ([]model.HealthRecord, error) {
	f.calls++
	f.lastOpts = opts
	f.lastFilter = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Store.ListHealthRecords(ctx, accountID, filter, opts)
}

func (f *faultyStore) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	f.calls++
	return f.Store.GetAccountByID(ctx, id)
}

func (f *faultyStore) CreateHealthRecord(ctx context.Context, r *model.HealthRecord) error {
	f.calls++
	return f.Store.CreateHealthRecord(ctx, r)
}
