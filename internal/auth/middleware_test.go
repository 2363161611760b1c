package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoAccount writes the account ID RequireAuth placed in the context.
var echoAccount = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id, ok := AccountIDFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	_, _ = w.Write([]byte(id))
})

func TestRequireAuth(t *testing.T) {
	tokens := newTestTokenService(t)
	revocations := NewMemoryRevocations()
	mw := RequireAuth(NewAuthenticator(tokens, revocations))(echoAccount)

	valid, _, err := tokens.Generate("acct-1")
	require.NoError(t, err)
	expired, _, err := tokens.GenerateWithDuration("acct-1", -time.Minute)
	require.NoError(t, err)
	revoked, revokedClaims, err := tokens.Generate("acct-1")
	require.NoError(t, err)
	require.NoError(t, revocations.Revoke(context.Background(), revokedClaims.TokenID, revokedClaims.ExpiresAt))

	cases := []struct {
		name     string
		setup    func(r *http.Request)
		wantCode int
		wantBody string
	}{
		{
			name:     "session cookie",
			setup:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: valid}) },
			wantCode: http.StatusOK,
			wantBody: "acct-1",
		},
		{
			name:     "bearer header",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) },
			wantCode: http.StatusOK,
			wantBody: "acct-1",
		},
		{
			name:     "lower-case bearer",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "bearer "+valid) },
			wantCode: http.StatusOK,
			wantBody: "acct-1",
		},
		{
			name:     "no token",
			setup:    func(r *http.Request) {},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "expired token",
			setup:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: expired}) },
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "revoked token",
			setup:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: revoked}) },
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "garbage token",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
			wantCode: http.StatusUnauthorized,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			tc.setup(req)
			rr := httptest.NewRecorder()

			mw.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantCode, rr.Code)
			if tc.wantBody != "" {
				assert.Equal(t, tc.wantBody, rr.Body.String())
			}
			if tc.wantCode == http.StatusUnauthorized {
				assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
				assert.Contains(t, rr.Body.String(), `"unauthorized"`)
			}
		})
	}
}

func TestRequireAuth_StoresClaims(t *testing.T) {
	tokens := newTestTokenService(t)
	token, issued, err := tokens.Generate("acct-9")
	require.NoError(t, err)

	var got *Claims
	h := RequireAuth(NewAuthenticator(tokens, nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ClaimsFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.Equal(t, issued.TokenID, got.TokenID)
}

func TestAccountIDFromContext(t *testing.T) {
	_, ok := AccountIDFromContext(context.Background())
	assert.False(t, ok, "empty context should be anonymous")

	_, ok = AccountIDFromContext(WithAccountID(context.Background(), ""))
	assert.False(t, ok, "empty account ID should be anonymous")

	id, ok := AccountIDFromContext(WithAccountID(context.Background(), "acct-1"))
	assert.True(t, ok)
	assert.Equal(t, "acct-1", id)
}

func TestMemoryRevocations(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryRevocations()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Revoke(ctx, "live", now.Add(time.Hour)))
	require.NoError(t, m.Revoke(ctx, "already-expired", now.Add(-time.Second)))

	revoked, err := m.IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = m.IsRevoked(ctx, "already-expired")
	require.NoError(t, err)
	assert.False(t, revoked, "expired tokens need no denylist entry")

	revoked, err = m.IsRevoked(ctx, "never-seen")
	require.NoError(t, err)
	assert.False(t, revoked)

	// Past the live token's expiry the entry stops counting and is swept on
	// the next Revoke.
	now = now.Add(2 * time.Hour)
	revoked, err = m.IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, m.Revoke(ctx, "other", now.Add(time.Hour)))
	assert.Equal(t, 1, m.Len())
}
