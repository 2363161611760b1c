package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// newTestTokenService creates a TokenService for testing.
// It uses a fixed, known secret so tests are deterministic.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

// =========================================================================
// TOKEN SERVICE CONSTRUCTION TESTS
// =========================================================================

func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := NewTokenService("short")
	if err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestNewTokenService_ValidSecret(t *testing.T) {
	ts, err := NewTokenService("this-is-16-chars")
	if err != nil {
		t.Fatalf("NewTokenService() unexpected error for valid secret: %v", err)
	}
	if ts.TTL() != DefaultTokenTTL {
		t.Errorf("TTL() = %v, want %v", ts.TTL(), DefaultTokenTTL)
	}
}

func TestNewTokenServiceWithTTL(t *testing.T) {
	ts, err := NewTokenServiceWithTTL("this-is-16-chars", 2*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if ts.TTL() != 2*time.Hour {
		t.Errorf("TTL() = %v, want 2h", ts.TTL())
	}

	ts, err = NewTokenServiceWithTTL("this-is-16-chars", 0)
	if err != nil {
		t.Fatal(err)
	}
	if ts.TTL() != DefaultTokenTTL {
		t.Errorf("TTL() with zero = %v, want default", ts.TTL())
	}
}

// =========================================================================
// GENERATE TESTS
// =========================================================================

func TestGenerate_ReturnsJWT(t *testing.T) {
	ts := newTestTokenService(t)

	token, claims, err := ts.Generate("acct-123")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("Generate() token doesn't look like a JWT: %q", token)
	}
	if claims.AccountID != "acct-123" {
		t.Errorf("claims.AccountID = %q, want acct-123", claims.AccountID)
	}
	if claims.TokenID == "" {
		t.Error("claims.TokenID is empty")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt); got != DefaultTokenTTL {
		t.Errorf("token lifetime = %v, want %v", got, DefaultTokenTTL)
	}
}

func TestGenerate_EveryTokenHasUniqueID(t *testing.T) {
	ts := newTestTokenService(t)

	_, c1, _ := ts.Generate("acct-aaa")
	_, c2, _ := ts.Generate("acct-aaa")

	if c1.TokenID == c2.TokenID {
		t.Error("two tokens for the same account share a token ID")
	}
}

func TestGenerate_EmptyAccountID(t *testing.T) {
	ts := newTestTokenService(t)
	if _, _, err := ts.Generate(""); err == nil {
		t.Fatal("Generate() should refuse an empty account ID")
	}
}

// =========================================================================
// VALIDATE TESTS
// =========================================================================

func TestValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, issued, err := ts.Generate("acct-abc-123")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	got, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got.AccountID != "acct-abc-123" {
		t.Errorf("Validate() AccountID = %q, want %q", got.AccountID, "acct-abc-123")
	}
	if got.TokenID != issued.TokenID {
		t.Errorf("Validate() TokenID = %q, want %q", got.TokenID, issued.TokenID)
	}
}

func TestValidate_ExpiredToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, _, err := ts.GenerateWithDuration("acct-123", -1*time.Second)
	if err != nil {
		t.Fatalf("GenerateWithDuration() error = %v", err)
	}

	_, err = ts.Validate(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Validate() error = %v, want ErrTokenExpired", err)
	}
}

func TestValidate_TamperedToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, _, _ := ts.Generate("acct-123")
	tampered := token[:len(token)-3] + "xxx"

	_, err := ts.Validate(tampered)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("Validate() error = %v, want ErrTokenInvalid", err)
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	ts1, _ := NewTokenService("correct-secret-32-chars-long!!!!")
	ts2, _ := NewTokenService("wrong-secret-32-chars-long!!!!!!")

	token, _, _ := ts1.Generate("acct-123")

	if _, err := ts2.Validate(token); err == nil {
		t.Fatal("Validate() should fail when using a different secret")
	}
}

func TestValidate_Garbage(t *testing.T) {
	ts := newTestTokenService(t)

	for _, in := range []string{"", "not.a.jwt.token", "abc"} {
		if _, err := ts.Validate(in); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("Validate(%q) error = %v, want ErrTokenInvalid", in, err)
		}
	}
}

func TestValidate_ClockControlsExpiry(t *testing.T) {
	ts := newTestTokenService(t)
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return start }

	token, _, err := ts.GenerateWithDuration("acct-1", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ts.Validate(token); err != nil {
		t.Fatalf("Validate() inside lifetime error = %v", err)
	}

	ts.now = func() time.Time { return start.Add(2 * time.Hour) }
	if _, err := ts.Validate(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Validate() after lifetime error = %v, want ErrTokenExpired", err)
	}
}
