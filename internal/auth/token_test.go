package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestIssuer(t *testing.T, secret string) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer(secret, 0)
	if err != nil {
		t.Fatalf("NewTokenIssuer failed: %v", err)
	}
	return issuer
}

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, "test-secret")
	before := time.Now()

	token, expiresAt, err := issuer.Issue("alice", "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	wantExpiry := before.Add(7 * 24 * time.Hour)
	if expiresAt.Before(wantExpiry.Add(-time.Second)) || expiresAt.After(wantExpiry.Add(time.Minute)) {
		t.Errorf("expiresAt = %v, want about %v", expiresAt, wantExpiry)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Subject != "alice" {
		t.Errorf("Subject = %s, want alice", claims.Subject)
	}
	if claims.Username != "alice" {
		t.Errorf("Username = %s, want alice", claims.Username)
	}
	if claims.IssuedAt == nil {
		t.Error("IssuedAt should be set")
	}
}

func TestTokenIssuer_RejectsInvalidTokens(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, "test-secret")
	other := newTestIssuer(t, "other-secret")

	valid, _, err := issuer.Issue("alice", "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	foreign, _, err := other.Issue("alice", "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	expiredIssuer := newTestIssuer(t, "test-secret")
	expiredIssuer.now = func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }
	expired, _, err := expiredIssuer.Issue("alice", "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"wrong secret", foreign},
		{"expired", expired},
		{"tampered payload", tampered},
		{"alg none", none},
		{"missing expiry", noExpiry},
		{"missing subject", noSubject},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			claims, err := issuer.Verify(tt.token)
			if err != ErrInvalidToken {
				t.Errorf("Verify error = %v, want ErrInvalidToken", err)
			}
			if claims != nil {
				t.Errorf("Verify returned claims for invalid token: %+v", claims)
			}
		})
	}
}

func TestNewTokenIssuer_EmptySecret(t *testing.T) {
	t.Parallel()

	if _, err := NewTokenIssuer("", time.Hour); err != ErrEmptySecret {
		t.Errorf("error = %v, want ErrEmptySecret", err)
	}
}

func TestAuthContextFromClaims(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, "test-secret")
	token, expiresAt, err := issuer.Issue("bob", "bob")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	authCtx := AuthContextFromClaims(claims)
	if authCtx.UserID != "bob" || authCtx.Username != "bob" {
		t.Errorf("unexpected auth context: %+v", authCtx)
	}
	if !authCtx.ExpiresAt.Equal(expiresAt.Truncate(time.Second)) {
		t.Errorf("ExpiresAt = %v, want %v", authCtx.ExpiresAt, expiresAt.Truncate(time.Second))
	}
}
