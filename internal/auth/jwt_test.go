package auth

import (
	"strings"
	"testing"
	"time"

	"wardrobe/internal/entity/db"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewManagerAndTokenLifecycle(t *testing.T) {
	mgr, err := NewManager("test-secret", "issuer", time.Minute*30)
	if err != nil {
		t.Fatalf("unexpected error creating manager: %v", err)
	}

	user := &db.User{ID: 42, UID: "u-42", Email: "user@example.com", Role: db.UserRoleAdmin}
	token, expiresAt, err := mgr.GenerateToken(user)
	if err != nil {
		t.Fatalf("unexpected error generating token: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if expiresAt.Before(time.Now()) {
		t.Fatal("expected future expiry time")
	}

	claims, err := mgr.ParseToken(token)
	if err != nil {
		t.Fatalf("unexpected error parsing token: %v", err)
	}
	if claims.UID != user.UID {
		t.Fatalf("expected uid %s, got %s", user.UID, claims.UID)
	}
	if !strings.EqualFold(claims.Email, user.Email) {
		t.Fatalf("expected email %s, got %s", user.Email, claims.Email)
	}
	if claims.Role != user.Role {
		t.Fatalf("expected role %s, got %s", user.Role, claims.Role)
	}
}

func TestNewManagerRequiresSecret(t *testing.T) {
	if _, err := NewManager("   ", "", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestGenerateTokenRequiresUID(t *testing.T) {
	mgr, _ := NewManager("test-secret", "", time.Hour)
	if _, _, err := mgr.GenerateToken(&db.User{ID: 1}); err == nil {
		t.Fatal("expected error for user without uid")
	}
}

func TestParseExternalToken(t *testing.T) {
	mgr, _ := NewManager("shared", "", time.Hour)

	sign := func(claims jwt.MapClaims, secret string) string {
		t.Helper()
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return signed
	}

	claims, err := mgr.ParseToken(sign(jwt.MapClaims{"uid": "abc"}, "shared"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UID != "abc" {
		t.Fatalf("expected uid abc, got %s", claims.UID)
	}

	if _, err := mgr.ParseToken(sign(jwt.MapClaims{"sub": "abc"}, "shared")); err != ErrMissingUID {
		t.Fatalf("expected ErrMissingUID, got %v", err)
	}

	if _, err := mgr.ParseToken(sign(jwt.MapClaims{"uid": "abc"}, "other")); err == nil {
		t.Fatal("expected signature error")
	}

	expired := sign(jwt.MapClaims{"uid": "abc", "exp": time.Now().Add(-time.Minute).Unix()}, "shared")
	if _, err := mgr.ParseToken(expired); !IsExpired(err) {
		t.Fatalf("expected expired error, got %v", err)
	}
}
