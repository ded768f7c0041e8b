package service

import (
	"testing"

	"github.com/cardmint/internal/config"
)

func TestAuthServiceTokenRoundTrip(t *testing.T) {
	svc := NewAuthService(config.JWTConfig{SecretKey: "test-secret", ExpireHours: 1})
	token, expiresAt, err := svc.GenerateToken(42, true)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	if expiresAt.IsZero() {
		t.Fatalf("expires at should be set")
	}
	claims, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != 42 || !claims.IsAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAuthServiceRejectsForeignToken(t *testing.T) {
	issuer := NewAuthService(config.JWTConfig{SecretKey: "secret-a"})
	verifier := NewAuthService(config.JWTConfig{SecretKey: "secret-b"})
	token, _, err := issuer.GenerateToken(1, false)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	if _, err := verifier.ParseToken(token); err != ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if _, err := verifier.ParseToken("not-a-token"); err != ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid for garbage, got %v", err)
	}
}

func TestAuthServiceMissingSecret(t *testing.T) {
	svc := NewAuthService(config.JWTConfig{})
	if _, _, err := svc.GenerateToken(1, false); err != ErrTokenSecretMissing {
		t.Fatalf("expected ErrTokenSecretMissing, got %v", err)
	}
}
