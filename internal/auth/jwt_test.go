package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	cfg := &JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "parley",
		Audience: "parley-clients",
		TTL:      time.Hour,
	}

	token, err := GenerateToken(cfg, 42, "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ValidateToken(cfg, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	cfg := &JWTConfig{Secret: []byte("secret-one"), TTL: time.Hour}

	token, err := GenerateToken(cfg, 1, "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	other := &JWTConfig{Secret: []byte("secret-two"), TTL: time.Hour}
	if _, err := ValidateToken(other, token); err == nil {
		t.Fatalf("expected validation failure with wrong secret")
	}
}

func TestTokenExpired(t *testing.T) {
	cfg := &JWTConfig{Secret: []byte("test-secret"), TTL: -time.Minute}

	token, err := GenerateToken(cfg, 1, "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := ValidateToken(cfg, token); err == nil {
		t.Fatalf("expected expired token to fail validation")
	}
}

func TestTokenIssuerAndAudience(t *testing.T) {
	cfg := &JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "parley",
		Audience: "parley-clients",
		TTL:      time.Hour,
	}

	token, err := GenerateToken(cfg, 1, "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	wrongIssuer := *cfg
	wrongIssuer.Issuer = "somebody-else"
	if _, err := ValidateToken(&wrongIssuer, token); err == nil {
		t.Fatalf("expected issuer mismatch to fail")
	}

	wrongAudience := *cfg
	wrongAudience.Audience = "other-clients"
	if _, err := ValidateToken(&wrongAudience, token); err == nil {
		t.Fatalf("expected audience mismatch to fail")
	}
}
