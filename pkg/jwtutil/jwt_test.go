package jwtutil

import (
	"testing"
	"time"

	"gym-service/pkg/config"
)

func testConfig() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSigningKey:  "access-test-key",
		RefreshSigningKey: "refresh-test-key",
		AccessTokenTTL:    30 * time.Minute,
		RefreshTokenTTL:   7 * 24 * time.Hour,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	Initialize(testConfig())

	token, err := GenerateAccessToken(42, "GYM1A2B3C4D5", "staff")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := ValidateToken(token, KindAccess)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.GymID != "GYM1A2B3C4D5" {
		t.Errorf("GymID = %q", claims.GymID)
	}
	if claims.Role != "staff" {
		t.Errorf("Role = %q, want staff", claims.Role)
	}
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	Initialize(testConfig())

	access, err := GenerateAccessToken(1, "GYM1A2B3C4D5", "gymowner")
	if err != nil {
		t.Fatal(err)
	}
	refresh, err := GenerateRefreshToken(1, "GYM1A2B3C4D5")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ValidateToken(access, KindRefresh); err != ErrTokenInvalid {
		t.Errorf("access token validated as refresh: err = %v, want ErrTokenInvalid", err)
	}
	if _, err := ValidateToken(refresh, KindAccess); err != ErrTokenInvalid {
		t.Errorf("refresh token validated as access: err = %v, want ErrTokenInvalid", err)
	}
}

func TestExpiredToken(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = -time.Minute
	Initialize(cfg)

	token, err := GenerateAccessToken(1, "", "superadmin")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ValidateToken(token, KindAccess); err != ErrTokenExpired {
		t.Errorf("ValidateToken() error = %v, want ErrTokenExpired", err)
	}
}

func TestGarbageToken(t *testing.T) {
	Initialize(testConfig())

	if _, err := ValidateToken("not.a.token", KindAccess); err != ErrTokenInvalid {
		t.Errorf("ValidateToken() error = %v, want ErrTokenInvalid", err)
	}
}
