package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"gym-service/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

// TokenKind distinguishes short-lived access tokens from long-lived refresh tokens.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

var (
	// ErrTokenExpired is returned when a token's expiry has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for any other verification failure.
	ErrTokenInvalid = errors.New("invalid token")
)

var cfg *config.JWTConfig

// Initialize sets the JWT configuration used for signing and verification
func Initialize(c *config.JWTConfig) {
	cfg = c
}

// UserClaims represents the JWT claims carried by both token kinds.
// GymID is empty for superadmin users; Role is only set on access tokens.
type UserClaims struct {
	UserID uint   `json:"user_id"`
	GymID  string `json:"gym_id,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// GenerateAccessToken creates a short-lived token embedding the user's
// identity, gym scope and role.
func GenerateAccessToken(userID uint, gymID string, role string) (string, error) {
	if cfg == nil {
		return "", errors.New("JWT configuration not provided")
	}
	return generate(UserClaims{UserID: userID, GymID: gymID, Role: role},
		cfg.AccessTokenTTL, cfg.AccessSigningKey)
}

// GenerateRefreshToken creates a long-lived token embedding only the
// user's identity and gym scope.
func GenerateRefreshToken(userID uint, gymID string) (string, error) {
	if cfg == nil {
		return "", errors.New("JWT configuration not provided")
	}
	return generate(UserClaims{UserID: userID, GymID: gymID},
		cfg.RefreshTokenTTL, cfg.RefreshSigningKey)
}

func generate(claims UserClaims, ttl time.Duration, key string) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(key))
}

// ValidateToken verifies a token of the given kind and returns its claims.
// Expired tokens fail with ErrTokenExpired, everything else with ErrTokenInvalid.
func ValidateToken(tokenString string, kind TokenKind) (*UserClaims, error) {
	if cfg == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	key := cfg.AccessSigningKey
	if kind == KindRefresh {
		key = cfg.RefreshSigningKey
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(key), nil
		},
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrTokenInvalid
}
