package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

// ErrSecretNotConfigured is returned when a validator has no signing secret.
var ErrSecretNotConfigured = errors.New("JWT secret not configured")

// Identity is what the services need to know about an authenticated caller.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// TokenValidator verifies HMAC-signed access tokens issued by the auth service.
type TokenValidator struct {
	secret []byte
}

// NewTokenValidator returns a validator for secret. An empty secret yields a
// validator that rejects every token.
func NewTokenValidator(secret string) *TokenValidator {
	if secret == "" {
		return &TokenValidator{}
	}
	return &TokenValidator{secret: []byte(secret)}
}

// ParseAndValidateToken parses a JWT token string and returns its claims.
// If expectedType is non-empty, the claim "typ" must match it.
func (v *TokenValidator) ParseAndValidateToken(tokenStr, expectedType string) (jwt.MapClaims, error) {
	if v == nil || v.secret == nil {
		return nil, ErrSecretNotConfigured
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	if expectedType != "" {
		if typ, ok := claims["typ"].(string); !ok || typ != expectedType {
			return nil, fmt.Errorf("invalid token type")
		}
	}
	return claims, nil
}

// IdentityFromToken validates an access token and extracts the caller.
func (v *TokenValidator) IdentityFromToken(tokenStr string) (Identity, error) {
	claims, err := v.ParseAndValidateToken(tokenStr, "access")
	if err != nil {
		return Identity{}, err
	}

	id := Identity{}
	id.UserID, _ = claims["sub"].(string)
	if id.UserID == "" {
		id.UserID, _ = claims["user_id"].(string)
	}
	id.Email, _ = claims["email"].(string)
	id.Role, _ = claims["role"].(string)

	if id.UserID == "" {
		return Identity{}, fmt.Errorf("token has no subject")
	}
	return id, nil
}
