package auth_test

import (
	"testing"
	"time"

	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/auth"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func sign(t *testing.T, claims jwt.MapClaims, key string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return tok
}

func TestIdentityFromToken_Success(t *testing.T) {
	v := auth.NewTokenValidator(secret)
	tok := sign(t, jwt.MapClaims{
		"sub":   "6f1c0d2e-7d0b-4a55-9b55-2b1f5c1f7a10",
		"email": "coach@club.example",
		"role":  "admin",
		"typ":   "access",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}, secret)

	id, err := v.IdentityFromToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "6f1c0d2e-7d0b-4a55-9b55-2b1f5c1f7a10", id.UserID)
	assert.Equal(t, "coach@club.example", id.Email)
	assert.Equal(t, "admin", id.Role)
}

func TestIdentityFromToken_Rejects(t *testing.T) {
	v := auth.NewTokenValidator(secret)

	cases := map[string]string{
		"wrong key": sign(t, jwt.MapClaims{"sub": "u", "typ": "access"}, "other"),
		"refresh":   sign(t, jwt.MapClaims{"sub": "u", "typ": "refresh"}, secret),
		"expired":   sign(t, jwt.MapClaims{"sub": "u", "typ": "access", "exp": time.Now().Add(-time.Hour).Unix()}, secret),
		"no sub":    sign(t, jwt.MapClaims{"typ": "access"}, secret),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.IdentityFromToken(tok)
			assert.Error(t, err)
		})
	}
}

func TestNoSecret(t *testing.T) {
	_, err := auth.NewTokenValidator("").ParseAndValidateToken("x.y.z", "")
	assert.ErrorIs(t, err, auth.ErrSecretNotConfigured)
}
