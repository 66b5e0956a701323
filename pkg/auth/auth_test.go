package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestValidator(t *testing.T) *JWTValidator {
	t.Helper()
	v, err := NewJWTValidator(JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     testSecret,
		Issuer:        "ideagraph",
		Audience:      []string{"ideagraph-api"},
	})
	require.NoError(t, err)
	return v
}

func sign(t *testing.T, secret, subject string, audience []string, expiresIn time.Duration) string {
	t.Helper()
	token, err := SignHS256(secret, subject, "ideagraph", audience, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
	})
	require.NoError(t, err)
	return token
}

func TestValidateToken(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"valid", sign(t, testSecret, "user-1", []string{"ideagraph-api"}, time.Hour), nil},
		{"bearer prefix", "Bearer " + sign(t, testSecret, "user-1", []string{"ideagraph-api"}, time.Hour), nil},
		{"expired", sign(t, testSecret, "user-1", []string{"ideagraph-api"}, -time.Hour), ErrExpiredToken},
		{"wrong secret", sign(t, "other", "user-1", []string{"ideagraph-api"}, time.Hour), ErrInvalidSignature},
		{"wrong audience", sign(t, testSecret, "user-1", []string{"elsewhere"}, time.Hour), ErrInvalidClaims},
		{"no subject", sign(t, testSecret, "", []string{"ideagraph-api"}, time.Hour), ErrInvalidClaims},
		{"empty", "", ErrMissingToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := v.ValidateToken(tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-1", claims.UserID())
		})
	}
}

func TestNewJWTValidator_RequiresKeys(t *testing.T) {
	_, err := NewJWTValidator(JWTConfig{SigningMethod: "HS256"})
	assert.Error(t, err)

	_, err = NewJWTValidator(JWTConfig{SigningMethod: "RS256"})
	assert.Error(t, err)

	_, err = NewJWTValidator(JWTConfig{SigningMethod: "ES512", SecretKey: "x"})
	assert.Error(t, err)
}

func TestUserRateLimiter(t *testing.T) {
	ctx := context.Background()
	limiter := NewUserRateLimiter(2)

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, _ := limiter.Allow(ctx, "user-1")
	assert.False(t, allowed)

	allowed, _ = limiter.Allow(ctx, "user-2")
	assert.True(t, allowed, "limits are per user")
}
