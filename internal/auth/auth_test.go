package auth

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	userID := uuid.New()
	token, err := NewAccessToken(userID, "a@example.com", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, "secret")
	require.NoError(t, err)
	require.Equal(t, userID, claims.UserID)
	require.Equal(t, "a@example.com", claims.Email)
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewAccessToken(uuid.New(), "a@example.com", "secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, "other")
	require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	token, err := NewAccessToken(uuid.New(), "a@example.com", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, "secret")
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseAccessTokenRejectsNilUser(t *testing.T) {
	token, err := NewAccessToken(uuid.Nil, "a@example.com", "secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, "secret")
	require.ErrorIs(t, err, ErrInvalidClaims)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	require.True(t, CheckPasswordHash("hunter22", hash))
	require.False(t, CheckPasswordHash("hunter23", hash))
	require.False(t, CheckPasswordHash("hunter22", "not-a-hash"))
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 50; i++ {
		otp, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, otp, 6)
		n, err := strconv.Atoi(otp)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 100000)
		require.LessOrEqual(t, n, 999999)
	}
	require.True(t, OTPMatches("123456", "123456"))
	require.False(t, OTPMatches("123456", "123457"))
	require.False(t, OTPMatches("123456", ""))
}

func TestContextHelpers(t *testing.T) {
	_, ok := GetUserIDFromContext(context.Background())
	require.False(t, ok)

	id := uuid.New()
	ctx := WithUser(context.Background(), id, "a@example.com")
	got, ok := GetUserIDFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, id, got)
	email, ok := GetEmailFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "a@example.com", email)
}
