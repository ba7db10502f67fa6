package utils

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestTokenRefresherCarriesClaims(t *testing.T) {
	old, err := NewAccessToken(testSecret, 42, "STUDENT", "sid-1", 15)
	require.NoError(t, err)

	r := TokenRefresher{Secret: testSecret, TTLMin: 15}
	fresh, err := r.Refresh(context.Background(), old.Token)
	require.NoError(t, err)
	require.NotEmpty(t, fresh)

	tok, err := jwt.Parse(fresh, func(t *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)
	require.Equal(t, float64(42), claims["sub"])
	require.Equal(t, "STUDENT", claims["role"])
	require.Equal(t, "sid-1", claims["sid"])
}

func TestTokenRefresherRejectsWrongSecret(t *testing.T) {
	old, err := NewAccessToken("other-secret", 42, "STUDENT", "sid-1", 15)
	require.NoError(t, err)

	r := TokenRefresher{Secret: testSecret, TTLMin: 15}
	_, err = r.Refresh(context.Background(), old.Token)
	require.Error(t, err)
}

func TestTokenRefresherAcceptsExpiredToken(t *testing.T) {
	// Negative TTL mints a token that is already expired; the
	// refresher must still accept it, only the signature matters.
	old, err := NewAccessToken(testSecret, 7, "STUDENT", "sid-2", -5)
	require.NoError(t, err)

	r := TokenRefresher{Secret: testSecret, TTLMin: 15}
	fresh, err := r.Refresh(context.Background(), old.Token)
	require.NoError(t, err)
	require.NotEmpty(t, fresh)
}

func TestHashRefreshRawStable(t *testing.T) {
	a := HashRefreshRaw("token-a")
	require.Equal(t, a, HashRefreshRaw("token-a"))
	require.NotEqual(t, a, HashRefreshRaw("token-b"))
	require.Len(t, a, 64)
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret", 4)
	require.NoError(t, err)
	require.True(t, VerifyPassword(hash, "s3cret"))
	require.False(t, VerifyPassword(hash, "wrong"))
}
