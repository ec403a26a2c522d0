package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager(t *testing.T) {
	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewJWTManager("test-secret", time.Hour)
	m.now = func() time.Time { return issued }

	token, err := m.GenerateAccessToken(42, "alice@example.com")
	require.NoError(t, err)

	t.Run("Round Trip", func(t *testing.T) {
		claims, err := m.ParseAndValidate(token)
		require.NoError(t, err)
		assert.Equal(t, int64(42), claims.UserID)
		assert.Equal(t, "alice@example.com", claims.Email)
		assert.Equal(t, "42", claims.Subject)
	})

	t.Run("Expired", func(t *testing.T) {
		later := NewJWTManager("test-secret", time.Hour)
		later.now = func() time.Time { return issued.Add(2 * time.Hour) }
		_, err := later.ParseAndValidate(token)
		assert.Error(t, err, "token past its TTL must be rejected")
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		other := NewJWTManager("other-secret", time.Hour)
		other.now = m.now
		_, err := other.ParseAndValidate(token)
		assert.Error(t, err)
	})

	t.Run("Rejects none Algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
			UserID: 42,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
			},
		})
		s, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = m.ParseAndValidate(s)
		assert.Error(t, err)
	})

	t.Run("Requires Expiry", func(t *testing.T) {
		noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: 42})
		s, err := noExp.SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = m.ParseAndValidate(s)
		assert.Error(t, err)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := m.ParseAndValidate("not-a-token")
		assert.Error(t, err)
	})
}
