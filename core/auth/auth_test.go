package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("ok")
	require.NoError(t, err)
	assert.NotEqual(t, "ok", hash)

	assert.True(t, CheckPasswordHash("ok", hash))
	assert.False(t, CheckPasswordHash("not ok", hash))
}

func TestHashPassword_Salted(t *testing.T) {
	first, err := HashPassword("same")
	require.NoError(t, err)
	second, err := HashPassword("same")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, CheckPasswordHash("same", first))
	assert.True(t, CheckPasswordHash("same", second))
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", MaxPasswordLength+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	hash, err := HashPassword(strings.Repeat("x", MaxPasswordLength))
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash(strings.Repeat("x", MaxPasswordLength), hash))
	assert.False(t, CheckPasswordHash(strings.Repeat("x", MaxPasswordLength+1), hash))
}

func TestCheckPasswordHash_Garbage(t *testing.T) {
	assert.False(t, CheckPasswordHash("ok", "not-a-bcrypt-hash"))
}

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	token, err := m.GenerateToken(42, "bond@007.com", true)
	require.NoError(t, err)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "bond@007.com", claims.Email)
	assert.True(t, claims.IsAdmin)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret", time.Hour).GenerateToken(1, "a@b.com", false)
	require.NoError(t, err)

	_, err = NewTokenManager("other", time.Hour).ParseToken(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokenManager_Expired(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	m.ttl = -time.Minute

	token, err := m.GenerateToken(1, "a@b.com", false)
	require.NoError(t, err)

	_, err = m.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_Malformed(t *testing.T) {
	_, err := NewTokenManager("secret", 0).ParseToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
