package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	token, err := GenerateToken("u1", "ada@school.org", "teacher", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "teacher", claims.Role)

	_, err = ValidateToken(token, "other")
	assert.Error(t, err)
}

func TestParseUnverifiedExpiry(t *testing.T) {
	expired, err := GenerateToken("u1", "ada@school.org", "teacher", "secret", -time.Minute)
	require.NoError(t, err)

	claims, err := ParseUnverified(expired)
	require.NoError(t, err)
	assert.True(t, claims.Expired(time.Now()))

	fresh, err := GenerateToken("u1", "ada@school.org", "teacher", "secret", time.Hour)
	require.NoError(t, err)
	claims, err = ParseUnverified(fresh)
	require.NoError(t, err)
	assert.False(t, claims.Expired(time.Now()))

	_, err = ParseUnverified("not-a-token")
	assert.Error(t, err)
}
