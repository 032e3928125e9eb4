package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReferralCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z0-9]{8}$`)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateReferralCode(ReferralCodeLength)
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1)

	_, err := GenerateReferralCode(0)
	assert.Error(t, err)
}

func TestJWTRoundTrip(t *testing.T) {
	token, expiresAt, err := GenerateJWT(42, "operator", "secret", time.Hour, time.Now())
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	id, claims, err := ValidateJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "operator", claims.Role)

	_, _, err = ValidateJWT(token, "other-secret")
	assert.Error(t, err)
}

func TestJWTExpired(t *testing.T) {
	token, _, err := GenerateJWT(42, "operator", "secret", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, _, err = ValidateJWT(token, "secret")
	assert.Error(t, err)
}
