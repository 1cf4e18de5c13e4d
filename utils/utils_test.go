package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"24.99", "24.99"},
		{"1234.5", "1,234.50"},
		{"9999.99", "9,999.99"},
		{"1000000", "1,000,000.00"},
		{"-12.3", "-12.30"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPrice(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	SetTokenConfig("test-secret", time.Hour)

	token, err := GenerateToken(42, true)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.True(t, claims.IsStaff)

	_, err = ParseToken(token + "x")
	assert.Error(t, err)
}

func TestBlacklistedTokenIsRejected(t *testing.T) {
	SetTokenConfig("test-secret", time.Hour)

	token, err := GenerateToken(7, false)
	require.NoError(t, err)

	BlacklistToken(token, time.Now().Add(time.Minute))
	_, err = ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenBlacklisted)

	BlacklistToken(token, time.Now().Add(-time.Minute))
	assert.False(t, IsTokenBlacklisted(token))
}

func TestBlacklistSweepDropsExpiredTokens(t *testing.T) {
	blacklistMutex.Lock()
	lastBlacklistSweep = time.Now()
	blacklistMutex.Unlock()

	BlacklistToken("expired-never-presented", time.Now().Add(-time.Minute))
	BlacklistToken("still-revoked", time.Now().Add(time.Hour))

	blacklistMutex.Lock()
	_, kept := blacklistedTokens["expired-never-presented"]
	lastBlacklistSweep = time.Now().Add(-blacklistSweepInterval)
	blacklistMutex.Unlock()
	require.True(t, kept)

	assert.False(t, IsTokenBlacklisted("some-other-token"))

	blacklistMutex.Lock()
	_, stale := blacklistedTokens["expired-never-presented"]
	_, live := blacklistedTokens["still-revoked"]
	blacklistMutex.Unlock()
	assert.False(t, stale)
	assert.True(t, live)
}
