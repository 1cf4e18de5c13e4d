package utils

import (
	"errors"
	"sync"
	"time"
)

var ErrTokenBlacklisted = errors.New("token has been revoked")

// blacklistSweepInterval bounds how long expired entries linger.
const blacklistSweepInterval = 10 * time.Minute

var (
	blacklistedTokens  = make(map[string]time.Time)
	lastBlacklistSweep time.Time
	blacklistMutex     sync.Mutex
)

// sweepBlacklist drops expired entries when a sweep is due. Caller holds the mutex.
func sweepBlacklist(now time.Time) {
	if now.Sub(lastBlacklistSweep) < blacklistSweepInterval {
		return
	}
	for token, expiry := range blacklistedTokens {
		if !now.Before(expiry) {
			delete(blacklistedTokens, token)
		}
	}
	lastBlacklistSweep = now
}

// BlacklistToken revokes a token until its own expiry.
func BlacklistToken(token string, until time.Time) {
	blacklistMutex.Lock()
	defer blacklistMutex.Unlock()
	sweepBlacklist(time.Now())
	blacklistedTokens[token] = until
}

func IsTokenBlacklisted(token string) bool {
	now := time.Now()

	blacklistMutex.Lock()
	defer blacklistMutex.Unlock()
	sweepBlacklist(now)

	expiry, exists := blacklistedTokens[token]
	if !exists {
		return false
	}
	if now.Before(expiry) {
		return true
	}
	delete(blacklistedTokens, token)
	return false
}

// ValidateToken parses a bearer token and rejects revoked ones.
func ValidateToken(tokenString string) (*CustomClaims, error) {
	if IsTokenBlacklisted(tokenString) {
		return nil, ErrTokenBlacklisted
	}
	return ParseToken(tokenString)
}
