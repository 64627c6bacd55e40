// Package limiter defines interfaces and implementations for login rate limiting.
package limiter

import (
	"context"
	"crypto/sha256"
	"time"
)

// Limiter controls login attempts and temporary lockouts per (login, client ip).
type Limiter interface {
	// Allow reports whether login is currently allowed and optional retry-after.
	Allow(ctx context.Context, login string, ipHash []byte) (bool, time.Duration, error)
	// Success resets counters after a successful login.
	Success(ctx context.Context, login string, ipHash []byte) error
	// Failure records a failed attempt; may place a temporary block.
	Failure(ctx context.Context, login string, ipHash []byte) (bool, time.Duration, error)
}

// Policy is the lockout policy shared by all backends.
type Policy struct {
	Window   time.Duration // failures older than this are forgotten
	MaxFails int           // failures inside Window that trigger a block
	BlockFor time.Duration // block duration
}

// HashIP returns a stable hash for an IP string to avoid storing raw addresses.
func HashIP(ip string) []byte {
	h := sha256.Sum256([]byte(ip))
	return h[:]
}

// Noop never blocks.
type Noop struct{}

func (Noop) Allow(context.Context, string, []byte) (bool, time.Duration, error) { return true, 0, nil }
func (Noop) Success(context.Context, string, []byte) error                      { return nil }
func (Noop) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	return false, 0, nil
}
