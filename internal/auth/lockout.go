// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// =============================================================================
// LOCKOUT CONSTANTS
// =============================================================================

const (
	// DefaultMaxAttempts is the number of consecutive wrong codes before lockout.
	DefaultMaxAttempts = 3

	// DefaultLockoutDuration is how long the gate refuses codes once locked.
	DefaultLockoutDuration = 15 * time.Minute
)

// ErrAdminLocked is returned while too many wrong codes keep the gate closed.
var ErrAdminLocked = errors.New("trop de tentatives, accès administrateur bloqué")

// LockedError reports when a locked gate accepts codes again.
type LockedError struct {
	Until time.Time
	Left  time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s (réessayez dans %s)", ErrAdminLocked, e.Left.Round(time.Second))
}

// Is makes errors.Is(err, ErrAdminLocked) match.
func (e *LockedError) Is(target error) bool {
	return target == ErrAdminLocked
}

// =============================================================================
// ATTEMPT LIMITER
// =============================================================================

// AttemptLimiter counts consecutive failed attempts and locks for a fixed
// duration once the limit is reached. A success resets the count.
type AttemptLimiter struct {
	maxAttempts int
	duration    time.Duration
	now         func() time.Time

	mu          sync.Mutex
	count       int
	lockedUntil time.Time
	lockouts    int
}

// NewAttemptLimiter creates a limiter. maxAttempts < 1 disables it.
func NewAttemptLimiter(maxAttempts int, duration time.Duration) *AttemptLimiter {
	return &AttemptLimiter{maxAttempts: maxAttempts, duration: duration, now: time.Now}
}

// Check returns a *LockedError while the limiter is locked.
func (l *AttemptLimiter) Check() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lockErr()
}

// lockErr requires l.mu.
func (l *AttemptLimiter) lockErr() error {
	if l.lockedUntil.IsZero() {
		return nil
	}
	now := l.now()
	if !now.Before(l.lockedUntil) {
		l.lockedUntil = time.Time{}
		l.count = 0
		return nil
	}
	return &LockedError{Until: l.lockedUntil, Left: l.lockedUntil.Sub(now)}
}

// Fail records a failed attempt. It returns a *LockedError when this
// attempt triggered the lockout.
func (l *AttemptLimiter) Fail() error {
	if l.maxAttempts < 1 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count++
	if l.count < l.maxAttempts {
		return nil
	}
	l.lockouts++
	l.lockedUntil = l.now().Add(l.duration)
	return &LockedError{Until: l.lockedUntil, Left: l.duration}
}

// Succeed clears the failure count.
func (l *AttemptLimiter) Succeed() {
	l.mu.Lock()
	l.count = 0
	l.mu.Unlock()
}

// Failures returns the consecutive failure count.
func (l *AttemptLimiter) Failures() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Lockouts returns how many times the limiter has locked.
func (l *AttemptLimiter) Lockouts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lockouts
}
