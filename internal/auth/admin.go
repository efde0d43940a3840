// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	"github.com/mmiapp/mmiapp-tui/internal/logging"
)

// Admin gate errors.
var (
	ErrInvalidAdminCode = errors.New("code d'accès invalide")
	ErrAdminUnavailable = errors.New("admin code verification is not configured")
)

// CodeVerifier asks the backend whether an access code is valid.
type CodeVerifier interface {
	VerifyAdminCode(ctx context.Context, code string) (bool, error)
}

// AdminGate guards the administration area behind an access code.
// With a TOTP secret codes are checked locally; otherwise the backend decides.
// The gate stays unlocked until the session ends. Repeated wrong codes lock
// it for a while; the lockout survives logout.
type AdminGate struct {
	secret   string
	remote   CodeVerifier
	now      func() time.Time
	logger   *zap.Logger
	attempts *AttemptLimiter
	// verifyMu makes the lockout check, the verification and the failure
	// count one step, so concurrent wrong codes cannot overrun the limit.
	verifyMu sync.Mutex
	mu       sync.Mutex
	unlocked bool
}

// NewAdminGate creates a gate. secret may be empty when remote is set.
func NewAdminGate(secret string, remote CodeVerifier, logger *zap.Logger) *AdminGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &AdminGate{
		secret: strings.TrimSpace(secret),
		remote: remote,
		now:    time.Now,
		logger: logger,
	}
	a.SetAttemptLimit(DefaultMaxAttempts, DefaultLockoutDuration)
	return a
}

// SetAttemptLimit replaces the lockout policy. maxAttempts < 1 disables it.
func (a *AdminGate) SetAttemptLimit(maxAttempts int, duration time.Duration) {
	l := NewAttemptLimiter(maxAttempts, duration)
	l.now = func() time.Time { return a.now() }
	a.attempts = l
}

// Attach relocks the gate whenever g ends the session.
func (a *AdminGate) Attach(g *Guard) {
	g.OnEnd(a.Lock)
}

// Unlocked reports whether a valid code was entered in this session.
func (a *AdminGate) Unlocked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.unlocked
}

// Lock closes the gate.
func (a *AdminGate) Lock() {
	a.mu.Lock()
	a.unlocked = false
	a.mu.Unlock()
}

// Verify checks code and unlocks the gate on success.
func (a *AdminGate) Verify(ctx context.Context, code string) error {
	a.verifyMu.Lock()
	defer a.verifyMu.Unlock()

	if err := a.attempts.Check(); err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrInvalidAdminCode
	}

	ok, err := a.check(ctx, code)
	if err != nil {
		return err
	}
	if !ok {
		a.logger.Warn("admin code rejected", logging.Event(logging.EventAdminUnlock),
			zap.Bool("success", false), zap.Int("failures", a.attempts.Failures()+1))
		if lockErr := a.attempts.Fail(); lockErr != nil {
			a.logger.Warn("admin gate locked", logging.Event(logging.EventAdminUnlock),
				zap.Int("lockouts", a.attempts.Lockouts()))
			return lockErr
		}
		return ErrInvalidAdminCode
	}
	a.attempts.Succeed()

	a.mu.Lock()
	a.unlocked = true
	a.mu.Unlock()
	a.logger.Info("admin area unlocked", logging.Event(logging.EventAdminUnlock), zap.Bool("success", true))
	return nil
}

func (a *AdminGate) check(ctx context.Context, code string) (bool, error) {
	if a.secret != "" {
		ok, err := totp.ValidateCustom(code, a.secret, a.now(), totp.ValidateOpts{
			Period:    30,
			Skew:      1,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		})
		if errors.Is(err, otp.ErrValidateInputInvalidLength) {
			return false, nil
		}
		return ok, err
	}
	if a.remote == nil {
		return false, ErrAdminUnavailable
	}
	return a.remote.VerifyAdminCode(ctx, code)
}
