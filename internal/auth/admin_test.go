// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	valid string
	err   error
	codes []string
}

func (s *stubVerifier) VerifyAdminCode(_ context.Context, code string) (bool, error) {
	s.codes = append(s.codes, code)
	return code == s.valid, s.err
}

func TestAdminGate_TOTP(t *testing.T) {
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "MMIAPP", AccountName: "admin"})
	require.NoError(t, err)

	gate := NewAdminGate(key.Secret(), nil, nil)
	now := time.Now()
	gate.now = func() time.Time { return now }

	require.ErrorIs(t, gate.Verify(context.Background(), "000"), ErrInvalidAdminCode)
	require.False(t, gate.Unlocked())

	code, err := totp.GenerateCode(key.Secret(), now)
	require.NoError(t, err)
	require.NoError(t, gate.Verify(context.Background(), code))
	require.True(t, gate.Unlocked())
}

func TestAdminGate_Remote(t *testing.T) {
	remote := &stubVerifier{valid: "MMI-2024"}
	gate := NewAdminGate("", remote, nil)

	require.ErrorIs(t, gate.Verify(context.Background(), "wrong"), ErrInvalidAdminCode)
	require.NoError(t, gate.Verify(context.Background(), "  MMI-2024 "))
	require.True(t, gate.Unlocked())
	require.Equal(t, []string{"wrong", "MMI-2024"}, remote.codes)
}

func TestAdminGate_RemoteError(t *testing.T) {
	gate := NewAdminGate("", &stubVerifier{err: errors.New("offline")}, nil)
	require.EqualError(t, gate.Verify(context.Background(), "x"), "offline")
	require.False(t, gate.Unlocked())
}

func TestAdminGate_Unconfigured(t *testing.T) {
	gate := NewAdminGate("", nil, nil)
	require.ErrorIs(t, gate.Verify(context.Background(), "123456"), ErrAdminUnavailable)
	require.ErrorIs(t, gate.Verify(context.Background(), ""), ErrInvalidAdminCode)
}

func TestAdminGate_LocksOnLogout(t *testing.T) {
	g, _, _, _ := newTestGuard(t, RoleSuperAdmin)
	gate := NewAdminGate("", &stubVerifier{valid: "ok"}, nil)
	gate.Attach(g)

	require.NoError(t, gate.Verify(context.Background(), "ok"))
	require.True(t, gate.Unlocked())

	g.Logout()
	require.False(t, gate.Unlocked())
}

func TestAdminGate_LocksAfterRepeatedFailures(t *testing.T) {
	remote := &stubVerifier{valid: "ok"}
	gate := NewAdminGate("", remote, nil)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	gate.now = func() time.Time { return now }
	ctx := context.Background()

	require.ErrorIs(t, gate.Verify(ctx, "a"), ErrInvalidAdminCode)
	require.ErrorIs(t, gate.Verify(ctx, "b"), ErrInvalidAdminCode)

	err := gate.Verify(ctx, "c")
	require.ErrorIs(t, err, ErrAdminLocked)
	var locked *LockedError
	require.ErrorAs(t, err, &locked)
	require.Equal(t, now.Add(DefaultLockoutDuration), locked.Until)

	// The right code is refused without asking the backend.
	now = now.Add(time.Minute)
	require.ErrorIs(t, gate.Verify(ctx, "ok"), ErrAdminLocked)
	require.Len(t, remote.codes, 3)
	require.False(t, gate.Unlocked())

	now = now.Add(DefaultLockoutDuration)
	require.NoError(t, gate.Verify(ctx, "ok"))
	require.True(t, gate.Unlocked())
}

func TestAdminGate_SuccessResetsFailures(t *testing.T) {
	gate := NewAdminGate("", &stubVerifier{valid: "ok"}, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.ErrorIs(t, gate.Verify(ctx, "bad"), ErrInvalidAdminCode)
		require.ErrorIs(t, gate.Verify(ctx, "bad"), ErrInvalidAdminCode)
		require.NoError(t, gate.Verify(ctx, "ok"))
	}
	require.Zero(t, gate.attempts.Lockouts())
}

func TestAdminGate_LockoutSurvivesLogout(t *testing.T) {
	g, _, _, _ := newTestGuard(t, RoleSuperAdmin)
	gate := NewAdminGate("", &stubVerifier{valid: "ok"}, nil)
	gate.SetAttemptLimit(1, time.Hour)
	gate.Attach(g)

	require.ErrorIs(t, gate.Verify(context.Background(), "bad"), ErrAdminLocked)
	g.Logout()
	require.ErrorIs(t, gate.Verify(context.Background(), "ok"), ErrAdminLocked)
}

func TestAttemptLimiter_Disabled(t *testing.T) {
	l := NewAttemptLimiter(0, time.Minute)
	for i := 0; i < 10; i++ {
		require.NoError(t, l.Fail())
	}
	require.NoError(t, l.Check())
}

func TestAdminGate_ConcurrentFailuresRespectLimit(t *testing.T) {
	remote := &stubVerifier{valid: "ok"}
	gate := NewAdminGate("", remote, nil)

	var wg sync.WaitGroup
	var locked atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if errors.Is(gate.Verify(context.Background(), "bad"), ErrAdminLocked) {
				locked.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Len(t, remote.codes, DefaultMaxAttempts)
	require.EqualValues(t, 10-DefaultMaxAttempts+1, locked.Load())
	require.Equal(t, 1, gate.attempts.Lockouts())
}
