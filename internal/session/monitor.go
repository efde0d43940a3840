// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mmiapp/mmiapp-tui/internal/credential"
	"github.com/mmiapp/mmiapp-tui/internal/logging"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds the monitor timings.
type Config struct {
	// CheckInterval is how often the stored token is inspected (default: 1 minute).
	CheckInterval time.Duration

	// WarningThreshold is how long before expiry the warning starts
	// (default: 10 minutes). Zero disables the warning.
	WarningThreshold time.Duration

	// CountdownInterval drives the countdown while warning (default: 1 second).
	CountdownInterval time.Duration
}

// DefaultConfig returns the default monitor configuration.
func DefaultConfig() Config {
	return Config{
		CheckInterval:     time.Minute,
		WarningThreshold:  10 * time.Minute,
		CountdownInterval: time.Second,
	}
}

// =============================================================================
// COLLABORATORS
// =============================================================================

// Terminator ends the session on behalf of the monitor.
// Both methods clear the credential and redirect to the login destination.
type Terminator interface {
	// Expire ends a session whose token ran out and tells the user.
	Expire()
	// Logout ends a session the user closed.
	Logout()
}

// Refresher obtains a fresh token from the backend.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// ErrStopped is returned when an event is sent to a monitor that is not running.
var ErrStopped = errors.New("session monitor stopped")

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// WithRefresher makes Extend renew the token instead of only dismissing the warning.
func WithRefresher(r Refresher) Option {
	return func(m *Monitor) { m.refresher = r }
}

// WithObserver registers fn to be called after every state change.
// fn runs on the monitor goroutine and must not block.
func WithObserver(fn func(State)) Option {
	return func(m *Monitor) { m.observers = append(m.observers, fn) }
}

// =============================================================================
// MONITOR
// =============================================================================

// Monitor feeds timer and user events into a Machine and acts on the result.
type Monitor struct {
	cfg       Config
	machine   Machine
	store     credential.Store
	term      Terminator
	refresher Refresher
	logger    *zap.Logger
	now       func() time.Time
	observers []func(State)

	events chan Event
	done   chan struct{}

	mu      sync.Mutex
	state   State
	running bool
	token   string
}

// NewMonitor creates a monitor over store. Zero config fields take defaults,
// except WarningThreshold where zero is meaningful.
func NewMonitor(store credential.Store, term Terminator, cfg Config, opts ...Option) *Monitor {
	def := DefaultConfig()
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = def.CheckInterval
	}
	if cfg.CountdownInterval <= 0 {
		cfg.CountdownInterval = def.CountdownInterval
	}
	if cfg.WarningThreshold < 0 {
		cfg.WarningThreshold = 0
	}

	m := &Monitor{
		cfg:     cfg,
		machine: Machine{Threshold: cfg.WarningThreshold},
		store:   store,
		term:    term,
		logger:  zap.NewNop(),
		now:     time.Now,
		events:  make(chan Event),
		done:    make(chan struct{}),
		state:   IdleState,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Config returns the effective configuration.
func (m *Monitor) Config() Config {
	return m.cfg
}

// Run drives the monitor until ctx is cancelled or the session ends.
// It returns nil when the session ended and ctx.Err() on cancellation.
// A Monitor runs at most once.
func (m *Monitor) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("session monitor already running")
	}
	m.running = true
	m.mu.Unlock()
	defer close(m.done)

	check := time.NewTicker(m.cfg.CheckInterval)
	defer check.Stop()

	var countdown *time.Ticker
	var countdownC <-chan time.Time
	stopCountdown := func() {
		if countdown != nil {
			countdown.Stop()
			countdown = nil
			countdownC = nil
		}
	}
	defer stopCountdown()

	ev := Event(m.tick())
	for {
		if m.apply(ev) {
			return nil
		}

		if m.State().Phase == Warning {
			if countdown == nil {
				countdown = time.NewTicker(m.cfg.CountdownInterval)
				countdownC = countdown.C
			}
		} else {
			stopCountdown()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-check.C:
			ev = m.tick()
		case <-countdownC:
			ev = m.tick()
		case ev = <-m.events:
		}
	}
}

// Extend keeps the session alive. With a Refresher the token is renewed
// and stored first; without one the warning is only dismissed and the
// token still expires at its original time.
func (m *Monitor) Extend(ctx context.Context) error {
	if m.refresher != nil {
		token, err := m.refresher.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("refresh session: %w", err)
		}
		rec, err := m.store.Get()
		if err != nil {
			return fmt.Errorf("refresh session: %w", err)
		}
		rec.Token = token
		if err := m.store.Set(rec); err != nil {
			return fmt.Errorf("refresh session: %w", err)
		}
	}
	return m.send(ctx, ExtendRequested{})
}

// Logout ends the session at the user's request.
func (m *Monitor) Logout(ctx context.Context) error {
	return m.send(ctx, LogoutRequested{})
}

// Done is closed when Run returns.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

func (m *Monitor) send(ctx context.Context, ev Event) error {
	select {
	case m.events <- ev:
		return nil
	case <-m.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// tick reads the stored credential and builds a Tick for the current time.
func (m *Monitor) tick() Tick {
	now := m.now()

	rec, err := m.store.Get()
	if err != nil {
		if !errors.Is(err, credential.ErrNotFound) {
			m.logger.Warn("stored credential unreadable",
				logging.Event(logging.EventCredentialDecodeFailed),
				zap.String("error", logging.Redact(err.Error())))
		}
		m.setToken("")
		return Tick{Now: now}
	}

	claims, err := credential.Decode(rec.Token)
	if err != nil {
		m.logger.Warn("stored token undecodable",
			logging.Event(logging.EventCredentialDecodeFailed),
			logging.Token(rec.Token),
			zap.String("error", logging.Redact(err.Error())))
		m.setToken("")
		return Tick{Now: now}
	}

	m.setToken(rec.Token)
	return Tick{Now: now, ExpiresAt: claims.Expiry(), HasCredential: true}
}

func (m *Monitor) setToken(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

// apply runs ev through the machine and performs side effects.
// It reports whether the session ended.
func (m *Monitor) apply(ev Event) bool {
	m.mu.Lock()
	prev := m.state
	next := m.machine.Transition(prev, ev)
	m.state = next
	token := m.token
	m.mu.Unlock()

	if next != prev {
		m.logTransition(prev, next, ev, token)
		for _, fn := range m.observers {
			fn(next)
		}
	}

	if next.Phase != Expired {
		return false
	}

	if _, ok := ev.(LogoutRequested); ok {
		m.term.Logout()
	} else {
		m.term.Expire()
	}
	return true
}

func (m *Monitor) logTransition(prev, next State, ev Event, token string) {
	switch {
	case next.Phase == Warning && prev.Phase != Warning:
		m.logger.Info("session nearing expiry",
			logging.Event(logging.EventSessionWarning),
			logging.Token(token),
			zap.Int("seconds_remaining", next.SecondsRemaining))
	case next.Phase == Idle && prev.Phase == Warning:
		if _, ok := ev.(ExtendRequested); ok {
			m.logger.Info("session extended",
				logging.Event(logging.EventSessionExtended),
				logging.Token(token),
				zap.Bool("refreshed", m.refresher != nil))
		}
	case next.Phase == Expired:
		if _, ok := ev.(LogoutRequested); ok {
			m.logger.Info("session closed", logging.Event(logging.EventLogout), logging.Token(token))
			return
		}
		m.logger.Info("session expired",
			logging.Event(logging.EventSessionExpired),
			logging.Token(token),
			zap.String("from", prev.Phase.String()))
	}
}
