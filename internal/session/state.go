// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"time"
)

// =============================================================================
// STATE
// =============================================================================

// Phase is the coarse session phase.
type Phase int

const (
	// Idle means no expiry is imminent, or no session is held.
	Idle Phase = iota
	// Warning means the token expires within the warning threshold.
	Warning
	// Expired is terminal.
	Expired
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Warning:
		return "warning"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is the monitor state.
// SecondsRemaining is only meaningful in Warning.
type State struct {
	Phase            Phase
	SecondsRemaining int
}

// IdleState is the initial state.
var IdleState = State{Phase: Idle}

// ExpiredState is the terminal state.
var ExpiredState = State{Phase: Expired}

// Countdown renders SecondsRemaining as M:SS.
func (s State) Countdown() string {
	return FormatRemaining(s.SecondsRemaining)
}

// String implements fmt.Stringer.
func (s State) String() string {
	if s.Phase == Warning {
		return "warning(" + s.Countdown() + ")"
	}
	return s.Phase.String()
}

// FormatRemaining renders seconds as minutes:seconds, seconds zero-padded.
// Negative values render as 0:00.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// =============================================================================
// EVENTS
// =============================================================================

// Event is an input to the state machine.
type Event interface {
	isEvent()
}

// Tick reports the clock and the stored token's expiry.
// HasCredential is false when nothing decodable is stored.
type Tick struct {
	Now           time.Time
	ExpiresAt     time.Time
	HasCredential bool
}

// ExtendRequested is sent when the user asks to keep the session.
type ExtendRequested struct{}

// LogoutRequested is sent when the user signs out.
type LogoutRequested struct{}

func (Tick) isEvent()            {}
func (ExtendRequested) isEvent() {}
func (LogoutRequested) isEvent() {}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Machine holds the parameters of the transition function.
type Machine struct {
	// Threshold is how long before expiry Warning starts. Zero disables Warning.
	Threshold time.Duration
}

// Transition returns the state that follows s after ev.
func (m Machine) Transition(s State, ev Event) State {
	if s.Phase == Expired {
		return s
	}

	switch ev := ev.(type) {
	case LogoutRequested:
		return ExpiredState

	case ExtendRequested:
		if s.Phase == Warning {
			return IdleState
		}
		return s

	case Tick:
		if !ev.HasCredential {
			return IdleState
		}
		remaining := ev.ExpiresAt.Sub(ev.Now)
		if remaining <= 0 {
			return ExpiredState
		}
		if m.Threshold > 0 && remaining <= m.Threshold {
			return State{Phase: Warning, SecondsRemaining: ceilSeconds(remaining)}
		}
		return IdleState
	}

	return s
}

// ceilSeconds rounds d up to whole seconds.
func ceilSeconds(d time.Duration) int {
	secs := d / time.Second
	if d%time.Second != 0 {
		secs++
	}
	return int(secs)
}
