// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session watches the stored credential and ends the session when
// its token expires.
//
// The lifecycle is a small state machine with three phases:
//
//	Idle ──check: 0 < remaining <= threshold──▶ Warning(seconds)
//	Warning ──extend──▶ Idle
//	Warning ──countdown or check: remaining <= 0──▶ Expired
//	Idle ──check: remaining <= 0──▶ Expired
//
// Machine.Transition is pure. Monitor owns the timers and only feeds events
// into it: a periodic check (default once a minute) and, while in Warning, a
// one-second countdown.
//
// # Key Types
//
//   - State: current phase and seconds remaining
//   - Machine: the pure transition function
//   - Monitor: timer loop that clears the credential and redirects on expiry
//   - Terminator: what the monitor calls to end the session
//
// # Usage
//
//	mon := session.NewMonitor(store, guard, session.DefaultConfig(),
//	    session.WithObserver(func(s session.State) { p.Send(s) }),
//	)
//	go mon.Run(ctx)
//
//	// later, from the warning overlay
//	mon.Extend(ctx)
//
// A token that cannot be decoded counts as no session: the monitor stays Idle
// and only logs the failure. The Auth Guard handles it on the next protected
// screen.
package session
