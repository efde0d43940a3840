// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the mmiapp terminal application: a Bubble Tea model with
// one screen per front-end view (login, role dashboards, demandes, timeline,
// notifications, permit upload, admin area).
//
// # Session handling
//
// Every protected screen is entered through auth.Guard.Validate, run as a
// command. Once a screen is authenticated a session.Monitor runs in the
// background; its state drives the warning overlay and its expiry ends the
// session through the guard.
//
// # Bridge
//
// The guard and the monitor act from goroutines. They reach the model
// through a Bridge, which implements auth.Navigator and auth.Notifier by
// queueing messages that a listening command feeds back into Update.
// Redirects replace the whole screen stack.
package app
