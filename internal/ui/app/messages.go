// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/mmiapp/mmiapp-tui/internal/api"
	"github.com/mmiapp/mmiapp-tui/internal/config"
	"github.com/mmiapp/mmiapp-tui/internal/credential"
	"github.com/mmiapp/mmiapp-tui/internal/session"
)

// ConfigChangedMsg delivers a reloaded configuration.
type ConfigChangedMsg struct {
	Config *config.Config
}

// sessionStateMsg reports a monitor state change. gen identifies the
// monitor so reports from a replaced monitor are dropped.
type sessionStateMsg struct {
	gen   int
	state session.State
}

// validatedMsg is the outcome of the guard check for a screen.
type validatedMsg struct {
	route route
	rec   credential.Record
	err   error
}

type loginDoneMsg struct {
	err error
}

type extendDoneMsg struct {
	err error
}

type demandesLoadedMsg struct {
	page *api.DemandePage
	err  error
}

type demandeLoadedMsg struct {
	id       int
	demande  *api.Demande
	timeline []api.TimelineEntry
	err      error
}

type notificationsLoadedMsg struct {
	items []api.Notification
	err   error
}

type notificationReadMsg struct {
	id  int
	err error
}

type uploadDoneMsg struct {
	result *api.SubmitResult
	err    error
}

type adminVerifiedMsg struct {
	err error
}
