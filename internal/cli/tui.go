// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - Interactive client.

package cli

import (
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/mmiapp/mmiapp-tui/internal/config"
	"github.com/mmiapp/mmiapp-tui/internal/ui/app"
	"github.com/mmiapp/mmiapp-tui/internal/ui/styles"
)

// RunTUI starts the interactive client. The guard redirects and notifies
// through the program's bridge; config file edits reach the running
// session monitor.
func RunTUI(args Args) error {
	bridge := app.NewBridge()
	env, err := NewEnv(args, EnvOptions{Navigator: bridge, Notifier: bridge})
	if err != nil {
		return err
	}
	defer env.Close()

	start := env.Router.LoginPath()
	if rec, err := env.Store.Get(); err == nil {
		start = env.Router.Destination(rec.User.RoleID)
	}

	theme := styles.NewTheme(env.Config.UI.Theme)
	theme.Compact = env.Config.UI.CompactMode

	model := app.New(app.Deps{
		Guard:     env.Guard,
		Backend:   env.Client,
		Store:     env.Store,
		Router:    env.Router,
		Bridge:    bridge,
		Admin:     env.Admin,
		Session:   env.SessionConfig(),
		Logger:    env.Logger,
		Theme:     theme,
		PageSize:  env.Config.UI.PageSize,
		StartPath: start,
	})

	if _, err := os.Stat(filepath.Dir(env.ConfigPath)); err == nil {
		watcher, err := config.Watch(env.ConfigPath, 0,
			func(cfg *config.Config) {
				config.SetGlobal(cfg)
				bridge.Post(app.ConfigChangedMsg{Config: cfg})
			},
			func(err error) {
				env.Logger.Warn("config reload failed", zap.Error(err))
			},
		)
		if err != nil {
			env.Logger.Warn("config watch unavailable", zap.Error(err))
		} else {
			defer watcher.Close()
		}
	}

	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if m, ok := final.(app.Model); ok {
		m.Close()
	} else {
		model.Close()
	}
	return err
}
