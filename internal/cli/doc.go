// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the one-shot commands of
// mmiapp.
//
// Every command runs against an Env: the loaded configuration, the
// credential store, the auth guard and the backend client. In CLI mode
// the guard's redirects and notices are written to stderr, so a command
// whose session ended prints
//
//	redirect -> /login
//	Session expirée, veuillez vous reconnecter
//
// and exits with ExitAuthError.
//
// # Commands
//
//   - tui: the interactive client (default)
//   - login, logout, whoami
//   - demandes, notifications, upload
//   - admin unlock
//   - config, version, help
//
// All commands accept --json and then print a JSONResponse envelope on
// stdout, keeping human-readable messages on stderr.
package cli
