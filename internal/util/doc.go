// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the CLI and the TUI.
//
//   - AtomicWriteFile: crash-safe file replacement
//   - TruncateWidth, PadRight, StringWidth: terminal-width aware text
//   - Fold, ContainsFold: accent and case insensitive matching for French text
package util
