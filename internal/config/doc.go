// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for mmiapp.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// .env files, environment variable overrides, validation and hot reload.
//
// # Key Types
//
//   - Config: main configuration structure
//   - APIConfig: backend URL, timeout, rate limit, refresh endpoint
//   - SessionConfig: check interval, warning threshold, login path, store path
//   - Watcher: reloads the file when it changes
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (MMIAPP_*), including those from .env files
//   - ~/.mmiapp/config.toml
//   - ~/.mmiapp/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	threshold := cfg.WarningThreshold()
package config
