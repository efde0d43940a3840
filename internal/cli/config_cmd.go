// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - config show, get, set, keys and path.

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mmiapp/mmiapp-tui/internal/config"
)

// HandleConfig dispatches the config subcommands.
func HandleConfig(env *Env) error {
	p := NewArgParser(env.Args.Raw)
	cfg := env.Config

	switch sub := p.Subcommand(); sub {
	case "", "show":
		var safe map[string]interface{}
		if err := json.Unmarshal([]byte(cfg.String()), &safe); err != nil {
			return err
		}
		return env.output(CmdConfig, safe, func(w io.Writer) {
			fmt.Fprintln(w, RenderConditional(DimStyle, "# "+env.ConfigPath))
			fmt.Fprintln(w, cfg.String())
		})

	case "get":
		key := p.Positional(1)
		if key == "" {
			return NewValidationError("key", "", "expected: config get KEY")
		}
		val, err := cfg.Get(key)
		if err != nil {
			return NewValidationError("key", key, err.Error())
		}
		if key == "admin.totp_secret" && val != "" {
			val = "[REDACTED]"
		}
		return env.output(CmdConfig, ConfigValueData{Key: key, Value: val}, func(w io.Writer) {
			fmt.Fprintln(w, val)
		})

	case "set":
		key, value := p.Positional(1), strings.Join(p.PositionalFrom(2), " ")
		if key == "" || p.PositionalCount() < 3 {
			return NewValidationError("key", key, "expected: config set KEY VALUE")
		}
		next := cfg.Clone()
		if err := next.Set(key, value); err != nil {
			return NewValidationError("key", key, err.Error())
		}
		if err := next.Validate(); err != nil {
			return err
		}
		if err := saveConfig(next, env.ConfigPath); err != nil {
			return fmt.Errorf("%w: %w", ErrConfig, err)
		}
		config.SetGlobal(next)
		env.Config = next
		return env.output(CmdConfig, ConfigValueData{Key: key, Value: value}, func(w io.Writer) {
			fmt.Fprintf(w, "%s %s = %s\n", RenderConditional(SuccessStyle, "[OK]"), key, value)
		})

	case "keys":
		keys := config.GetAllKeys()
		return env.output(CmdConfig, keys, func(w io.Writer) {
			fmt.Fprintln(w, strings.Join(keys, "\n"))
		})

	case "path":
		return env.output(CmdConfig, map[string]string{"path": env.ConfigPath}, func(w io.Writer) {
			fmt.Fprintln(w, env.ConfigPath)
		})

	default:
		return fmt.Errorf("%w: config %s", ErrUnknownCommand, sub)
	}
}

func saveConfig(cfg *config.Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	if strings.HasSuffix(path, ".json") {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}

// HandleVersion prints version information.
func HandleVersion(args Args, w io.Writer) error {
	if args.JSON {
		return NewJSONResponse(CmdVersion.String(), VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}).Write(w)
	}
	_, err := fmt.Fprintln(w, VersionString())
	return err
}
