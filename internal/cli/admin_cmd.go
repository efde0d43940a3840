// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// admin_cmd.go - administration access code and role routes.

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/mmiapp/mmiapp-tui/internal/auth"
)

// HandleAdmin dispatches the admin subcommands. Both require the
// superadmin role.
func HandleAdmin(ctx context.Context, env *Env) error {
	p := NewArgParser(env.Args.Raw)
	if _, err := env.Guard.Validate(auth.RoleSuperAdmin); err != nil {
		return err
	}

	switch sub := p.Subcommand(); sub {
	case "", "unlock":
		code := p.Flag("code")
		if code == "" {
			var err error
			if code, err = env.Prompter.Secret("Code d'accès"); err != nil {
				return err
			}
		}
		if err := env.Admin.Verify(ctx, code); err != nil {
			return err
		}
		return env.output(CmdAdmin, map[string]bool{"unlocked": true}, func(w io.Writer) {
			fmt.Fprintf(w, "%s Accès administrateur accordé\n", RenderConditional(SuccessStyle, "[OK]"))
		})

	case "routes":
		routes := env.Router.Routes()
		return env.output(CmdAdmin, routes, func(w io.Writer) {
			fmt.Fprintln(w, RenderConditional(SectionStyle, "Destinations par rôle"))
			for _, r := range routes {
				fmt.Fprintln(w, "  "+r)
			}
		})

	default:
		return fmt.Errorf("%w: admin %s", ErrUnknownCommand, sub)
	}
}
