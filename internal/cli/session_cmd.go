// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// session_cmd.go - login, logout and whoami.

package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mmiapp/mmiapp-tui/internal/auth"
	"github.com/mmiapp/mmiapp-tui/internal/credential"
	"github.com/mmiapp/mmiapp-tui/internal/session"
)

// HandleLogin signs in and stores the credential. The password is read
// from the terminal without echo, or as the first line of stdin.
func HandleLogin(ctx context.Context, env *Env) error {
	p := NewArgParser(env.Args.Raw)

	email := p.Flag("email")
	if email == "" {
		var err error
		if email, err = env.Prompter.Line("Email"); err != nil {
			return err
		}
	}
	password, err := env.Prompter.Secret("Mot de passe")
	if err != nil {
		return err
	}
	if email == "" {
		return NewValidationError("email", "", "is required")
	}
	if password == "" {
		return NewValidationError("password", "", "is required")
	}

	resp, err := env.Client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	rec := resp.Record()
	if !auth.KnownRole(rec.User.RoleID) {
		return NewCommandError("login", "role", fmt.Errorf("rôle %d non pris en charge", rec.User.RoleID))
	}

	dest := env.Router.Destination(rec.User.RoleID)
	if err := env.Guard.SignIn(rec, dest); err != nil {
		return err
	}

	data := LoginData{
		UserID:      rec.User.ID,
		Name:        rec.User.DisplayName(),
		Role:        auth.RoleName(rec.User.RoleID),
		Destination: dest,
	}
	return env.output(CmdLogin, data, func(w io.Writer) {
		fmt.Fprintf(w, "%s Connecté en tant que %s (%s)\n",
			RenderConditional(SuccessStyle, "[OK]"), data.Name, data.Role)
	})
}

// HandleLogout clears the stored credential.
func HandleLogout(env *Env) error {
	env.Guard.Logout()
	return env.output(CmdLogout, map[string]bool{"signed_out": true}, func(w io.Writer) {
		fmt.Fprintln(w, "Déconnecté.")
	})
}

// HandleWhoami validates the stored credential and reports the session.
// An expired token ends the session the way the monitor would.
func HandleWhoami(env *Env) error {
	rec, err := env.Guard.Validate()
	if err != nil {
		return err
	}

	now := time.Now()
	exp, err := credential.ExpiresAt(rec.Token)
	if err != nil {
		return err
	}
	state := session.Machine{Threshold: env.Config.WarningThreshold()}.Transition(
		session.IdleState,
		session.Tick{Now: now, ExpiresAt: exp, HasCredential: true},
	)
	if state.Phase == session.Expired {
		env.Guard.Expire()
		return ErrSessionExpired
	}

	secs := int(exp.Sub(now) / time.Second)
	data := WhoamiData{
		UserID:        rec.User.ID,
		Name:          rec.User.DisplayName(),
		Email:         rec.User.Email,
		RoleID:        rec.User.RoleID,
		Role:          auth.RoleName(rec.User.RoleID),
		Destination:   env.Router.Destination(rec.User.RoleID),
		ExpiresAt:     exp.Format(time.RFC3339),
		Remaining:     session.FormatRemaining(secs),
		RemainingSecs: secs,
		State:         state.Phase.String(),
	}

	return env.output(CmdWhoami, data, func(w io.Writer) {
		fmt.Fprintln(w, RenderConditional(TitleStyle, data.Name))
		fmt.Fprintln(w, RenderField("Rôle", fmt.Sprintf("%s (%d)", data.Role, data.RoleID)))
		if data.Email != "" {
			fmt.Fprintln(w, RenderField("Email", data.Email))
		}
		fmt.Fprintln(w, RenderField("Espace", data.Destination))
		fmt.Fprintln(w, RenderField("Expire le", exp.Local().Format("02/01/2006 15:04:05")))
		remaining := data.Remaining
		if state.Phase == session.Warning {
			remaining = RenderConditional(WarningStyle, remaining+" (bientôt expirée)")
		}
		fmt.Fprintln(w, RenderField("Temps restant", remaining))
	})
}

// output prints data as a JSON envelope or through human.
func (e *Env) output(cmd Command, data interface{}, human func(w io.Writer)) error {
	if e.Args.JSON {
		return NewJSONResponse(cmd.String(), data).Write(e.Stdout)
	}
	human(e.Stdout)
	return nil
}
