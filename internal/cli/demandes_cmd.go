// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// demandes_cmd.go - demandes list, show and timeline.

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mmiapp/mmiapp-tui/internal/api"
	"github.com/mmiapp/mmiapp-tui/internal/ui/components"
	"github.com/mmiapp/mmiapp-tui/internal/util"
)

// HandleDemandes dispatches the demandes subcommands.
func HandleDemandes(ctx context.Context, env *Env) error {
	p := NewArgParser(env.Args.Raw)
	if _, err := env.Guard.Validate(); err != nil {
		return err
	}

	switch sub := p.Subcommand(); sub {
	case "", "list", "ls":
		return demandesList(ctx, env, p)
	case "show":
		return demandeShow(ctx, env, p)
	case "timeline", "history":
		return demandeTimeline(ctx, env, p)
	default:
		return fmt.Errorf("%w: demandes %s", ErrUnknownCommand, sub)
	}
}

func demandesList(ctx context.Context, env *Env, p *ArgParser) error {
	page, err := p.FlagIntOrDefault("page", 1)
	if err != nil {
		return err
	}
	size, err := p.FlagIntOrDefault("page-size", env.Config.UI.PageSize)
	if err != nil {
		return err
	}

	res, err := env.Client.ListDemandes(ctx, api.DemandeFilter{
		Status:   p.Flag("status"),
		Type:     p.Flag("type"),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		return NewCommandError("demandes", "list", err)
	}

	return env.output(CmdDemandes, res, func(w io.Writer) {
		if len(res.Items) == 0 {
			fmt.Fprintln(w, "Aucune demande.")
			return
		}
		width := GetTerminalWidth()
		subjectWidth := width - 16 - 26 - 12 - 6
		if subjectWidth < 12 {
			subjectWidth = 12
		}
		fmt.Fprintln(w, RenderConditional(SectionStyle, fmt.Sprintf("Demandes (page %d, %d au total)", res.Page, res.Total)))
		for _, d := range res.Items {
			status := api.StatusLabel(d.Status)
			if ColorsEnabled() {
				status = components.StatusBadge(d.Status)
			}
			fmt.Fprintf(w, "%s  %s  %s  %s\n",
				util.PadRight(util.TruncateWidth(d.Reference, 16), 16),
				util.PadRight(status, 26),
				util.PadRight(util.TruncateWidth(d.Subject, subjectWidth), subjectWidth),
				formatDate(d.CreatedAt.IsZero(), d.CreatedAt.Local().Format("02/01/2006")),
			)
		}
	})
}

func demandeShow(ctx context.Context, env *Env, p *ArgParser) error {
	id, err := ParseID(p.Positional(1), "id")
	if err != nil {
		return err
	}
	d, err := env.Client.GetDemande(ctx, id)
	if err != nil {
		return NewCommandError("demandes", "show", err)
	}

	return env.output(CmdDemandes, d, func(w io.Writer) {
		fmt.Fprintln(w, RenderConditional(TitleStyle, d.Reference))
		fmt.Fprintln(w, RenderField("Objet", d.Subject))
		fmt.Fprintln(w, RenderField("Type", d.Type))
		fmt.Fprintln(w, RenderField("Statut", statusText(d.Status)))
		if d.Applicant != "" {
			fmt.Fprintln(w, RenderField("Demandeur", d.Applicant))
		}
		if d.Service != "" {
			fmt.Fprintln(w, RenderField("Service", d.Service))
		}
		fmt.Fprintln(w, RenderField("Déposée le", formatDate(d.CreatedAt.IsZero(), d.CreatedAt.Local().Format(components.TimelineDateFormat))))
		fmt.Fprintln(w, RenderField("Mise à jour", formatDate(d.UpdatedAt.IsZero(), d.UpdatedAt.Local().Format(components.TimelineDateFormat))))
	})
}

func demandeTimeline(ctx context.Context, env *Env, p *ArgParser) error {
	id, err := ParseID(p.Positional(1), "id")
	if err != nil {
		return err
	}
	entries, err := env.Client.Timeline(ctx, id)
	if err != nil {
		return NewCommandError("demandes", "timeline", err)
	}

	return env.output(CmdDemandes, entries, func(w io.Writer) {
		fmt.Fprintln(w, RenderConditional(TitleStyle, fmt.Sprintf("Historique de la demande %d", id)))
		fmt.Fprintln(w, strings.TrimRight(components.RenderTimeline(entries, GetTerminalWidth()), "\n"))
	})
}

func statusText(status string) string {
	if ColorsEnabled() {
		return components.StatusBadge(status)
	}
	return api.StatusLabel(status)
}

func formatDate(zero bool, formatted string) string {
	if zero {
		return "-"
	}
	return formatted
}
