// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// notifications_cmd.go - notifications list and read.

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mmiapp/mmiapp-tui/internal/api"
	"github.com/mmiapp/mmiapp-tui/internal/ui/components"
	"github.com/mmiapp/mmiapp-tui/internal/ui/styles"
	"github.com/mmiapp/mmiapp-tui/internal/util"
)

// HandleNotifications dispatches the notifications subcommands.
func HandleNotifications(ctx context.Context, env *Env) error {
	p := NewArgParser(env.Args.Raw)
	if _, err := env.Guard.Validate(); err != nil {
		return err
	}

	switch sub := p.Subcommand(); sub {
	case "", "list", "ls":
		return notificationsList(ctx, env, p)
	case "read", "show":
		return notificationRead(ctx, env, p)
	default:
		return fmt.Errorf("%w: notifications %s", ErrUnknownCommand, sub)
	}
}

func notificationsList(ctx context.Context, env *Env, p *ArgParser) error {
	items, err := env.Client.ListNotifications(ctx)
	if err != nil {
		return NewCommandError("notifications", "list", err)
	}
	if p.BoolFlag("unread") {
		unread := items[:0]
		for _, n := range items {
			if !n.Read {
				unread = append(unread, n)
			}
		}
		items = unread
	}

	return env.output(CmdNotifications, items, func(w io.Writer) {
		if len(items) == 0 {
			fmt.Fprintln(w, "Aucune notification.")
			return
		}
		width := GetTerminalWidth()
		for _, n := range items {
			mark := " "
			if !n.Read {
				mark = RenderConditional(WarningStyle, "*")
			}
			title := util.PadRight(n.Title, 32)
			line := fmt.Sprintf("%s %4d  %s", mark, n.ID, title)
			if room := width - util.StringWidth(title) - 10; room > 8 {
				line += "  " + RenderConditional(DimStyle, util.TruncateWidth(util.FirstLine(n.Body), room))
			}
			fmt.Fprintln(w, line)
		}
	})
}

func notificationRead(ctx context.Context, env *Env, p *ArgParser) error {
	id, err := ParseID(p.Positional(1), "id")
	if err != nil {
		return err
	}
	items, err := env.Client.ListNotifications(ctx)
	if err != nil {
		return NewCommandError("notifications", "read", err)
	}

	var found *api.Notification
	for i := range items {
		if items[i].ID == id {
			found = &items[i]
			break
		}
	}
	if found == nil {
		return NewCommandError("notifications", "read", &api.Error{Status: 404, Message: fmt.Sprintf("notification %d introuvable", id)})
	}
	if !found.Read {
		if err := env.Client.MarkNotificationRead(ctx, id); err != nil {
			return NewCommandError("notifications", "read", err)
		}
		found.Read = true
	}

	return env.output(CmdNotifications, found, func(w io.Writer) {
		fmt.Fprintln(w, RenderConditional(TitleStyle, found.Title))
		body := markdownRenderer(env.Config.UI.Theme).Render(found.Body, GetTerminalWidth())
		fmt.Fprintln(w, strings.TrimRight(body, "\n"))
	})
}

// markdownRenderer picks the glamour style for stdout.
func markdownRenderer(theme string) *components.MarkdownRenderer {
	switch {
	case !ColorsEnabled():
		return components.NewMarkdownRenderer(components.MarkdownPlain)
	case styles.NewTheme(theme).IsDark:
		return components.NewMarkdownRenderer(components.MarkdownDark)
	default:
		return components.NewMarkdownRenderer(components.MarkdownLight)
	}
}
