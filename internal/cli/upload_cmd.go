// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// upload_cmd.go - request submission with attached documents.

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mmiapp/mmiapp-tui/internal/api"
	"github.com/mmiapp/mmiapp-tui/internal/auth"
)

// permitFileFlags maps command flags to the attachment fields.
var permitFileFlags = []struct {
	flag  string
	field string
}{
	{"statuts", api.AttachmentStatutes},
	{"plan", api.AttachmentSiteMap},
	{"analyse", api.AttachmentWaterAnalyse},
}

// HandleUpload dispatches the upload subcommands. Only applicants may
// submit requests.
func HandleUpload(ctx context.Context, env *Env) error {
	p := NewArgParser(env.Args.Raw)
	switch sub := p.Subcommand(); sub {
	case "eau-minerale", "eau_minerale":
	case "":
		return NewValidationError("type", "", "expected: upload eau-minerale")
	default:
		return fmt.Errorf("%w: upload %s", ErrUnknownCommand, sub)
	}

	if _, err := env.Guard.Validate(auth.RoleApplicant); err != nil {
		return err
	}

	form, files, err := permitFromFlags(p)
	if err != nil {
		return err
	}
	if err := form.Validate(files); err != nil {
		return err
	}

	res, err := env.Client.SubmitMineralWaterPermit(ctx, form, files)
	if err != nil {
		return NewCommandError("upload", "eau-minerale", err)
	}
	return env.output(CmdUpload, res, func(w io.Writer) {
		fmt.Fprintf(w, "%s Demande enregistrée %s\n", RenderConditional(SuccessStyle, "[OK]"), res.Reference)
	})
}

// permitFromFlags reads the permit fields and attachment paths.
func permitFromFlags(p *ArgParser) (api.MineralWaterPermit, []api.Attachment, error) {
	var flow float64
	if raw := p.Flag("debit"); raw != "" {
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil {
			return api.MineralWaterPermit{}, nil, NewValidationError("debit", raw, "must be a number")
		}
		flow = v
	}

	form := api.MineralWaterPermit{
		Company:     p.Flag("societe"),
		NIF:         p.Flag("nif"),
		SourceName:  p.Flag("source"),
		Location:    p.Flag("localisation"),
		Region:      p.Flag("region"),
		FlowRate:    flow,
		Description: p.Flag("description"),
	}

	var files []api.Attachment
	for _, f := range permitFileFlags {
		path := p.Flag(f.flag)
		if path == "" {
			continue
		}
		path = expandHome(path)
		if _, err := os.Stat(path); err != nil {
			return form, nil, NewValidationError(f.flag, path, "file not readable")
		}
		files = append(files, api.Attachment{Field: f.field, Path: path})
	}
	return form, files, nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
