// mmiapp - Terminal client for the MMIAPP demand-tracking service.
//
// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mmiapp/mmiapp-tui/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])

	switch cmd {
	case cli.CmdTUI:
		exit(cmd, args, cli.RunTUI(args))
	case cli.CmdHelp:
		cli.PrintUsage()
	case cli.CmdVersion:
		exit(cmd, args, cli.HandleVersion(args, os.Stdout))
	case cli.CmdUnknown:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args.Name)
		cli.PrintUsage()
		os.Exit(cli.ExitUsageError)
	default:
		exit(cmd, args, run(cmd, args))
	}
}

func run(cmd cli.Command, args cli.Args) error {
	env, err := cli.NewEnv(args, cli.EnvOptions{})
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return cli.Execute(ctx, cmd, env)
}

func exit(cmd cli.Command, args cli.Args, err error) {
	if err == nil {
		return
	}
	out := os.Stderr
	if args.JSON {
		out = os.Stdout
	}
	cli.DisplayError(out, cmd.String(), err, args.JSON)
	os.Exit(cli.GetExitCode(err))
}
