// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing for mmiapp.
package cli

import (
	"context"
	"fmt"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdLogout
	CmdWhoami
	CmdDemandes
	CmdNotifications
	CmdUpload
	CmdAdmin
	CmdConfig
	CmdVersion
	CmdHelp
	CmdUnknown
)

var commandNames = map[Command]string{
	CmdTUI:           "tui",
	CmdLogin:         "login",
	CmdLogout:        "logout",
	CmdWhoami:        "whoami",
	CmdDemandes:      "demandes",
	CmdNotifications: "notifications",
	CmdUpload:        "upload",
	CmdAdmin:         "admin",
	CmdConfig:        "config",
	CmdVersion:       "version",
	CmdHelp:          "help",
}

// String returns the command name used in JSON envelopes.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	JSON       bool   // Output in JSON format
	Ephemeral  bool   // Keep the credential in memory only
	Verbose    bool   // Debug logging
	ConfigPath string // Explicit config file

	// Name is the command as typed, kept for error messages.
	Name string

	// Raw args after the command name, flags included.
	Raw []string
}

const usageText = `mmiapp - Suivi des demandes du Ministère des Mines et de l'Industrie

Usage:
  mmiapp                          Start the TUI (default)
  mmiapp login [--email E]        Sign in (password prompted, or read from stdin)
  mmiapp logout                   Sign out and clear the stored credential
  mmiapp whoami, status           Show the signed-in user and session countdown
  mmiapp demandes [list]          List demandes
    --status S                    Filter by status (soumise, en_cours, ...)
    --page N --page-size N        Paging
  mmiapp demandes show ID         Show one demande
  mmiapp demandes timeline ID     Show the status history of a demande
  mmiapp notifications [list]     List notifications
  mmiapp notifications read ID    Show a notification and mark it read
  mmiapp upload eau-minerale      Submit a mineral water permit
    --societe --source --localisation --debit [--nif --region --description]
    --statuts FILE --plan FILE --analyse FILE
  mmiapp admin unlock [--code C]  Verify the administration access code
  mmiapp config show              Show the configuration
  mmiapp config get KEY           Read one key (dot notation)
  mmiapp config set KEY VALUE     Write one key
  mmiapp config path              Print the config file location
  mmiapp version                  Show version information
  mmiapp help                     Show this help

Global flags:
  --json                          Machine-readable output
  --ephemeral                     Do not persist the credential
  --verbose, -v                   Debug logging
  --config PATH                   Use this config file

Environment:
  MMIAPP_HOME                     Configuration directory (default: ~/.mmiapp)
  MMIAPP_API_URL, MMIAPP_*        Override config keys
  NO_COLOR                        Disable colors
`

// PrintUsage prints the help text.
func PrintUsage() {
	fmt.Print(usageText)
}

// VersionString returns the one-line version banner.
func VersionString() string {
	return fmt.Sprintf("mmiapp %s (commit %s, built %s, %s)", Version, GitCommit, BuildDate, runtime.Version())
}

// Parse splits argv (without the program name) into a command and its
// arguments. Global flags may appear anywhere.
func Parse(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	name := strings.ToLower(remaining[0])
	parsed.Name = name
	parsed.Raw = remaining[1:]

	switch name {
	case "tui":
		return CmdTUI, parsed
	case "login", "signin":
		return CmdLogin, parsed
	case "logout", "signout":
		return CmdLogout, parsed
	case "whoami", "status", "s":
		return CmdWhoami, parsed
	case "demandes", "demande", "d":
		return CmdDemandes, parsed
	case "notifications", "notifs", "n":
		return CmdNotifications, parsed
	case "upload":
		return CmdUpload, parsed
	case "admin":
		return CmdAdmin, parsed
	case "config", "cfg":
		return CmdConfig, parsed
	case "version", "--version":
		return CmdVersion, parsed
	case "help", "-h", "--help":
		return CmdHelp, parsed
	}
	return CmdUnknown, parsed
}

// parseGlobalFlags removes the global flags from args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var parsed Args
	remaining := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--json":
			parsed.JSON = true
		case arg == "--ephemeral":
			parsed.Ephemeral = true
		case arg == "--verbose" || arg == "-v":
			parsed.Verbose = true
		case arg == "--config" && i+1 < len(args):
			parsed.ConfigPath = args[i+1]
			i++
		case strings.HasPrefix(arg, "--config="):
			parsed.ConfigPath = strings.TrimPrefix(arg, "--config=")
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, parsed
}

// Execute runs a one-shot command against env.
func Execute(ctx context.Context, cmd Command, env *Env) error {
	switch cmd {
	case CmdLogin:
		return HandleLogin(ctx, env)
	case CmdLogout:
		return HandleLogout(env)
	case CmdWhoami:
		return HandleWhoami(env)
	case CmdDemandes:
		return HandleDemandes(ctx, env)
	case CmdNotifications:
		return HandleNotifications(ctx, env)
	case CmdUpload:
		return HandleUpload(ctx, env)
	case CmdAdmin:
		return HandleAdmin(ctx, env)
	case CmdConfig:
		return HandleConfig(env)
	case CmdVersion:
		return HandleVersion(env.Args, env.Stdout)
	}
	return fmt.Errorf("%w: %s", ErrUnknownCommand, env.Args.Name)
}
