// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// env.go - Runtime shared by the commands: configuration, logger,
// credential store, guard, backend client and admin gate.

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/mmiapp/mmiapp-tui/internal/api"
	"github.com/mmiapp/mmiapp-tui/internal/auth"
	"github.com/mmiapp/mmiapp-tui/internal/config"
	"github.com/mmiapp/mmiapp-tui/internal/credential"
	"github.com/mmiapp/mmiapp-tui/internal/logging"
	"github.com/mmiapp/mmiapp-tui/internal/session"
)

// =============================================================================
// STDERR REPORTER
// =============================================================================

// Reporter prints the guard's redirects and notices. It implements
// auth.Navigator and auth.Notifier for CLI mode.
type Reporter struct {
	mu  sync.Mutex
	w   io.Writer
	log []string
}

// NewReporter writes to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Redirect implements auth.Navigator.
func (r *Reporter) Redirect(path string) {
	r.print("redirect -> " + path)
}

// Notify implements auth.Notifier.
func (r *Reporter) Notify(message string) {
	r.print(RenderConditional(WarningStyle, message))
}

// Lines returns everything printed so far.
func (r *Reporter) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.log...)
}

func (r *Reporter) print(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, line)
	fmt.Fprintln(r.w, line)
}

// =============================================================================
// ENV
// =============================================================================

// Env is everything a command needs.
type Env struct {
	Args       Args
	Config     *config.Config
	ConfigPath string
	Logger     *zap.Logger
	Store      credential.Store
	Router     *auth.Router
	Guard      *auth.Guard
	Client     *api.Client
	Admin      *auth.AdminGate

	Stdout   io.Writer
	Stderr   io.Writer
	Prompter *Prompter

	closers []func() error
}

// EnvOptions override parts of the environment.
type EnvOptions struct {
	// Navigator and Notifier receive the guard's redirects and notices
	// (default: a Reporter on Stderr).
	Navigator auth.Navigator
	Notifier  auth.Notifier

	// Store replaces the configured credential store.
	Store credential.Store

	Stdout   io.Writer
	Stderr   io.Writer
	Prompter *Prompter
}

// NewEnv loads the configuration and wires the runtime.
func NewEnv(args Args, opts EnvOptions) (*Env, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Navigator == nil || opts.Notifier == nil {
		rep := NewReporter(opts.Stderr)
		if opts.Navigator == nil {
			opts.Navigator = rep
		}
		if opts.Notifier == nil {
			opts.Notifier = rep
		}
	}
	if opts.Prompter == nil {
		opts.Prompter = NewPrompter(opts.Stderr)
	}

	cfg, path, err := loadConfig(args.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	config.SetGlobal(cfg)

	env := &Env{
		Args:       args,
		Config:     cfg,
		ConfigPath: path,
		Stdout:     opts.Stdout,
		Stderr:     opts.Stderr,
		Prompter:   opts.Prompter,
	}

	logOpts := logging.Options{Level: cfg.Log.Level}
	if cfg.LoggingEnabled() {
		logOpts.Path = cfg.Log.Path
	}
	if args.Verbose {
		logOpts.Level = "debug"
	}
	env.Logger, err = logging.New(logOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	env.closers = append(env.closers, func() error {
		// stderr sync fails on terminals
		_ = env.Logger.Sync()
		return nil
	})

	switch {
	case opts.Store != nil:
		env.Store = opts.Store
	case args.Ephemeral:
		env.Store = credential.NewMemoryStore()
	default:
		store, err := credential.OpenSQLiteStore(cfg.Session.StorePath)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.Store = store
		env.closers = append(env.closers, store.Close)
	}

	httpClient := api.NewHTTPClient(cfg.RequestTimeout())
	env.Router = auth.NewRouter(cfg.Session.LoginPath, cfg.RouteOverrides())
	env.Guard = auth.NewGuard(env.Store, opts.Navigator, opts.Notifier,
		auth.WithLoginPath(cfg.Session.LoginPath),
		auth.WithHTTPClient(httpClient),
		auth.WithGuardLogger(env.Logger),
	)

	env.Client, err = api.New(api.Options{
		BaseURL:        cfg.API.BaseURL,
		Timeout:        cfg.RequestTimeout(),
		RateLimitRPS:   cfg.API.RateLimitRPS,
		RateLimitBurst: cfg.API.RateLimitBurst,
		RefreshPath:    cfg.API.RefreshPath,
		MaxUploadBytes: int64(cfg.API.MaxUploadMB) << 20,
		UserAgent:      "mmiapp/" + Version,
		HTTPClient:     httpClient,
		Logger:         env.Logger,
	}, env.Guard)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	var remote auth.CodeVerifier
	if cfg.Admin.VerifyRemote {
		remote = env.Client
	}
	env.Admin = auth.NewAdminGate(cfg.Admin.TOTPSecret, remote, env.Logger)
	env.Admin.SetAttemptLimit(cfg.AdminLockout())
	env.Admin.Attach(env.Guard)

	return env, nil
}

// SessionConfig returns the monitor timings from the configuration.
func (e *Env) SessionConfig() session.Config {
	cfg := session.DefaultConfig()
	cfg.CheckInterval = e.Config.CheckInterval()
	cfg.WarningThreshold = e.Config.WarningThreshold()
	return cfg
}

// Close releases the store and flushes the logger.
func (e *Env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// loadConfig reads path, or the default location when path is empty.
// It returns the file that `config set` writes back to.
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		config.LoadDotEnv()
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			cfg := config.Default()
			if err := cfg.ApplyEnvOverrides(); err != nil {
				return nil, "", err
			}
			cfg.SetDefaults()
			return cfg, path, cfg.Validate()
		}
		cfg, err := config.LoadFromPath(path)
		return cfg, path, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, "", err
	}
	def, err := config.ConfigPathTOML()
	if err != nil {
		return nil, "", err
	}
	if _, statErr := os.Stat(def); statErr != nil {
		if jsonPath, err := config.ConfigPathJSON(); err == nil {
			if _, err := os.Stat(jsonPath); err == nil {
				def = jsonPath
			}
		}
	}
	return cfg, def, nil
}
