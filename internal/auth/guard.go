// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"errors"
	"io"
	"net/http"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/mmiapp/mmiapp-tui/internal/credential"
	"github.com/mmiapp/mmiapp-tui/internal/logging"
)

// NoticeSessionExpired is shown when the backend rejects the token or it expires.
const NoticeSessionExpired = "Session expirée, veuillez vous reconnecter"

// =============================================================================
// COLLABORATORS
// =============================================================================

// Navigator moves the host UI to a destination. The destination replaces
// the current one: going back must not return to the protected screen.
type Navigator interface {
	Redirect(path string)
}

// Notifier shows a transient notice to the user.
type Notifier interface {
	Notify(message string)
}

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Status is the outcome of the last Validate call.
type Status int

const (
	StatusChecking Status = iota
	StatusAuthenticated
	StatusRedirected
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusChecking:
		return "checking"
	case StatusAuthenticated:
		return "authenticated"
	case StatusRedirected:
		return "redirected"
	default:
		return "unknown"
	}
}

// Option configures a Guard.
type Option func(*Guard)

// WithLoginPath sets where failed checks redirect.
func WithLoginPath(path string) Option {
	return func(g *Guard) {
		if path != "" {
			g.loginPath = path
		}
	}
}

// WithHTTPClient sets the client used by Do.
func WithHTTPClient(c Doer) Option {
	return func(g *Guard) { g.client = c }
}

// WithGuardLogger sets the logger.
func WithGuardLogger(l *zap.Logger) Option {
	return func(g *Guard) { g.logger = l }
}

// =============================================================================
// GUARD
// =============================================================================

// Guard validates the stored credential and authenticates requests.
// It is safe for concurrent use.
type Guard struct {
	store     credential.Store
	nav       Navigator
	notifier  Notifier
	client    Doer
	loginPath string
	logger    *zap.Logger

	// mu serializes recovery so it runs once per credential.
	mu     sync.Mutex
	ended  string
	status Status
	onEnd  []func()
	// redirected is set once a recovery has sent the user to the login
	// destination; it is cleared by SignIn and by each new Validate.
	redirected bool
}

// NewGuard creates a guard over store.
func NewGuard(store credential.Store, nav Navigator, notifier Notifier, opts ...Option) *Guard {
	g := &Guard{
		store:     store,
		nav:       nav,
		notifier:  notifier,
		client:    http.DefaultClient,
		loginPath: DefaultLoginPath,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// LoginPath returns the redirect destination for failed checks.
func (g *Guard) LoginPath() string {
	return g.loginPath
}

// Status returns the outcome of the last Validate call.
func (g *Guard) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// OnEnd registers fn to run after every session end (recovery or logout).
func (g *Guard) OnEnd(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onEnd = append(g.onEnd, fn)
}

// Validate checks the stored credential on entry to a protected screen.
// With no required roles any signed-in user is accepted. On failure the
// session is ended and the user redirected before the error is returned.
func (g *Guard) Validate(required ...int) (credential.Record, error) {
	g.mu.Lock()
	g.status = StatusChecking
	g.redirected = false
	g.mu.Unlock()

	rec, err := g.store.Get()
	if err != nil {
		kind := KindMalformedCredential
		if errors.Is(err, credential.ErrNotFound) {
			kind = KindMissingCredential
		}
		return credential.Record{}, g.reject(kind, "", err)
	}

	if _, err := credential.Decode(rec.Token); err != nil {
		g.logger.Warn("stored token undecodable",
			logging.Event(logging.EventCredentialDecodeFailed),
			logging.Token(rec.Token))
		return credential.Record{}, g.reject(KindMalformedCredential, rec.Token, err)
	}

	if len(required) > 0 && !slices.Contains(required, rec.User.RoleID) {
		g.logger.Info("role not allowed",
			zap.Int("role_id", rec.User.RoleID),
			zap.Ints("required", required))
		return credential.Record{}, g.reject(KindRoleMismatch, rec.Token, nil)
	}

	g.setStatus(StatusAuthenticated)
	g.logger.Info("session validated",
		logging.Event(logging.EventSessionValidated),
		logging.Token(rec.Token),
		zap.Int("role_id", rec.User.RoleID))
	return rec, nil
}

// Do sends req with the stored bearer token. The caller's headers are kept;
// Authorization is replaced. A 401 ends the session and returns an
// *Error of KindServerRejection with no response. Any other response,
// including 5xx, is returned as is.
func (g *Guard) Do(req *http.Request) (*http.Response, error) {
	rec, err := g.store.Get()
	if err != nil {
		kind := KindMalformedCredential
		if errors.Is(err, credential.ErrNotFound) {
			kind = KindMissingCredential
		}
		return nil, g.reject(kind, "", err)
	}

	out := req.Clone(req.Context())
	if out.Header == nil {
		out.Header = make(http.Header)
	}
	out.Header.Set("Authorization", "Bearer "+rec.Token)

	resp, err := g.client.Do(out)
	if err != nil {
		return nil, &Error{Kind: KindNetworkFailure, Op: req.Method + " " + req.URL.Path, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		return nil, g.reject(KindServerRejection, rec.Token, nil)
	}
	return resp, nil
}

// SignIn stores rec as the current credential and redirects to dest.
func (g *Guard) SignIn(rec credential.Record, dest string) error {
	if err := g.store.Set(rec); err != nil {
		return err
	}

	g.mu.Lock()
	g.ended = ""
	g.redirected = false
	g.status = StatusAuthenticated
	g.mu.Unlock()

	g.logger.Info("signed in",
		logging.Event(logging.EventLogin),
		logging.Token(rec.Token),
		zap.Int("user_id", rec.User.ID),
		zap.Int("role_id", rec.User.RoleID))
	g.nav.Redirect(dest)
	return nil
}

// Logout ends the session at the user's request. No notice is shown.
func (g *Guard) Logout() {
	g.end(endLogout, g.currentToken())
}

// Expire ends a session whose token ran out and shows the expiry notice.
// It does nothing when no credential is stored any more.
func (g *Guard) Expire() {
	token := g.currentToken()
	if token == "" {
		return
	}
	g.end(endExpired, token)
}

func (g *Guard) currentToken() string {
	rec, err := g.store.Get()
	if err != nil {
		return ""
	}
	return rec.Token
}

func (g *Guard) setStatus(s Status) {
	g.mu.Lock()
	g.status = s
	g.mu.Unlock()
}

// reject runs recovery for an authentication failure and builds its error.
func (g *Guard) reject(kind Kind, token string, cause error) error {
	g.logger.Info("session rejected",
		logging.Event(logging.EventSessionRejected),
		logging.Token(token),
		zap.String("kind", kind.String()))

	reason := endSilent
	if kind == KindServerRejection {
		reason = endRejected
	}
	g.end(reason, token)
	g.setStatus(StatusRedirected)

	return &Error{Kind: kind, Op: "auth", Err: cause}
}

type endReason int

const (
	endSilent endReason = iota
	endRejected
	endExpired
	endLogout
)

func (r endReason) notifies() bool {
	return r == endRejected || r == endExpired
}

// end clears the credential, redirects and notifies.
// For a given token it acts once; a failure reported against a token that is
// no longer the stored one is stale and ignored. With no token at all it is a
// no-op once a recovery has already redirected.
func (g *Guard) end(reason endReason, token string) {
	g.mu.Lock()

	if token == "" && g.redirected {
		g.mu.Unlock()
		return
	}
	if token != "" {
		if token == g.ended {
			g.mu.Unlock()
			return
		}
		if current := g.currentToken(); current != "" && current != token {
			g.mu.Unlock()
			g.logger.Debug("ignoring failure for a replaced credential", logging.Token(token))
			return
		}
		g.ended = token
	}

	if err := g.store.Clear(); err != nil {
		g.logger.Error("failed to clear credential", zap.Error(err))
	}
	g.redirected = true
	hooks := slices.Clone(g.onEnd)
	g.mu.Unlock()

	if reason == endLogout {
		g.logger.Info("signed out", logging.Event(logging.EventLogout), logging.Token(token))
	}

	for _, fn := range hooks {
		fn()
	}
	g.nav.Redirect(g.loginPath)
	if reason.notifies() && g.notifier != nil {
		g.notifier.Notify(NoticeSessionExpired)
	}
}
