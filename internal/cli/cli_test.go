// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmiapp/mmiapp-tui/internal/api"
	"github.com/mmiapp/mmiapp-tui/internal/auth"
	"github.com/mmiapp/mmiapp-tui/internal/config"
	"github.com/mmiapp/mmiapp-tui/internal/credential"
)

// =============================================================================
// PARSING
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		want    Command
		wantRaw []string
		check   func(t *testing.T, a Args)
	}{
		{name: "no args starts the TUI", argv: nil, want: CmdTUI},
		{name: "explicit tui", argv: []string{"tui"}, want: CmdTUI, wantRaw: []string{}},
		{name: "status alias", argv: []string{"status"}, want: CmdWhoami, wantRaw: []string{}},
		{
			name:    "global flags anywhere",
			argv:    []string{"demandes", "--json", "list", "--status", "soumise", "--ephemeral"},
			want:    CmdDemandes,
			wantRaw: []string{"list", "--status", "soumise"},
			check: func(t *testing.T, a Args) {
				require.True(t, a.JSON)
				require.True(t, a.Ephemeral)
				require.False(t, a.Verbose)
			},
		},
		{
			name:    "config path",
			argv:    []string{"--config", "/tmp/x.toml", "-v", "config", "show"},
			want:    CmdConfig,
			wantRaw: []string{"show"},
			check: func(t *testing.T, a Args) {
				require.Equal(t, "/tmp/x.toml", a.ConfigPath)
				require.True(t, a.Verbose)
			},
		},
		{
			name:    "config path with equals",
			argv:    []string{"whoami", "--config=/tmp/y.toml"},
			want:    CmdWhoami,
			wantRaw: []string{},
			check: func(t *testing.T, a Args) {
				require.Equal(t, "/tmp/y.toml", a.ConfigPath)
			},
		},
		{name: "help flag", argv: []string{"--help"}, want: CmdHelp, wantRaw: []string{}},
		{name: "unknown", argv: []string{"frobnicate"}, want: CmdUnknown, wantRaw: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := Parse(tt.argv)
			require.Equal(t, tt.want, cmd)
			if tt.wantRaw != nil {
				require.Equal(t, tt.wantRaw, args.Raw)
			}
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestArgParser(t *testing.T) {
	p := NewArgParser([]string{"show", "12", "--page", "2", "--status=soumise", "--unread", "--all=false"})

	require.Equal(t, "show", p.Subcommand())
	require.Equal(t, "12", p.Positional(1))
	require.Equal(t, "", p.Positional(5))
	require.Equal(t, 2, p.PositionalCount())
	require.Equal(t, []string{"12"}, p.PositionalFrom(1))
	require.Equal(t, "soumise", p.Flag("status"))
	require.Equal(t, "x", p.FlagOrDefault("type", "x"))
	require.True(t, p.BoolFlag("unread"))
	require.False(t, p.BoolFlag("all"))
	require.True(t, p.HasFlag("--all"))

	page, err := p.FlagIntOrDefault("page", 1)
	require.NoError(t, err)
	require.Equal(t, 2, page)

	size, err := p.FlagIntOrDefault("page-size", 20)
	require.NoError(t, err)
	require.Equal(t, 20, size)

	_, err = NewArgParser([]string{"--page", "deux"}).FlagIntOrDefault("page", 1)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestParseID(t *testing.T) {
	id, err := ParseID("42", "id")
	require.NoError(t, err)
	require.Equal(t, 42, id)

	for _, bad := range []string{"", "abc", "0", "-3"} {
		_, err := ParseID(bad, "id")
		require.Error(t, err, bad)
		require.Equal(t, ExitUsageError, GetExitCode(err))
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"validation", NewValidationError("id", "x", "bad"), ExitUsageError},
		{"unknown", fmt.Errorf("%w: foo", ErrUnknownCommand), ExitUsageError},
		{"invalid form", fmt.Errorf("%w: x", api.ErrInvalidForm), ExitUsageError},
		{"config", fmt.Errorf("%w: boom", ErrConfig), ExitConfigError},
		{"missing credential", &auth.Error{Kind: auth.KindMissingCredential}, ExitAuthError},
		{"server rejection", NewCommandError("demandes", "list", &auth.Error{Kind: auth.KindServerRejection}), ExitAuthError},
		{"expired", ErrSessionExpired, ExitAuthError},
		{"bad login", api.ErrInvalidLogin, ExitAuthError},
		{"admin locked", &auth.LockedError{Left: time.Minute}, ExitAuthError},
		{"network", &auth.Error{Kind: auth.KindNetworkFailure, Err: errors.New("dial tcp")}, ExitNetworkError},
		{"network timeout", &auth.Error{Kind: auth.KindNetworkFailure, Err: context.DeadlineExceeded}, ExitTimeoutError},
		{"not found", &api.Error{Status: 404}, ExitNotFoundError},
		{"server error", &api.Error{Status: 500}, ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestDisplayError(t *testing.T) {
	ForceColorsEnabled(false)
	var buf bytes.Buffer
	DisplayError(&buf, "demandes", &auth.Error{Kind: auth.KindServerRejection}, false)
	require.Empty(t, buf.String(), "the guard already told the user")

	DisplayError(&buf, "login", api.ErrInvalidLogin, false)
	require.Contains(t, buf.String(), "Email ou mot de passe incorrect")

	buf.Reset()
	DisplayError(&buf, "demandes", &api.Error{Status: 500, Message: "base indisponible"}, true)
	var resp JSONResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.False(t, resp.Success)
	require.Equal(t, "demandes", resp.Command)
	require.Equal(t, "base indisponible, réessayez plus tard", *resp.Error)

	require.Equal(t, "Demande introuvable", userMessage(&api.Error{Status: 404, Message: "Demande introuvable"}))
	require.Equal(t, "erreur du serveur (HTTP 429), réessayez plus tard", userMessage(&api.Error{Status: 429}))
}

// =============================================================================
// COMMANDS
// =============================================================================

type backend struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	role     int
	ttl      time.Duration
	hits     map[string]int
	unauth   bool
	readIDs  []string
	uploaded map[string]string
}

func newBackend(t *testing.T) *backend {
	b := &backend{t: t, role: auth.RoleDGI, ttl: time.Hour, hits: map[string]int{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			return
		}
		if body["password"] != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "identifiants invalides"})
			return
		}
		b.mu.Lock()
		role, ttl := b.role, b.ttl
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{
			"token": signToken(t, ttl),
			"user":  map[string]any{"id": 3, "roleId": role, "prenom": "Hery", "nom": "Rabe", "email": body["email"]},
		})
	})
	mux.HandleFunc("/api/demandes", func(w http.ResponseWriter, r *http.Request) {
		if b.reject(w, r) {
			return
		}
		assert.Equal(t, "soumise", r.URL.Query().Get("statut"))
		writeJSON(w, http.StatusOK, map[string]any{
			"data":  []map[string]any{{"id": 1, "reference": "MMI-2025-0001", "objet": "Eau minérale", "statut": "soumise"}},
			"total": 1,
			"page":  1,
		})
	})
	mux.HandleFunc("/api/demandes/1/historique", func(w http.ResponseWriter, r *http.Request) {
		if b.reject(w, r) {
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{
			{"statut": "soumise", "acteur": "Demandeur"},
			{"statut": "en_cours", "acteur": "DGI", "commentaire": "Analyse en cours"},
		})
	})
	mux.HandleFunc("/api/notifications", func(w http.ResponseWriter, r *http.Request) {
		if b.reject(w, r) {
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 4, "titre": "Demande approuvée", "message": "Votre demande **MMI-7** est approuvée.", "lu": false},
			{"id": 5, "titre": "Rappel", "message": "x", "lu": true},
		})
	})
	mux.HandleFunc("/api/notifications/4/lu", func(w http.ResponseWriter, r *http.Request) {
		if b.reject(w, r) {
			return
		}
		assert.Equal(t, http.MethodPatch, r.Method)
		b.mu.Lock()
		b.readIDs = append(b.readIDs, "4")
		b.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/demandes/eau-minerale", func(w http.ResponseWriter, r *http.Request) {
		if b.reject(w, r) {
			return
		}
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		got := map[string]string{"societe": r.FormValue("societe"), "debit": r.FormValue("debit")}
		for _, field := range api.RequiredPermitAttachments {
			_, header, err := r.FormFile(field)
			if assert.NoError(t, err, field) {
				got[field] = header.Filename
			}
		}
		b.mu.Lock()
		b.uploaded = got
		b.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]any{"id": 9, "reference": "MMI-EM-0009"})
	})
	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) setTTL(ttl time.Duration) {
	b.mu.Lock()
	b.ttl = ttl
	b.mu.Unlock()
}

// reject answers 401 when the backend is set to refuse tokens.
func (b *backend) reject(w http.ResponseWriter, r *http.Request) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hits[r.URL.Path]++
	assert.True(b.t, strings.HasPrefix(r.Header.Get("Authorization"), "Bearer "), r.URL.Path)
	if b.unauth {
		w.WriteHeader(http.StatusUnauthorized)
		return true
	}
	return false
}

func (b *backend) hitCount(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

func (b *backend) uploadedFields() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.uploaded
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func signToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(ttl).Unix(),
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return tok
}

type harness struct {
	t       *testing.T
	backend *backend
	dir     string
	cfgPath string
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.HomeEnvVar, dir)
	ForceColorsEnabled(false)

	b := newBackend(t)
	cfg := config.Default()
	cfg.API.BaseURL = b.srv.URL + "/api"
	cfg.API.RateLimitRPS = 0
	cfg.Session.StorePath = filepath.Join(dir, "session.db")
	cfg.Log.Path = config.LogPathOff
	if mutate != nil {
		mutate(cfg)
	}
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, config.SaveTOML(cfg, path))
	t.Cleanup(config.ResetGlobalForTesting)

	return &harness{t: t, backend: b, dir: dir, cfgPath: path}
}

type result struct {
	stdout string
	stderr string
	err    error
}

// run executes argv in a fresh Env, as separate invocations would.
func (h *harness) run(stdin string, argv ...string) result {
	h.t.Helper()
	cmd, args := Parse(append([]string{"--config", h.cfgPath}, argv...))

	var stdout, stderr bytes.Buffer
	env, err := NewEnv(args, EnvOptions{
		Stdout:   &stdout,
		Stderr:   &stderr,
		Prompter: NewReaderPrompter(strings.NewReader(stdin), io.Discard),
	})
	require.NoError(h.t, err)
	defer env.Close()

	err = Execute(context.Background(), cmd, env)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func (h *harness) storedRecord() (credential.Record, error) {
	store, err := credential.OpenSQLiteStore(filepath.Join(h.dir, "session.db"))
	require.NoError(h.t, err)
	defer store.Close()
	return store.Get()
}

func (h *harness) login(role int) {
	h.t.Helper()
	h.backend.mu.Lock()
	h.backend.role = role
	h.backend.mu.Unlock()
	res := h.run("secret\n", "login", "--email", "hery@mmi.gov.mg")
	require.NoError(h.t, res.err)
}

func TestLoginWhoamiLogout(t *testing.T) {
	h := newHarness(t, nil)

	res := h.run("secret\n", "login", "--email", "hery@mmi.gov.mg")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "Connecté en tant que Hery Rabe (DGI)")
	require.Contains(t, res.stderr, "redirect -> /dgi")

	rec, err := h.storedRecord()
	require.NoError(t, err)
	require.Equal(t, auth.RoleDGI, rec.User.RoleID)

	res = h.run("", "--json", "whoami")
	require.NoError(t, res.err)
	var resp struct {
		Success bool       `json:"success"`
		Data    WhoamiData `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	require.True(t, resp.Success)
	require.Equal(t, "DGI", resp.Data.Role)
	require.Equal(t, "/dgi", resp.Data.Destination)
	require.Equal(t, "idle", resp.Data.State)
	require.InDelta(t, 3600, resp.Data.RemainingSecs, 5)
	require.Regexp(t, `^\d+:\d\d$`, resp.Data.Remaining)

	res = h.run("", "logout")
	require.NoError(t, res.err)
	require.Contains(t, res.stderr, "redirect -> /login")
	require.NotContains(t, res.stderr, auth.NoticeSessionExpired)
	_, err = h.storedRecord()
	require.ErrorIs(t, err, credential.ErrNotFound)

	res = h.run("", "whoami")
	require.True(t, auth.IsKind(res.err, auth.KindMissingCredential))
	require.Equal(t, ExitAuthError, GetExitCode(res.err))
	require.NotContains(t, res.stderr, auth.NoticeSessionExpired, "entry failures are silent")
}

func TestLogin_BadPassword(t *testing.T) {
	h := newHarness(t, nil)
	res := h.run("wrong\n", "login", "--email", "hery@mmi.gov.mg")
	require.ErrorIs(t, res.err, api.ErrInvalidLogin)
	_, err := h.storedRecord()
	require.ErrorIs(t, err, credential.ErrNotFound)
}

func TestWhoami_WarningAndExpired(t *testing.T) {
	h := newHarness(t, nil)

	h.backend.setTTL(5 * time.Minute)
	h.login(auth.RoleDGI)
	res := h.run("", "whoami")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "bientôt expirée")

	h.backend.setTTL(-time.Minute)
	h.login(auth.RoleDGI)
	res = h.run("", "whoami")
	require.ErrorIs(t, res.err, ErrSessionExpired)
	require.Contains(t, res.stderr, auth.NoticeSessionExpired)
	require.Contains(t, res.stderr, "redirect -> /login")
	_, err := h.storedRecord()
	require.ErrorIs(t, err, credential.ErrNotFound)
}

func TestDemandes(t *testing.T) {
	h := newHarness(t, nil)
	h.login(auth.RoleDGI)

	res := h.run("", "demandes", "list", "--status", "soumise")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "MMI-2025-0001")
	require.Contains(t, res.stdout, "Soumise")

	res = h.run("", "demandes", "timeline", "1")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "Analyse en cours")

	res = h.run("", "demandes", "timeline")
	require.Equal(t, ExitUsageError, GetExitCode(res.err))

	res = h.run("", "demandes", "archive")
	require.ErrorIs(t, res.err, ErrUnknownCommand)
}

func TestDemandes_UnauthorizedEndsSession(t *testing.T) {
	h := newHarness(t, nil)
	h.login(auth.RoleDGI)
	h.backend.mu.Lock()
	h.backend.unauth = true
	h.backend.mu.Unlock()

	res := h.run("", "demandes", "list", "--status", "soumise")
	require.True(t, auth.IsKind(res.err, auth.KindServerRejection))
	require.Equal(t, ExitAuthError, GetExitCode(res.err))
	require.Contains(t, res.stderr, "redirect -> /login")
	require.Equal(t, 1, strings.Count(res.stderr, auth.NoticeSessionExpired))
	require.Empty(t, res.stdout)

	_, err := h.storedRecord()
	require.ErrorIs(t, err, credential.ErrNotFound)
}

func TestDemandes_WithoutCredentialMakesNoRequest(t *testing.T) {
	h := newHarness(t, nil)
	res := h.run("", "demandes")
	require.True(t, auth.IsKind(res.err, auth.KindMissingCredential))
	require.Zero(t, h.backend.hitCount("/api/demandes"))
}

func TestNotifications(t *testing.T) {
	h := newHarness(t, nil)
	h.login(auth.RoleApplicant)

	res := h.run("", "notifications", "--unread")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "Demande approuvée")
	require.NotContains(t, res.stdout, "Rappel")

	res = h.run("", "notifications", "read", "4")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "MMI-7")
	h.backend.mu.Lock()
	require.Equal(t, []string{"4"}, h.backend.readIDs)
	h.backend.mu.Unlock()

	res = h.run("", "notifications", "read", "99")
	require.Equal(t, ExitNotFoundError, GetExitCode(res.err))
}

func TestUpload(t *testing.T) {
	h := newHarness(t, nil)
	h.login(auth.RoleApplicant)

	docs := map[string]string{}
	for _, name := range []string{"statuts.pdf", "plan.png", "analyse.pdf"} {
		p := filepath.Join(h.dir, name)
		require.NoError(t, os.WriteFile(p, []byte("doc "+name), 0600))
		docs[name] = p
	}

	res := h.run("", "upload", "eau-minerale",
		"--societe", "Eaux d'Andekaleka",
		"--source", "Source Ambohimanga",
		"--localisation", "Ambohimanga",
		"--debit", "2,5",
		"--statuts", docs["statuts.pdf"],
		"--plan", docs["plan.png"],
		"--analyse", docs["analyse.pdf"],
	)
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "Demande enregistrée MMI-EM-0009")
	require.Equal(t, map[string]string{
		"societe":                  "Eaux d'Andekaleka",
		"debit":                    "2.5",
		api.AttachmentStatutes:     "statuts.pdf",
		api.AttachmentSiteMap:      "plan.png",
		api.AttachmentWaterAnalyse: "analyse.pdf",
	}, h.backend.uploadedFields())

	res = h.run("", "upload", "eau-minerale", "--societe", "x", "--debit", "1")
	require.ErrorIs(t, res.err, api.ErrInvalidForm)
}

func TestUpload_RoleMismatch(t *testing.T) {
	h := newHarness(t, nil)
	h.login(auth.RoleDGI)

	res := h.run("", "upload", "eau-minerale")
	require.True(t, auth.IsKind(res.err, auth.KindRoleMismatch))
	require.NotContains(t, res.stderr, auth.NoticeSessionExpired)
	require.Zero(t, h.backend.hitCount("/api/demandes/eau-minerale"))
}

func TestAdminUnlock(t *testing.T) {
	const secret = "JBSWY3DPEHPK3PXP"
	h := newHarness(t, func(c *config.Config) {
		c.Admin.TOTPSecret = secret
		c.Admin.VerifyRemote = false
	})
	h.login(auth.RoleSuperAdmin)

	res := h.run("", "admin", "unlock", "--code", "abc")
	require.ErrorIs(t, res.err, auth.ErrInvalidAdminCode)
	require.Equal(t, ExitAuthError, GetExitCode(res.err))

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	res = h.run(code+"\n", "admin", "unlock")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "Accès administrateur accordé")

	res = h.run("", "admin", "routes")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "/superadmin")
}

func TestConfigCommands(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.Admin.TOTPSecret = "JBSWY3DPEHPK3PXP" })

	res := h.run("", "config", "set", "session.warning_threshold_secs", "120")
	require.NoError(t, res.err)

	saved, err := config.LoadFromPath(h.cfgPath)
	require.NoError(t, err)
	require.Equal(t, 120, saved.Session.WarningThresholdSecs)

	res = h.run("", "--json", "config", "get", "session.warning_threshold_secs")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, `"value": 120`)

	res = h.run("", "config", "get", "admin.totp_secret")
	require.NoError(t, res.err)
	require.Equal(t, "[REDACTED]\n", res.stdout)

	res = h.run("", "config", "show")
	require.NoError(t, res.err)
	require.NotContains(t, res.stdout, "JBSWY3DPEHPK3PXP")

	res = h.run("", "config", "path")
	require.NoError(t, res.err)
	require.Equal(t, h.cfgPath+"\n", res.stdout)

	res = h.run("", "config", "set", "session.check_interval_secs", "0")
	require.Error(t, res.err)

	res = h.run("", "config", "set", "nope.key", "1")
	require.Equal(t, ExitUsageError, GetExitCode(res.err))
}

func TestVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HandleVersion(Args{JSON: true}, &buf))
	var resp struct {
		Data VersionData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Equal(t, Version, resp.Data.Version)
}

func TestReporter(t *testing.T) {
	ForceColorsEnabled(false)
	var buf bytes.Buffer
	r := NewReporter(&buf)
	var _ auth.Navigator = r
	var _ auth.Notifier = r

	r.Redirect("/login")
	r.Notify(auth.NoticeSessionExpired)
	require.Equal(t, []string{"redirect -> /login", auth.NoticeSessionExpired}, r.Lines())
	require.Equal(t, "redirect -> /login\n"+auth.NoticeSessionExpired+"\n", buf.String())
}
