// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// isolate points the config directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(HomeEnvVar, dir)
	for _, name := range []string{
		"MMIAPP_API_URL", "MMIAPP_REQUEST_TIMEOUT", "MMIAPP_REFRESH_PATH",
		"MMIAPP_CHECK_INTERVAL", "MMIAPP_WARNING_THRESHOLD", "MMIAPP_LOGIN_PATH",
		"MMIAPP_STORE_PATH", "MMIAPP_ADMIN_TOTP_SECRET", "MMIAPP_LOG_LEVEL",
		"MMIAPP_LOG_PATH", "MMIAPP_THEME",
	} {
		t.Setenv(name, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

// =============================================================================
// DEFAULTS AND LOADING
// =============================================================================

func TestDefault(t *testing.T) {
	dir := isolate(t)
	cfg := Default()

	require.NoError(t, cfg.Validate())
	require.Equal(t, 30*time.Second, cfg.RequestTimeout())
	require.Equal(t, time.Minute, cfg.CheckInterval())
	require.Equal(t, 10*time.Minute, cfg.WarningThreshold())
	require.Equal(t, "/login", cfg.Session.LoginPath)
	require.Equal(t, filepath.Join(dir, "session.db"), cfg.Session.StorePath)
	require.True(t, cfg.LoggingEnabled())
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default().API, cfg.API)
}

func TestLoad_TOML(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), `
[api]
base_url = "https://mmi.example.mg/api/"
refresh_path = "/auth/refresh"

[session]
warning_threshold_secs = 0
login_path = "/connexion"

[routes]
4 = "/direction-generale"
`)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://mmi.example.mg/api", cfg.API.BaseURL)
	require.Equal(t, "/auth/refresh", cfg.API.RefreshPath)
	require.Equal(t, 30, cfg.API.RequestTimeoutSecs, "unset keys keep defaults")
	require.Zero(t, cfg.WarningThreshold(), "zero threshold is kept")
	require.Equal(t, "/connexion", cfg.Session.LoginPath)
	require.Equal(t, map[int]string{4: "/direction-generale"}, cfg.RouteOverrides())
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.json"), `{"api": {"base_url": "http://10.0.0.5:8000"}}`)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://10.0.0.5:8000", cfg.API.BaseURL)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), `[session]
check_interval_secs = -5
`)
	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "session.check_interval_secs")
}

func TestLoad_FixesPermissions(t *testing.T) {
	if os.Getenv("OS") == "Windows_NT" {
		t.Skip("file modes are not enforced on Windows")
	}
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("version = \"1\"\n"), 0644))

	_, err := LoadFromPath(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("MMIAPP_API_URL", "https://override.example.mg")
	t.Setenv("MMIAPP_WARNING_THRESHOLD", "120")
	t.Setenv("MMIAPP_LOGIN_PATH", "/auth")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://override.example.mg", cfg.API.BaseURL)
	require.Equal(t, 2*time.Minute, cfg.WarningThreshold())
	require.Equal(t, "/auth", cfg.Session.LoginPath)
}

func TestEnvOverrides_BadInteger(t *testing.T) {
	isolate(t)
	t.Setenv("MMIAPP_REQUEST_TIMEOUT", "soon")
	_, err := Load()
	require.ErrorContains(t, err, "MMIAPP_REQUEST_TIMEOUT")
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "MMIAPP_THEME=light\n")
	t.Cleanup(func() { os.Unsetenv("MMIAPP_THEME") })
	// isolate set MMIAPP_THEME to ""; godotenv only fills unset variables
	os.Unsetenv("MMIAPP_THEME")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "light", cfg.UI.Theme)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate_CollectsErrors(t *testing.T) {
	isolate(t)
	cfg := Default()
	cfg.API.BaseURL = "ftp://nope"
	cfg.API.RequestTimeoutSecs = 0
	cfg.Session.LoginPath = "login"
	cfg.Routes["dgi"] = "dgi"
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	var verrs ValidateErrors
	require.ErrorAs(t, err, &verrs)

	fields := map[string]bool{}
	for _, e := range verrs {
		fields[e.Field] = true
	}
	for _, f := range []string{"api.base_url", "api.request_timeout_secs", "session.login_path", "routes.dgi", "log.level"} {
		require.True(t, fields[f], "missing error for %s", f)
	}
}

func TestSetDefaults_KeepsZeroThreshold(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	require.Zero(t, cfg.Session.WarningThresholdSecs)
	require.Equal(t, 60, cfg.Session.CheckIntervalSecs)
	require.NotNil(t, cfg.Routes)
}

// =============================================================================
// GET / SET
// =============================================================================

func TestGetSet(t *testing.T) {
	isolate(t)
	cfg := Default()

	v, err := cfg.Get("session.login_path")
	require.NoError(t, err)
	require.Equal(t, "/login", v)

	require.NoError(t, cfg.Set("session.warning_threshold_secs", "300"))
	require.Equal(t, 5*time.Minute, cfg.WarningThreshold())

	require.NoError(t, cfg.Set("admin.verify_remote", "false"))
	require.False(t, cfg.Admin.VerifyRemote)

	require.NoError(t, cfg.Set("routes.3", "/secretariat-general"))
	v, err = cfg.Get("routes.3")
	require.NoError(t, err)
	require.Equal(t, "/secretariat-general", v)

	_, err = cfg.Get("session.nope")
	require.Error(t, err)
	require.Error(t, cfg.Set("routes.x", "/y"))
	require.Error(t, cfg.Set("session.check_interval_secs", "often"))
	require.Error(t, cfg.Set("api.base_url.x", "y"))
}

func TestGetAllKeysResolve(t *testing.T) {
	isolate(t)
	cfg := Default()
	for _, key := range GetAllKeys() {
		_, err := cfg.Get(key)
		require.NoError(t, err, key)
	}
}

func TestString_RedactsSecret(t *testing.T) {
	isolate(t)
	cfg := Default()
	cfg.Admin.TOTPSecret = "JBSWY3DPEHPK3PXP"

	require.NotContains(t, cfg.String(), "JBSWY3DPEHPK3PXP")
	require.Equal(t, "JBSWY3DPEHPK3PXP", cfg.Admin.TOTPSecret)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := isolate(t)
	cfg := Default()
	cfg.API.BaseURL = "https://mmi.example.mg"
	cfg.Routes["5"] = "/ddpi-bis"

	tomlPath := filepath.Join(dir, "out.toml")
	require.NoError(t, SaveTOML(cfg, tomlPath))
	loaded, err := LoadFromPath(tomlPath)
	require.NoError(t, err)
	require.Equal(t, cfg.API, loaded.API)
	require.Equal(t, cfg.Routes, loaded.Routes)

	jsonPath := filepath.Join(dir, "out.json")
	require.NoError(t, SaveJSON(cfg, jsonPath))
	loaded, err = LoadFromPath(jsonPath)
	require.NoError(t, err)
	require.Equal(t, cfg.Session, loaded.Session)
}

// =============================================================================
// GLOBAL
// =============================================================================

func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

func TestConfig_ConcurrentReload(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)
	_ = Global()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cfg, err := Load(); err == nil {
				SetGlobal(cfg)
			}
		}()
	}
	for i := 0; i < 80; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

// =============================================================================
// WATCH
// =============================================================================

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "[session]\nwarning_threshold_secs = 600\n")

	changes := make(chan *Config, 4)
	w, err := Watch(path, 20*time.Millisecond, func(c *Config) { changes <- c }, nil)
	require.NoError(t, err)
	defer w.Close()

	writeFile(t, path, "[session]\nwarning_threshold_secs = 90\n")

	select {
	case cfg := <-changes:
		require.Equal(t, 90*time.Second, cfg.WarningThreshold())
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after write")
	}

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestWatch_ReportsInvalidFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "")

	errs := make(chan error, 4)
	w, err := Watch(path, 20*time.Millisecond, nil, func(err error) { errs <- err })
	require.NoError(t, err)
	defer w.Close()

	writeFile(t, path, "[api\n")

	select {
	case err := <-errs:
		require.Error(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("no error reported")
	}
}

func TestAdminLockout(t *testing.T) {
	cfg := Default()
	attempts, d := cfg.AdminLockout()
	require.Equal(t, 3, attempts)
	require.Equal(t, 15*time.Minute, d)

	cfg.Admin.MaxAttempts = -1
	require.NoError(t, cfg.Validate())

	cfg.Admin.MaxAttempts = -2
	cfg.Admin.LockoutMinutes = 0
	var verrs ValidateErrors
	require.ErrorAs(t, cfg.Validate(), &verrs)
	require.Len(t, verrs, 2)

	cfg = &Config{}
	cfg.SetDefaults()
	attempts, _ = cfg.AdminLockout()
	require.Equal(t, 3, attempts)
}
