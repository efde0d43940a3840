// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/mmiapp/mmiapp-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the main configuration structure for mmiapp.
type Config struct {
	Version string `toml:"version" json:"version"`

	API     APIConfig         `toml:"api" json:"api"`
	Session SessionConfig     `toml:"session" json:"session"`
	Routes  map[string]string `toml:"routes" json:"routes"`
	Admin   AdminConfig       `toml:"admin" json:"admin"`
	Log     LogConfig         `toml:"log" json:"log"`
	UI      UIConfig          `toml:"ui" json:"ui"`
}

// APIConfig describes the backend.
type APIConfig struct {
	// BaseURL is the backend root, e.g. "https://mmiapp.example.mg/api".
	BaseURL string `toml:"base_url" json:"base_url"`

	// RequestTimeoutSecs bounds every backend call (default: 30).
	RequestTimeoutSecs int `toml:"request_timeout_secs" json:"request_timeout_secs"`

	// RateLimitRPS and RateLimitBurst throttle outgoing calls.
	RateLimitRPS   float64 `toml:"rate_limit_rps" json:"rate_limit_rps"`
	RateLimitBurst int     `toml:"rate_limit_burst" json:"rate_limit_burst"`

	// RefreshPath enables real token refresh when the warning is dismissed.
	// Empty means dismissing the warning does not renew the token.
	RefreshPath string `toml:"refresh_path" json:"refresh_path"`

	// MaxUploadMB caps each attached file (default: 10).
	MaxUploadMB int `toml:"max_upload_mb" json:"max_upload_mb"`
}

// SessionConfig drives the session monitor and the guard.
type SessionConfig struct {
	// CheckIntervalSecs is how often the token expiry is inspected (default: 60).
	CheckIntervalSecs int `toml:"check_interval_secs" json:"check_interval_secs"`

	// WarningThresholdSecs is how long before expiry the warning shows
	// (default: 600). Zero disables the warning.
	WarningThresholdSecs int `toml:"warning_threshold_secs" json:"warning_threshold_secs"`

	// LoginPath is where failed checks redirect (default: "/login").
	LoginPath string `toml:"login_path" json:"login_path"`

	// StorePath is the credential database (default: ~/.mmiapp/session.db).
	StorePath string `toml:"store_path" json:"store_path"`
}

// AdminConfig configures the administration access-code gate.
type AdminConfig struct {
	// TOTPSecret enables local verification of 6-digit codes.
	TOTPSecret string `toml:"totp_secret" json:"totp_secret"`

	// VerifyRemote lets the backend verify codes when no secret is set.
	VerifyRemote bool `toml:"verify_remote" json:"verify_remote"`

	// MaxAttempts wrong codes lock the gate for LockoutMinutes
	// (defaults: 3 and 15). -1 disables the lockout.
	MaxAttempts    int `toml:"max_attempts" json:"max_attempts"`
	LockoutMinutes int `toml:"lockout_minutes" json:"lockout_minutes"`
}

// LogConfig configures the structured log file.
type LogConfig struct {
	Level string `toml:"level" json:"level"`
	// Path is the log file; "-" logs to stderr, "off" disables logging.
	Path string `toml:"path" json:"path"`
}

// UIConfig contains UI preferences.
type UIConfig struct {
	Theme       string `toml:"theme" json:"theme"`
	CompactMode bool   `toml:"compact_mode" json:"compact_mode"`
	PageSize    int    `toml:"page_size" json:"page_size"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// CurrentVersion is the config schema version.
const CurrentVersion = "1"

// LogPathOff disables logging.
const LogPathOff = "off"

// Default returns a configuration with default values.
func Default() *Config {
	dir, err := ConfigDir()
	if err != nil {
		dir = ".mmiapp"
	}
	return &Config{
		Version: CurrentVersion,
		API: APIConfig{
			BaseURL:            "http://localhost:8000/api",
			RequestTimeoutSecs: 30,
			RateLimitRPS:       10,
			RateLimitBurst:     20,
			MaxUploadMB:        10,
		},
		Session: SessionConfig{
			CheckIntervalSecs:    60,
			WarningThresholdSecs: 600,
			LoginPath:            "/login",
			StorePath:            filepath.Join(dir, "session.db"),
		},
		Routes: map[string]string{},
		Admin: AdminConfig{
			VerifyRemote:   true,
			MaxAttempts:    3,
			LockoutMinutes: 15,
		},
		Log: LogConfig{
			Level: "info",
			Path:  filepath.Join(dir, "mmiapp.log"),
		},
		UI: UIConfig{
			Theme:    "dark",
			PageSize: 20,
		},
	}
}

// RequestTimeout returns the backend call timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.API.RequestTimeoutSecs) * time.Second
}

// CheckInterval returns the session check interval.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.Session.CheckIntervalSecs) * time.Second
}

// WarningThreshold returns how long before expiry the warning starts.
func (c *Config) WarningThreshold() time.Duration {
	return time.Duration(c.Session.WarningThresholdSecs) * time.Second
}

// RouteOverrides returns the [routes] table keyed by role id.
// Entries with a non-numeric key are skipped; Validate reports them.
func (c *Config) RouteOverrides() map[int]string {
	out := make(map[int]string, len(c.Routes))
	for k, v := range c.Routes {
		id, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		out[id] = v
	}
	return out
}

// AdminLockout returns the admin gate lockout policy.
func (c *Config) AdminLockout() (maxAttempts int, duration time.Duration) {
	return c.Admin.MaxAttempts, time.Duration(c.Admin.LockoutMinutes) * time.Minute
}

// LoggingEnabled reports whether a log destination is configured.
func (c *Config) LoggingEnabled() bool {
	return c.Log.Path != "" && c.Log.Path != LogPathOff
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// HomeEnvVar overrides the configuration directory.
const HomeEnvVar = "MMIAPP_HOME"

// ConfigDir returns the mmiapp configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnvVar); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".mmiapp"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions restricts a config file to its owner.
// The file may hold the admin TOTP secret.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config directory.
// Tries TOML first, then JSON, and falls back to defaults.
// .env files are read before environment overrides are applied.
func Load() (*Config, error) {
	LoadDotEnv()

	for _, candidate := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := candidate()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads ./.env and <config dir>/.env when present.
// Variables already set in the environment win.
func LoadDotEnv() {
	paths := []string{".env"}
	if dir, err := ConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, ".env"))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not read %s: %v\n", p, err)
			}
		}
	}
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep
// their current value.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finish applies env overrides and defaults, then validates.
func (c *Config) finish() error {
	if err := c.ApplyEnvOverrides(); err != nil {
		return err
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# mmiapp configuration file\n")
	b.WriteString("# Generated by mmiapp - edit with care\n\n")

	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var validThemes = map[string]bool{"dark": true, "light": true, "auto": true}

// Validate validates the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if c.API.BaseURL == "" {
		add("api.base_url", "must not be empty")
	} else if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("api.base_url", "must be an absolute http(s) URL")
	}
	if c.API.RequestTimeoutSecs < 1 || c.API.RequestTimeoutSecs > 600 {
		add("api.request_timeout_secs", "must be between 1 and 600")
	}
	if c.API.RateLimitRPS < 0 {
		add("api.rate_limit_rps", "must not be negative")
	}
	if c.API.RateLimitBurst < 0 {
		add("api.rate_limit_burst", "must not be negative")
	}
	if c.API.RefreshPath != "" && !strings.HasPrefix(c.API.RefreshPath, "/") {
		add("api.refresh_path", "must start with '/'")
	}
	if c.API.MaxUploadMB < 1 || c.API.MaxUploadMB > 100 {
		add("api.max_upload_mb", "must be between 1 and 100")
	}

	if c.Session.CheckIntervalSecs < 1 {
		add("session.check_interval_secs", "must be at least 1")
	}
	if c.Session.WarningThresholdSecs < 0 {
		add("session.warning_threshold_secs", "must not be negative")
	}
	if !strings.HasPrefix(c.Session.LoginPath, "/") {
		add("session.login_path", "must start with '/'")
	}
	if c.Session.StorePath == "" {
		add("session.store_path", "must not be empty")
	}

	for k, v := range c.Routes {
		if _, err := strconv.Atoi(k); err != nil {
			add("routes."+k, "key must be a numeric role id")
		}
		if !strings.HasPrefix(v, "/") {
			add("routes."+k, "destination must start with '/'")
		}
	}

	if c.Admin.MaxAttempts < -1 {
		add("admin.max_attempts", "must be -1 (disabled) or positive")
	}
	if c.Admin.LockoutMinutes < 1 {
		add("admin.lockout_minutes", "must be at least 1")
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		add("log.level", "must be one of debug, info, warn, error")
	}
	if !validThemes[c.UI.Theme] {
		add("ui.theme", "must be one of dark, light, auto")
	}
	if c.UI.PageSize < 1 {
		add("ui.page_size", "must be at least 1")
	}

	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
		return errs
	}
	return nil
}

// SetDefaults fills zero values that have no meaning of their own.
// WarningThresholdSecs is left alone: zero disables the warning.
func (c *Config) SetDefaults() {
	def := Default()

	if c.Version == "" {
		c.Version = def.Version
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = def.API.BaseURL
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.RequestTimeoutSecs == 0 {
		c.API.RequestTimeoutSecs = def.API.RequestTimeoutSecs
	}
	if c.API.RateLimitBurst == 0 && c.API.RateLimitRPS > 0 {
		c.API.RateLimitBurst = int(c.API.RateLimitRPS) + 1
	}
	if c.API.MaxUploadMB == 0 {
		c.API.MaxUploadMB = def.API.MaxUploadMB
	}
	if c.Session.CheckIntervalSecs == 0 {
		c.Session.CheckIntervalSecs = def.Session.CheckIntervalSecs
	}
	if c.Session.LoginPath == "" {
		c.Session.LoginPath = def.Session.LoginPath
	}
	if c.Session.StorePath == "" {
		c.Session.StorePath = def.Session.StorePath
	}
	if c.Routes == nil {
		c.Routes = map[string]string{}
	}
	if c.Admin.MaxAttempts == 0 {
		c.Admin.MaxAttempts = def.Admin.MaxAttempts
	}
	if c.Admin.LockoutMinutes == 0 {
		c.Admin.LockoutMinutes = def.Admin.LockoutMinutes
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
	if c.UI.PageSize == 0 {
		c.UI.PageSize = def.UI.PageSize
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - MMIAPP_API_URL: api.base_url
//   - MMIAPP_REQUEST_TIMEOUT: api.request_timeout_secs
//   - MMIAPP_REFRESH_PATH: api.refresh_path
//   - MMIAPP_CHECK_INTERVAL: session.check_interval_secs
//   - MMIAPP_WARNING_THRESHOLD: session.warning_threshold_secs
//   - MMIAPP_LOGIN_PATH: session.login_path
//   - MMIAPP_STORE_PATH: session.store_path
//   - MMIAPP_ADMIN_TOTP_SECRET: admin.totp_secret
//   - MMIAPP_LOG_LEVEL, MMIAPP_LOG_PATH: log.level, log.path
//   - MMIAPP_THEME: ui.theme
func (c *Config) ApplyEnvOverrides() error {
	strVars := map[string]*string{
		"MMIAPP_API_URL":           &c.API.BaseURL,
		"MMIAPP_REFRESH_PATH":      &c.API.RefreshPath,
		"MMIAPP_LOGIN_PATH":        &c.Session.LoginPath,
		"MMIAPP_STORE_PATH":        &c.Session.StorePath,
		"MMIAPP_ADMIN_TOTP_SECRET": &c.Admin.TOTPSecret,
		"MMIAPP_LOG_LEVEL":         &c.Log.Level,
		"MMIAPP_LOG_PATH":          &c.Log.Path,
		"MMIAPP_THEME":             &c.UI.Theme,
	}
	for name, dst := range strVars {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	intVars := map[string]*int{
		"MMIAPP_REQUEST_TIMEOUT":   &c.API.RequestTimeoutSecs,
		"MMIAPP_CHECK_INTERVAL":    &c.Session.CheckIntervalSecs,
		"MMIAPP_WARNING_THRESHOLD": &c.Session.WarningThresholdSecs,
	}
	for name, dst := range intVars {
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", name, v)
		}
		*dst = n
	}
	return nil
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "session.login_path").
// Route overrides are addressed as "routes.<role id>".
func (c *Config) Get(key string) (interface{}, error) {
	if id, ok := strings.CutPrefix(key, "routes."); ok {
		v, found := c.Routes[id]
		if !found {
			return nil, fmt.Errorf("no route override for role %s", id)
		}
		return v, nil
	}

	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation.
func (c *Config) Set(key string, value interface{}) error {
	if id, ok := strings.CutPrefix(key, "routes."); ok {
		if _, err := strconv.Atoi(id); err != nil {
			return fmt.Errorf("route key must be a numeric role id: %s", id)
		}
		if c.Routes == nil {
			c.Routes = map[string]string{}
		}
		c.Routes[id] = fmt.Sprint(value)
		return nil
	}

	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// lookup resolves a dotted key by matching toml tags.
func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(key, ".")
	if key == "" || len(parts) == 0 {
		return reflect.Value{}, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := strings.Split(t.Field(i).Tag.Get("toml"), ",")[0]
		if tag == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strVal)
			if err != nil {
				return fmt.Errorf("invalid boolean value: %v", err)
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return errors.New("nil value")
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all scalar configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"api.base_url",
		"api.request_timeout_secs",
		"api.rate_limit_rps",
		"api.rate_limit_burst",
		"api.refresh_path",
		"api.max_upload_mb",
		"session.check_interval_secs",
		"session.warning_threshold_secs",
		"session.login_path",
		"session.store_path",
		"admin.totp_secret",
		"admin.verify_remote",
		"admin.max_attempts",
		"admin.lockout_minutes",
		"log.level",
		"log.path",
		"ui.theme",
		"ui.compact_mode",
		"ui.page_size",
	}
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Routes != nil {
		clone.Routes = make(map[string]string, len(c.Routes))
		for k, v := range c.Routes {
			clone.Routes[k] = v
		}
	}
	return &clone
}

// String returns the config as JSON with secrets redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Admin.TOTPSecret != "" {
		safe.Admin.TOTPSecret = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
