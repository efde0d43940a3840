// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mmiapp/mmiapp-tui/internal/logging"
)

// Configuration constants for the backend client.
const (
	// DefaultTimeout bounds every call when Options.Timeout is zero.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum accepted response body size.
	MaxResponseSize = 10 * 1024 * 1024

	// DefaultMaxUpload is the per-file upload cap when Options.MaxUploadBytes is zero.
	DefaultMaxUpload = 10 * 1024 * 1024

	// RequestIDHeader carries the per-request correlation id.
	RequestIDHeader = "X-Request-ID"
)

// Authenticator sends a request with the current credential attached.
type Authenticator interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Client.
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	RefreshPath    string
	MaxUploadBytes int64
	UserAgent      string
	HTTPClient     *http.Client
	Logger         *zap.Logger
}

// Client talks to the backend.
type Client struct {
	baseURL     *url.URL
	http        *http.Client
	auth        Authenticator
	limiter     *rate.Limiter
	timeout     time.Duration
	refreshPath string
	maxUpload   int64
	userAgent   string
	logger      *zap.Logger
}

// NewHTTPClient returns the HTTP client shared by the client and the guard.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

// New creates a client. auth sends authenticated calls.
func New(opts Options, auth Authenticator) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", opts.BaseURL)
	}
	if auth == nil {
		return nil, errors.New("an authenticator is required")
	}

	c := &Client{
		baseURL:     base,
		http:        opts.HTTPClient,
		auth:        auth,
		timeout:     opts.Timeout,
		refreshPath: opts.RefreshPath,
		maxUpload:   opts.MaxUploadBytes,
		userAgent:   opts.UserAgent,
		logger:      opts.Logger,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.http == nil {
		c.http = NewHTTPClient(c.timeout)
	}
	if c.maxUpload <= 0 {
		c.maxUpload = DefaultMaxUpload
	}
	if c.userAgent == "" {
		c.userAgent = "mmiapp"
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}

	limit := rate.Inf
	burst := opts.RateLimitBurst
	if opts.RateLimitRPS > 0 {
		limit = rate.Limit(opts.RateLimitRPS)
		if burst <= 0 {
			burst = 1
		}
	}
	c.limiter = rate.NewLimiter(limit, burst)
	return c, nil
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// CanRefresh reports whether a refresh endpoint is configured.
func (c *Client) CanRefresh() bool {
	return c.refreshPath != ""
}

// =============================================================================
// CALLS
// =============================================================================

// Login exchanges an email and password for a credential record.
// It is the only call made without a token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	payload := map[string]string{"email": strings.TrimSpace(email), "password": password}

	var out LoginResponse
	err := c.call(ctx, callSpec{method: http.MethodPost, path: "/auth/login", json: payload}, &out)
	if err != nil {
		if s := StatusOf(err); s == http.StatusUnauthorized || s == http.StatusBadRequest {
			return nil, ErrInvalidLogin
		}
		return nil, err
	}
	if err := out.Record().Validate(); err != nil {
		return nil, fmt.Errorf("unexpected login response: %w", err)
	}
	return &out, nil
}

// Refresh asks the backend for a new token for the current session.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	if c.refreshPath == "" {
		return "", ErrRefreshUnsupported
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.call(ctx, callSpec{method: http.MethodPost, path: c.refreshPath, auth: true}, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", errors.New("refresh response carried no token")
	}
	return out.Token, nil
}

// ListDemandes returns one page of demandes visible to the user.
func (c *Client) ListDemandes(ctx context.Context, f DemandeFilter) (*DemandePage, error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("statut", f.Status)
	}
	if f.Type != "" {
		q.Set("type", f.Type)
	}
	if f.Page > 0 {
		q.Set("page", fmt.Sprint(f.Page))
	}
	if f.PageSize > 0 {
		q.Set("limit", fmt.Sprint(f.PageSize))
	}

	var out DemandePage
	if err := c.call(ctx, callSpec{method: http.MethodGet, path: "/demandes", query: q, auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDemande returns one demande.
func (c *Client) GetDemande(ctx context.Context, id int) (*Demande, error) {
	var out Demande
	if err := c.call(ctx, callSpec{method: http.MethodGet, path: fmt.Sprintf("/demandes/%d", id), auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Timeline returns the status history of a demande, oldest first.
func (c *Client) Timeline(ctx context.Context, id int) ([]TimelineEntry, error) {
	var out []TimelineEntry
	if err := c.call(ctx, callSpec{method: http.MethodGet, path: fmt.Sprintf("/demandes/%d/historique", id), auth: true}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListNotifications returns the user's notifications, newest first.
func (c *Client) ListNotifications(ctx context.Context) ([]Notification, error) {
	var out []Notification
	if err := c.call(ctx, callSpec{method: http.MethodGet, path: "/notifications", auth: true}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkNotificationRead flags a notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id int) error {
	return c.call(ctx, callSpec{method: http.MethodPatch, path: fmt.Sprintf("/notifications/%d/lu", id), auth: true}, nil)
}

// VerifyAdminCode asks the backend whether code opens the admin area.
func (c *Client) VerifyAdminCode(ctx context.Context, code string) (bool, error) {
	var out struct {
		Valid bool `json:"valid"`
	}
	err := c.call(ctx, callSpec{
		method: http.MethodPost,
		path:   "/admin/verify-code",
		json:   map[string]string{"code": code},
		auth:   true,
	}, &out)
	if err != nil {
		if StatusOf(err) == http.StatusForbidden {
			return false, nil
		}
		return false, err
	}
	return out.Valid, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

type callSpec struct {
	method      string
	path        string
	query       url.Values
	json        any
	body        io.Reader
	contentType string
	auth        bool
}

// call performs one request and decodes a JSON answer into out (when non-nil).
func (c *Client) call(ctx context.Context, spec callSpec, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	body := spec.body
	contentType := spec.contentType
	if spec.json != nil {
		data, err := json.Marshal(spec.json)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	u := c.baseURL.JoinPath(spec.path)
	if len(spec.query) > 0 {
		u.RawQuery = spec.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, spec.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	var resp *http.Response
	if spec.auth {
		resp, err = c.auth.Do(req)
	} else {
		resp, err = c.http.Do(req)
		if err != nil {
			err = fmt.Errorf("request failed: %w", err)
		}
	}
	if err != nil {
		c.logger.Debug("backend call failed",
			zap.String("method", spec.method),
			zap.String("path", spec.path),
			zap.String("request_id", requestID),
			zap.String("error", logging.Redact(err.Error())))
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("backend call",
		zap.String("method", spec.method),
		zap.String("path", spec.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
		zap.String("request_id", requestID))

	data, err := readResponse(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(resp.StatusCode, data, requestID)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// readResponse reads the response body up to MaxResponseSize.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, ErrResponseTooLarge
	}
	return body, nil
}
