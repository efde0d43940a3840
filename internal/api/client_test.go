// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmiapp/mmiapp-tui/internal/auth"
	"github.com/mmiapp/mmiapp-tui/internal/credential"
)

// =============================================================================
// HELPERS
// =============================================================================

type nav struct {
	mu    sync.Mutex
	paths []string
}

func (n *nav) Redirect(p string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, p)
}

func (n *nav) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.paths)
}

type silent struct{}

func (silent) Notify(string) {}

func testToken(t *testing.T) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

type fixture struct {
	client *Client
	store  *credential.MemoryStore
	nav    *nav
	token  string
}

func newFixture(t *testing.T, handler http.HandlerFunc, tweak func(*Options)) *fixture {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := credential.NewMemoryStore()
	token := testToken(t)
	require.NoError(t, store.Set(credential.Record{Token: token, User: credential.User{ID: 1, RoleID: auth.RoleApplicant}}))

	n := &nav{}
	opts := Options{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second}
	if tweak != nil {
		tweak(&opts)
	}
	guard := auth.NewGuard(store, n, silent{}, auth.WithHTTPClient(srv.Client()))
	opts.HTTPClient = srv.Client()

	client, err := New(opts, guard)
	require.NoError(t, err)
	return &fixture{client: client, store: store, nav: n, token: token}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{BaseURL: "not a url"}, &auth.Guard{})
	require.Error(t, err)

	_, err = New(Options{BaseURL: "http://localhost"}, nil)
	require.Error(t, err)

	c, err := New(Options{BaseURL: "http://localhost:8000/api/"}, &auth.Guard{})
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000/api", c.BaseURL())
	require.False(t, c.CanRefresh())
}

// =============================================================================
// LOGIN
// =============================================================================

func TestLogin(t *testing.T) {
	var token string
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hery@example.mg", body["email"])
		assert.Equal(t, "secret", body["password"])

		writeJSON(w, http.StatusOK, map[string]any{
			"token": token,
			"user":  map[string]any{"id": 5, "roleId": 3, "nom": "Rabe", "prenom": "Hery"},
		})
	}, nil)
	token = f.token

	resp, err := f.client.Login(context.Background(), " hery@example.mg ", "secret")
	require.NoError(t, err)
	require.Equal(t, token, resp.Token)
	require.Equal(t, 3, resp.User.RoleID)
	require.Equal(t, "Hery Rabe", resp.Record().User.DisplayName())
}

func TestLogin_Rejected(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Identifiants invalides"})
	}, nil)

	_, err := f.client.Login(context.Background(), "x@y.mg", "bad")
	require.ErrorIs(t, err, ErrInvalidLogin)

	// a failed login is not a session failure
	require.Zero(t, f.nav.count())
	_, err = f.store.Get()
	require.NoError(t, err)
}

func TestLogin_IncompleteResponse(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"token": "abc"})
	}, nil)

	_, err := f.client.Login(context.Background(), "x@y.mg", "pw")
	require.ErrorIs(t, err, credential.ErrIncomplete)
}

// =============================================================================
// AUTHENTICATED CALLS
// =============================================================================

func TestListDemandes(t *testing.T) {
	var f *fixture
	f = newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/demandes", r.URL.Path)
		assert.Equal(t, "Bearer "+f.token, r.Header.Get("Authorization"))
		assert.Equal(t, StatusInReview, r.URL.Query().Get("statut"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))

		writeJSON(w, http.StatusOK, map[string]any{
			"data": []map[string]any{
				{"id": 1, "reference": "MMI-2025-0001", "objet": "Permis eau minérale", "statut": "en_cours"},
			},
			"total": 21,
			"page":  2,
		})
	}, nil)

	page, err := f.client.ListDemandes(context.Background(), DemandeFilter{Status: StatusInReview, Page: 2, PageSize: 20})
	require.NoError(t, err)
	require.Equal(t, 21, page.Total)
	require.Len(t, page.Items, 1)
	require.Equal(t, "MMI-2025-0001", page.Items[0].Reference)
	require.Equal(t, "En cours d'instruction", StatusLabel(page.Items[0].Status))
}

func TestGetDemandeAndTimeline(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/demandes/7":
			writeJSON(w, http.StatusOK, map[string]any{"id": 7, "reference": "MMI-7", "statut": "soumise"})
		case "/api/demandes/7/historique":
			writeJSON(w, http.StatusOK, []map[string]any{
				{"statut": "soumise", "acteur": "Demandeur", "date": "2025-01-02T09:00:00Z"},
				{"statut": "transmise", "acteur": "Secrétariat", "commentaire": "Transmis au SG", "date": "2025-01-03T10:30:00Z"},
			})
		default:
			http.NotFound(w, r)
		}
	}, nil)

	d, err := f.client.GetDemande(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, "MMI-7", d.Reference)

	entries, err := f.client.Timeline(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "Transmis au SG", entries[1].Comment)
	require.Equal(t, 2025, entries[1].Date.Year())

	_, err = f.client.GetDemande(context.Background(), 8)
	require.Equal(t, http.StatusNotFound, StatusOf(err))
}

func TestNotifications(t *testing.T) {
	var marked string
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/notifications":
			writeJSON(w, http.StatusOK, []map[string]any{
				{"id": 3, "titre": "Demande approuvée", "message": "**Bravo**", "lu": false},
			})
		case r.Method == http.MethodPatch:
			marked = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		}
	}, nil)

	list, err := f.client.ListNotifications(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.False(t, list[0].Read)

	require.NoError(t, f.client.MarkNotificationRead(context.Background(), 3))
	require.Equal(t, "/api/notifications/3/lu", marked)
}

func TestVerifyAdminCode(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch body["code"] {
		case "good":
			writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
		case "forbidden":
			w.WriteHeader(http.StatusForbidden)
		default:
			writeJSON(w, http.StatusOK, map[string]bool{"valid": false})
		}
	}, nil)

	ok, err := f.client.VerifyAdminCode(context.Background(), "good")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = f.client.VerifyAdminCode(context.Background(), "bad")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = f.client.VerifyAdminCode(context.Background(), "forbidden")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestServerError(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database unavailable"})
	}, nil)

	_, err := f.client.ListNotifications(context.Background())
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusInternalServerError, apiErr.Status)
	require.Equal(t, "database unavailable", apiErr.Message)
	require.NotEmpty(t, apiErr.RequestID)
	require.True(t, apiErr.Temporary())
	require.False(t, auth.IsSessionEnded(err))
	require.Zero(t, f.nav.count())
}

func TestUnauthorizedEndsSession(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, nil)

	_, err := f.client.ListDemandes(context.Background(), DemandeFilter{})
	require.True(t, auth.IsSessionEnded(err))
	require.True(t, auth.IsKind(err, auth.KindServerRejection))
	require.Equal(t, 1, f.nav.count())

	_, err = f.store.Get()
	require.ErrorIs(t, err, credential.ErrNotFound)
}

func TestTimeout(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}, func(o *Options) { o.Timeout = 50 * time.Millisecond })

	start := time.Now()
	_, err := f.client.ListNotifications(context.Background())
	require.Error(t, err)
	require.True(t, auth.IsKind(err, auth.KindNetworkFailure))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestRateLimiter(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	}, func(o *Options) {
		o.RateLimitRPS = 0.01
		o.RateLimitBurst = 1
		o.Timeout = 50 * time.Millisecond
	})

	_, err := f.client.ListNotifications(context.Background())
	require.NoError(t, err)

	_, err = f.client.ListNotifications(context.Background())
	require.ErrorContains(t, err, "rate limiter")
}

func TestRefresh(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/refresh", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]string{"token": "new-token"})
	}, func(o *Options) { o.RefreshPath = "/auth/refresh" })

	require.True(t, f.client.CanRefresh())
	tok, err := f.client.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, "new-token", tok)
}

func TestRefresh_Unsupported(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}, nil)

	_, err := f.client.Refresh(context.Background())
	require.ErrorIs(t, err, ErrRefreshUnsupported)
}

func TestResponseTooLarge(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		chunk := make([]byte, 1<<20)
		for i := 0; i < 11; i++ {
			if _, err := w.Write(chunk); err != nil {
				return
			}
		}
	}, nil)

	_, err := f.client.ListNotifications(context.Background())
	require.ErrorIs(t, err, ErrResponseTooLarge)
}

// =============================================================================
// UPLOAD
// =============================================================================

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0600))
	return p
}

func validPermit() MineralWaterPermit {
	return MineralWaterPermit{
		Company:    "Eaux d'Andekaleka SARL",
		NIF:        "4001234567",
		SourceName: "Source Ambohimanga",
		Location:   "Ambohimanga Rova",
		Region:     "Analamanga",
		FlowRate:   2.5,
	}
}

func permitFiles(t *testing.T) []Attachment {
	return []Attachment{
		{Field: AttachmentStatutes, Path: writeTemp(t, "statuts.pdf", "%PDF-1.4 statuts")},
		{Field: AttachmentSiteMap, Path: writeTemp(t, "plan.png", "png-bytes")},
		{Field: AttachmentWaterAnalyse, Path: writeTemp(t, "analyse.pdf", "%PDF-1.4 analyse")},
	}
}

func TestSubmitMineralWaterPermit(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/demandes/eau-minerale", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "Eaux d'Andekaleka SARL", r.FormValue("societe"))
		assert.Equal(t, "2.5", r.FormValue("debit"))

		file, header, err := r.FormFile(AttachmentWaterAnalyse)
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "analyse.pdf", header.Filename)
		assert.Equal(t, "%PDF-1.4 analyse", string(data))

		writeJSON(w, http.StatusCreated, map[string]any{"id": 12, "reference": "MMI-EM-0012"})
	}, nil)

	res, err := f.client.SubmitMineralWaterPermit(context.Background(), validPermit(), permitFiles(t))
	require.NoError(t, err)
	require.Equal(t, "MMI-EM-0012", res.Reference)
}

func TestSubmitMineralWaterPermit_Invalid(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid forms must not be sent")
	}, func(o *Options) { o.MaxUploadBytes = 8 })

	files := permitFiles(t)

	form := validPermit()
	form.FlowRate = 0
	_, err := f.client.SubmitMineralWaterPermit(context.Background(), form, files)
	require.ErrorIs(t, err, ErrInvalidForm)

	_, err = f.client.SubmitMineralWaterPermit(context.Background(), validPermit(), files[:2])
	require.ErrorIs(t, err, ErrInvalidForm)
	require.ErrorContains(t, err, AttachmentWaterAnalyse)

	exe := append([]Attachment(nil), files...)
	exe[0].Path = writeTemp(t, "statuts.exe", "MZ")
	_, err = f.client.SubmitMineralWaterPermit(context.Background(), validPermit(), exe)
	require.ErrorIs(t, err, ErrInvalidForm)

	// files larger than the 8 byte cap
	_, err = f.client.SubmitMineralWaterPermit(context.Background(), validPermit(), files)
	require.ErrorIs(t, err, ErrInvalidForm)
	require.ErrorContains(t, err, "statuts.pdf")
}
