// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/mmiapp/mmiapp-tui/internal/api"
	"github.com/mmiapp/mmiapp-tui/internal/auth"
	"github.com/mmiapp/mmiapp-tui/internal/credential"
	"github.com/mmiapp/mmiapp-tui/internal/session"
	"github.com/mmiapp/mmiapp-tui/internal/ui/components"
	"github.com/mmiapp/mmiapp-tui/internal/ui/styles"
)

// Backend is the part of the API client the application uses.
type Backend interface {
	Login(ctx context.Context, email, password string) (*api.LoginResponse, error)
	Refresh(ctx context.Context) (string, error)
	CanRefresh() bool
	ListDemandes(ctx context.Context, f api.DemandeFilter) (*api.DemandePage, error)
	GetDemande(ctx context.Context, id int) (*api.Demande, error)
	Timeline(ctx context.Context, id int) ([]api.TimelineEntry, error)
	ListNotifications(ctx context.Context) ([]api.Notification, error)
	MarkNotificationRead(ctx context.Context, id int) error
	SubmitMineralWaterPermit(ctx context.Context, form api.MineralWaterPermit, files []api.Attachment) (*api.SubmitResult, error)
}

// Deps are the collaborators of the application.
type Deps struct {
	Guard   *auth.Guard
	Backend Backend
	Store   credential.Store
	Router  *auth.Router
	Bridge  *Bridge

	// Admin is optional; without it the admin area stays closed.
	Admin *auth.AdminGate

	Session  session.Config
	Logger   *zap.Logger
	Theme    *styles.Theme
	PageSize int
	Clock    func() time.Time

	// StartPath is the first screen (default: the login destination).
	StartPath string
}

// DefaultPageSize is the number of demandes per page.
const DefaultPageSize = 20

// actionTimeout bounds session actions started from the UI.
const actionTimeout = 30 * time.Second

// =============================================================================
// MODEL
// =============================================================================

// Model is the root Bubble Tea model.
type Model struct {
	guard    *auth.Guard
	backend  Backend
	store    credential.Store
	router   *auth.Router
	admin    *auth.AdminGate
	bridge   *Bridge
	logger   *zap.Logger
	theme    *styles.Theme
	markdown *components.MarkdownRenderer
	clock    func() time.Time
	keys     KeyMap
	pageSize int

	sessionCfg session.Config

	width  int
	height int

	// stack holds the screens; redirects replace it, menus push onto it.
	stack    []route
	checking bool
	signedIn bool
	user     credential.User

	monitor     *session.Monitor
	stopMonitor context.CancelFunc
	monitorGen  int
	loggingOut  bool

	overlay components.SessionOverlay
	toasts  *components.ToastManager
	spinner spinner.Model
	loading bool

	login  loginState
	dash   dashboardState
	list   demandesState
	detail demandeState
	notifs notificationsState
	upload uploadState
	gate   adminGateState

	quitting bool
}

// New creates the application model.
func New(d Deps) Model {
	if d.Bridge == nil {
		d.Bridge = NewBridge()
	}
	if d.Router == nil {
		d.Router = auth.NewRouter(d.Guard.LoginPath(), nil)
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Theme == nil {
		d.Theme = styles.NewTheme(styles.ThemeDark)
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.PageSize <= 0 {
		d.PageSize = DefaultPageSize
	}
	if d.StartPath == "" {
		d.StartPath = d.Router.LoginPath()
	}

	mdStyle := components.MarkdownDark
	if !d.Theme.IsDark {
		mdStyle = components.MarkdownLight
	}

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 8,
	}
	sp.Style = lipgloss.NewStyle().Foreground(styles.Cyan)

	toasts := components.NewToastManager()
	toasts.SetClock(d.Clock)

	m := Model{
		guard:      d.Guard,
		backend:    d.Backend,
		store:      d.Store,
		router:     d.Router,
		admin:      d.Admin,
		bridge:     d.Bridge,
		logger:     d.Logger,
		theme:      d.Theme,
		markdown:   components.NewMarkdownRenderer(mdStyle),
		clock:      d.Clock,
		keys:       DefaultKeyMap(),
		pageSize:   d.PageSize,
		sessionCfg: d.Session,
		width:      80,
		height:     24,
		overlay:    components.NewSessionOverlay(),
		toasts:     toasts,
		spinner:    sp,
		login:      newLoginState(),
		list:       newDemandesState(),
		detail:     newDemandeState(),
		notifs:     newNotificationsState(),
		upload:     newUploadState(),
		gate:       newAdminGateState(),
	}
	start := resolve(m.router, d.StartPath)
	m.stack = []route{start}
	m.checking = start.protected()
	return m
}

// Init starts the bridge listener, the toast ticker and the first check.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.bridge.Listen(), components.ToastTickCmd()}
	if r := m.current(); r.protected() {
		cmds = append(cmds, m.validateCmd(r), m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// Bridge returns the bridge feeding the model.
func (m Model) Bridge() *Bridge {
	return m.bridge
}

// Close stops the session monitor and the bridge. Call it after the
// program exits.
func (m Model) Close() {
	if m.stopMonitor != nil {
		m.stopMonitor()
	}
	m.bridge.Close()
}

func (m Model) current() route {
	return m.stack[len(m.stack)-1]
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case bridgeMsg:
		next, cmd := m.Update(msg.msg)
		return next, tea.Batch(cmd, m.bridge.Listen())

	case NavigateMsg:
		return m.replace(msg.Path)

	case NoticeMsg:
		m.toasts.AddError(msg.Text)
		return m, nil

	case ConfigChangedMsg:
		return m.applyConfig(msg)

	case sessionStateMsg:
		if msg.gen != m.monitorGen {
			return m, nil
		}
		if m.loggingOut && msg.state.Phase == session.Expired {
			return m, nil
		}
		m.overlay.SetState(msg.state)
		return m, nil

	case validatedMsg:
		return m.validated(msg)

	case components.SessionExtendMsg:
		return m, m.extendCmd()

	case extendDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, session.ErrStopped) {
			m.toasts.AddError("Impossible de prolonger la session: " + errorText(msg.err))
		}
		return m, nil

	case components.SessionReloginMsg:
		if m.current().protected() {
			return m.replace(m.router.LoginPath())
		}
		return m, nil

	case components.ToastTickMsg:
		m.toasts.Tick()
		return m, components.ToastTickCmd()

	case spinner.TickMsg:
		if !m.loading && !m.checking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateScreen(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		if m.stopMonitor != nil {
			m.stopMonitor()
		}
		return m, tea.Quit
	}

	if m.overlay.IsVisible() {
		var cmd tea.Cmd
		m.overlay, cmd = m.overlay.Update(msg)
		return m, cmd
	}

	if key.Matches(msg, m.keys.Dismiss) {
		m.toasts.Clear()
		return m, nil
	}

	r := m.current()
	if r.protected() {
		if m.checking {
			return m, nil
		}
		if key.Matches(msg, m.keys.Logout) {
			cmd := m.logoutCmd()
			return m, cmd
		}
	}

	switch r.id {
	case screenLogin:
		return m.loginKey(msg)
	case screenDashboard:
		return m.dashboardKey(msg)
	case screenDemandes:
		return m.demandesKey(msg)
	case screenDemande:
		return m.demandeKey(msg)
	case screenNotifications:
		return m.notificationsKey(msg)
	case screenUpload:
		return m.uploadKey(msg)
	case screenAdminGate:
		return m.adminGateKey(msg)
	case screenAdmin:
		return m.adminKey(msg)
	}
	return m, nil
}

// updateScreen routes results of screen commands.
func (m Model) updateScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		return m.loginDone(msg)
	case demandesLoadedMsg:
		return m.demandesLoaded(msg)
	case demandeLoadedMsg:
		return m.demandeLoaded(msg)
	case notificationsLoadedMsg:
		return m.notificationsLoaded(msg)
	case notificationReadMsg:
		return m.notificationRead(msg)
	case uploadDoneMsg:
		return m.uploadDone(msg)
	case adminVerifiedMsg:
		return m.adminVerified(msg)
	}
	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)
	m.overlay.SetSize(width, height)
	m.detail.viewport.Width = width - 2
	m.detail.viewport.Height = m.bodyHeight()
	m.notifs.viewport.Width = width - 2
	m.notifs.viewport.Height = m.bodyHeight() - 2
}

// bodyHeight is the space between header and status bar.
func (m Model) bodyHeight() int {
	// header and status bar, plus the body's vertical padding
	h := m.height - 4
	if m.theme.Density() == styles.DensityCompact {
		h = m.height - 2
	}
	if h < 5 {
		h = 5
	}
	return h
}

// =============================================================================
// NAVIGATION
// =============================================================================

// replace resets the stack to the screen at path.
func (m Model) replace(path string) (Model, tea.Cmd) {
	r := resolve(m.router, path)
	m.stack = []route{r}
	return m.enter()
}

// push opens the screen at path on top of the current one.
func (m Model) push(path string) (Model, tea.Cmd) {
	r := resolve(m.router, path)
	m.stack = append(slices.Clip(m.stack), r)
	return m.enter()
}

// back returns to the previous screen.
func (m Model) back() (Model, tea.Cmd) {
	if len(m.stack) <= 1 {
		return m, nil
	}
	m.stack = slices.Clip(m.stack[:len(m.stack)-1])
	return m.enter()
}

// enter runs the guard for the top screen. The login screen ends any
// running monitor.
func (m Model) enter() (Model, tea.Cmd) {
	r := m.current()
	m.loading = false

	if !r.protected() {
		m.stopSession()
		m.checking = false
		m.login = newLoginState()
		return m, nil
	}

	if r.id == screenAdmin && (m.admin == nil || !m.admin.Unlocked()) {
		r = resolve(m.router, PathAdminGate)
		m.stack[len(m.stack)-1] = r
	}

	m.checking = true
	return m, tea.Batch(m.validateCmd(r), m.spinner.Tick)
}

func (m Model) validateCmd(r route) tea.Cmd {
	guard := m.guard
	roles := r.requiredRoles()
	return func() tea.Msg {
		rec, err := guard.Validate(roles...)
		return validatedMsg{route: r, rec: rec, err: err}
	}
}

func (m Model) validated(msg validatedMsg) (Model, tea.Cmd) {
	if msg.route != m.current() {
		return m, nil
	}
	m.checking = false
	if msg.err != nil {
		// the guard has already redirected
		m.signedIn = false
		return m, nil
	}

	m.user = msg.rec.User
	m.signedIn = true
	m.ensureMonitor()
	return m.load(msg.route)
}

// load fetches what the screen shows.
func (m Model) load(r route) (Model, tea.Cmd) {
	switch r.id {
	case screenDashboard:
		m.dash = newDashboardState(m.user.RoleID)
		return m, m.notificationsCmd()
	case screenDemandes:
		m.loading = true
		return m, tea.Batch(m.demandesCmd(), m.spinner.Tick)
	case screenDemande:
		m.detail = newDemandeState()
		m.detail.id = r.item
		m.resize(m.width, m.height)
		m.loading = true
		return m, tea.Batch(m.demandeCmd(r.item), m.spinner.Tick)
	case screenNotifications:
		m.notifs = newNotificationsState()
		m.resize(m.width, m.height)
		m.loading = true
		return m, tea.Batch(m.notificationsCmd(), m.spinner.Tick)
	case screenUpload:
		return m, nil
	case screenAdminGate:
		m.gate = newAdminGateState()
		cmd := m.gate.input.Focus()
		return m, cmd
	}
	return m, nil
}

// =============================================================================
// SESSION
// =============================================================================

// ensureMonitor starts a monitor unless one is running.
func (m *Model) ensureMonitor() {
	if m.monitor != nil {
		select {
		case <-m.monitor.Done():
		default:
			return
		}
	}

	m.monitorGen++
	gen := m.monitorGen
	bridge := m.bridge

	opts := []session.Option{
		session.WithClock(m.clock),
		session.WithLogger(m.logger),
		session.WithObserver(func(st session.State) {
			bridge.Post(sessionStateMsg{gen: gen, state: st})
		}),
	}
	if m.backend != nil && m.backend.CanRefresh() {
		opts = append(opts, session.WithRefresher(m.backend))
	}

	ctx, cancel := context.WithCancel(context.Background())
	mon := session.NewMonitor(m.store, m.guard, m.sessionCfg, opts...)
	m.monitor = mon
	m.stopMonitor = cancel
	m.loggingOut = false

	go func() {
		_ = mon.Run(ctx)
	}()
}

// stopSession cancels the monitor. An expired overlay stays up so the
// user sees why they are back on the login screen.
func (m *Model) stopSession() {
	if m.stopMonitor != nil {
		m.stopMonitor()
	}
	m.monitor = nil
	m.stopMonitor = nil
	m.monitorGen++
	m.loggingOut = false
	m.signedIn = false
	m.user = credential.User{}
	if !m.overlay.IsExpired() {
		m.overlay.SetState(session.IdleState)
	}
}

func (m Model) extendCmd() tea.Cmd {
	mon := m.monitor
	if mon == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return extendDoneMsg{err: mon.Extend(ctx)}
	}
}

// logoutCmd ends the session through the monitor when one runs.
func (m *Model) logoutCmd() tea.Cmd {
	m.loggingOut = true
	mon, guard := m.monitor, m.guard
	return func() tea.Msg {
		if mon != nil {
			ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
			defer cancel()
			if err := mon.Logout(ctx); err == nil {
				return nil
			}
		}
		guard.Logout()
		return nil
	}
}

// applyConfig takes new session timings and the compact layout flag. A
// running monitor is replaced so the new threshold applies at once.
func (m Model) applyConfig(msg ConfigChangedMsg) (Model, tea.Cmd) {
	if msg.Config == nil {
		return m, nil
	}
	m.theme.Compact = msg.Config.UI.CompactMode

	cfg := session.Config{
		CheckInterval:     msg.Config.CheckInterval(),
		WarningThreshold:  msg.Config.WarningThreshold(),
		CountdownInterval: m.sessionCfg.CountdownInterval,
	}
	if cfg == m.sessionCfg {
		return m, nil
	}
	m.sessionCfg = cfg
	m.logger.Info("session timings reloaded",
		zap.Duration("check_interval", cfg.CheckInterval),
		zap.Duration("warning_threshold", cfg.WarningThreshold))

	if m.signedIn && m.stopMonitor != nil {
		m.stopMonitor()
		m.monitor = nil
		m.overlay.SetState(session.IdleState)
		m.ensureMonitor()
	}
	m.toasts.AddStatus("Configuration rechargée")
	return m, nil
}

// =============================================================================
// ERRORS
// =============================================================================

// errorText describes err for the user. Ended sessions yield "" since the
// guard has already redirected.
func errorText(err error) string {
	if err == nil || auth.IsSessionEnded(err) {
		return ""
	}
	var apiErr *api.Error
	switch {
	case errors.As(err, &apiErr):
		text := apiErr.Message
		if text == "" {
			text = "erreur du serveur (HTTP " + strconv.Itoa(apiErr.Status) + ")"
		}
		if apiErr.Temporary() {
			text += ", réessayez plus tard"
		}
		return text
	case auth.IsKind(err, auth.KindNetworkFailure):
		return "serveur injoignable"
	}
	return err.Error()
}

// failed records a load error on the toast stack and returns its text.
func (m Model) failed(err error) string {
	text := errorText(err)
	if text != "" {
		m.toasts.AddError(text)
	}
	return text
}
