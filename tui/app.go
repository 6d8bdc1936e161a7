// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui is the interactive terminal client for Upkeep. It wires
// the session and workspace stores into a bubbletea program: a
// bootstrap gate that resolves the restored session before anything
// renders, a login form, the company dashboard, and the budget editor
// with its reduction confirmation.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/upkeep-foundation/upkeep/api"
	uitheme "github.com/upkeep-foundation/upkeep/lib/tui"
	"github.com/upkeep-foundation/upkeep/session"
	"github.com/upkeep-foundation/upkeep/workspace"
)

// view identifies one screen of the application.
type view int

const (
	// viewBootstrap shows a spinner while the restored session
	// resolves. Nothing session-dependent renders before it settles.
	viewBootstrap view = iota
	viewLogin
	viewDashboard
	viewBudget
)

// requestTimeout bounds the API calls issued from the UI.
const requestTimeout = 30 * time.Second

// App is the root bubbletea model. It owns navigation and the auth
// gate; each screen is a sub-model with its own update and view.
type App struct {
	client    *api.Client
	session   *session.Store
	workspace *workspace.Store
	theme     uitheme.Theme

	current view
	// requested is where the user was headed when the auth gate sent
	// them to login; a successful login returns there instead of
	// always landing on the dashboard.
	requested view

	width  int
	height int

	spin      spinner.Model
	login     loginModel
	dashboard dashboardModel
	budget    budgetModel

	statusLine string
}

// New creates the application model.
func New(client *api.Client, sessionStore *session.Store, workspaceStore *workspace.Store) *App {
	theme := uitheme.DetectTheme()
	spin := spinner.New(spinner.WithSpinner(spinner.Dot))
	spin.Style = lipgloss.NewStyle().Foreground(theme.Accent)

	return &App{
		client:    client,
		session:   sessionStore,
		workspace: workspaceStore,
		theme:     theme,
		current:   viewBootstrap,
		requested: viewDashboard,
		spin:      spin,
		login:     newLoginModel(theme),
		dashboard: newDashboardModel(theme),
		budget:    newBudgetModel(theme),
	}
}

// Messages crossing from the stores into the bubbletea loop.
type (
	sessionReadyMsg struct{ snapshot session.Snapshot }

	sessionChangedMsg struct{ snapshot session.Snapshot }

	companiesLoadedMsg struct {
		snapshot workspace.Snapshot
		err      error
	}

	dashboardLoadedMsg struct {
		dashboard *api.CompanyDashboard
		err       error
	}
)

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spin.Tick, a.resolveSession())
}

// resolveSession runs the session restore off the UI goroutine.
func (a *App) resolveSession() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return sessionReadyMsg{snapshot: a.session.Init(ctx)}
	}
}

// loadCompanies refreshes the company list after sign-in.
func (a *App) loadCompanies() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := a.workspace.RefreshCompanies(ctx)
		return companiesLoadedMsg{snapshot: a.workspace.Snapshot(), err: err}
	}
}

// loadDashboard fetches the selected company's dashboard. Staleness is
// handled inside the workspace store; a discarded response comes back
// as a nil dashboard and is ignored here.
func (a *App) loadDashboard() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		dashboard, err := a.workspace.RefreshDashboard(ctx)
		return dashboardLoadedMsg{dashboard: dashboard, err: err}
	}
}

// WatchSession bridges background session changes (renewal failure
// demoting to anonymous) into the program. Call after tea.NewProgram
// so Send has a running loop to deliver to.
func (a *App) WatchSession(program *tea.Program) (cancel func()) {
	return a.session.Subscribe(func(snapshot session.Snapshot) {
		program.Send(sessionChangedMsg{snapshot: snapshot})
	})
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case sessionReadyMsg:
		if msg.snapshot.Status == session.StatusAuthenticated {
			a.current = a.requested
			return a, a.loadCompanies()
		}
		a.current = viewLogin
		return a, a.login.focus()

	case sessionChangedMsg:
		// The auth gate reacts to background demotion: a session that
		// dies mid-use bounces the user to login, remembering where
		// they were.
		if msg.snapshot.Status == session.StatusAnonymous && a.current != viewLogin && a.current != viewBootstrap {
			a.requested = a.current
			a.current = viewLogin
			a.statusLine = "session expired, sign in again"
			return a, a.login.focus()
		}
		return a, nil

	case loginDoneMsg:
		if msg.err != nil {
			a.login.applyError(msg.err)
			return a, nil
		}
		a.statusLine = ""
		a.current = a.requested
		a.requested = viewDashboard
		return a, a.loadCompanies()

	case companiesLoadedMsg:
		a.dashboard.applyWorkspace(msg.snapshot, msg.err)
		if msg.err == nil && msg.snapshot.CurrentID != "" {
			return a, a.loadDashboard()
		}
		return a, nil

	case dashboardLoadedMsg:
		a.dashboard.applyDashboard(msg.dashboard, msg.err)
		return a, nil

	case companySwitchedMsg:
		// Selection moved: the store already invalidated the old
		// dashboard, fetch the new one.
		a.dashboard.applyWorkspace(a.workspace.Snapshot(), nil)
		return a, a.loadDashboard()

	case openBudgetMsg:
		a.current = viewBudget
		return a, a.budget.open(a.client, msg.companyID)

	case closeBudgetMsg:
		a.current = viewDashboard
		return a, a.loadDashboard()

	case logoutMsg:
		a.current = viewLogin
		a.requested = viewDashboard
		a.statusLine = "signed out"
		return a, tea.Batch(a.logout(), a.login.focus())
	}

	// Route everything else to the active screen.
	switch a.current {
	case viewLogin:
		model, cmd := a.login.update(msg, a.session)
		a.login = model
		return a, cmd
	case viewDashboard:
		model, cmd := a.dashboard.update(msg, a.workspace)
		a.dashboard = model
		return a, cmd
	case viewBudget:
		model, cmd := a.budget.update(msg)
		a.budget = model
		return a, cmd
	}
	return a, nil
}

func (a *App) logout() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		a.session.Logout(ctx)
		return nil
	}
}

func (a *App) View() string {
	header := lipgloss.NewStyle().
		Foreground(a.theme.HeaderForeground).
		Bold(true).
		Render("upkeep")

	var body string
	switch a.current {
	case viewBootstrap:
		body = a.spin.View() + " restoring session…"
	case viewLogin:
		body = a.login.view()
	case viewDashboard:
		body = a.dashboard.view()
	case viewBudget:
		body = a.budget.view(a.width, a.height)
	}

	status := ""
	if a.statusLine != "" {
		status = lipgloss.NewStyle().Foreground(a.theme.WarningText).Render(a.statusLine)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", status)
}
