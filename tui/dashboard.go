// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/upkeep-foundation/upkeep/api"
	uitheme "github.com/upkeep-foundation/upkeep/lib/tui"
	"github.com/upkeep-foundation/upkeep/workspace"
)

// companySwitchedMsg is sent after the selection moved to another
// company; the root model reacts by fetching the new dashboard.
type companySwitchedMsg struct{}

// openBudgetMsg asks the root model to open the budget editor.
type openBudgetMsg struct{ companyID string }

// logoutMsg asks the root model to end the session.
type logoutMsg struct{}

// dashboardModel shows the company list on the left of the state and
// the active company's dashboard projection. The cursor moves freely;
// only Select actually switches the workspace.
type dashboardModel struct {
	theme uitheme.Theme
	keys  KeyMap

	snapshot workspace.Snapshot
	cursor   int
	loading  bool
	errLine  string
}

func newDashboardModel(theme uitheme.Theme) dashboardModel {
	return dashboardModel{theme: theme, keys: DefaultKeyMap, loading: true}
}

// applyWorkspace installs a fresh workspace snapshot and clamps the
// cursor onto the active company.
func (m *dashboardModel) applyWorkspace(snapshot workspace.Snapshot, err error) {
	m.loading = false
	m.snapshot = snapshot
	if err != nil {
		m.errLine = err.Error()
		return
	}
	m.errLine = ""
	for index, company := range snapshot.Companies {
		if company.ID == snapshot.CurrentID {
			m.cursor = index
		}
	}
	if m.cursor >= len(snapshot.Companies) {
		m.cursor = 0
	}
}

// applyDashboard installs a dashboard fetch result. A nil dashboard
// with a nil error means the store discarded a stale response; the
// view keeps waiting for the current one.
func (m *dashboardModel) applyDashboard(dashboard *api.CompanyDashboard, err error) {
	if err != nil {
		m.errLine = err.Error()
		return
	}
	if dashboard == nil {
		return
	}
	m.errLine = ""
	m.snapshot.Dashboard = dashboard
}

func (m dashboardModel) update(msg tea.Msg, store *workspace.Store) (dashboardModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.snapshot.Companies)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Select):
		if m.cursor < len(m.snapshot.Companies) {
			target := m.snapshot.Companies[m.cursor].ID
			return m, func() tea.Msg {
				if err := store.SetCurrentCompany(target); err != nil {
					return dashboardLoadedMsg{err: err}
				}
				return companySwitchedMsg{}
			}
		}
	case key.Matches(keyMsg, m.keys.Budget):
		if m.snapshot.CurrentID != "" {
			companyID := m.snapshot.CurrentID
			return m, func() tea.Msg { return openBudgetMsg{companyID: companyID} }
		}
	case key.Matches(keyMsg, m.keys.Refresh):
		m.loading = true
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			_, err := store.RefreshCompanies(ctx)
			return companiesLoadedMsg{snapshot: store.Snapshot(), err: err}
		}
	case key.Matches(keyMsg, m.keys.SignOut):
		return m, func() tea.Msg { return logoutMsg{} }
	case key.Matches(keyMsg, m.keys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m dashboardModel) view() string {
	if m.loading {
		return lipgloss.NewStyle().Foreground(m.theme.FaintText).Render("loading companies…")
	}

	left := m.companyList()
	right := m.dashboardPane()
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, "   ", right)

	helpStyle := lipgloss.NewStyle().Foreground(m.theme.HelpText)
	help := helpStyle.Render("j/k move · Enter switch · b budget · r refresh · o sign out · q quit")

	sections := []string{body, "", help}
	if m.errLine != "" {
		errorStyle := lipgloss.NewStyle().Foreground(m.theme.ErrorText)
		sections = append([]string{errorStyle.Render(m.errLine), ""}, sections...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m dashboardModel) companyList() string {
	if len(m.snapshot.Companies) == 0 {
		return lipgloss.NewStyle().Foreground(m.theme.FaintText).Render("no companies yet")
	}

	normal := lipgloss.NewStyle().Foreground(m.theme.NormalText)
	selected := lipgloss.NewStyle().
		Foreground(m.theme.SelectedForeground).
		Background(m.theme.SelectedBackground)
	accent := lipgloss.NewStyle().Foreground(m.theme.Accent)

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Foreground(m.theme.FaintText).Render("companies"))
	for index, company := range m.snapshot.Companies {
		marker := "  "
		if company.ID == m.snapshot.CurrentID {
			marker = accent.Render("● ")
		}
		roleStyle := lipgloss.NewStyle().Foreground(m.theme.RoleColor(string(company.Role)))
		label := fmt.Sprintf("%-20s %s", company.Name, roleStyle.Render(string(company.Role)))
		if index == m.cursor {
			lines = append(lines, marker+selected.Render(label))
		} else {
			lines = append(lines, marker+normal.Render(label))
		}
	}
	return strings.Join(lines, "\n")
}

func (m dashboardModel) dashboardPane() string {
	faint := lipgloss.NewStyle().Foreground(m.theme.FaintText)
	if m.snapshot.CurrentID == "" {
		return faint.Render("select a company to see its dashboard")
	}
	dashboard := m.snapshot.Dashboard
	if dashboard == nil {
		return faint.Render("loading dashboard…")
	}

	title := lipgloss.NewStyle().Foreground(m.theme.HeaderForeground).Bold(true)
	done := lipgloss.NewStyle().Foreground(m.theme.SuccessText)
	todo := lipgloss.NewStyle().Foreground(m.theme.WarningText)

	check := func(label string, ok bool) string {
		if ok {
			return done.Render("✓ " + label)
		}
		return todo.Render("· " + label)
	}

	lines := []string{
		title.Render(dashboard.Name),
		faint.Render(dashboard.Slug + " · " + string(dashboard.UserRole)),
		"",
		fmt.Sprintf("members: %d", dashboard.Stats.TotalMembers),
		check("budget configured", dashboard.Stats.HasBudget),
		check("packages tracked", dashboard.Stats.HasPackages),
		check("funds allocated", dashboard.Stats.HasAllocations),
	}
	return strings.Join(lines, "\n")
}
