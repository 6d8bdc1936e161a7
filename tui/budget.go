// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/upkeep-foundation/upkeep/api"
	"github.com/upkeep-foundation/upkeep/budget"
	uitheme "github.com/upkeep-foundation/upkeep/lib/tui"
)

// closeBudgetMsg asks the root model to return to the dashboard.
type closeBudgetMsg struct{}

type budgetLoadedMsg struct {
	summary *api.BudgetSummary
	err     error
}

type budgetSavedMsg struct {
	result       *api.BudgetUpdateResult
	needsConfirm bool
	err          error
}

// budgetModel is the budget setup/edit form. A reduction is not sent
// on enter: the flow holds it and this model raises a confirmation
// modal over the form. Only an explicit confirm sends the request.
type budgetModel struct {
	theme uitheme.Theme

	flow      *budget.Flow
	companyID string

	amount      textinput.Model
	currencyIdx int

	loading    bool
	saving     bool
	confirming bool

	summary    *api.BudgetSummary
	errLine    string
	notice     string
	allocWarn  string
}

func newBudgetModel(theme uitheme.Theme) budgetModel {
	amount := textinput.New()
	amount.Placeholder = "500.00"
	amount.Prompt = "amount > "
	amount.PromptStyle = lipgloss.NewStyle().Foreground(theme.Accent)
	amount.CharLimit = 16

	return budgetModel{theme: theme, amount: amount}
}

// open binds the form to a company and kicks off the summary load.
func (m *budgetModel) open(client *api.Client, companyID string) tea.Cmd {
	flow := budget.NewFlow(client, companyID, nil)
	m.flow = flow
	m.companyID = companyID
	m.loading = true
	m.saving = false
	m.confirming = false
	m.summary = nil
	m.errLine = ""
	m.notice = ""
	m.allocWarn = ""
	m.amount.SetValue("")
	m.currencyIdx = 0

	return tea.Batch(m.amount.Focus(), func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		summary, err := flow.Load(ctx)
		return budgetLoadedMsg{summary: summary, err: err}
	})
}

func (m budgetModel) currency() budget.Currency {
	return budget.Currencies[m.currencyIdx]
}

func (m budgetModel) update(msg tea.Msg) (budgetModel, tea.Cmd) {
	switch msg := msg.(type) {
	case budgetLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errLine = msg.err.Error()
			return m, nil
		}
		m.summary = msg.summary
		if msg.summary.Exists {
			m.amount.SetValue(plainAmount(msg.summary.TotalCents))
			for index, currency := range budget.Currencies {
				if string(currency) == msg.summary.Currency {
					m.currencyIdx = index
				}
			}
		}
		return m, nil

	case budgetSavedMsg:
		m.saving = false
		if msg.err != nil {
			m.confirming = false
			m.errLine = msg.err.Error()
			return m, nil
		}
		if msg.needsConfirm {
			m.confirming = true
			return m, nil
		}
		m.confirming = false
		m.errLine = ""
		m.notice = "budget saved"
		m.allocWarn = ""
		if msg.result != nil && msg.result.IsLowerThanAllocations {
			m.allocWarn = fmt.Sprintf(
				"budget is below committed allocations (%s)",
				budget.FormatAmount(msg.result.CurrentAllocationsCents, budget.Currency(msg.result.Currency)),
			)
		}
		if summary, ok := m.flow.Summary(); ok {
			m.summary = &summary
		}
		return m, nil

	case tea.KeyMsg:
		if m.confirming {
			return m.updateModal(msg)
		}
		return m.updateForm(msg)
	}

	var cmd tea.Cmd
	m.amount, cmd = m.amount.Update(msg)
	return m, cmd
}

// updateModal handles keys while the reduction confirmation is up.
// Everything except an explicit confirm cancels: an accidental keypress
// must never shrink a budget.
func (m budgetModel) updateModal(msg tea.KeyMsg) (budgetModel, tea.Cmd) {
	if m.saving {
		return m, nil
	}
	switch msg.String() {
	case "enter", "y":
		m.saving = true
		flow := m.flow
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			result, err := flow.Confirm(ctx)
			return budgetSavedMsg{result: result, err: err}
		}
	default:
		m.flow.Cancel()
		m.confirming = false
		m.notice = "reduction cancelled"
		return m, nil
	}
}

func (m budgetModel) updateForm(msg tea.KeyMsg) (budgetModel, tea.Cmd) {
	if m.saving {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		return m, func() tea.Msg { return closeBudgetMsg{} }
	case "left":
		m.currencyIdx = (m.currencyIdx + len(budget.Currencies) - 1) % len(budget.Currencies)
		return m, nil
	case "right":
		m.currencyIdx = (m.currencyIdx + 1) % len(budget.Currencies)
		return m, nil
	case "enter":
		return m.submit()
	}
	var cmd tea.Cmd
	m.amount, cmd = m.amount.Update(msg)
	return m, cmd
}

func (m budgetModel) submit() (budgetModel, tea.Cmd) {
	amount := strings.TrimSpace(m.amount.Value())
	currency := m.currency()

	// Parse up front so typos surface as field errors instead of a
	// round trip.
	if _, err := budget.ParseAmount(amount); err != nil {
		m.errLine = err.Error()
		return m, nil
	}

	m.saving = true
	m.errLine = ""
	m.notice = ""
	flow := m.flow
	creating := m.summary == nil || !m.summary.Exists
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if creating {
			result, err := flow.Set(ctx, amount, currency)
			if err != nil {
				return budgetSavedMsg{err: err}
			}
			return budgetSavedMsg{result: &api.BudgetUpdateResult{BudgetResult: *result}}
		}

		result, needsConfirm, err := flow.Update(ctx, amount, currency)
		return budgetSavedMsg{result: result, needsConfirm: needsConfirm, err: err}
	}
}

func (m budgetModel) view(width, height int) string {
	base := m.formView()
	if !m.confirming {
		return base
	}

	// Pad the form to the full view height so the centered modal has
	// lines to splice into.
	lines := strings.Split(base, "\n")
	for len(lines) < height {
		lines = append(lines, "")
	}
	return uitheme.CenterOverlay(strings.Join(lines, "\n"), m.modalLines(), width, len(lines))
}

func (m budgetModel) formView() string {
	faint := lipgloss.NewStyle().Foreground(m.theme.FaintText)
	title := lipgloss.NewStyle().Foreground(m.theme.HeaderForeground).Bold(true)
	accent := lipgloss.NewStyle().Foreground(m.theme.Accent)
	errorStyle := lipgloss.NewStyle().Foreground(m.theme.ErrorText)
	helpStyle := lipgloss.NewStyle().Foreground(m.theme.HelpText)

	if m.loading {
		return faint.Render("loading budget…")
	}

	var lines []string
	if m.summary != nil && m.summary.Exists {
		lines = append(lines,
			title.Render("monthly budget"),
			"",
			"total:     "+budget.FormatAmount(m.summary.TotalCents, budget.Currency(m.summary.Currency)),
			"allocated: "+budget.FormatAmount(m.summary.AllocatedCents, budget.Currency(m.summary.Currency)),
			"remaining: "+accent.Render(budget.FormatAmount(m.summary.RemainingCents, budget.Currency(m.summary.Currency))),
			"",
		)
	} else {
		lines = append(lines,
			title.Render("set up your monthly budget"),
			faint.Render("no budget configured yet"),
			"",
		)
	}

	currencies := make([]string, len(budget.Currencies))
	for index, currency := range budget.Currencies {
		label := string(currency)
		if index == m.currencyIdx {
			label = accent.Render("[" + label + "]")
		} else {
			label = faint.Render(" " + label + " ")
		}
		currencies[index] = label
	}

	lines = append(lines,
		m.amount.View(),
		"currency "+strings.Join(currencies, " "),
		"",
	)

	switch {
	case m.saving:
		lines = append(lines, faint.Render("saving…"))
	case m.errLine != "":
		lines = append(lines, errorStyle.Render(m.errLine))
	case m.notice != "":
		lines = append(lines, lipgloss.NewStyle().Foreground(m.theme.SuccessText).Render(m.notice))
	}
	if m.allocWarn != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(m.theme.WarningText).Render(m.allocWarn))
	}

	lines = append(lines, "", helpStyle.Render("Enter save · ←/→ currency · Esc back"))
	return strings.Join(lines, "\n")
}

// modalLines renders the reduction confirmation box for overlaying.
func (m budgetModel) modalLines() []string {
	pending, ok := m.flow.Pending()
	if !ok {
		return nil
	}

	current := ""
	if m.summary != nil {
		current = budget.FormatAmount(m.summary.TotalCents, budget.Currency(m.summary.Currency))
	}
	proposed := budget.FormatAmount(pending.AmountCents, budget.Currency(pending.Currency))

	content := strings.Join([]string{
		"Reduce monthly budget?",
		"",
		"current:  " + current,
		"new:      " + proposed,
		"",
		"Enter/y confirm · any other key cancel",
	}, "\n")

	box := lipgloss.NewStyle().
		Foreground(m.theme.ModalForeground).
		Background(m.theme.ModalBackground).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.ModalBorder).
		Padding(1, 2).
		Render(content)

	return strings.Split(box, "\n")
}

// plainAmount renders cents as a bare decimal for editing, without the
// currency symbol FormatAmount adds.
func plainAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
