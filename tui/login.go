// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/upkeep-foundation/upkeep/api"
	"github.com/upkeep-foundation/upkeep/lib/secret"
	uitheme "github.com/upkeep-foundation/upkeep/lib/tui"
	"github.com/upkeep-foundation/upkeep/session"
)

// loginDoneMsg reports the outcome of a login or register call.
type loginDoneMsg struct{ err error }

// loginField indexes the focusable inputs of the form.
type loginField int

const (
	fieldEmail loginField = iota
	fieldPassword
	fieldConfirm // register mode only
)

// loginModel is the sign-in / sign-up form. Tab cycles fields, enter
// submits, ctrl+r toggles between the two modes. New accounts are
// created as COMPANY: this client is the sponsoring side of the
// platform.
type loginModel struct {
	theme uitheme.Theme

	registering bool
	email       textinput.Model
	password    textinput.Model
	confirm     textinput.Model
	focused     loginField

	submitting bool

	// formError is the general failure line; fieldErrors are
	// validation messages keyed by field name, mostly server-reported.
	formError   string
	fieldErrors map[string]string
}

func newLoginModel(theme uitheme.Theme) loginModel {
	focusedStyle := lipgloss.NewStyle().Foreground(theme.Accent)

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "email    > "
	email.PromptStyle = focusedStyle

	password := textinput.New()
	password.Prompt = "password > "
	password.PromptStyle = focusedStyle
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	confirm := textinput.New()
	confirm.Prompt = "confirm  > "
	confirm.PromptStyle = focusedStyle
	confirm.EchoMode = textinput.EchoPassword
	confirm.EchoCharacter = '•'

	return loginModel{
		theme:    theme,
		email:    email,
		password: password,
		confirm:  confirm,
		focused:  fieldEmail,
	}
}

// focus prepares the form for display and moves the cursor to the
// first field. Password inputs are always cleared on entry.
func (m *loginModel) focus() tea.Cmd {
	m.submitting = false
	m.password.SetValue("")
	m.confirm.SetValue("")
	m.focused = fieldEmail
	return m.applyFocus()
}

func (m *loginModel) applyFocus() tea.Cmd {
	m.email.Blur()
	m.password.Blur()
	m.confirm.Blur()
	switch m.focused {
	case fieldEmail:
		return m.email.Focus()
	case fieldPassword:
		return m.password.Focus()
	default:
		return m.confirm.Focus()
	}
}

// applyError surfaces a failed submission. API validation errors are
// split into per-field messages; everything else becomes the general
// error line.
func (m *loginModel) applyError(err error) {
	m.submitting = false
	m.fieldErrors = map[string]string{}

	if apiErr, ok := api.AsError(err); ok {
		for _, field := range apiErr.Fields {
			m.fieldErrors[field.Field] = field.Message
		}
		m.formError = apiErr.Message
		return
	}
	m.formError = err.Error()
}

func (m loginModel) update(msg tea.Msg, store *session.Store) (loginModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m.updateInputs(msg)
	}
	if m.submitting {
		return m, nil
	}

	switch keyMsg.String() {
	case "tab", "down":
		m.focused = m.nextField(1)
		return m, m.applyFocus()
	case "shift+tab", "up":
		m.focused = m.nextField(-1)
		return m, m.applyFocus()
	case "ctrl+r":
		m.registering = !m.registering
		m.formError = ""
		m.fieldErrors = nil
		return m, m.focus()
	case "enter":
		return m.submit(store)
	}
	return m.updateInputs(msg)
}

func (m loginModel) nextField(step int) loginField {
	fieldCount := 2
	if m.registering {
		fieldCount = 3
	}
	return loginField((int(m.focused) + step + fieldCount) % fieldCount)
}

func (m loginModel) updateInputs(msg tea.Msg) (loginModel, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.email, cmd = m.email.Update(msg)
	cmds = append(cmds, cmd)
	m.password, cmd = m.password.Update(msg)
	cmds = append(cmds, cmd)
	m.confirm, cmd = m.confirm.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m loginModel) submit(store *session.Store) (loginModel, tea.Cmd) {
	email := strings.TrimSpace(m.email.Value())
	password := m.password.Value()
	confirm := m.confirm.Value()

	m.fieldErrors = map[string]string{}
	if email == "" {
		m.fieldErrors["email"] = "email is required"
	}
	if password == "" {
		m.fieldErrors["password"] = "password is required"
	}
	if m.registering && confirm != password {
		m.fieldErrors["confirmPassword"] = "passwords do not match"
	}
	if len(m.fieldErrors) > 0 {
		return m, nil
	}

	m.submitting = true
	m.formError = ""
	registering := m.registering
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		passwordBuffer, err := secret.NewFromString(password)
		if err != nil {
			return loginDoneMsg{err: err}
		}
		defer passwordBuffer.Close()

		if !registering {
			_, err = store.Login(ctx, email, passwordBuffer)
			return loginDoneMsg{err: err}
		}

		confirmBuffer, err := secret.NewFromString(confirm)
		if err != nil {
			return loginDoneMsg{err: err}
		}
		defer confirmBuffer.Close()

		_, err = store.Register(ctx, api.RegisterRequest{
			Email:           email,
			Password:        passwordBuffer,
			ConfirmPassword: confirmBuffer,
			AccountType:     api.AccountTypeCompany,
		})
		return loginDoneMsg{err: err}
	}
}

func (m loginModel) view() string {
	titleStyle := lipgloss.NewStyle().Foreground(m.theme.NormalText).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(m.theme.ErrorText)
	helpStyle := lipgloss.NewStyle().Foreground(m.theme.HelpText)

	title := "sign in"
	if m.registering {
		title = "create account"
	}

	var lines []string
	lines = append(lines, titleStyle.Render(title), "")
	lines = append(lines, m.email.View())
	if message, ok := m.fieldErrors["email"]; ok {
		lines = append(lines, errorStyle.Render("  "+message))
	}
	lines = append(lines, m.password.View())
	if message, ok := m.fieldErrors["password"]; ok {
		lines = append(lines, errorStyle.Render("  "+message))
	}
	if m.registering {
		lines = append(lines, m.confirm.View())
		if message, ok := m.fieldErrors["confirmPassword"]; ok {
			lines = append(lines, errorStyle.Render("  "+message))
		}
	}

	lines = append(lines, "")
	switch {
	case m.submitting:
		lines = append(lines, helpStyle.Render("signing in…"))
	case m.formError != "":
		lines = append(lines, errorStyle.Render(m.formError))
	}

	toggleHint := "C-r register"
	if m.registering {
		toggleHint = "C-r sign in"
	}
	lines = append(lines, "", helpStyle.Render("Enter submit · Tab next field · "+toggleHint+" · C-c quit"))

	return strings.Join(lines, "\n")
}
