// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/storefront-tui/internal/ui/styles"
)

// =============================================================================
// LOGIN FORM COMPONENT
// =============================================================================

const (
	fieldEmail = iota
	fieldPassword
	fieldCount
)

// LoginSubmitMsg carries the credentials entered in the form.
type LoginSubmitMsg struct {
	Email    string
	Password string
}

// LoginForm is the sign-in screen: e-mail and password inputs, a spinner
// while the request runs and the last error.
type LoginForm struct {
	inputs     []textinput.Model
	focus      int
	spinner    Spinner
	submitting bool
	err        string
	notice     string
	width      int
	height     int
	theme      *styles.Theme
}

// NewLoginForm creates the form with the e-mail field focused.
func NewLoginForm(theme *styles.Theme) *LoginForm {
	f := &LoginForm{
		inputs:  make([]textinput.Model, fieldCount),
		spinner: NewSpinner("Signing in"),
		theme:   theme,
	}
	for i := range f.inputs {
		ti := textinput.New()
		ti.CharLimit = 256
		ti.Width = 36
		ti.Prompt = "> "
		ti.PromptStyle = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
		ti.TextStyle = lipgloss.NewStyle().Foreground(styles.TextPrimary)
		ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)
		ti.Cursor.Style = lipgloss.NewStyle().Foreground(styles.Cyan)
		f.inputs[i] = ti
	}
	f.inputs[fieldEmail].Placeholder = "you@example.com"
	f.inputs[fieldPassword].Placeholder = "password"
	f.inputs[fieldPassword].EchoMode = textinput.EchoPassword
	f.inputs[fieldPassword].EchoCharacter = '*'
	f.inputs[fieldEmail].Focus()
	return f
}

// SetSize sets the area the form is centered in.
func (f *LoginForm) SetSize(width, height int) {
	f.width = width
	f.height = height
}

// SetEmail prefills the e-mail field.
func (f *LoginForm) SetEmail(email string) {
	f.inputs[fieldEmail].SetValue(email)
}

// Email returns the e-mail field value.
func (f *LoginForm) Email() string {
	return strings.TrimSpace(f.inputs[fieldEmail].Value())
}

// SetError shows err under the form and stops the spinner.
func (f *LoginForm) SetError(err error) {
	f.submitting = false
	f.spinner.Stop()
	if err == nil {
		f.err = ""
		return
	}
	f.err = err.Error()
}

// SetNotice shows an informational line above the inputs, e.g. why the
// previous session ended.
func (f *LoginForm) SetNotice(notice string) {
	f.notice = notice
}

// Submitting reports whether a login request is in flight.
func (f *LoginForm) Submitting() bool {
	return f.submitting
}

// Reset clears the password and errors and focuses the first empty field.
func (f *LoginForm) Reset() tea.Cmd {
	f.submitting = false
	f.spinner.Stop()
	f.err = ""
	f.inputs[fieldPassword].SetValue("")
	if f.Email() == "" {
		return f.focusField(fieldEmail)
	}
	return f.focusField(fieldPassword)
}

func (f *LoginForm) focusField(i int) tea.Cmd {
	f.focus = i
	var cmd tea.Cmd
	for j := range f.inputs {
		if j == i {
			cmd = f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
	return cmd
}

// Update handles input. Enter on the password field submits.
func (f *LoginForm) Update(msg tea.Msg) tea.Cmd {
	if f.submitting {
		var cmd tea.Cmd
		f.spinner, cmd = f.spinner.Update(msg)
		return cmd
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "tab", "down":
			return f.focusField((f.focus + 1) % fieldCount)
		case "shift+tab", "up":
			return f.focusField((f.focus + fieldCount - 1) % fieldCount)
		case "enter":
			if f.focus == fieldEmail {
				return f.focusField(fieldPassword)
			}
			return f.submit()
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *LoginForm) submit() tea.Cmd {
	email := f.Email()
	password := f.inputs[fieldPassword].Value()
	switch {
	case email == "":
		f.err = "e-mail is required"
		return f.focusField(fieldEmail)
	case !strings.Contains(email, "@"):
		f.err = "e-mail address looks invalid"
		return f.focusField(fieldEmail)
	case password == "":
		f.err = "password is required"
		return f.focusField(fieldPassword)
	}

	f.err = ""
	f.submitting = true
	return tea.Batch(f.spinner.Start(), send(LoginSubmitMsg{Email: email, Password: password}))
}

// View renders the centered form.
func (f *LoginForm) View() string {
	t := f.theme
	parts := []string{t.Title.Render("Sign in to your store"), ""}
	if f.notice != "" {
		parts = append(parts, styles.RenderInfo(f.notice), "")
	}
	parts = append(parts,
		t.InputLabel.Render("E-mail"),
		f.inputs[fieldEmail].View(),
		"",
		t.InputLabel.Render("Password"),
		f.inputs[fieldPassword].View(),
		"",
	)
	switch {
	case f.submitting:
		parts = append(parts, f.spinner.View())
	case f.err != "":
		parts = append(parts, styles.RenderError(f.err))
	default:
		parts = append(parts, t.Muted.Render("Tab switch field  Enter sign in  Ctrl+C quit"))
	}

	box := t.FormBox.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
	if f.width == 0 || f.height == 0 {
		return box
	}
	return lipgloss.Place(f.width, f.height, lipgloss.Center, lipgloss.Center, box)
}
