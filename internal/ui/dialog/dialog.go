// Package dialog is a small modal with a row of buttons, used to confirm
// actions that change the system.
package dialog

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/omatheme/internal/style"
)

// Button is one choice in a dialog.
type Button struct {
	Label  string
	Action func() tea.Msg
}

// Model is a modal dialog. It ignores input while hidden.
type Model struct {
	title    string
	body     string
	buttons  []Button
	active   int
	visible  bool
	maxWidth int
}

// New creates a hidden dialog.
func New(title, body string, buttons ...Button) Model {
	return Model{
		title:    title,
		body:     body,
		buttons:  buttons,
		maxWidth: 60,
	}
}

// Confirm creates a two-button dialog: confirm runs onConfirm, cancel just
// closes it.
func Confirm(title, body, confirmLabel string, onConfirm func() tea.Msg) Model {
	return New(title, body,
		Button{Label: confirmLabel, Action: onConfirm},
		Button{Label: "Cancel", Action: func() tea.Msg { return CancelledMsg{} }},
	)
}

// CancelledMsg is sent when a Confirm dialog is dismissed with Cancel.
type CancelledMsg struct{}

// Update handles dialog keys.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "left", "shift+tab", "h":
		if m.active > 0 {
			m.active--
		}
	case "right", "tab", "l":
		if m.active < len(m.buttons)-1 {
			m.active++
		}
	case "enter", " ":
		if m.active < len(m.buttons) {
			m.visible = false
			return m, m.buttons[m.active].Action
		}
	case "esc":
		m.visible = false
		return m, func() tea.Msg { return CancelledMsg{} }
	}
	return m, nil
}

// View renders the dialog box.
func (m Model) View() string {
	if !m.visible {
		return ""
	}
	p := style.Current

	body := lipgloss.NewStyle().Width(m.maxWidth - 4).Render(m.body)

	var btns []string
	for i, btn := range m.buttons {
		s := p.DialogButton
		if i == m.active {
			s = p.DialogButtonActive
		}
		btns = append(btns, s.Render(btn.Label), " ")
	}
	row := lipgloss.NewStyle().
		Width(m.maxWidth - 4).
		Align(lipgloss.Center).
		Render(lipgloss.JoinHorizontal(lipgloss.Center, btns...))

	return p.DialogBorder.Render(lipgloss.JoinVertical(lipgloss.Left,
		p.DialogTitle.Render(m.title),
		"",
		body,
		"",
		row,
	))
}

// Show makes the dialog visible with the first button active.
func (m *Model) Show() {
	m.visible = true
	m.active = 0
}

// Hide makes the dialog invisible.
func (m *Model) Hide() { m.visible = false }

// Visible returns whether the dialog is shown.
func (m Model) Visible() bool { return m.visible }

// SetWidth limits the dialog to the available terminal width.
func (m *Model) SetWidth(width int) {
	m.maxWidth = 60
	if width > 0 && m.maxWidth > width-4 {
		m.maxWidth = width - 4
	}
}
