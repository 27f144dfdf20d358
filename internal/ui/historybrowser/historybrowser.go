// Package historybrowser is a searchable modal over the theme change history.
package historybrowser

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/omatheme/internal/history"
	"github.com/sadopc/omatheme/internal/style"
)

// Loader returns history entries, most recent first. An empty pattern means
// no filter; otherwise pattern is a SQL LIKE pattern.
type Loader func(pattern string) ([]history.Entry, error)

// SelectThemeMsg is sent when the user picks a history entry.
type SelectThemeMsg struct {
	Theme string
}

// Model is the history browser modal.
type Model struct {
	load    Loader
	entries []history.Entry
	err     error
	cursor  int
	offset  int // scroll offset
	visible bool
	width   int
	height  int
	search  textinput.Model
}

// New creates a history browser. A nil loader shows an empty history.
func New(load Loader) Model {
	ti := textinput.New()
	ti.Placeholder = "Search themes..."
	ti.Prompt = "  > "
	ti.Width = 50
	return Model{
		load:   load,
		search: ti,
	}
}

// Show makes the browser visible and loads entries.
func (m *Model) Show() {
	m.visible = true
	m.cursor = 0
	m.offset = 0
	m.search.SetValue("")
	m.search.Focus()
	m.loadEntries()
}

// Hide hides the browser.
func (m *Model) Hide() {
	m.visible = false
	m.search.Blur()
}

// Visible returns whether the browser is shown.
func (m Model) Visible() bool { return m.visible }

// SetSize sets the available space.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles browser messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+r":
			m.Hide()
			return m, nil
		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
				m.ensureVisible()
			}
			return m, nil
		case "down", "ctrl+n":
			if m.cursor < len(m.entries)-1 {
				m.cursor++
				m.ensureVisible()
			}
			return m, nil
		case "pgup":
			m.cursor = max(m.cursor-m.visibleCount(), 0)
			m.ensureVisible()
			return m, nil
		case "pgdown":
			m.cursor = max(min(m.cursor+m.visibleCount(), len(m.entries)-1), 0)
			m.ensureVisible()
			return m, nil
		case "enter":
			if m.cursor < len(m.entries) {
				theme := m.entries[m.cursor].Theme
				if theme == "" {
					theme = m.entries[m.cursor].Query
				}
				m.Hide()
				return m, func() tea.Msg {
					return SelectThemeMsg{Theme: theme}
				}
			}
			return m, nil
		}

		prevVal := m.search.Value()
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		if m.search.Value() != prevVal {
			m.cursor = 0
			m.offset = 0
			m.loadEntries()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// View renders the browser.
func (m Model) View() string {
	if !m.visible {
		return ""
	}

	p := style.Current
	w := m.dialogWidth()

	end := min(m.offset+m.visibleCount(), len(m.entries))
	var lines []string
	for i := m.offset; i < end; i++ {
		e := m.entries[i]
		line := FormatEntry(e, w-6)
		switch {
		case i == m.cursor:
			lines = append(lines, p.Selected.Render("> "+line))
		case e.IsError:
			lines = append(lines, p.ErrorText.Render("  "+line))
		default:
			lines = append(lines, "  "+line)
		}
	}
	switch {
	case m.err != nil:
		lines = append(lines, p.ErrorText.Render("  "+m.err.Error()))
	case len(m.entries) == 0:
		lines = append(lines, p.MutedText.Render("  No theme changes recorded"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		p.DialogTitle.Render("Theme History"),
		"  "+m.search.View(),
		"",
		strings.Join(lines, "\n"),
		"",
		p.MutedText.Render(fmt.Sprintf("  %d entries", len(m.entries))),
		p.MutedText.Render("  enter:reapply  esc:close  up/down:navigate"),
	)
	return p.DialogBorder.Width(w).Render(content)
}

func (m Model) dialogWidth() int {
	w := 80
	if m.width > 0 && w > m.width-4 {
		w = m.width - 4
	}
	return w
}

// visibleCount returns how many entries fit: the chrome takes six lines plus
// the border and padding.
func (m Model) visibleCount() int {
	return max(m.height-12, 3)
}

func (m *Model) ensureVisible() {
	visible := m.visibleCount()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

func (m *Model) loadEntries() {
	m.entries, m.err = nil, nil
	if m.load == nil {
		return
	}
	pattern := ""
	if text := strings.TrimSpace(m.search.Value()); text != "" {
		pattern = "%" + text + "%"
	}
	m.entries, m.err = m.load(pattern)
}

// FormatEntry renders one history row: operation, theme and outcome, then
// duration and age, truncated to maxWidth.
func FormatEntry(e history.Entry, maxWidth int) string {
	theme := e.Theme
	if theme == "" {
		theme = e.Query
	}
	themeMax := max(maxWidth-40, 10)
	if len(theme) > themeMax {
		theme = theme[:themeMax-3] + "..."
	}

	meta := []string{e.Outcome}
	if e.DurationMS > 0 {
		meta = append(meta, formatDuration(e.DurationMS))
	}
	meta = append(meta, RelativeTime(e.ExecutedAt))

	return fmt.Sprintf("%-8s %-*s  %s", e.Operation, themeMax, theme, strings.Join(meta, " | "))
}

func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", float64(ms)/1000)
}

// RelativeTime formats a timestamp as a human-readable relative time.
func RelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 48*time.Hour:
		return "yesterday"
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
