// Package picker is an interactive, fuzzy-filtered list of themes. Choosing
// an installed theme selects it for activation; choosing an installable
// catalog theme asks for confirmation and selects it for installation.
package picker

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/sadopc/omatheme/internal/catalog"
	"github.com/sadopc/omatheme/internal/resolver"
	"github.com/sadopc/omatheme/internal/style"
	"github.com/sadopc/omatheme/internal/ui/dialog"
	"github.com/sadopc/omatheme/internal/ui/historybrowser"
)

// Action is what the caller should do with the chosen theme.
type Action int

const (
	ActionSet Action = iota
	ActionInstall
)

func (a Action) String() string {
	switch a {
	case ActionSet:
		return "set"
	case ActionInstall:
		return "install"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Choice is the picker's result.
type Choice struct {
	Theme  string
	Action Action
}

type installConfirmedMsg struct {
	theme string
}

// entryNames implements fuzzy.Source over the entry names.
type entryNames []resolver.Entry

func (e entryNames) String(i int) string { return e[i].Name }
func (e entryNames) Len() int            { return len(e) }

// Model is the picker's bubbletea model.
type Model struct {
	entries []resolver.Entry
	matches []fuzzy.Match // filtered view; Index points into entries
	cursor  int
	offset  int
	width   int
	height  int
	status  string

	search  textinput.Model
	keys    KeyMap
	help    help.Model
	confirm dialog.Model
	history historybrowser.Model

	choice   *Choice
	quitting bool
}

// New returns a picker over entries. load feeds the history modal and may be
// nil.
func New(entries []resolver.Entry, load historybrowser.Loader) Model {
	ti := textinput.New()
	ti.Placeholder = "Filter themes..."
	ti.Prompt = "> "
	ti.TextStyle = style.Current.FilterText
	ti.Focus()

	m := Model{
		entries: entries,
		search:  ti,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		history: historybrowser.New(load),
	}
	m.refilter()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Choice returns the chosen theme, if any.
func (m Model) Choice() (Choice, bool) {
	if m.choice == nil {
		return Choice{}, false
	}
	return *m.choice, true
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.confirm.SetWidth(msg.Width)
		m.history.SetSize(msg.Width, msg.Height)
		m.ensureVisible()
		return m, nil

	case installConfirmedMsg:
		m.choice = &Choice{Theme: msg.theme, Action: ActionInstall}
		m.quitting = true
		return m, tea.Quit

	case dialog.CancelledMsg:
		m.status = ""
		return m, nil

	case historybrowser.SelectThemeMsg:
		return m.selectFromHistory(msg.Theme)
	}

	if m.confirm.Visible() {
		var cmd tea.Cmd
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	}
	if m.history.Visible() {
		var cmd tea.Cmd
		m.history, cmd = m.history.Update(msg)
		return m, cmd
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.move(-1)
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.move(1)
			return m, nil
		case key.Matches(msg, m.keys.PageUp):
			m.move(-m.visibleCount())
			return m, nil
		case key.Matches(msg, m.keys.PageDown):
			m.move(m.visibleCount())
			return m, nil
		case key.Matches(msg, m.keys.Select):
			return m.choose()
		case key.Matches(msg, m.keys.History):
			m.history.Show()
			return m, nil
		case key.Matches(msg, m.keys.Clear):
			m.search.SetValue("")
			m.refilter()
			return m, nil
		}
	}

	prev := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != prev {
		m.refilter()
	}
	return m, cmd
}

// choose acts on the entry under the cursor.
func (m Model) choose() (tea.Model, tea.Cmd) {
	e, ok := m.selected()
	if !ok {
		return m, nil
	}
	switch {
	case e.Status.Installed():
		m.choice = &Choice{Theme: e.Name, Action: ActionSet}
		m.quitting = true
		return m, tea.Quit
	case e.Known && e.Record.Installable():
		name := e.Name
		m.confirm = dialog.Confirm(
			"Install theme",
			fmt.Sprintf("%s is not installed. Install it from %s and switch to it?", name, e.Record.RepoURL),
			"Install",
			func() tea.Msg { return installConfirmedMsg{theme: name} },
		)
		m.confirm.SetWidth(m.width)
		m.confirm.Show()
		return m, nil
	default:
		m.status = fmt.Sprintf("%s is not installed and has no repository to install from", e.Name)
		return m, nil
	}
}

// selectFromHistory moves the cursor to a theme picked in the history modal
// and chooses it.
func (m Model) selectFromHistory(theme string) (tea.Model, tea.Cmd) {
	m.search.SetValue("")
	m.refilter()
	for i, mt := range m.matches {
		if m.entries[mt.Index].Name == theme {
			m.cursor = i
			m.ensureVisible()
			return m.choose()
		}
	}
	m.status = fmt.Sprintf("%s is no longer listed", theme)
	return m, nil
}

func (m Model) selected() (resolver.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.matches) {
		return resolver.Entry{}, false
	}
	return m.entries[m.matches[m.cursor].Index], true
}

func (m *Model) refilter() {
	query := m.search.Value()
	if query == "" {
		m.matches = make([]fuzzy.Match, len(m.entries))
		for i, e := range m.entries {
			m.matches[i] = fuzzy.Match{Str: e.Name, Index: i}
		}
	} else {
		m.matches = fuzzy.FindFrom(query, entryNames(m.entries))
	}
	m.cursor = 0
	m.offset = 0
	m.status = ""
}

func (m *Model) move(delta int) {
	if len(m.matches) == 0 {
		return
	}
	m.cursor = max(0, min(m.cursor+delta, len(m.matches)-1))
	m.ensureVisible()
}

func (m Model) visibleCount() int {
	if m.height == 0 {
		return 20
	}
	// prompt, blank, status and help lines
	return max(m.height-5, 3)
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

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	switch {
	case m.confirm.Visible():
		return m.center(m.confirm.View())
	case m.history.Visible():
		return m.center(m.history.View())
	}

	p := style.Current
	var b strings.Builder
	b.WriteString(m.search.View())
	b.WriteString("\n\n")

	width := 0
	for _, mt := range m.matches {
		width = max(width, lipgloss.Width(m.entries[mt.Index].Name))
	}
	end := min(m.offset+m.visibleCount(), len(m.matches))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(m.matches[i], width, i == m.cursor))
		b.WriteString("\n")
	}
	if len(m.matches) == 0 {
		b.WriteString(p.MutedText.Render("  no matching themes"))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(p.WarningText.Render(m.status))
	} else {
		b.WriteString(p.MutedText.Render(fmt.Sprintf("%d/%d themes", len(m.matches), len(m.entries))))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderRow(mt fuzzy.Match, width int, selected bool) string {
	p := style.Current
	e := m.entries[mt.Index]

	name := highlight(e.Name, mt.MatchedIndexes, p)
	pad := strings.Repeat(" ", width-lipgloss.Width(e.Name))

	tag := ""
	if e.Known {
		if e.Record.Scheme == catalog.SchemeLight {
			tag = p.LightTag.Render(e.Record.Scheme.String())
		} else {
			tag = p.DarkTag.Render(e.Record.Scheme.String())
		}
	}
	suffix := e.Suffix()
	if suffix != "" {
		suffix = p.Suffix(suffix).Render(suffix)
	}

	row := strings.TrimRight(fmt.Sprintf("%s%s %s %s", name, pad, tag, suffix), " ")
	if selected {
		return p.Selected.Render("> " + row)
	}
	return "  " + row
}

// highlight styles the characters the fuzzy filter matched.
func highlight(name string, indexes []int, p *style.Palette) string {
	if len(indexes) == 0 {
		return p.ThemeName.Render(name)
	}
	hit := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		hit[i] = true
	}
	var b strings.Builder
	for i, r := range name {
		if hit[i] {
			b.WriteString(p.MatchRune.Render(string(r)))
		} else {
			b.WriteString(p.ThemeName.Render(string(r)))
		}
	}
	return b.String()
}

func (m Model) center(s string) string {
	if m.width == 0 || m.height == 0 {
		return s
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, s)
}

// Run shows the picker full-screen and returns the user's choice. ok is false
// when the user quit without choosing.
func Run(entries []resolver.Entry, load historybrowser.Loader, opts ...tea.ProgramOption) (choice Choice, ok bool, err error) {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	final, err := tea.NewProgram(New(entries, load), opts...).Run()
	if err != nil {
		return Choice{}, false, fmt.Errorf("picker: %w", err)
	}
	choice, ok = final.(Model).Choice()
	return choice, ok, nil
}
