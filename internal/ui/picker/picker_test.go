package picker

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/omatheme/internal/catalog"
	"github.com/sadopc/omatheme/internal/history"
	"github.com/sadopc/omatheme/internal/resolver"
	"github.com/sadopc/omatheme/internal/style"
	"github.com/sadopc/omatheme/internal/ui/historybrowser"
)

func init() {
	style.Current = style.Plain()
}

func testEntries() []resolver.Entry {
	return []resolver.Entry{
		{
			Name:   "Tokyo Night",
			Record: catalog.ThemeRecord{Name: "Tokyo Night", Scheme: catalog.SchemeDark},
			Known:  true,
			Status: resolver.Status{Current: true, BuiltIn: true},
		},
		{
			Name:   "Rose Pine",
			Record: catalog.ThemeRecord{Name: "Rose Pine", Scheme: catalog.SchemeLight, RepoURL: "https://github.com/x/omarchy-rose-pine-theme"},
			Known:  true,
			Status: resolver.Status{CatalogOnly: true},
		},
		{
			Name:   "Nord",
			Record: catalog.ThemeRecord{Name: "Nord", Scheme: catalog.SchemeDark},
			Known:  true,
			Status: resolver.Status{CatalogOnly: true},
		},
		{
			Name:   "Bauhaus",
			Record: catalog.ThemeRecord{Name: "Bauhaus", Scheme: catalog.SchemeLight},
			Known:  true,
			Status: resolver.Status{Extra: true},
		},
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	pm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want picker.Model", next)
	}
	return pm, cmd
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func TestNewShowsAllEntries(t *testing.T) {
	m := New(testEntries(), nil)
	if len(m.matches) != 4 {
		t.Fatalf("matches = %d, want 4", len(m.matches))
	}
	view := m.View()
	for _, want := range []string{"Tokyo Night", "(current)", "Bauhaus", "(installed)", "4/4 themes"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}

func TestFuzzyFilter(t *testing.T) {
	m := typeText(t, New(testEntries(), nil), "rspn")

	if len(m.matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(m.matches))
	}
	if e, _ := m.selected(); e.Name != "Rose Pine" {
		t.Errorf("selected = %q, want Rose Pine", e.Name)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlU})
	if len(m.matches) != 4 {
		t.Errorf("matches after clear = %d, want 4", len(m.matches))
	}
}

func TestNoMatches(t *testing.T) {
	m := typeText(t, New(testEntries(), nil), "zzzz")
	if len(m.matches) != 0 {
		t.Fatalf("matches = %d, want 0", len(m.matches))
	}
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("enter with no matches should do nothing")
	}
	if _, ok := m.Choice(); ok {
		t.Error("no choice expected")
	}
	if !strings.Contains(m.View(), "no matching themes") {
		t.Error("View() should report no matches")
	}
}

func TestSelectInstalledSets(t *testing.T) {
	m := New(testEntries(), nil)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if cmd == nil {
		t.Fatal("expected quit cmd")
	}
	choice, ok := m.Choice()
	if !ok || choice.Theme != "Bauhaus" || choice.Action != ActionSet {
		t.Fatalf("Choice() = %+v, %v", choice, ok)
	}
}

func TestSelectInstallableConfirms(t *testing.T) {
	m := typeText(t, New(testEntries(), nil), "rose")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if !m.confirm.Visible() {
		t.Fatal("expected install confirmation")
	}
	if !strings.Contains(m.View(), "Install theme") {
		t.Error("View() should show the confirmation dialog")
	}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected cmd from confirm")
	}
	m, cmd = update(t, m, cmd())
	if cmd == nil {
		t.Fatal("expected quit after confirm")
	}
	choice, ok := m.Choice()
	if !ok || choice.Theme != "Rose Pine" || choice.Action != ActionInstall {
		t.Fatalf("Choice() = %+v, %v", choice, ok)
	}
}

func TestCancelInstall(t *testing.T) {
	m := typeText(t, New(testEntries(), nil), "rose")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEscape})

	if m.confirm.Visible() {
		t.Fatal("escape should close the confirmation")
	}
	m, _ = update(t, m, cmd())
	if _, ok := m.Choice(); ok {
		t.Error("cancelled install should not produce a choice")
	}
}

func TestSelectNotInstallable(t *testing.T) {
	m := typeText(t, New(testEntries(), nil), "nord")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if cmd != nil || m.confirm.Visible() {
		t.Fatal("a theme without repository should not quit or confirm")
	}
	if !strings.Contains(m.View(), "no repository to install from") {
		t.Errorf("View() should explain why:\n%s", m.View())
	}
}

func TestQuit(t *testing.T) {
	m := New(testEntries(), nil)
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected quit cmd")
	}
	if _, ok := m.Choice(); ok {
		t.Error("quit should not produce a choice")
	}
	if m.View() != "" {
		t.Error("View() should be empty after quitting")
	}
}

func TestNavigationBounds(t *testing.T) {
	m := New(testEntries(), nil)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.cursor != 0 {
		t.Errorf("cursor = %d after up at top, want 0", m.cursor)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyPgDown})
	if m.cursor != 3 {
		t.Errorf("cursor = %d after pgdown, want 3", m.cursor)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 3 {
		t.Errorf("cursor = %d after down at bottom, want 3", m.cursor)
	}
}

func TestHistoryReapply(t *testing.T) {
	load := historybrowser.Loader(func(string) ([]history.Entry, error) {
		return []history.Entry{{Operation: "set", Query: "bau", Theme: "Bauhaus", Outcome: "applied"}}, nil
	})
	m := New(testEntries(), load)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if !m.history.Visible() {
		t.Fatal("ctrl+r should open the history")
	}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected selection cmd from history")
	}
	m, _ = update(t, m, cmd())
	choice, ok := m.Choice()
	if !ok || choice.Theme != "Bauhaus" || choice.Action != ActionSet {
		t.Fatalf("Choice() = %+v, %v", choice, ok)
	}
}

func TestWindowSize(t *testing.T) {
	m := New(testEntries(), nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 8})
	if got := m.visibleCount(); got != 3 {
		t.Errorf("visibleCount() = %d, want 3", got)
	}
	if n := strings.Count(m.View(), "\n"); n > 8 {
		t.Errorf("View() has %d lines for an 8-line terminal", n)
	}
}

func TestActionString(t *testing.T) {
	if ActionSet.String() != "set" || ActionInstall.String() != "install" {
		t.Errorf("Action strings = %q, %q", ActionSet, ActionInstall)
	}
}

func TestFilterInputUsesPaletteStyle(t *testing.T) {
	prev := style.Current
	style.Current = style.Default()
	t.Cleanup(func() { style.Current = prev })

	m := New(testEntries(), nil)
	if got, want := m.search.TextStyle.GetForeground(), style.Default().FilterText.GetForeground(); got != want {
		t.Errorf("filter text foreground = %v, want %v", got, want)
	}
}
