package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/omatheme/internal/catalog"
	"github.com/sadopc/omatheme/internal/match"
	"github.com/sadopc/omatheme/internal/state"
)

// Filter selects which themes List enumerates.
type Filter int

const (
	FilterAll        Filter = iota // every catalog entry
	FilterInstalled                // everything the list command reports
	FilterCurrent                  // only the active theme
	FilterBuiltIn                  // installed, not an extra
	FilterExtra                    // user-installed, removable
	FilterCanInstall               // catalog entries not installed yet
)

// Filters returns every filter in declaration order.
func Filters() []Filter {
	return []Filter{FilterAll, FilterInstalled, FilterCurrent, FilterBuiltIn, FilterExtra, FilterCanInstall}
}

func (f Filter) String() string {
	switch f {
	case FilterAll:
		return "all"
	case FilterInstalled:
		return "installed"
	case FilterCurrent:
		return "current"
	case FilterBuiltIn:
		return "built-in"
	case FilterExtra:
		return "extra"
	case FilterCanInstall:
		return "can-install"
	}
	panic(fmt.Sprintf("resolver: unhandled filter %d", int(f)))
}

// ParseFilter parses a filter name as printed by String. Matching ignores
// case, hyphens and underscores, so "BUILT_IN" and "builtin" both work.
func ParseFilter(s string) (Filter, error) {
	for _, f := range Filters() {
		if match.Equal(s, f.String()) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown theme filter %q", s)
}

// Entry is one listed theme.
type Entry struct {
	Name   string
	Record catalog.ThemeRecord
	Known  bool
	Status Status
}

// Suffix returns the single status annotation for the entry. Current takes
// priority over built-in, which takes priority over installed; catalog-only
// themes have none.
func (e Entry) Suffix() string {
	switch {
	case e.Status.Current:
		return "(current)"
	case e.Status.BuiltIn:
		return "(built-in)"
	case e.Status.Installed():
		return "(installed)"
	}
	return ""
}

// List enumerates the themes selected by filter. When scheme is non-nil only
// themes whose catalog scheme equals it are kept; themes without catalog
// metadata are dropped in that case. Order follows the source: catalog order
// for catalog filters, list-command order for installed filters.
func (r *Resolver) List(ctx context.Context, filter Filter, scheme *catalog.Scheme) ([]Entry, error) {
	snap, err := r.state.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	installed := match.NewSet(snap.Installed)
	extra := match.NewSet(snap.Extra)

	var names []string
	switch filter {
	case FilterAll:
		for _, rec := range r.catalog.All() {
			names = append(names, rec.Name)
		}
	case FilterInstalled:
		names = snap.Installed
	case FilterCurrent:
		if snap.Current != "" {
			names = []string{snap.Current}
		}
	case FilterBuiltIn:
		names = snap.BuiltIn()
	case FilterExtra:
		names = snap.Extra
	case FilterCanInstall:
		for _, rec := range r.catalog.All() {
			if !installed.Has(rec.Name) && !extra.Has(rec.Name) {
				names = append(names, rec.Name)
			}
		}
	default:
		panic(fmt.Sprintf("resolver: unhandled filter %d", int(filter)))
	}

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		e := Entry{Name: name, Status: entryStatus(snap, installed, extra, name)}
		e.Record, e.Known = r.catalog.Lookup(name)
		if scheme != nil && (!e.Known || e.Record.Scheme != *scheme) {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func entryStatus(snap state.Snapshot, installed, extra match.Set, name string) Status {
	isExtra := extra.Has(name)
	isInstalled := installed.Has(name) || isExtra
	return Status{
		Current:     match.Equal(name, snap.Current),
		BuiltIn:     installed.Has(name) && !isExtra,
		Extra:       isExtra,
		CatalogOnly: !isInstalled,
	}
}

// Render formats entries one per line, names padded to the longest name and
// followed by their suffix. Lines carry no trailing spaces.
func Render(entries []Entry) string {
	width := 0
	for _, e := range entries {
		if n := lipgloss.Width(e.Name); n > width {
			width = n
		}
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		line := e.Name + strings.Repeat(" ", width-lipgloss.Width(e.Name))
		if s := e.Suffix(); s != "" {
			line += " " + s
		}
		lines = append(lines, strings.TrimRight(line, " "))
	}
	return strings.Join(lines, "\n")
}
