// Package resolver maps free-text theme queries onto a single theme identity
// and classifies its installation status. It combines the static catalog with
// a fresh read of the installed state on every call.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/sadopc/omatheme/internal/catalog"
	"github.com/sadopc/omatheme/internal/match"
	"github.com/sadopc/omatheme/internal/state"
)

var ErrNotInstalled = errors.New("theme not installed")

// NotInstalledError is returned when a query matches no installed theme.
type NotInstalledError struct {
	Query string
}

func (e *NotInstalledError) Error() string {
	return fmt.Sprintf("theme '%s' is not installed", e.Query)
}

func (e *NotInstalledError) Is(target error) bool { return target == ErrNotInstalled }

// State is the installed-state source the resolver reads from.
type State interface {
	CurrentTheme(ctx context.Context) (string, error)
	InstalledThemes(ctx context.Context) ([]string, error)
	ExtraThemeNames() ([]string, error)
	Snapshot(ctx context.Context) (state.Snapshot, error)
}

// Status classifies a theme against the installed state. CatalogOnly is set
// for themes that are known but not installed.
type Status struct {
	Current     bool
	BuiltIn     bool
	Extra       bool
	CatalogOnly bool
}

// Installed reports whether the theme is installed at all.
func (s Status) Installed() bool { return !s.CatalogOnly }

// Resolved is the outcome of resolving a query.
type Resolved struct {
	// Record carries the catalog metadata. When Known is false only
	// Record.Name is set, to the installed name.
	Record catalog.ThemeRecord
	Known  bool
	// InstalledName is the name as the system reports it; empty when the
	// theme is not installed.
	InstalledName string
	Status        Status
	// CurrentTheme is the active theme at resolution time.
	CurrentTheme string
}

// Resolver answers which theme, in which state, a query refers to.
type Resolver struct {
	catalog *catalog.Catalog
	state   State
}

// New returns a Resolver over cat and st.
func New(cat *catalog.Catalog, st State) *Resolver {
	return &Resolver{catalog: cat, state: st}
}

// Catalog returns the catalog the resolver was built with.
func (r *Resolver) Catalog() *catalog.Catalog { return r.catalog }

// State returns the installed-state source.
func (r *Resolver) State() State { return r.state }

// ResolveCatalog resolves query against the catalog and classifies the
// result. It fails with catalog.ErrNotFound for unknown themes.
func (r *Resolver) ResolveCatalog(ctx context.Context, query string) (Resolved, error) {
	rec, err := r.catalog.FindByName(query)
	if err != nil {
		return Resolved{}, err
	}
	snap, err := r.state.Snapshot(ctx)
	if err != nil {
		return Resolved{}, err
	}
	res := Resolved{Record: rec, Known: true, CurrentTheme: snap.Current}
	for _, name := range snap.Installed {
		if match.Equal(name, rec.Name) {
			res.InstalledName = name
			break
		}
	}
	if res.InstalledName == "" {
		for _, name := range snap.Extra {
			if match.Equal(name, rec.Name) {
				res.InstalledName = name
				break
			}
		}
	}
	res.Status = classify(snap, res.InstalledName)
	return res, nil
}

// ResolveInstalled resolves query against the installed themes first, so the
// system's own spelling wins, and only then attaches catalog metadata. It
// fails with ErrNotInstalled when no installed theme matches.
func (r *Resolver) ResolveInstalled(ctx context.Context, query string) (Resolved, error) {
	snap, err := r.state.Snapshot(ctx)
	if err != nil {
		return Resolved{}, err
	}
	var installed string
	for _, name := range snap.Installed {
		if match.Matches(query, name) {
			installed = name
			break
		}
	}
	if installed == "" {
		return Resolved{}, &NotInstalledError{Query: query}
	}
	res := Resolved{InstalledName: installed, Status: classify(snap, installed), CurrentTheme: snap.Current}
	if rec, ok := r.catalog.Lookup(installed); ok {
		res.Record, res.Known = rec, true
	} else {
		res.Record = catalog.ThemeRecord{Name: installed}
	}
	return res, nil
}

// classify computes the status of an installed name, or CatalogOnly when name
// is empty.
func classify(snap state.Snapshot, name string) Status {
	if name == "" {
		return Status{CatalogOnly: true}
	}
	extra := match.NewSet(snap.Extra).Has(name)
	return Status{
		Current: match.Equal(name, snap.Current),
		Extra:   extra,
		BuiltIn: match.NewSet(snap.Installed).Has(name) && !extra,
	}
}
