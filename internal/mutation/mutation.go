// Package mutation drives the state-changing theme operations. The external
// tools do not report failure reliably through their exit status, so every
// mutation compares the observed state before and after the command and
// classifies the result as an Outcome.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"pkt.systems/pslog"

	"github.com/sadopc/omatheme/internal/catalog"
	"github.com/sadopc/omatheme/internal/command"
	"github.com/sadopc/omatheme/internal/config"
	"github.com/sadopc/omatheme/internal/history"
	"github.com/sadopc/omatheme/internal/match"
	"github.com/sadopc/omatheme/internal/resolver"
)

var (
	ErrEmptyName        = errors.New("theme name is empty")
	ErrAlreadyInstalled = errors.New("already installed")
	ErrNotInstallable   = errors.New("no repository URL to install from")
)

// ThemeError attaches the requested theme to a mutation precondition error.
type ThemeError struct {
	Theme string
	Err   error
}

func (e *ThemeError) Error() string { return fmt.Sprintf("theme '%s': %v", e.Theme, e.Err) }

func (e *ThemeError) Unwrap() error { return e.Err }

// Outcome classifies a mutation by what the system state did.
type Outcome int

const (
	// OutcomeUnchanged means nothing needed to change and no command ran,
	// or the request was answered with guidance instead of a mutation.
	OutcomeUnchanged Outcome = iota
	// OutcomeApplied means the command ran and no failure was observed.
	OutcomeApplied
	// OutcomeFailed means the state did not change and the command
	// reported errors.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeApplied:
		return "applied"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Operation names a mutation in reports and the change history.
type Operation string

const (
	OpSet     Operation = "set"
	OpInstall Operation = "install"
	OpRemove  Operation = "remove"
	OpBgNext  Operation = "bg-next"
)

// Report describes the result of a mutation that completed without a hard
// error.
type Report struct {
	Operation Operation
	Query     string
	// Theme is the theme name the operation acted on.
	Theme string
	// Record is the catalog entry when Known.
	Record  catalog.ThemeRecord
	Known   bool
	Outcome Outcome
	Message string
	// Detail is the error output captured from the external command.
	Detail string

	// NeedsInstall is set when set was asked for a theme that is not
	// installed.
	NeedsInstall bool
	// NotExtra is set when remove was asked for a catalog theme that is
	// not an installed extra; Message then lists the extras.
	NotExtra bool

	// Background is the resolved path of the current background image
	// after bg-next; empty if it could not be resolved.
	Background string
}

// Failed reports whether the mutation was classified as failed.
func (r Report) Failed() bool { return r.Outcome == OutcomeFailed }

// Recorder stores one history row per mutation attempt. *history.History
// implements it.
type Recorder interface {
	Add(entry history.Entry) error
}

// Options configures a Coordinator.
type Options struct {
	Commands config.Commands
	// Background is the symlink that points at the current background image.
	Background string
	// Recorder is optional.
	Recorder Recorder
}

// Coordinator runs set, install, remove and bg-next against the system.
type Coordinator struct {
	resolver   *resolver.Resolver
	runner     command.Runner
	cmds       config.Commands
	background string
	recorder   Recorder
}

// New returns a Coordinator that resolves themes with res and runs the
// mutating commands through runner.
func New(res *resolver.Resolver, runner command.Runner, opts Options) *Coordinator {
	return &Coordinator{
		resolver:   res,
		runner:     runner,
		cmds:       opts.Commands,
		background: opts.Background,
		recorder:   opts.Recorder,
	}
}

// Set activates an installed theme. Blank names fail with ErrEmptyName for
// every mutation. A theme that is not installed yields a
// NeedsInstall report, and a theme that is already active yields an
// Unchanged report without running the set command.
func (c *Coordinator) Set(ctx context.Context, query string) (Report, error) {
	if strings.TrimSpace(query) == "" {
		return Report{Operation: OpSet, Query: query}, ErrEmptyName
	}
	start := time.Now()
	rep, err := c.set(ctx, query)
	c.record(ctx, OpSet, query, start, rep, err)
	return rep, err
}

func (c *Coordinator) set(ctx context.Context, query string) (Report, error) {
	rep := Report{Operation: OpSet, Query: query}
	st := c.resolver.State()

	res, err := c.resolver.ResolveInstalled(ctx, query)
	if errors.Is(err, resolver.ErrNotInstalled) {
		rep.NeedsInstall = true
		rep.Message = fmt.Sprintf("Theme '%s' is not installed.", query)
		if rec, ferr := c.resolver.Catalog().FindByName(query); ferr == nil {
			rep.Record, rep.Known, rep.Theme = rec, true, rec.Name
			if rec.Installable() {
				rep.Message += fmt.Sprintf(" Install '%s' first, then set it.", rec.Name)
			}
		}
		return rep, nil
	}
	if err != nil {
		return rep, err
	}
	rep.Record, rep.Known, rep.Theme = res.Record, res.Known, res.InstalledName

	before, err := st.CurrentTheme(ctx)
	if err != nil {
		return rep, err
	}
	// Both checks are kept: the raw query against the current name, and the
	// resolved name against the current name.
	if match.Matches(query, before) || match.Matches(res.Record.Name, before) {
		rep.Outcome = OutcomeUnchanged
		rep.Message = fmt.Sprintf("Theme '%s' is already the current theme.", before)
		return rep, nil
	}

	out, err := c.runner.Run(ctx, c.cmds.Set, res.InstalledName)
	if err != nil {
		return rep, err
	}
	after, err := st.CurrentTheme(ctx)
	if err != nil {
		return rep, err
	}

	rep.Outcome, rep.Detail = classify(before, after, out)
	if rep.Failed() {
		rep.Message = fmt.Sprintf("Failed to set theme '%s': %s", res.InstalledName, rep.Detail)
	} else {
		rep.Message = fmt.Sprintf("Theme set to '%s'.", res.InstalledName)
	}
	pslog.Ctx(ctx).Info("theme set", "theme", res.InstalledName, "before", before, "after", after, "outcome", rep.Outcome.String())
	return rep, nil
}

// Install installs a catalog theme from its repository. Unknown themes fail
// with catalog.ErrNotFound, entries without a repository with
// ErrNotInstallable and installed themes with ErrAlreadyInstalled.
func (c *Coordinator) Install(ctx context.Context, query string) (Report, error) {
	if strings.TrimSpace(query) == "" {
		return Report{Operation: OpInstall, Query: query}, ErrEmptyName
	}
	start := time.Now()
	rep, err := c.install(ctx, query)
	c.record(ctx, OpInstall, query, start, rep, err)
	return rep, err
}

func (c *Coordinator) install(ctx context.Context, query string) (Report, error) {
	rep := Report{Operation: OpInstall, Query: query}

	rec, err := c.resolver.Catalog().FindByName(query)
	if err != nil {
		return rep, err
	}
	rep.Record, rep.Known, rep.Theme = rec, true, rec.Name
	// Checked before any state is read so that uninstallable entries never
	// reach the external tools.
	if !rec.Installable() {
		return rep, &ThemeError{Theme: query, Err: ErrNotInstallable}
	}

	res, err := c.resolver.ResolveCatalog(ctx, query)
	if err != nil {
		return rep, err
	}
	if res.Status.Installed() {
		return rep, &ThemeError{Theme: query, Err: ErrAlreadyInstalled}
	}

	before := res.CurrentTheme
	out, err := c.runner.Run(ctx, c.cmds.Install, rec.RepoURL)
	if err != nil {
		return rep, err
	}
	after, err := c.resolver.State().CurrentTheme(ctx)
	if err != nil {
		return rep, err
	}

	rep.Outcome, rep.Detail = classify(before, after, out)
	if rep.Failed() {
		rep.Message = fmt.Sprintf("Failed to install theme '%s': %s", rec.Name, rep.Detail)
	} else {
		rep.Message = fmt.Sprintf("Theme '%s' installed.", rec.Name)
	}
	pslog.Ctx(ctx).Info("theme install", "theme", rec.Name, "repo", rec.RepoURL, "outcome", rep.Outcome.String())
	return rep, nil
}

// Remove uninstalls an extra theme. A query that names neither an installed
// extra nor a catalog theme fails with catalog.ErrNotFound. Catalog themes
// that are not installed extras get a NotExtra report listing the removable
// themes, and the remove command is not run.
func (c *Coordinator) Remove(ctx context.Context, query string) (Report, error) {
	if strings.TrimSpace(query) == "" {
		return Report{Operation: OpRemove, Query: query}, ErrEmptyName
	}
	start := time.Now()
	rep, err := c.remove(ctx, query)
	c.record(ctx, OpRemove, query, start, rep, err)
	return rep, err
}

func (c *Coordinator) remove(ctx context.Context, query string) (Report, error) {
	rep := Report{Operation: OpRemove, Query: query}
	st := c.resolver.State()

	extras, err := st.ExtraThemeNames()
	if err != nil {
		return rep, err
	}
	target, err := removalTarget(c.resolver.Catalog(), extras, query)
	if err != nil {
		return rep, err
	}
	if rec, ok := c.resolver.Catalog().Lookup(target); ok {
		rep.Record, rep.Known = rec, true
	}
	if target == "" {
		rep.NotExtra = true
		rep.Message = notExtraMessage(query, extras)
		return rep, nil
	}
	rep.Theme = target

	out, err := c.runner.Run(ctx, c.cmds.Remove, target)
	if err != nil {
		return rep, err
	}
	if out.Stderr != "" {
		rep.Message = out.Stderr
		rep.Detail = strings.TrimSpace(out.Stderr)
		rep.Outcome = OutcomeApplied
		after, err := st.ExtraThemeNames()
		if err != nil {
			return rep, err
		}
		if match.NewSet(after).Has(target) {
			rep.Outcome = OutcomeFailed
		}
		return rep, nil
	}
	if err := out.Err(); err != nil {
		return rep, err
	}
	rep.Outcome = OutcomeApplied
	rep.Message = strings.TrimSpace(out.Stdout)
	if rep.Message == "" {
		rep.Message = "OK"
	}
	pslog.Ctx(ctx).Info("theme removed", "theme", target)
	return rep, nil
}

// removalTarget finds the extra theme a remove query refers to: an exact
// name first, then the first extra equal to the catalog entry for query or
// containing query. A query that is neither an extra nor in the catalog is a
// *catalog.NotFoundError.
func removalTarget(cat *catalog.Catalog, extras []string, query string) (string, error) {
	for _, name := range extras {
		if name == query {
			return name, nil
		}
	}
	rec, err := cat.FindByName(query)
	if err != nil {
		return "", err
	}
	for _, name := range extras {
		if match.Equal(rec.Name, name) || match.Matches(query, name) {
			return name, nil
		}
	}
	return "", nil
}

func notExtraMessage(query string, extras []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Theme '%s' is not an installed extra theme:", query)
	if len(extras) == 0 {
		b.WriteString(" no extra themes are installed")
		return b.String()
	}
	for _, name := range extras {
		b.WriteString("\n  ")
		b.WriteString(name)
	}
	return b.String()
}

// NextBackground switches to the next background of the current theme and
// reports the image it now points at.
func (c *Coordinator) NextBackground(ctx context.Context) (Report, error) {
	start := time.Now()
	rep, err := c.nextBackground(ctx)
	c.record(ctx, OpBgNext, "", start, rep, err)
	return rep, err
}

func (c *Coordinator) nextBackground(ctx context.Context) (Report, error) {
	rep := Report{Operation: OpBgNext}
	if _, err := command.Output(ctx, c.runner, c.cmds.BgNext); err != nil {
		return rep, err
	}
	rep.Outcome = OutcomeApplied
	if c.background != "" {
		if p, err := filepath.EvalSymlinks(c.background); err == nil {
			rep.Background = p
		} else {
			pslog.Ctx(ctx).Debug("background not resolvable", "path", c.background, "err", err)
		}
	}
	if rep.Background != "" {
		rep.Message = fmt.Sprintf("Background switched to %s.", filepath.Base(rep.Background))
	} else {
		rep.Message = "Background switched."
	}
	return rep, nil
}

// classify compares the current theme before and after a mutating command.
// An unchanged theme together with error output is a failure; everything
// else counts as applied.
func classify(before, after string, out command.Result) (Outcome, string) {
	detail := strings.TrimSpace(out.Stderr)
	if detail == "" && out.ExitCode != 0 {
		detail = strings.TrimSpace(out.Stdout)
	}
	if before == after && detail != "" {
		return OutcomeFailed, detail
	}
	return OutcomeApplied, ""
}

func (c *Coordinator) record(ctx context.Context, op Operation, query string, start time.Time, rep Report, err error) {
	if c.recorder == nil {
		return
	}
	e := history.Entry{
		Operation:  string(op),
		Query:      query,
		Theme:      rep.Theme,
		Outcome:    rep.Outcome.String(),
		Detail:     rep.Detail,
		DurationMS: time.Since(start).Milliseconds(),
		IsError:    rep.Failed(),
	}
	switch {
	case err != nil:
		e.Outcome, e.Detail, e.IsError = "error", err.Error(), true
	case rep.NeedsInstall:
		e.Outcome = "needs-install"
	case rep.NotExtra:
		e.Outcome = "not-extra"
	}
	if rerr := c.recorder.Add(e); rerr != nil {
		pslog.Ctx(ctx).Warn("history record failed", "op", string(op), "err", rerr)
	}
}
