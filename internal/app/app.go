// Package app exposes the theme operations behind one Service. It wires the
// catalog, the installed-state reader, the mutation coordinator, the preview
// fetcher and the change history together; the CLI and the picker only talk to
// a Service.
package app

import (
	"context"
	"errors"
	"fmt"

	"pkt.systems/pslog"

	"github.com/sadopc/omatheme/internal/audit"
	"github.com/sadopc/omatheme/internal/catalog"
	"github.com/sadopc/omatheme/internal/command"
	"github.com/sadopc/omatheme/internal/config"
	"github.com/sadopc/omatheme/internal/history"
	"github.com/sadopc/omatheme/internal/mutation"
	"github.com/sadopc/omatheme/internal/preview"
	"github.com/sadopc/omatheme/internal/resolver"
	"github.com/sadopc/omatheme/internal/state"
)

// ErrHistoryDisabled is returned by History when no change history is kept.
var ErrHistoryDisabled = errors.New("change history is disabled")

// HistoryStore is the part of *history.History the service uses.
type HistoryStore interface {
	mutation.Recorder
	Recent(limit int) ([]history.Entry, error)
	Search(pattern string, limit int) ([]history.Entry, error)
}

// Deps are the collaborators of a Service.
type Deps struct {
	Catalog    *catalog.Catalog
	Runner     command.Runner
	Commands   config.Commands
	ThemesDir  string
	Background string
	Fetcher    preview.Fetcher
	// History is optional.
	History HistoryStore
}

// Service runs theme operations.
type Service struct {
	resolver *resolver.Resolver
	coord    *mutation.Coordinator
	fetcher  preview.Fetcher
	history  HistoryStore
	closers  []func() error
}

// New returns a Service over deps.
func New(deps Deps) *Service {
	st := state.NewReader(deps.Runner, deps.Commands, deps.ThemesDir)
	res := resolver.New(deps.Catalog, st)
	opts := mutation.Options{Commands: deps.Commands, Background: deps.Background}
	if deps.History != nil {
		opts.Recorder = deps.History
	}
	return &Service{
		resolver: res,
		coord:    mutation.New(res, deps.Runner, opts),
		fetcher:  deps.Fetcher,
		history:  deps.History,
	}
}

// Open builds a Service from cfg: the configured or built-in catalog, the
// omarchy command runner (audited when enabled), the preview fetcher and the
// change history (when enabled). Close releases what Open acquired.
func Open(ctx context.Context, cfg *config.Config) (_ *Service, err error) {
	log := pslog.Ctx(ctx)

	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	var closers []func() error
	defer func() {
		if err != nil {
			closeAll(closers)
		}
	}()

	var runner command.Runner = command.NewExecRunner(cfg.OmarchyPath)
	if cfg.Audit.Enabled {
		path, err := cfg.AuditPath()
		if err != nil {
			return nil, err
		}
		auditLog, err := audit.New(path, cfg.Audit.MaxSizeMB)
		if err != nil {
			// The audit log is optional; run without it.
			log.Warn("audit log unavailable", "path", path, "err", err)
		} else {
			runner = command.Audited(runner, auditLog)
			closers = append(closers, auditLog.Close)
		}
	}

	deps := Deps{
		Catalog:    cat,
		Runner:     runner,
		Commands:   cfg.ResolveCommands(),
		ThemesDir:  cfg.ThemesDir,
		Background: cfg.CurrentBackground,
		Fetcher:    preview.NewHTTPFetcher(cfg.Preview.Timeout),
	}
	if cfg.History.Enabled {
		path, err := cfg.HistoryPath()
		if err != nil {
			return nil, err
		}
		h, err := history.Open(path)
		if err != nil {
			log.Warn("change history unavailable", "path", path, "err", err)
		} else {
			deps.History = h
			closers = append(closers, h.Close)
		}
	}

	svc := New(deps)
	svc.closers = closers
	log.Debug("service ready", "themes", cat.Len(), "history", deps.History != nil, "audit", cfg.Audit.Enabled)
	return svc, nil
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Catalog == "" {
		return catalog.Default()
	}
	return catalog.Load(cfg.Catalog)
}

// Close releases the history database and the audit log.
func (s *Service) Close() error {
	err := closeAll(s.closers)
	s.closers = nil
	return err
}

func closeAll(closers []func() error) error {
	var errs []error
	for _, c := range closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// HistoryEnabled reports whether changes are being recorded.
func (s *Service) HistoryEnabled() bool { return s.history != nil }

// Catalog returns the theme catalog.
func (s *Service) Catalog() *catalog.Catalog { return s.resolver.Catalog() }

// Entries returns the themes selected by filter and scheme.
func (s *Service) Entries(ctx context.Context, filter resolver.Filter, scheme *catalog.Scheme) ([]resolver.Entry, error) {
	return s.resolver.List(ctx, filter, scheme)
}

// List returns the column-aligned rendering of the selected themes.
func (s *Service) List(ctx context.Context, filter resolver.Filter, scheme *catalog.Scheme) (string, error) {
	entries, err := s.Entries(ctx, filter, scheme)
	if err != nil {
		return "", err
	}
	return resolver.Render(entries), nil
}

// Current returns the active theme name.
func (s *Service) Current(ctx context.Context) (string, error) {
	return s.resolver.State().CurrentTheme(ctx)
}

// Result is a mutation report plus the image that goes with it, if any.
type Result struct {
	mutation.Report
	// Image is nil when there is nothing to show or it could not be loaded.
	Image *preview.Image
}

// Set activates an installed theme. On success the theme's preview image is
// attached when the catalog has one.
func (s *Service) Set(ctx context.Context, name string) (Result, error) {
	rep, err := s.coord.Set(ctx, name)
	if err != nil {
		return Result{Report: rep}, err
	}
	return s.withPreview(ctx, rep), nil
}

// Install installs a catalog theme. On success the theme's preview image is
// attached when the catalog has one.
func (s *Service) Install(ctx context.Context, name string) (Result, error) {
	rep, err := s.coord.Install(ctx, name)
	if err != nil {
		return Result{Report: rep}, err
	}
	return s.withPreview(ctx, rep), nil
}

// withPreview fetches the preview for an applied mutation. A failed download
// does not undo the mutation, so it is logged and the text result returned.
func (s *Service) withPreview(ctx context.Context, rep mutation.Report) Result {
	res := Result{Report: rep}
	if rep.Outcome != mutation.OutcomeApplied || !rep.Known || rep.Record.PreviewURL == "" || s.fetcher == nil {
		return res
	}
	img, err := s.fetcher.Fetch(ctx, rep.Record.PreviewURL)
	if err != nil {
		pslog.Ctx(ctx).Warn("preview after mutation failed", "theme", rep.Theme, "err", err)
		return res
	}
	res.Image = &img
	return res
}

// Preview downloads the preview image of a catalog theme. Download failures
// are returned.
func (s *Service) Preview(ctx context.Context, name string) (preview.Image, catalog.ThemeRecord, error) {
	rec, err := s.resolver.Catalog().FindByName(name)
	if err != nil {
		return preview.Image{}, catalog.ThemeRecord{}, err
	}
	if rec.PreviewURL == "" || s.fetcher == nil {
		return preview.Image{}, rec, fmt.Errorf("%s: %w", rec.Name, preview.ErrNoPreview)
	}
	img, err := s.fetcher.Fetch(ctx, rec.PreviewURL)
	if err != nil {
		return preview.Image{}, rec, err
	}
	return img, rec, nil
}

// Remove uninstalls an extra theme.
func (s *Service) Remove(ctx context.Context, name string) (mutation.Report, error) {
	return s.coord.Remove(ctx, name)
}

// NextBackground switches the background and attaches the new image.
func (s *Service) NextBackground(ctx context.Context) (Result, error) {
	rep, err := s.coord.NextBackground(ctx)
	if err != nil {
		return Result{Report: rep}, err
	}
	res := Result{Report: rep}
	if rep.Background == "" {
		return res, nil
	}
	img, err := preview.ReadFile(rep.Background)
	if err != nil {
		pslog.Ctx(ctx).Warn("background image unreadable", "path", rep.Background, "err", err)
		return res, nil
	}
	res.Image = &img
	return res, nil
}

// History returns the most recent recorded changes. A non-empty pattern
// filters by theme or query using SQL LIKE syntax.
func (s *Service) History(limit int, pattern string) ([]history.Entry, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	if pattern != "" {
		return s.history.Search(pattern, limit)
	}
	return s.history.Recent(limit)
}
