package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sadopc/omatheme/internal/catalog"
	"github.com/sadopc/omatheme/internal/command"
	"github.com/sadopc/omatheme/internal/command/commandtest"
	"github.com/sadopc/omatheme/internal/config"
	"github.com/sadopc/omatheme/internal/history"
	"github.com/sadopc/omatheme/internal/mutation"
	"github.com/sadopc/omatheme/internal/preview"
	"github.com/sadopc/omatheme/internal/resolver"
)

var testCmds = config.Commands{
	Current: "theme-current",
	List:    "theme-list",
	Set:     "theme-set",
	Install: "theme-install",
	Remove:  "theme-remove",
	BgNext:  "theme-bg-next",
}

type fakeFetcher struct {
	urls []string
	err  error
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (preview.Image, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return preview.Image{}, f.err
	}
	return preview.Image{Data: []byte("img"), Format: preview.FormatFromURL(url)}, nil
}

type testEnv struct {
	current   string
	installed []string
	fake      *commandtest.Fake
	fetcher   *fakeFetcher
	svc       *Service
}

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.ThemeRecord{
		{Name: "Tokyo Night", Scheme: catalog.SchemeDark, PreviewURL: "https://example.com/tokyo-night.png"},
		{Name: "Rose Pine", Scheme: catalog.SchemeLight, RepoURL: "https://github.com/x/omarchy-rose-pine-theme", PreviewURL: "https://example.com/rose-pine.JPG"},
		{Name: "Nord", Scheme: catalog.SchemeDark},
	})
}

func newTestEnv(t *testing.T, hist HistoryStore) *testEnv {
	t.Helper()
	env := &testEnv{
		current:   "nord",
		installed: []string{"nord", "tokyo-night"},
		fake:      commandtest.New(),
		fetcher:   &fakeFetcher{},
	}
	env.fake.Handle(testCmds.Current, func([]string) command.Result {
		return command.Result{Stdout: env.current + "\n"}
	})
	env.fake.Handle(testCmds.List, func([]string) command.Result {
		return command.Result{Stdout: strings.Join(env.installed, "\n")}
	})
	env.fake.Handle(testCmds.Set, func(args []string) command.Result {
		env.current = args[0]
		return command.Result{}
	})
	env.fake.Handle(testCmds.Install, func([]string) command.Result {
		env.installed = append(env.installed, "rose-pine")
		env.current = "rose-pine"
		return command.Result{}
	})
	env.svc = New(Deps{
		Catalog:   testCatalog(),
		Runner:    env.fake,
		Commands:  testCmds,
		ThemesDir: t.TempDir(),
		Fetcher:   env.fetcher,
		History:   hist,
	})
	return env
}

func TestListCanInstallLight(t *testing.T) {
	env := newTestEnv(t, nil)
	light := catalog.SchemeLight

	got, err := env.svc.List(context.Background(), resolver.FilterCanInstall, &light)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got != "Rose Pine" {
		t.Errorf("List() = %q, want %q", got, "Rose Pine")
	}
}

func TestCurrent(t *testing.T) {
	env := newTestEnv(t, nil)
	got, err := env.svc.Current(context.Background())
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if got != "nord" {
		t.Errorf("Current() = %q, want %q", got, "nord")
	}
}

func TestSetAttachesPreview(t *testing.T) {
	env := newTestEnv(t, nil)

	res, err := env.svc.Set(context.Background(), "tokyo")
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if res.Outcome != mutation.OutcomeApplied {
		t.Fatalf("Outcome = %v, want applied", res.Outcome)
	}
	if res.Image == nil || res.Image.Format != "png" {
		t.Fatalf("Image = %+v, want png preview", res.Image)
	}
	if len(env.fetcher.urls) != 1 || env.fetcher.urls[0] != "https://example.com/tokyo-night.png" {
		t.Errorf("fetched %v", env.fetcher.urls)
	}
}

func TestSetPreviewFailureKeepsResult(t *testing.T) {
	env := newTestEnv(t, nil)
	env.fetcher.err = &preview.FetchError{URL: "https://example.com/tokyo-night.png", StatusCode: 404}

	res, err := env.svc.Set(context.Background(), "tokyo")
	if err != nil {
		t.Fatalf("Set() error = %v, want text-only result", err)
	}
	if res.Image != nil {
		t.Error("Image should be nil after a failed download")
	}
	if res.Outcome != mutation.OutcomeApplied || env.current != "tokyo-night" {
		t.Errorf("Outcome = %v, current = %q", res.Outcome, env.current)
	}
}

func TestSetUnchangedSkipsPreview(t *testing.T) {
	env := newTestEnv(t, nil)

	res, err := env.svc.Set(context.Background(), "Nord")
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if res.Outcome != mutation.OutcomeUnchanged || res.Image != nil {
		t.Errorf("result = %+v, want unchanged without image", res)
	}
	if len(env.fetcher.urls) != 0 {
		t.Errorf("fetched %v, want nothing", env.fetcher.urls)
	}
}

func TestInstallAttachesPreview(t *testing.T) {
	env := newTestEnv(t, nil)

	res, err := env.svc.Install(context.Background(), "rose")
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if res.Image == nil || res.Image.Format != "jpg" {
		t.Errorf("Image = %+v, want jpg preview", res.Image)
	}
}

func TestInstallErrorsPassThrough(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.svc.Install(context.Background(), "nord")
	if !errors.Is(err, mutation.ErrNotInstallable) {
		t.Errorf("Install(nord) error = %v, want ErrNotInstallable", err)
	}
	_, err = env.svc.Install(context.Background(), "gruvbox")
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("Install(gruvbox) error = %v, want ErrNotFound", err)
	}
}

func TestPreview(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		env := newTestEnv(t, nil)
		img, rec, err := env.svc.Preview(context.Background(), "rose")
		if err != nil {
			t.Fatalf("Preview() error = %v", err)
		}
		if rec.Name != "Rose Pine" || img.Format != "jpg" {
			t.Errorf("Preview() = %+v, %+v", img, rec)
		}
	})

	t.Run("no preview url", func(t *testing.T) {
		env := newTestEnv(t, nil)
		_, _, err := env.svc.Preview(context.Background(), "nord")
		if !errors.Is(err, preview.ErrNoPreview) {
			t.Errorf("Preview() error = %v, want ErrNoPreview", err)
		}
	})

	t.Run("download failure", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.fetcher.err = &preview.FetchError{URL: "u", StatusCode: 500}
		_, _, err := env.svc.Preview(context.Background(), "tokyo")
		var fe *preview.FetchError
		if !errors.As(err, &fe) || fe.StatusCode != 500 {
			t.Errorf("Preview() error = %v, want *preview.FetchError", err)
		}
	})
}

func TestNextBackgroundLoadsImage(t *testing.T) {
	env := newTestEnv(t, nil)
	dir := t.TempDir()
	img := filepath.Join(dir, "1-dunes.jpg")
	if err := os.WriteFile(img, []byte("jpeg-bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	link := filepath.Join(dir, "background")
	if err := os.Symlink(img, link); err != nil {
		t.Fatalf("Symlink() error = %v", err)
	}
	env.fake.Stdout(testCmds.BgNext, "")
	env.svc = New(Deps{
		Catalog:    testCatalog(),
		Runner:     env.fake,
		Commands:   testCmds,
		ThemesDir:  dir,
		Background: link,
	})

	res, err := env.svc.NextBackground(context.Background())
	if err != nil {
		t.Fatalf("NextBackground() error = %v", err)
	}
	if res.Image == nil || string(res.Image.Data) != "jpeg-bytes" || res.Image.Format != "jpg" {
		t.Errorf("Image = %+v", res.Image)
	}
}

func TestHistoryDisabled(t *testing.T) {
	env := newTestEnv(t, nil)
	if _, err := env.svc.History(10, ""); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("History() error = %v, want ErrHistoryDisabled", err)
	}
}

func TestHistoryRecordsMutations(t *testing.T) {
	h, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("history.Open() error = %v", err)
	}
	defer h.Close()
	env := newTestEnv(t, h)
	ctx := context.Background()

	env.svc.Set(ctx, "tokyo")
	env.svc.Remove(ctx, "nord")

	entries, err := env.svc.History(10, "")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("History() returned %d entries, want 2", len(entries))
	}
	ops := map[string]string{}
	for _, e := range entries {
		ops[e.Operation] = e.Outcome
	}
	if ops["set"] != "applied" || ops["remove"] != "not-extra" {
		t.Errorf("recorded outcomes = %v", ops)
	}

	found, err := env.svc.History(10, "%tokyo%")
	if err != nil {
		t.Fatalf("History(pattern) error = %v", err)
	}
	if len(found) != 1 || found[0].Theme != "tokyo-night" {
		t.Errorf("History(%%tokyo%%) = %+v", found)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ThemesDir = filepath.Join(dir, "themes")
	cfg.History.Path = filepath.Join(dir, "history.db")
	cfg.Audit.Enabled = true
	cfg.Audit.Path = filepath.Join(dir, "audit.jsonl")

	svc, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer svc.Close()

	if svc.Catalog().Len() == 0 {
		t.Error("Open() loaded an empty built-in catalog")
	}
	entries, err := svc.History(5, "")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("History() = %d entries, want 0", len(entries))
	}
	if _, err := os.Stat(cfg.Audit.Path); err != nil {
		t.Errorf("audit log not created: %v", err)
	}
}

func TestOpenBadCatalog(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Catalog = filepath.Join(t.TempDir(), "missing.json")
	cfg.History.Enabled = false

	if _, err := Open(context.Background(), cfg); err == nil {
		t.Fatal("Open() with a missing catalog should fail")
	}
}

// openFDsTo counts this process's file descriptors that refer to path.
func openFDsTo(t *testing.T, path string) int {
	t.Helper()
	fds, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skipf("cannot list open files: %v", err)
	}
	if real, err := filepath.EvalSymlinks(path); err == nil {
		path = real
	}
	n := 0
	for _, fd := range fds {
		if target, err := os.Readlink(filepath.Join("/proc/self/fd", fd.Name())); err == nil && target == path {
			n++
		}
	}
	return n
}

func TestOpenFailureClosesAuditLog(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "")

	cfg := config.DefaultConfig()
	cfg.ThemesDir = filepath.Join(dir, "themes")
	cfg.Audit.Enabled = true
	cfg.Audit.Path = filepath.Join(dir, "audit.jsonl")
	cfg.History.Enabled = true
	cfg.History.Path = ""

	if _, err := Open(context.Background(), cfg); err == nil {
		t.Fatal("Open() without a config dir for the history should fail")
	}
	if _, err := os.Stat(cfg.Audit.Path); err != nil {
		t.Fatalf("audit log was not opened: %v", err)
	}
	if n := openFDsTo(t, cfg.Audit.Path); n != 0 {
		t.Errorf("audit log still open %d time(s) after failed Open", n)
	}
}
