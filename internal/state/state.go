// Package state reads the installed theme state of the running system. Every
// call goes to the external tools or the filesystem; nothing is cached because
// other programs can change the active or installed themes at any time.
package state

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sadopc/omatheme/internal/command"
	"github.com/sadopc/omatheme/internal/config"
	"github.com/sadopc/omatheme/internal/match"
)

// Reader queries the current and installed themes.
type Reader struct {
	runner    command.Runner
	cmds      config.Commands
	themesDir string
}

// NewReader returns a Reader that runs cmds through runner and treats real
// directories under themesDir as extra themes.
func NewReader(runner command.Runner, cmds config.Commands, themesDir string) *Reader {
	return &Reader{runner: runner, cmds: cmds, themesDir: themesDir}
}

// CurrentTheme returns the name of the active theme.
func (r *Reader) CurrentTheme(ctx context.Context) (string, error) {
	out, err := command.Output(ctx, r.runner, r.cmds.Current)
	if err != nil {
		return "", fmt.Errorf("current theme: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// InstalledThemes returns the installed theme names in the order the list
// command reports them.
func (r *Reader) InstalledThemes(ctx context.Context) ([]string, error) {
	out, err := command.Output(ctx, r.runner, r.cmds.List)
	if err != nil {
		return nil, fmt.Errorf("installed themes: %w", err)
	}
	var names []string
	for _, line := range strings.Split(out, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// ExtraThemeNames lists the user-installed themes: directories under the
// extras location that are not symbolic links. A missing location yields an
// empty result.
func (r *Reader) ExtraThemeNames() ([]string, error) {
	entries, err := os.ReadDir(r.themesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("extra themes: %w", err)
	}
	var names []string
	for _, e := range entries {
		// DirEntry types come from lstat, so a symlinked directory is not IsDir.
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// BuiltInThemeNames returns the installed themes that are not extras.
func (r *Reader) BuiltInThemeNames(ctx context.Context) ([]string, error) {
	installed, err := r.InstalledThemes(ctx)
	if err != nil {
		return nil, err
	}
	extra, err := r.ExtraThemeNames()
	if err != nil {
		return nil, err
	}
	return builtIn(installed, extra), nil
}

// Snapshot is one read of the whole installed state.
type Snapshot struct {
	Current   string
	Installed []string
	Extra     []string
}

// Snapshot reads the current theme, the installed list and the extras.
func (r *Reader) Snapshot(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	var err error
	if s.Current, err = r.CurrentTheme(ctx); err != nil {
		return Snapshot{}, err
	}
	if s.Installed, err = r.InstalledThemes(ctx); err != nil {
		return Snapshot{}, err
	}
	if s.Extra, err = r.ExtraThemeNames(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// BuiltIn returns the installed themes that are not extras, in installed order.
func (s Snapshot) BuiltIn() []string {
	return builtIn(s.Installed, s.Extra)
}

func builtIn(installed, extra []string) []string {
	extras := match.NewSet(extra)
	var out []string
	for _, name := range installed {
		if !extras.Has(name) {
			out = append(out, name)
		}
	}
	return out
}
