// Package command runs the external omarchy theme tools as argument-vector
// subprocesses and captures their output.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"pkt.systems/pslog"
)

// Result is the captured outcome of one command invocation.
type Result struct {
	Name     string
	Args     []string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Err returns an *Error when the command exited non-zero, nil otherwise.
func (r Result) Err() error {
	if r.ExitCode == 0 {
		return nil
	}
	return &Error{Name: r.Name, ExitCode: r.ExitCode, Stdout: r.Stdout, Stderr: r.Stderr}
}

// Error reports a command that exited with a non-zero status.
type Error struct {
	Name     string
	ExitCode int
	Stdout   string
	Stderr   string
}

// Detail is the captured error output, or standard output when the error
// stream was empty.
func (e *Error) Detail() string {
	if d := strings.TrimSpace(e.Stderr); d != "" {
		return d
	}
	return strings.TrimSpace(e.Stdout)
}

func (e *Error) Error() string {
	return fmt.Sprintf("command %s failed (exit %d): %s", filepath.Base(e.Name), e.ExitCode, e.Detail())
}

// Runner starts an external command and waits for it. A non-zero exit is not
// an error from Run; callers inspect Result.ExitCode or Result.Err. Run only
// fails when the process could not be started or waited on.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Env is the complete environment passed to children.
	Env []string
	// Dir is the working directory; empty means the current directory.
	Dir string
}

// NewExecRunner returns a runner with the session environment the omarchy
// tools expect, running from the user's home directory.
func NewExecRunner(omarchyPath string) *ExecRunner {
	home, _ := os.UserHomeDir()
	return &ExecRunner{
		Env: Environment(os.Environ(), home, omarchyPath, os.Getuid()),
		Dir: home,
	}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	log := pslog.Ctx(ctx).With("cmd", filepath.Base(name), "args", strings.Join(args, " "))
	log.Debug("command start")

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = r.Env
	cmd.Dir = r.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Name:     name,
		Args:     args,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		log.Warn("command could not run", "err", err)
		return res, fmt.Errorf("command %s: %w", filepath.Base(name), err)
	}

	if res.ExitCode != 0 {
		log.Warn("command failed", "exit", res.ExitCode, "stderr", preview(res.Stderr))
	} else {
		log.Debug("command ok", "stdout_len", len(res.Stdout), "stderr_len", len(res.Stderr), "duration", res.Duration)
	}
	return res, nil
}

// Output runs a read-only command and returns its standard output. A non-zero
// exit becomes an *Error.
func Output(ctx context.Context, r Runner, name string, args ...string) (string, error) {
	res, err := r.Run(ctx, name, args...)
	if err != nil {
		return "", err
	}
	if err := res.Err(); err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// Environment returns base with the variables the omarchy tools and the
// Wayland session helpers they spawn rely on. Existing values are kept.
func Environment(base []string, home, omarchyPath string, uid int) []string {
	env := make([]string, len(base), len(base)+6)
	copy(env, base)
	set := make(map[string]bool, len(base))
	for _, kv := range base {
		if k, _, ok := strings.Cut(kv, "="); ok {
			set[k] = true
		}
	}
	add := func(k, v string) {
		if !set[k] && v != "" {
			env = append(env, k+"="+v)
			set[k] = true
		}
	}
	runtimeDir := fmt.Sprintf("/run/user/%d", uid)
	add("HOME", home)
	add("OMARCHY_PATH", omarchyPath)
	add("XDG_RUNTIME_DIR", runtimeDir)
	add("WAYLAND_DISPLAY", "wayland-1")
	add("DBUS_SESSION_BUS_ADDRESS", "unix:path="+runtimeDir+"/bus")
	return env
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
