// Package commandtest provides a scriptable command.Runner for tests.
package commandtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/sadopc/omatheme/internal/command"
)

// Call records one invocation.
type Call struct {
	Name string
	Args []string
}

// HandlerFunc produces the result for one invocation.
type HandlerFunc func(args []string) command.Result

// Fake is a command.Runner whose responses are set per command name.
// Commands without a handler exit 127 with "command not found".
type Fake struct {
	mu       sync.Mutex
	handlers map[string]HandlerFunc
	calls    []Call
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{handlers: make(map[string]HandlerFunc)}
}

// Handle registers fn for command name.
func (f *Fake) Handle(name string, fn HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[name] = fn
}

// Stdout registers a handler that always prints out and exits 0.
func (f *Fake) Stdout(name, out string) {
	f.Handle(name, func([]string) command.Result { return command.Result{Stdout: out} })
}

// Run implements command.Runner.
func (f *Fake) Run(ctx context.Context, name string, args ...string) (command.Result, error) {
	if err := ctx.Err(); err != nil {
		return command.Result{}, err
	}
	f.mu.Lock()
	f.calls = append(f.calls, Call{Name: name, Args: append([]string(nil), args...)})
	fn := f.handlers[name]
	f.mu.Unlock()

	if fn == nil {
		return command.Result{Name: name, Args: args, ExitCode: 127, Stderr: fmt.Sprintf("%s: command not found", name)}, nil
	}
	res := fn(args)
	res.Name, res.Args = name, args
	return res, nil
}

// Calls returns a copy of the recorded invocations.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo returns the invocations of command name.
func (f *Fake) CallsTo(name string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}
