package command

import (
	"context"
	"time"

	"github.com/sadopc/omatheme/internal/audit"
)

// Audited wraps a Runner so every invocation is written to the audit log.
// A nil logger returns r unchanged.
func Audited(r Runner, log *audit.Logger) Runner {
	if log == nil {
		return r
	}
	return &auditedRunner{next: r, log: log}
}

type auditedRunner struct {
	next Runner
	log  *audit.Logger
}

func (a *auditedRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	res, err := a.next.Run(ctx, name, args...)
	e := audit.Entry{
		Timestamp:  time.Now(),
		Command:    name,
		Args:       args,
		ExitCode:   res.ExitCode,
		DurationMS: res.Duration.Milliseconds(),
		Stderr:     res.Stderr,
		IsError:    err != nil || res.ExitCode != 0,
	}
	if err != nil && e.Stderr == "" {
		e.Stderr = err.Error()
	}
	a.log.Log(e)
	return res, err
}
