// Package runner executes the external CLI tools the deploy pipeline drives
// (docker, aws) with context and timeout discipline. Secrets are passed on
// stdin, never on argv.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/avezina/shiplift/internal/logging"
)

// Runner abstracts subprocess execution so callers can be tested against a
// scripted fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
	RunStdin(ctx context.Context, stdin, name string, args ...string) (string, error)
}

// Exec is the production Runner. A zero Timeout means the command is bounded
// only by ctx.
type Exec struct {
	Timeout time.Duration
	Dir     string
	Log     logging.Logger
}

var _ Runner = &Exec{}

func New(log logging.Logger) *Exec {
	return &Exec{Timeout: 15 * time.Minute, Log: log}
}

func (e *Exec) Run(ctx context.Context, name string, args ...string) (string, error) {
	return e.run(ctx, "", name, args...)
}

func (e *Exec) RunStdin(ctx context.Context, stdin, name string, args ...string) (string, error) {
	return e.run(ctx, stdin, name, args...)
}

func (e *Exec) run(ctx context.Context, stdin, name string, args ...string) (string, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.Dir
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.Log.Debug("exec", "command", name, "args", strings.Join(args, " "))
	start := time.Now()
	err := cmd.Run()
	e.Log.Debug("exec done", "command", name, "duration", time.Since(start).String(), "error", err != nil)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
			if errors.Is(ctxErr, context.DeadlineExceeded) && e.Timeout > 0 {
				err = fmt.Errorf("command timed out after %s", e.Timeout)
			}
		}
		return stdout.String(), formatError(name, args, err, stderr.String())
	}
	return stdout.String(), nil
}

func formatError(name string, args []string, cause error, stderr string) error {
	cmd := name
	if len(args) > 0 {
		cmd += " " + strings.Join(args, " ")
	}
	stderr = strings.TrimSpace(stderr)
	if stderr != "" {
		return fmt.Errorf("%s: %w: %s", cmd, cause, stderr)
	}
	return fmt.Errorf("%s: %w", cmd, cause)
}
