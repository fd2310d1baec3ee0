// Package executor runs accepted commands in the user's shell.
package executor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/ports"
)

// LocalExecutor runs commands on the host shell. The command string is passed
// verbatim as a single `-c` argument, never split into argv.
type LocalExecutor struct {
	shell  string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Option configures a LocalExecutor.
type Option func(*LocalExecutor)

// WithStreams mirrors the command's output to the given writers while it runs.
func WithStreams(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(e *LocalExecutor) {
		e.stdin = stdin
		e.stdout = stdout
		e.stderr = stderr
	}
}

// NewLocalExecutor builds a new executor. An empty shell defers to $SHELL and then /bin/sh.
func NewLocalExecutor(shell string, opts ...Option) *LocalExecutor {
	e := &LocalExecutor{shell: ResolveShell(shell)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ResolveShell picks the binary used for `-c`.
func ResolveShell(shell string) string {
	if shell != "" {
		return shell
	}
	if env := os.Getenv("SHELL"); env != "" {
		return env
	}
	if runtime.GOOS == "windows" {
		return "cmd"
	}
	return "/bin/sh"
}

// Shell returns the shell binary in use.
func (e *LocalExecutor) Shell() string {
	return e.shell
}

// Execute implements ports.CommandExecutor. A non-zero exit is reported in
// the result, not as an error; the error return is for commands that never started.
func (e *LocalExecutor) Execute(ctx context.Context, command string) (domain.ExecutionResult, error) {
	c := exec.CommandContext(ctx, e.shell, shellFlag(e.shell), command)
	var stdout, stderr bytes.Buffer
	c.Stdout = tee(&stdout, e.stdout)
	c.Stderr = tee(&stderr, e.stderr)
	if e.stdin != nil {
		c.Stdin = e.stdin
	}

	start := time.Now()
	err := c.Run()
	result := domain.ExecutionResult{
		Ran:        true,
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		DurationMS: time.Since(start).Milliseconds(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return result, nil
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
		result.Err = err
		return result, nil
	default:
		result.Ran = false
		result.ExitCode = -1
		result.Err = err
		return result, err
	}
}

func shellFlag(shell string) string {
	if runtime.GOOS == "windows" && (shell == "cmd" || shell == "cmd.exe") {
		return "/C"
	}
	return "-c"
}

func tee(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}

var _ ports.CommandExecutor = (*LocalExecutor)(nil)
