package execx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
)

// Command defines a command specification.
type Command struct {
	Args      []string
	ExtraVars []string
	Dir       string
	Stdout    io.Writer
	Stderr    io.Writer
}

// Process is a running command fed through its standard input.
type Process struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	name  string
}

// Pipe starts the command with a pipe connected to its standard input. Writes block
// while the pipe buffer is full. When Stdout is an *os.File the process writes to it
// directly. The process is not tied to ctx and runs until Close.
func Pipe(ctx context.Context, opts Command) (*Process, error) {
	if len(opts.Args) == 0 {
		return nil, errors.New("empty command")
	}
	slog.DebugContext(ctx, "exec",
		slog.Any("cmd", opts.Args),
		slog.Any("extra-vars", opts.ExtraVars),
		slog.String("cwd", opts.Dir))

	cmd := exec.Command(opts.Args[0], opts.Args[1:]...)
	cmd.Env = append(os.Environ(), opts.ExtraVars...)
	cmd.Dir = opts.Dir
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, NewExecutionError(err, "stdin pipe")
	}
	if err := cmd.Start(); err != nil {
		return nil, NewExecutionError(err, opts.Args[0])
	}

	return &Process{cmd: cmd, stdin: stdin, name: opts.Args[0]}, nil
}

func (p *Process) Write(b []byte) (int, error) {
	return p.stdin.Write(b)
}

// Close closes the input pipe and waits for the process to exit.
// A non-zero exit status is returned as *ExecutionError.
func (p *Process) Close() error {
	closeErr := p.stdin.Close()
	if err := p.cmd.Wait(); err != nil {
		execErr := &ExecutionError{Inner: err, Message: p.name, ExitCode: -1}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			execErr.ExitCode = exitErr.ExitCode()
		}
		return execErr
	}
	if closeErr != nil {
		return fmt.Errorf("close stdin of %s: %w", p.name, closeErr)
	}
	return nil
}
