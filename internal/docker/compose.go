// compose.go drives compose stacks through the docker CLI's compose
// plugin. devdock never talks to compose through an API: every operation
// is a "<binary> compose -f <file> ..." child process.
package docker

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/shinji-kodama/devdock/internal/model"
)

// runFunc runs a command to completion and returns its combined output.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// attachFunc runs a command with the caller's stdio attached.
type attachFunc func(ctx context.Context, name string, args ...string) error

// exitCoder is implemented by *exec.ExitError.
type exitCoder interface {
	ExitCode() int
}

// ComposeRunner runs docker compose subcommands.
type ComposeRunner struct {
	binary string
	logger *zap.Logger
	run    runFunc
	attach attachFunc
}

// NewComposeRunner returns a runner that invokes "<binary> compose".
// An empty binary means "docker"; a nil logger disables logging.
func NewComposeRunner(binary string, logger *zap.Logger) *ComposeRunner {
	if binary == "" {
		binary = "docker"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComposeRunner{
		binary: binary,
		logger: logger,
		run:    combinedOutput,
		attach: attachStdio,
	}
}

// Binary returns the executable the runner invokes.
func (r *ComposeRunner) Binary() string {
	return r.binary
}

// Up starts the stack detached: "compose -f file up -d [services...]".
// With no services, every service in the file is started.
func (r *ComposeRunner) Up(ctx context.Context, file string, services ...string) error {
	args := buildComposeArgs(file)
	args = append(args, "up", "-d")
	args = append(args, services...)
	return r.runChecked(ctx, "start compose services", args)
}

// Down stops and removes the stack's containers and networks.
func (r *ComposeRunner) Down(ctx context.Context, file string) error {
	args := buildComposeArgs(file)
	args = append(args, "down")
	return r.runChecked(ctx, "stop compose services", args)
}

// Exec runs argv in a service container without a TTY and returns the
// combined output. Like Client.Exec, a command that exits non-zero is
// reported through ExitCode rather than as an error.
func (r *ComposeRunner) Exec(ctx context.Context, file, service string, argv []string) (*model.ExecResult, error) {
	args := buildComposeArgs(file)
	args = append(args, "exec", "-T", service)
	args = append(args, argv...)

	r.logger.Debug("running compose", zap.String("binary", r.binary), zap.Strings("args", args))
	out, err := r.run(ctx, r.binary, args...)
	if err != nil {
		var ec exitCoder
		if errors.As(err, &ec) && ec.ExitCode() > 0 {
			return &model.ExecResult{ExitCode: ec.ExitCode(), Output: string(out)}, nil
		}
		return nil, model.NewEngineFailure("run compose exec", strings.TrimSpace(string(out)), err)
	}
	return &model.ExecResult{Output: string(out)}, nil
}

// Shell opens an interactive shell in a service container with the
// caller's stdio attached. "-T" disables the pseudo-TTY when stdin is not a
// terminal.
func (r *ComposeRunner) Shell(ctx context.Context, file, service, shell string) error {
	args := buildComposeArgs(file)
	args = append(args, "exec")
	if !stdinIsTerminal() {
		args = append(args, "-T")
	}
	if shell == "" {
		shell = DefaultShell
	}
	args = append(args, service, shell)

	if err := r.attach(ctx, r.binary, args...); err != nil {
		return model.NewEngineFailure("open shell in service "+service, "", err)
	}
	return nil
}

// buildComposeArgs returns the arguments shared by every compose call.
func buildComposeArgs(file string) []string {
	return []string{"compose", "-f", file}
}

// runChecked runs a compose command and turns a failure into a
// model.EngineFailure carrying the process output.
func (r *ComposeRunner) runChecked(ctx context.Context, op string, args []string) error {
	r.logger.Debug("running compose", zap.String("binary", r.binary), zap.Strings("args", args))

	out, err := r.run(ctx, r.binary, args...)
	if err != nil {
		return model.NewEngineFailure(op, strings.TrimSpace(string(out)), err)
	}
	return nil
}

func combinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = os.Environ()
	return cmd.CombinedOutput()
}

func attachStdio(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
